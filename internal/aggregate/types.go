package aggregate

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMissingLicense = errors.New("package has no license")

type MissingLicenseError struct {
	Name string
}

func (e *MissingLicenseError) Error() string {
	return fmt.Sprintf("Package %s does not have a license", e.Name)
}

func (e *MissingLicenseError) Unwrap() error {
	return ErrMissingLicense
}

// Package is what a collector reports for one externally sourced dependency.
type Package struct {
	Ecosystem  string
	Name       string
	Version    string
	License    *string
	SourceDir  string
	PackageURL string
	Authors    []string
}

// Dependency is one row of the generated notices documents.
type Dependency struct {
	Name       string   `json:"name"`
	PackageURL string   `json:"package_url"`
	LicenseID  string   `json:"license_id"`
	Notices    []string `json:"notices"`
}

// LicenseText pairs a rendered requirement with its full text. It encodes as
// the JSON array [id, text].
type LicenseText struct {
	ID   string
	Text string
}

func (l LicenseText) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{l.ID, l.Text})
}

func (l *LicenseText) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode license text: %w", err)
	}
	l.ID, l.Text = pair[0], pair[1]
	return nil
}
