// Package aggregate accumulates dependency records and the deduplicated set
// of license requirements they carry.
package aggregate

import (
	"fmt"
	"strings"

	"bitbucket.org/creachadair/stringset"
	"github.com/ben-ranford/notices/internal/config"
	"github.com/ben-ranford/notices/internal/notice"
	"github.com/ben-ranford/notices/internal/spdx"
	"github.com/sirupsen/logrus"
)

// Notices is the aggregate consumed by the renderers. The zero value is ready
// to use. It is not safe for concurrent use.
type Notices struct {
	dependencies []Dependency
	licenses     []spdx.Requirement
}

// AddLicense records req unless a structurally equal requirement is already
// present and reports whether it was added.
func (n *Notices) AddLicense(req spdx.Requirement) bool {
	if spdx.ContainsRequirement(n.licenses, req) {
		return false
	}
	n.licenses = append(n.licenses, req)
	return true
}

func (n *Notices) AppendDependency(dep Dependency) {
	n.dependencies = append(n.dependencies, dep)
}

func (n *Notices) Dependencies() []Dependency {
	out := make([]Dependency, len(n.dependencies))
	copy(out, n.dependencies)
	return out
}

func (n *Notices) Requirements() []spdx.Requirement {
	out := make([]spdx.Requirement, len(n.licenses))
	copy(out, n.licenses)
	return out
}

// AddPackage validates pkg against settings, harvests its notices with
// scanner and records it. Packages named in the ignore list are skipped and
// reported as not added. Nothing is recorded unless every step succeeds.
func (n *Notices) AddPackage(pkg Package, settings config.Settings, scanner notice.Scanner, log logrus.FieldLogger) (bool, error) {
	if settings.Ignores(pkg.Name) {
		log.WithField("package", pkg.Name).Debug("ignoring package")
		return false, nil
	}
	if pkg.License == nil || strings.TrimSpace(*pkg.License) == "" {
		return false, &MissingLicenseError{Name: pkg.Name}
	}
	license := *pkg.License

	reqs, err := spdx.Check(license, settings.AllowedLicenses)
	if err != nil {
		return false, fmt.Errorf("package %s %s: %w", pkg.Name, pkg.Version, err)
	}

	var notices notice.Set
	if len(pkg.Authors) > 0 {
		notices.Add("Authors: " + strings.Join(pkg.Authors, ", "))
	}
	if err := scanner.Scan(pkg.SourceDir, &notices); err != nil {
		return false, fmt.Errorf("scan notices for %s: %w", pkg.Name, err)
	}

	for _, req := range reqs {
		n.AddLicense(req)
	}
	n.AppendDependency(Dependency{
		Name:       pkg.Name,
		PackageURL: pkg.PackageURL,
		LicenseID:  license,
		Notices:    notices.Items(),
	})
	log.WithFields(logrus.Fields{
		"package": pkg.Name,
		"version": pkg.Version,
		"license": license,
		"notices": notices.Len(),
	}).Debug("added package")
	return true, nil
}

// LicenseTexts resolves the text of every recorded requirement in insertion
// order. Requirements that render identically are emitted once.
func (n *Notices) LicenseTexts(p spdx.TextProvider) ([]LicenseText, error) {
	texts := make([]LicenseText, 0, len(n.licenses))
	seen := stringset.NewSize(len(n.licenses))
	for _, req := range n.licenses {
		id := req.String()
		if !seen.Add(id) {
			continue
		}
		text, err := spdx.ResolveText(p, req)
		if err != nil {
			return nil, fmt.Errorf("resolve text for %s: %w", id, err)
		}
		texts = append(texts, LicenseText{ID: id, Text: text})
	}
	return texts, nil
}
