package report

import (
	"encoding/json"

	"github.com/ben-ranford/notices/internal/aggregate"
)

type jsonDocument struct {
	Dependencies []aggregate.Dependency  `json:"dependencies"`
	Licenses     []aggregate.LicenseText `json:"licenses"`
}

// JSON renders {"dependencies": [...], "licenses": [[id, text], ...]} with
// two-space indentation.
func JSON(deps []aggregate.Dependency, texts []aggregate.LicenseText) ([]byte, error) {
	doc := jsonDocument{Dependencies: deps, Licenses: texts}
	if doc.Dependencies == nil {
		doc.Dependencies = []aggregate.Dependency{}
	}
	if doc.Licenses == nil {
		doc.Licenses = []aggregate.LicenseText{}
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(payload, '\n'), nil
}
