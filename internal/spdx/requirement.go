// Package spdx parses SPDX license expressions leniently, evaluates them
// against an allow-list of license requirements and resolves the full text of
// a requirement from a license-text corpus.
package spdx

import "strings"

// Requirement is a single license identifier, optionally marked "or later"
// (the trailing "+") and optionally qualified by a WITH exception.
type Requirement struct {
	ID        string
	OrLater   bool
	Exception string
}

// Equal reports structural equality. Identifiers compare case-insensitively
// because SPDX ids are case-insensitive.
func (r Requirement) Equal(other Requirement) bool {
	return strings.EqualFold(r.ID, other.ID) &&
		r.OrLater == other.OrLater &&
		strings.EqualFold(r.Exception, other.Exception)
}

func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.ID)
	if r.OrLater {
		b.WriteByte('+')
	}
	if r.Exception != "" {
		b.WriteString(" WITH ")
		b.WriteString(r.Exception)
	}
	return b.String()
}

// ContainsRequirement reports whether reqs holds a requirement equal to req.
func ContainsRequirement(reqs []Requirement, req Requirement) bool {
	for _, candidate := range reqs {
		if candidate.Equal(req) {
			return true
		}
	}
	return false
}
