package spdx

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotAllowed = errors.New("license not allowed")

// LicenseNotAllowedError lists the requirements of Expression that were not
// in the allow-list.
type LicenseNotAllowedError struct {
	Expression string
	Failed     []Requirement
}

func (e *LicenseNotAllowedError) Error() string {
	names := make([]string, 0, len(e.Failed))
	for _, req := range e.Failed {
		names = append(names, req.String())
	}
	return fmt.Sprintf("None of the following licenses were allowed in the `allowed_licenses` configuration: %s", strings.Join(names, ", "))
}

func (e *LicenseNotAllowedError) Unwrap() error {
	return ErrNotAllowed
}

// Check parses license and evaluates it against allowed. On success it
// returns every requirement of the expression, including those of OR
// branches that were not needed to satisfy it.
func Check(license string, allowed []Requirement) ([]Requirement, error) {
	expr, err := Parse(license)
	if err != nil {
		return nil, err
	}
	evaluation := expr.Evaluate(allowed)
	if !evaluation.Satisfied {
		return nil, &LicenseNotAllowedError{Expression: license, Failed: evaluation.Failures()}
	}
	return expr.Requirements(), nil
}
