package spdx

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCheckReturnsEveryRequirementOnSuccess(t *testing.T) {
	reqs, err := Check(mitOrApache, []Requirement{{ID: apacheID}})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	want := []Requirement{{ID: "MIT"}, {ID: apacheID}}
	if diff := cmp.Diff(want, reqs); diff != "" {
		t.Fatalf("unexpected requirements (-want +got):\n%s", diff)
	}
}

func TestCheckAndFailsWithUnmetRequirement(t *testing.T) {
	_, err := Check("MIT AND Apache-2.0", []Requirement{{ID: apacheID}})
	if !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed, got %v", err)
	}
	var notAllowed *LicenseNotAllowedError
	if !errors.As(err, &notAllowed) {
		t.Fatalf("expected LicenseNotAllowedError, got %T", err)
	}
	if diff := cmp.Diff([]Requirement{{ID: "MIT"}}, notAllowed.Failed); diff != "" {
		t.Fatalf("unexpected failed requirements (-want +got):\n%s", diff)
	}
	want := "None of the following licenses were allowed in the `allowed_licenses` configuration: MIT"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestCheckListsFailuresInEncounterOrder(t *testing.T) {
	_, err := Check("(GPL-3.0-only OR MPL-2.0) AND Apache-2.0 WITH LLVM-exception", nil)
	want := "None of the following licenses were allowed in the `allowed_licenses` configuration: GPL-3.0-only, MPL-2.0, Apache-2.0 WITH LLVM-exception"
	if err == nil || err.Error() != want {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCheckExceptionMustMatchAllowList(t *testing.T) {
	if _, err := Check("Apache-2.0 WITH LLVM-exception", []Requirement{{ID: apacheID}}); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected bare Apache-2.0 not to allow the LLVM exception variant, got %v", err)
	}
	allowed := []Requirement{{ID: apacheID, Exception: llvmExcID}}
	if _, err := Check("apache-2.0 with llvm-exception", allowed); err != nil {
		t.Fatalf("expected exception variant to be allowed: %v", err)
	}
}

func TestCheckPropagatesParseErrors(t *testing.T) {
	if _, err := Check("MIT AND", []Requirement{{ID: "MIT"}}); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
