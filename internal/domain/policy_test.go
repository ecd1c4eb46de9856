package domain

import (
	"errors"
	"testing"
)

func TestSubmissionPolicyValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultSubmissionPolicy().Validate(); err != nil {
		t.Fatalf("Expected default policy to be valid, got %v", err)
	}

	bad := SubmissionPolicy{LatenessBasis: "whenever"}
	if err := bad.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for unknown basis, got %v", err)
	}

	inconsistent := SubmissionPolicy{
		AllowResubmitAfterGrading: true,
		LatenessBasis:             LatenessFromOriginal,
	}
	if err := inconsistent.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation when grading override lacks resubmission, got %v", err)
	}
}

func TestRoleIsValid(t *testing.T) {
	t.Parallel()

	for _, r := range []Role{RoleTeacher, RoleStudent} {
		if !r.IsValid() {
			t.Errorf("Expected %q to be valid", r)
		}
	}
	if RoleNone.IsValid() || Role("admin").IsValid() {
		t.Error("Expected only teacher and student to be valid roles")
	}
}
