package domain

import "fmt"

// LatenessBasis selects which timestamp decides lateness after a resubmission.
type LatenessBasis string

// Possible lateness bases.
const (
	// LatenessFromOriginal keeps judging lateness by the first submission time.
	LatenessFromOriginal LatenessBasis = "original"
	// LatenessFromResubmission judges lateness by the latest submission time.
	LatenessFromResubmission LatenessBasis = "resubmission"
)

// IsValid reports whether b is a known lateness basis.
func (b LatenessBasis) IsValid() bool {
	return b == LatenessFromOriginal || b == LatenessFromResubmission
}

// SubmissionPolicy controls whether and how a submission may be replaced.
// A second plain submit is always rejected; replacing content goes through
// Submission.Resubmit, which consults this policy.
type SubmissionPolicy struct {
	AllowResubmission         bool
	AllowResubmitAfterGrading bool
	LatenessBasis             LatenessBasis
}

// DefaultSubmissionPolicy forbids resubmission. Should it be enabled, lateness
// follows the resubmission time.
func DefaultSubmissionPolicy() SubmissionPolicy {
	return SubmissionPolicy{
		AllowResubmission:         false,
		AllowResubmitAfterGrading: false,
		LatenessBasis:             LatenessFromResubmission,
	}
}

// Validate checks the policy is internally consistent.
func (p SubmissionPolicy) Validate() error {
	if !p.LatenessBasis.IsValid() {
		return NewValidationError("lateness_basis", fmt.Sprintf("unknown value %q", p.LatenessBasis), nil)
	}
	if p.AllowResubmitAfterGrading && !p.AllowResubmission {
		return NewValidationError("allow_resubmit_after_grading", "requires resubmission to be allowed", nil)
	}
	return nil
}
