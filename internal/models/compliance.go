package models

import (
	"sort"
	"time"
)

// ============================================================================
// COMPLIANCE EVALUATION OUTPUT
// ============================================================================

// FieldKind distinguishes coverage-amount checks from endorsement checks in
// a compliance result.
type FieldKind string

const (
	FieldCoverage           FieldKind = "coverage"
	FieldAdditionalInsured  FieldKind = "additional_insured"
	FieldWaiverSubrogation  FieldKind = "waiver_of_subrogation"
	FieldPrimaryNonContrib  FieldKind = "primary_non_contributory"
	FieldCancellationNotice FieldKind = "cancellation_notice"
)

// ComplianceField is the atomic verdict for one requirement: what was
// required, what was extracted, whether it passes, and a human-readable
// reason when it does not.
type ComplianceField struct {
	Kind         FieldKind     `json:"kind"`
	CoverageType *CoverageType `json:"coverage_type,omitempty"`
	Required     string        `json:"required"`
	Extracted    string        `json:"extracted"`
	Compliant    bool          `json:"compliant"`

	// Caveat marks a field that passes but was extracted with low
	// confidence; it still counts as compliant for status derivation.
	Caveat bool `json:"caveat,omitempty"`

	Expired bool    `json:"expired,omitempty"`
	Reason  *string `json:"reason,omitempty"`
}

// ComplianceIssue is one renderable problem with a severity. The issue list
// is what the review screen and notification copy are built from.
type ComplianceIssue struct {
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// ComplianceResult aggregates every field verdict for one
// certificate-against-template evaluation. It is recomputed on demand and
// cached by callers, never treated as a first-class persisted record.
type ComplianceResult struct {
	EntityType     EntityType        `json:"entity_type"`
	Fields         []ComplianceField `json:"fields"`
	Issues         []ComplianceIssue `json:"issues"`
	NoRequirements bool              `json:"no_requirements,omitempty"`

	// EarliestExpiration is the earliest expiration date across the
	// selected coverage rows, nil when no row carries one. Status
	// derivation uses it together with the certificate's own date.
	EarliestExpiration *time.Time `json:"earliest_expiration,omitempty"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// NonCompliantCount counts failing fields. Caveat fields are compliant and
// do not count.
func (r *ComplianceResult) NonCompliantCount() int {
	n := 0
	for _, f := range r.Fields {
		if !f.Compliant {
			n++
		}
	}
	return n
}

// HasExpiredField reports whether any field failed because its policy had
// already expired.
func (r *ComplianceResult) HasExpiredField() bool {
	for _, f := range r.Fields {
		if f.Expired {
			return true
		}
	}
	return false
}

// SortIssues orders the issue list by descending severity, preserving the
// original order within a severity, so callers render and notify
// deterministically.
func (r *ComplianceResult) SortIssues() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		return r.Issues[i].Severity.Rank() > r.Issues[j].Severity.Rank()
	})
}
