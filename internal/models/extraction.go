package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// EXTRACTED COVERAGE & ENTITY ROWS (IMMUTABLE PER EXTRACTION)
// ============================================================================

// ExtractedCoverage is one coverage line found on a certificate. Rows are
// written once per extraction event and never mutated; a re-extraction
// inserts a fresh set under a new extraction run id.
type ExtractedCoverage struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	CertificateID uuid.UUID    `json:"certificate_id" db:"certificate_id"`
	ExtractionRun uuid.UUID    `json:"extraction_run" db:"extraction_run"`
	CoverageType  CoverageType `json:"coverage_type" db:"coverage_type"`
	CarrierName   *string      `json:"carrier_name,omitempty" db:"carrier_name"`
	PolicyNumber  *string      `json:"policy_number,omitempty" db:"policy_number"`

	// LimitAmount is nil when the certificate expresses the limit
	// non-numerically (e.g. "Statutory" workers comp).
	LimitAmount *float64  `json:"limit_amount,omitempty" db:"limit_amount"`
	LimitType   LimitType `json:"limit_type" db:"limit_type"`
	LimitText   *string   `json:"limit_text,omitempty" db:"limit_text"`

	EffectiveDate  *time.Time `json:"effective_date,omitempty" db:"effective_date"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty" db:"expiration_date"`

	AdditionalInsuredListed  bool     `json:"additional_insured_listed" db:"additional_insured_listed"`
	AdditionalInsuredNames   []string `json:"additional_insured_names,omitempty" db:"-"`
	WaiverOfSubrogation      bool     `json:"waiver_of_subrogation" db:"waiver_of_subrogation"`
	PrimaryNonContributory   bool     `json:"primary_non_contributory" db:"primary_non_contributory"`
	CancellationNoticeDays   *int     `json:"cancellation_notice_days,omitempty" db:"cancellation_notice_days"`

	Confidence ConfidenceLevel `json:"confidence" db:"confidence"`
	SourceText *string         `json:"source_text,omitempty" db:"source_text"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// HasAnyLimit reports whether the row carries any evidence of a limit at all,
// numeric or textual. Statutory requirements are satisfied by presence.
func (c *ExtractedCoverage) HasAnyLimit() bool {
	if c.LimitAmount != nil {
		return true
	}
	return c.LimitText != nil && *c.LimitText != ""
}

// IsExpiredAt reports whether the policy's expiration date has passed.
// A row without an expiration date is not considered expired.
func (c *ExtractedCoverage) IsExpiredAt(now time.Time) bool {
	return c.ExpirationDate != nil && c.ExpirationDate.Before(now)
}

// ExtractedEntity is one named party found on a certificate (holder,
// additional insured, insured, producer).
type ExtractedEntity struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	CertificateID uuid.UUID           `json:"certificate_id" db:"certificate_id"`
	ExtractionRun uuid.UUID           `json:"extraction_run" db:"extraction_run"`
	Name          string              `json:"name" db:"name"`
	Address       *string             `json:"address,omitempty" db:"address"`
	Role          ExtractedEntityRole `json:"role" db:"role"`
	Confidence    ConfidenceLevel     `json:"confidence" db:"confidence"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
}
