package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// REQUIREMENT TEMPLATES
// ============================================================================

// CoverageRequirement is one required coverage line in a template: the
// minimum amount and the denomination it must be expressed in. A statutory
// limit type carries no numeric minimum.
type CoverageRequirement struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	TemplateID   uuid.UUID    `json:"template_id" db:"template_id"`
	CoverageType CoverageType `json:"coverage_type" db:"coverage_type"`
	MinAmount    float64      `json:"min_amount" db:"min_amount"`
	LimitType    LimitType    `json:"limit_type" db:"limit_type"`
	DisplayOrder int          `json:"display_order" db:"display_order"`
}

// RequirementTemplate is the configured minimum coverage and endorsement set
// an entity of one type must satisfy. A property + entity-type pair resolves
// to at most one active template; resolution happens upstream of the engine.
type RequirementTemplate struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	PropertyID     *uuid.UUID `json:"property_id,omitempty" db:"property_id"`
	Name           string     `json:"name" db:"name"`
	EntityType     EntityType `json:"entity_type" db:"entity_type"`
	IsDefault      bool       `json:"is_default" db:"is_default"`
	Active         bool       `json:"active" db:"active"`

	Coverages []CoverageRequirement `json:"coverages" db:"-"`

	RequireAdditionalInsured      bool `json:"require_additional_insured" db:"require_additional_insured"`
	RequireWaiverOfSubrogation    bool `json:"require_waiver_of_subrogation" db:"require_waiver_of_subrogation"`
	RequirePrimaryNonContributory bool `json:"require_primary_non_contributory" db:"require_primary_non_contributory"`
	MinCancellationNoticeDays     int  `json:"min_cancellation_notice_days" db:"min_cancellation_notice_days"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	CreatedBy *string   `json:"created_by,omitempty" db:"created_by"`
}

// HasRequirements reports whether the template demands anything at all.
// Coverage lines with a non-positive minimum and a non-statutory limit type
// do not count: a negative or zero floor cannot be under-specified.
func (t *RequirementTemplate) HasRequirements() bool {
	for _, c := range t.Coverages {
		if c.LimitType == LimitStatutory || c.MinAmount > 0 {
			return true
		}
	}
	return t.RequireAdditionalInsured ||
		t.RequireWaiverOfSubrogation ||
		t.RequirePrimaryNonContributory ||
		t.MinCancellationNoticeDays > 0
}
