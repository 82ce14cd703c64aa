package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// SUBSCRIPTION PLANS
// ============================================================================

// OrganizationSubscription mirrors the billing processor's view of an org.
// Webhook handling lives outside this service; this row is what the rest of
// the product consults when enforcing plan limits.
type OrganizationSubscription struct {
	ID               uuid.UUID     `json:"id" db:"id"`
	OrganizationID   uuid.UUID     `json:"organization_id" db:"organization_id"`
	Tier             PlanTier      `json:"tier" db:"tier"`
	PaymentStatus    PaymentStatus `json:"payment_status" db:"payment_status"`
	PropertyLimit    int           `json:"property_limit" db:"property_limit"`
	CertificateLimit int           `json:"certificate_limit" db:"certificate_limit"`
	PeriodEnd        *time.Time    `json:"period_end,omitempty" db:"period_end"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// PlanLimits returns the property and certificate ceilings for a tier.
// Enterprise is effectively unlimited.
func PlanLimits(tier PlanTier) (properties, certificates int) {
	switch tier {
	case PlanStarter:
		return 5, 100
	case PlanProfessional:
		return 50, 2000
	case PlanEnterprise:
		return 1_000_000, 1_000_000
	}
	return 0, 0
}

// CanUpload reports whether the subscription permits another certificate.
func (s *OrganizationSubscription) CanUpload(currentCertificates int) bool {
	if s.PaymentStatus == PaymentCanceled || s.PaymentStatus == PaymentPastDue {
		return false
	}
	return currentCertificates < s.CertificateLimit
}
