package models

type CoverageType string

const (
	CoverageGeneralLiability      CoverageType = "general_liability"
	CoverageAutomobileLiability   CoverageType = "automobile_liability"
	CoverageWorkersCompensation   CoverageType = "workers_compensation"
	CoverageUmbrellaExcess        CoverageType = "umbrella_excess"
	CoverageProfessionalLiability CoverageType = "professional_liability"
	CoverageProperty              CoverageType = "property_insurance"
	CoverageBusinessInterruption  CoverageType = "business_interruption"
)

// AllCoverageTypes lists the closed set in display order. Types outside this
// set never satisfy a requirement.
var AllCoverageTypes = []CoverageType{
	CoverageGeneralLiability,
	CoverageAutomobileLiability,
	CoverageWorkersCompensation,
	CoverageUmbrellaExcess,
	CoverageProfessionalLiability,
	CoverageProperty,
	CoverageBusinessInterruption,
}

func (c CoverageType) IsValid() bool {
	for _, known := range AllCoverageTypes {
		if c == known {
			return true
		}
	}
	return false
}

type LimitType string

const (
	LimitPerOccurrence       LimitType = "per_occurrence"
	LimitAggregate           LimitType = "aggregate"
	LimitCombinedSingleLimit LimitType = "combined_single_limit"
	LimitStatutory           LimitType = "statutory"
	LimitOther               LimitType = "other"
)

func (l LimitType) IsValid() bool {
	switch l {
	case LimitPerOccurrence, LimitAggregate, LimitCombinedSingleLimit, LimitStatutory, LimitOther:
		return true
	}
	return false
}

type EntityType string

const (
	EntityVendor EntityType = "vendor"
	EntityTenant EntityType = "tenant"
)

func (e EntityType) IsValid() bool {
	return e == EntityVendor || e == EntityTenant
}

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Rank gives confidence a total order so extraction tie-breaks are
// deterministic. Unknown values rank below low.
func (c ConfidenceLevel) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

type ComplianceStatus string

const (
	StatusCompliant    ComplianceStatus = "compliant"
	StatusNonCompliant ComplianceStatus = "non_compliant"
	StatusExpiring     ComplianceStatus = "expiring"
	StatusExpired      ComplianceStatus = "expired"
	StatusNotRequired  ComplianceStatus = "not_required"
)

func (s ComplianceStatus) IsValid() bool {
	switch s {
	case StatusCompliant, StatusNonCompliant, StatusExpiring, StatusExpired, StatusNotRequired:
		return true
	default:
		return false
	}
}

type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "critical"
	SeverityError    IssueSeverity = "error"
	SeverityWarning  IssueSeverity = "warning"
)

// Rank gives severities a total order (critical highest) so issue lists can
// be sorted deterministically.
func (s IssueSeverity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

type ExtractedEntityRole string

const (
	EntityRoleCertificateHolder ExtractedEntityRole = "certificate_holder"
	EntityRoleAdditionalInsured ExtractedEntityRole = "additional_insured"
	EntityRoleInsured           ExtractedEntityRole = "insured"
	EntityRoleProducer          ExtractedEntityRole = "producer"
)

type CertificateStatus string

const (
	CertificateUploaded   CertificateStatus = "uploaded"
	CertificateExtracting CertificateStatus = "extracting"
	CertificateExtracted  CertificateStatus = "extracted"
	CertificateReviewed   CertificateStatus = "reviewed"
	CertificateFailed     CertificateStatus = "extraction_failed"
)

type PlanTier string

const (
	PlanStarter      PlanTier = "starter"
	PlanProfessional PlanTier = "professional"
	PlanEnterprise   PlanTier = "enterprise"
)

type PaymentStatus string

const (
	PaymentActive   PaymentStatus = "active"
	PaymentPastDue  PaymentStatus = "past_due"
	PaymentCanceled PaymentStatus = "canceled"
	PaymentTrialing PaymentStatus = "trialing"
)
