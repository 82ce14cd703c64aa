package compliance

import (
	"testing"
	"time"

	"coi-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// STATUS PRIORITY ORDER
// ============================================================================

func TestDeriveStatus_NotRequiredWinsOverEverything(t *testing.T) {
	result := &models.ComplianceResult{
		EntityType:     models.EntityTenant,
		NoRequirements: true,
		Issues: []models.ComplianceIssue{{
			Severity: models.SeverityWarning,
			Message:  "No requirements configured for this tenant.",
		}},
	}

	derivation, err := DeriveStatus(result, datePtr(2025, 1, 1), testNow, 30)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotRequired, derivation.Status)
}

func TestDeriveStatus_ExpiredOverridesCompliant(t *testing.T) {
	result := &models.ComplianceResult{
		EntityType: models.EntityVendor,
		Fields: []models.ComplianceField{
			{Kind: models.FieldCoverage, Compliant: true},
		},
	}

	expiration := datePtr(2025, 6, 13)
	derivation, err := DeriveStatus(result, expiration, testNow, 30)
	require.NoError(t, err)

	assert.Equal(t, models.StatusExpired, derivation.Status)
	assert.Equal(t, 210, derivation.DaysOverdue)
}

func TestDeriveStatus_NonCompliantBeatsExpiring(t *testing.T) {
	reason := "General Liability below requirement: $500,000 (requires $1,000,000)"
	result := &models.ComplianceResult{
		EntityType: models.EntityVendor,
		Fields: []models.ComplianceField{
			{Kind: models.FieldCoverage, Compliant: false, Reason: &reason},
		},
		Issues: []models.ComplianceIssue{{Severity: models.SeverityError, Message: reason}},
	}

	// Expires within the warning window, but the compliance gap is the more
	// actionable signal.
	expiration := datePtr(2026, 1, 19)
	derivation, err := DeriveStatus(result, expiration, testNow, 30)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonCompliant, derivation.Status)
}

func TestDeriveStatus_CaveatFieldsDoNotBlockCompliant(t *testing.T) {
	result := &models.ComplianceResult{
		EntityType: models.EntityVendor,
		Fields: []models.ComplianceField{
			{Kind: models.FieldCoverage, Compliant: true, Caveat: true},
		},
		Issues: []models.ComplianceIssue{{
			Severity: models.SeverityWarning,
			Message:  "Low-confidence extraction for General Liability; please verify",
		}},
	}

	derivation, err := DeriveStatus(result, datePtr(2026, 8, 1), testNow, 30)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompliant, derivation.Status)
}

// The same evaluation result is re-derived on every read (cache hits
// included); the status must track the clock, not the moment the result was
// first computed.
func TestDeriveStatus_SameResultTracksTheClock(t *testing.T) {
	result := &models.ComplianceResult{
		EntityType: models.EntityVendor,
		Fields: []models.ComplianceField{
			{Kind: models.FieldCoverage, Compliant: true},
		},
	}
	expiration := datePtr(2026, 1, 20)

	before, err := DeriveStatus(result, expiration, testNow, 30)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpiring, before.Status)

	after, err := DeriveStatus(result, expiration, testNow.AddDate(0, 0, 15), 30)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, after.Status)
	assert.Equal(t, 4, after.DaysOverdue)
}

func TestDeriveStatus_NowBeforeEpochIsAnError(t *testing.T) {
	result := &models.ComplianceResult{EntityType: models.EntityVendor}
	_, err := DeriveStatus(result, nil, time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), 30)
	assert.Error(t, err)
}

// ============================================================================
// END-TO-END SCENARIOS
// ============================================================================

// Scenario: all four required coverages are present and sufficient, but
// every policy expired 2025-06-13. Expected: expired, 210 days overdue, a
// single aggregated issue.
func TestScenario_AllPoliciesExpired(t *testing.T) {
	engine := NewEngine()
	now := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	expired := datePtr(2025, 6, 13)

	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence),
		requireCoverage(models.CoverageAutomobileLiability, 1_000_000, models.LimitCombinedSingleLimit),
		requireCoverage(models.CoverageWorkersCompensation, 0, models.LimitStatutory),
		requireCoverage(models.CoverageUmbrellaExcess, 1_000_000, models.LimitPerOccurrence))

	statutory := "Statutory"
	wc := models.ExtractedCoverage{
		CoverageType:   models.CoverageWorkersCompensation,
		LimitType:      models.LimitStatutory,
		LimitText:      &statutory,
		Confidence:     models.ConfidenceHigh,
		ExpirationDate: expired,
	}
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, expired),
		extractedCoverage(models.CoverageAutomobileLiability, 1_000_000, models.LimitCombinedSingleLimit, expired),
		wc,
		extractedCoverage(models.CoverageUmbrellaExcess, 1_000_000, models.LimitPerOccurrence, expired),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, now)
	require.NoError(t, err)
	assert.True(t, result.HasExpiredField())

	derivation, err := DeriveStatus(result, expired, now, 30)
	require.NoError(t, err)

	assert.Equal(t, models.StatusExpired, derivation.Status)
	assert.Equal(t, 210, derivation.DaysOverdue)
	require.Len(t, derivation.Issues, 1)
	assert.Equal(t, models.SeverityCritical, derivation.Issues[0].Severity)
	assert.Equal(t, "All policies expired 2025-06-13 (210 days overdue)", derivation.Issues[0].Message)
}

// Scenario: GL extracted at half the required limit.
func TestScenario_BelowRequirement(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 500_000, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	field := fieldFor(t, result, models.CoverageGeneralLiability)
	require.NotNil(t, field.Reason)
	assert.Equal(t, "General Liability below requirement: $500,000 (requires $1,000,000)", *field.Reason)

	derivation, err := DeriveStatus(result, datePtr(2026, 6, 1), testNow, 30)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNonCompliant, derivation.Status)
}

// Scenario: GL is fine but the auto policy expired 106 days ago. The
// certificate-level expiration is the earliest policy date, so the whole
// evaluation reports expired.
func TestScenario_OnePolicyExpired(t *testing.T) {
	engine := NewEngine()
	now := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)

	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence),
		requireCoverage(models.CoverageAutomobileLiability, 1_000_000, models.LimitCombinedSingleLimit))
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
		extractedCoverage(models.CoverageAutomobileLiability, 1_000_000, models.LimitCombinedSingleLimit, datePtr(2025, 9, 25)),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, now)
	require.NoError(t, err)
	assert.True(t, fieldFor(t, result, models.CoverageGeneralLiability).Compliant)
	assert.True(t, result.HasExpiredField())
	require.NotNil(t, result.EarliestExpiration)
	assert.Equal(t, *datePtr(2025, 9, 25), *result.EarliestExpiration)

	derivation, err := DeriveStatus(result, nil, now, 30)
	require.NoError(t, err)

	assert.Equal(t, models.StatusExpired, derivation.Status)
	assert.Equal(t, 106, derivation.DaysOverdue)
	require.Len(t, derivation.Issues, 1)
	assert.Equal(t, "All policies expired 2025-09-25 (106 days overdue)", derivation.Issues[0].Message)
}

// Scenario: template has nothing configured for tenants.
func TestScenario_NoRequirementsConfigured(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityTenant)

	result, err := engine.Evaluate(nil, nil, template, nil, models.EntityTenant, testNow)
	require.NoError(t, err)

	derivation, err := DeriveStatus(result, nil, testNow, 30)
	require.NoError(t, err)

	assert.Equal(t, models.StatusNotRequired, derivation.Status)
	require.Len(t, derivation.Issues, 1)
	assert.Equal(t, models.SeverityWarning, derivation.Issues[0].Severity)
	assert.Equal(t, "No requirements configured for this tenant.", derivation.Issues[0].Message)
}

// Scenario: everything passes but the certificate expires in 10 days with a
// 30-day warning threshold.
func TestScenario_Expiring(t *testing.T) {
	engine := NewEngine()
	now := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	expiration := datePtr(2026, 1, 19)

	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, expiration),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, now)
	require.NoError(t, err)

	derivation, err := DeriveStatus(result, expiration, now, 30)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpiring, derivation.Status)
}

func TestScenario_ExpiringOutsideThresholdIsCompliant(t *testing.T) {
	engine := NewEngine()
	now := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	expiration := datePtr(2026, 6, 1)

	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, expiration),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, now)
	require.NoError(t, err)

	derivation, err := DeriveStatus(result, expiration, now, 30)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompliant, derivation.Status)
}
