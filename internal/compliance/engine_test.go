package compliance

import (
	"testing"
	"time"

	"coi-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func testTemplate(entityType models.EntityType, coverages ...models.CoverageRequirement) *models.RequirementTemplate {
	return &models.RequirementTemplate{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		Name:           "test template",
		EntityType:     entityType,
		Active:         true,
		Coverages:      coverages,
	}
}

func requireCoverage(ct models.CoverageType, minAmount float64, lt models.LimitType) models.CoverageRequirement {
	return models.CoverageRequirement{
		ID:           uuid.New(),
		CoverageType: ct,
		MinAmount:    minAmount,
		LimitType:    lt,
	}
}

func extractedCoverage(ct models.CoverageType, amount float64, lt models.LimitType, expires *time.Time) models.ExtractedCoverage {
	return models.ExtractedCoverage{
		ID:             uuid.New(),
		CertificateID:  uuid.New(),
		CoverageType:   ct,
		LimitAmount:    &amount,
		LimitType:      lt,
		ExpirationDate: expires,
		Confidence:     models.ConfidenceHigh,
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func fieldFor(t *testing.T, result *models.ComplianceResult, ct models.CoverageType) models.ComplianceField {
	t.Helper()
	for _, f := range result.Fields {
		if f.CoverageType != nil && *f.CoverageType == ct {
			return f
		}
	}
	t.Fatalf("no field for coverage type %s", ct)
	return models.ComplianceField{}
}

var testNow = time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)

// ============================================================================
// COVERAGE AMOUNT COMPARISON
// ============================================================================

func TestEvaluate_AmountMeetsRequirement(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	field := fieldFor(t, result, models.CoverageGeneralLiability)
	assert.True(t, field.Compliant)
	assert.Nil(t, field.Reason)
}

func TestEvaluate_AmountBelowRequirement(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 500_000, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	field := fieldFor(t, result, models.CoverageGeneralLiability)
	assert.False(t, field.Compliant)
	require.NotNil(t, field.Reason)
	assert.Equal(t, "General Liability below requirement: $500,000 (requires $1,000,000)", *field.Reason)
}

func TestEvaluate_AmountMonotonicity(t *testing.T) {
	engine := NewEngine()
	required := 750_000.0
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, required, models.LimitPerOccurrence))

	for _, amount := range []float64{0, 100_000, 749_999, 750_000, 750_001, 5_000_000} {
		coverages := []models.ExtractedCoverage{
			extractedCoverage(models.CoverageGeneralLiability, amount, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
		}
		result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
		require.NoError(t, err)

		field := fieldFor(t, result, models.CoverageGeneralLiability)
		assert.Equal(t, amount >= required, field.Compliant, "amount %.0f against requirement %.0f", amount, required)
	}
}

func TestEvaluate_LimitTypeMismatchFails(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))

	// Aggregate is not assumed to cover per-occurrence even at a higher amount.
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 2_000_000, models.LimitAggregate, datePtr(2026, 6, 1)),
	}
	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	field := fieldFor(t, result, models.CoverageGeneralLiability)
	assert.False(t, field.Compliant)
	require.NotNil(t, field.Reason)
	assert.Contains(t, *field.Reason, "limit type mismatch")
}

func TestEvaluate_UnknownLimitTypeFailsClosed(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 2_000_000, models.LimitOther, datePtr(2026, 6, 1)),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	assert.False(t, fieldFor(t, result, models.CoverageGeneralLiability).Compliant)
}

func TestEvaluate_StatutoryNeverNumericFails(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageWorkersCompensation, 0, models.LimitStatutory))

	statutory := "Statutory"
	row := models.ExtractedCoverage{
		ID:            uuid.New(),
		CoverageType:  models.CoverageWorkersCompensation,
		LimitType:     models.LimitStatutory,
		LimitText:     &statutory,
		Confidence:    models.ConfidenceHigh,
		ExpirationDate: datePtr(2026, 6, 1),
	}

	result, err := engine.Evaluate([]models.ExtractedCoverage{row}, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)
	assert.True(t, fieldFor(t, result, models.CoverageWorkersCompensation).Compliant)

	// A numeric value satisfies a statutory requirement as well.
	numeric := extractedCoverage(models.CoverageWorkersCompensation, 500_000, models.LimitPerOccurrence, datePtr(2026, 6, 1))
	result, err = engine.Evaluate([]models.ExtractedCoverage{numeric}, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)
	assert.True(t, fieldFor(t, result, models.CoverageWorkersCompensation).Compliant)
}

// ============================================================================
// ROW SELECTION
// ============================================================================

func TestEvaluate_TieBreakSelectsHighestAmount(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 500_000, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
		extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	field := fieldFor(t, result, models.CoverageGeneralLiability)
	assert.True(t, field.Compliant, "the $1,000,000 row must be authoritative")
	assert.Equal(t, "$1,000,000 Per Occurrence", field.Extracted)
}

func TestEvaluate_TieBreakPrefersHigherConfidenceThenNewest(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))

	low := extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1))
	low.Confidence = models.ConfidenceLow
	high := extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1))
	high.Confidence = models.ConfidenceHigh

	result, err := engine.Evaluate([]models.ExtractedCoverage{low, high}, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	field := fieldFor(t, result, models.CoverageGeneralLiability)
	assert.True(t, field.Compliant)
	assert.False(t, field.Caveat, "high-confidence row must win the tie")

	// Same amount, same confidence: the most recently added row wins.
	older := extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1))
	older.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2025, 2, 1))
	newer.CreatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	best := selectAuthoritativeRow([]models.ExtractedCoverage{older, newer}, models.CoverageGeneralLiability)
	require.NotNil(t, best)
	assert.Equal(t, newer.ID, best.ID)
}

// ============================================================================
// EXPIRY AND CONFIDENCE
// ============================================================================

func TestEvaluate_ExpiredPolicyFailsRegardlessOfAmount(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 5_000_000, models.LimitPerOccurrence, datePtr(2025, 6, 13)),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	field := fieldFor(t, result, models.CoverageGeneralLiability)
	assert.False(t, field.Compliant)
	assert.True(t, field.Expired)
	require.NotNil(t, field.Reason)
	assert.Equal(t, "Policy expired on 2025-06-13", *field.Reason)
}

func TestEvaluate_LowConfidenceIsCompliantWithCaveat(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	row := extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1))
	row.Confidence = models.ConfidenceLow

	result, err := engine.Evaluate([]models.ExtractedCoverage{row}, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	field := fieldFor(t, result, models.CoverageGeneralLiability)
	assert.True(t, field.Compliant, "caveat fields still count as compliant")
	assert.True(t, field.Caveat)

	require.Len(t, result.Issues, 1)
	assert.Equal(t, models.SeverityWarning, result.Issues[0].Severity)
	assert.Equal(t, "Low-confidence extraction for General Liability; please verify", result.Issues[0].Message)
}

// ============================================================================
// ENDORSEMENTS
// ============================================================================

func TestEvaluate_AdditionalInsuredFlagAloneIsInsufficient(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	template.RequireAdditionalInsured = true

	row := extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1))
	row.AdditionalInsuredListed = true

	result, err := engine.Evaluate([]models.ExtractedCoverage{row}, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	var aiField *models.ComplianceField
	for i := range result.Fields {
		if result.Fields[i].Kind == models.FieldAdditionalInsured {
			aiField = &result.Fields[i]
		}
	}
	require.NotNil(t, aiField)
	assert.False(t, aiField.Compliant)
	require.NotNil(t, aiField.Reason)
	assert.Equal(t, "Additional insured flag present but no matching entity found", *aiField.Reason)

	found := false
	for _, issue := range result.Issues {
		if issue.Message == *aiField.Reason {
			found = true
			assert.Equal(t, models.SeverityWarning, issue.Severity)
		}
	}
	assert.True(t, found)
}

func TestEvaluate_AdditionalInsuredEntityMatch(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	template.RequireAdditionalInsured = true

	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
	}
	entities := []models.ExtractedEntity{{
		ID:         uuid.New(),
		Name:       "Lakeside Property Management, LLC",
		Role:       models.EntityRoleAdditionalInsured,
		Confidence: models.ConfidenceHigh,
	}}
	propertyEntities := []models.PropertyEntity{{
		ID:        uuid.New(),
		LegalName: "Lakeside Property Management LLC",
	}}

	result, err := engine.Evaluate(coverages, entities, template, propertyEntities, models.EntityVendor, testNow)
	require.NoError(t, err)

	for _, f := range result.Fields {
		if f.Kind == models.FieldAdditionalInsured {
			assert.True(t, f.Compliant)
		}
	}
}

func TestEvaluate_AdditionalInsuredMatchesDBA(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	template.RequireAdditionalInsured = true

	dba := "Harborview Commons"
	entities := []models.ExtractedEntity{{
		ID:   uuid.New(),
		Name: "HARBORVIEW COMMONS",
		Role: models.EntityRoleAdditionalInsured,
	}}
	propertyEntities := []models.PropertyEntity{{
		ID:        uuid.New(),
		LegalName: "Harborview Holdings LP",
		DBA:       &dba,
	}}
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
	}

	result, err := engine.Evaluate(coverages, entities, template, propertyEntities, models.EntityVendor, testNow)
	require.NoError(t, err)

	for _, f := range result.Fields {
		if f.Kind == models.FieldAdditionalInsured {
			assert.True(t, f.Compliant)
		}
	}
}

func TestEvaluate_WaiverAndCancellationNotice(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	template.RequireWaiverOfSubrogation = true
	template.MinCancellationNoticeDays = 30

	notice := 10
	row := extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1))
	row.WaiverOfSubrogation = false
	row.CancellationNoticeDays = &notice

	result, err := engine.Evaluate([]models.ExtractedCoverage{row}, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	for _, f := range result.Fields {
		switch f.Kind {
		case models.FieldWaiverSubrogation:
			assert.False(t, f.Compliant)
		case models.FieldCancellationNotice:
			assert.False(t, f.Compliant)
			require.NotNil(t, f.Reason)
			assert.Equal(t, "Cancellation notice below requirement: 10 days (requires 30 days)", *f.Reason)
		}
	}
}

// ============================================================================
// DEGRADED INPUT
// ============================================================================

func TestEvaluate_EmptyEvidenceDegradesPerField(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence),
		requireCoverage(models.CoverageAutomobileLiability, 1_000_000, models.LimitCombinedSingleLimit))
	template.RequireAdditionalInsured = true

	result, err := engine.Evaluate(nil, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)
	require.Len(t, result.Fields, 3)

	for _, f := range result.Fields {
		assert.False(t, f.Compliant)
		require.NotNil(t, f.Reason)
		assert.Equal(t, "No data extracted", *f.Reason)
	}
}

func TestEvaluate_EntitiesWithoutCoveragesStillReportsNoData(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))
	template.RequireAdditionalInsured = true

	entities := []models.ExtractedEntity{
		{ID: uuid.New(), Name: "Acme Property Partners LLC", Role: models.EntityRoleAdditionalInsured, Confidence: models.ConfidenceHigh},
	}
	propertyEntities := []models.PropertyEntity{
		{ID: uuid.New(), LegalName: "Acme Property Partners LLC"},
	}

	result, err := engine.Evaluate(nil, entities, template, propertyEntities, models.EntityVendor, testNow)
	require.NoError(t, err)

	glField := fieldFor(t, result, models.CoverageGeneralLiability)
	assert.False(t, glField.Compliant)
	require.NotNil(t, glField.Reason)
	assert.Equal(t, "No data extracted", *glField.Reason)

	// Extracted entities are evidence for the additional-insured check even
	// when no coverage lines came through.
	for _, f := range result.Fields {
		if f.Kind == models.FieldAdditionalInsured {
			assert.True(t, f.Compliant)
			assert.Equal(t, "Acme Property Partners LLC", f.Extracted)
		}
	}
}

func TestEvaluate_MissingSingleCoverage(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence),
		requireCoverage(models.CoverageAutomobileLiability, 1_000_000, models.LimitCombinedSingleLimit))
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	auto := fieldFor(t, result, models.CoverageAutomobileLiability)
	assert.False(t, auto.Compliant)
	require.NotNil(t, auto.Reason)
	assert.Equal(t, "Missing Automobile Liability", *auto.Reason)
}

func TestEvaluate_NonPositiveRequirementIsNoRequirement(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence),
		requireCoverage(models.CoverageUmbrellaExcess, -500_000, models.LimitPerOccurrence))
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
	}

	result, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)
	require.Len(t, result.Fields, 1, "a negative floor produces no field")
}

func TestEvaluate_ZeroRequirementTemplate(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityTenant)

	result, err := engine.Evaluate(nil, nil, template, nil, models.EntityTenant, testNow)
	require.NoError(t, err)

	assert.True(t, result.NoRequirements)
	assert.Empty(t, result.Fields)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, models.SeverityWarning, result.Issues[0].Severity)
	assert.Equal(t, "No requirements configured for this tenant.", result.Issues[0].Message)
}

// ============================================================================
// CONTRACT VIOLATIONS
// ============================================================================

func TestEvaluate_NilTemplateIsAnError(t *testing.T) {
	engine := NewEngine()
	_, err := engine.Evaluate(nil, nil, nil, nil, models.EntityVendor, testNow)
	assert.Error(t, err)
}

func TestEvaluate_WrongEntityTypeIsAnError(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityTenant,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence))

	_, err := engine.Evaluate(nil, nil, template, nil, models.EntityVendor, testNow)
	assert.Error(t, err)
}

// ============================================================================
// DETERMINISM
// ============================================================================

func TestEvaluate_Deterministic(t *testing.T) {
	engine := NewEngine()
	template := testTemplate(models.EntityVendor,
		requireCoverage(models.CoverageGeneralLiability, 1_000_000, models.LimitPerOccurrence),
		requireCoverage(models.CoverageAutomobileLiability, 1_000_000, models.LimitCombinedSingleLimit))
	template.RequireAdditionalInsured = true
	coverages := []models.ExtractedCoverage{
		extractedCoverage(models.CoverageGeneralLiability, 500_000, models.LimitPerOccurrence, datePtr(2026, 6, 1)),
		extractedCoverage(models.CoverageAutomobileLiability, 1_000_000, models.LimitCombinedSingleLimit, datePtr(2025, 9, 25)),
	}

	first, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)
	second, err := engine.Evaluate(coverages, nil, template, nil, models.EntityVendor, testNow)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	d1, err := DeriveStatus(first, nil, testNow, 30)
	require.NoError(t, err)
	d2, err := DeriveStatus(second, nil, testNow, 30)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}
