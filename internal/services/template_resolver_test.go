package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"coi-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTemplateSource struct {
	propertyTemplates map[uuid.UUID]*models.RequirementTemplate
	orgDefaults       map[uuid.UUID]*models.RequirementTemplate
	err               error
}

func (f *fakeTemplateSource) GetActiveForProperty(_ context.Context, propertyID uuid.UUID, _ models.EntityType) (*models.RequirementTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.propertyTemplates[propertyID], nil
}

func (f *fakeTemplateSource) GetOrganizationDefault(_ context.Context, orgID uuid.UUID, _ models.EntityType) (*models.RequirementTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orgDefaults[orgID], nil
}

func TestTemplateResolver_PropertyTemplateWins(t *testing.T) {
	orgID := uuid.New()
	propertyID := uuid.New()

	propertyTemplate := &models.RequirementTemplate{ID: uuid.New(), Name: "Warehouse vendors"}
	orgDefault := &models.RequirementTemplate{ID: uuid.New(), Name: "Org default", IsDefault: true}

	resolver := NewTemplateResolver(&fakeTemplateSource{
		propertyTemplates: map[uuid.UUID]*models.RequirementTemplate{propertyID: propertyTemplate},
		orgDefaults:       map[uuid.UUID]*models.RequirementTemplate{orgID: orgDefault},
	})

	got, err := resolver.Resolve(context.Background(), orgID, propertyID, models.EntityVendor)
	require.NoError(t, err)
	assert.Equal(t, propertyTemplate.ID, got.ID)
}

func TestTemplateResolver_FallsBackToOrganizationDefault(t *testing.T) {
	orgID := uuid.New()
	orgDefault := &models.RequirementTemplate{ID: uuid.New(), Name: "Org default", IsDefault: true}

	resolver := NewTemplateResolver(&fakeTemplateSource{
		orgDefaults: map[uuid.UUID]*models.RequirementTemplate{orgID: orgDefault},
	})

	got, err := resolver.Resolve(context.Background(), orgID, uuid.New(), models.EntityTenant)
	require.NoError(t, err)
	assert.Equal(t, orgDefault.ID, got.ID)
}

func TestTemplateResolver_NoTemplateAnywhere(t *testing.T) {
	resolver := NewTemplateResolver(&fakeTemplateSource{})

	got, err := resolver.Resolve(context.Background(), uuid.New(), uuid.New(), models.EntityVendor)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTemplateResolver_PropagatesError(t *testing.T) {
	resolver := NewTemplateResolver(&fakeTemplateSource{err: errors.New("connection refused")})

	_, err := resolver.Resolve(context.Background(), uuid.New(), uuid.New(), models.EntityVendor)
	assert.Error(t, err)
}

func TestEarliestExpiration(t *testing.T) {
	d1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	coverages := []models.ExtractedCoverage{
		{ExpirationDate: &d1},
		{ExpirationDate: nil},
		{ExpirationDate: &d2},
	}

	got := earliestExpiration(coverages)
	require.NotNil(t, got)
	assert.Equal(t, d2, *got)

	assert.Nil(t, earliestExpiration(nil))
	assert.Nil(t, earliestExpiration([]models.ExtractedCoverage{{}}))
}
