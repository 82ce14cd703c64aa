package services

import (
	"context"
	"fmt"

	"coi-service/internal/models"

	"github.com/google/uuid"
)

// templateSource is the slice of the template repository the resolver needs.
type templateSource interface {
	GetActiveForProperty(ctx context.Context, propertyID uuid.UUID, entityType models.EntityType) (*models.RequirementTemplate, error)
	GetOrganizationDefault(ctx context.Context, orgID uuid.UUID, entityType models.EntityType) (*models.RequirementTemplate, error)
}

// TemplateResolver picks which requirement template governs a party:
// property-specific first, then the organization default, then none.
type TemplateResolver struct {
	templates templateSource
}

func NewTemplateResolver(templates templateSource) *TemplateResolver {
	return &TemplateResolver{templates: templates}
}

// Resolve returns the governing template for a party, or nil when neither a
// property-specific template nor an organization default exists. Callers
// treat nil as "no requirements configured", not as an error.
func (t *TemplateResolver) Resolve(ctx context.Context, orgID, propertyID uuid.UUID, entityType models.EntityType) (*models.RequirementTemplate, error) {
	tmpl, err := t.templates.GetActiveForProperty(ctx, propertyID, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to load property template: %w", err)
	}
	if tmpl != nil {
		return tmpl, nil
	}

	tmpl, err = t.templates.GetOrganizationDefault(ctx, orgID, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization default template: %w", err)
	}
	return tmpl, nil
}
