package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coi-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type RequirementTemplateRepository struct {
	db *sqlx.DB
}

func NewRequirementTemplateRepository(db *sqlx.DB) *RequirementTemplateRepository {
	return &RequirementTemplateRepository{db: db}
}

func (r *RequirementTemplateRepository) Create(ctx context.Context, template *models.RequirementTemplate) error {
	slog.Info("Creating requirement template",
		"template_id", template.ID,
		"organization_id", template.OrganizationID,
		"entity_type", template.EntityType,
		"is_default", template.IsDefault,
		"coverage_count", len(template.Coverages))

	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO requirement_template (
			id, organization_id, property_id, name, entity_type, is_default, active,
			require_additional_insured, require_waiver_of_subrogation,
			require_primary_non_contributory, min_cancellation_notice_days,
			created_at, updated_at, created_by
		) VALUES (
			:id, :organization_id, :property_id, :name, :entity_type, :is_default, :active,
			:require_additional_insured, :require_waiver_of_subrogation,
			:require_primary_non_contributory, :min_cancellation_notice_days,
			:created_at, :updated_at, :created_by
		)`
	if _, err := tx.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("failed to create requirement template: %w", err)
	}

	coverageQuery := `
		INSERT INTO coverage_requirement (
			id, template_id, coverage_type, min_amount, limit_type, display_order
		) VALUES ($1, $2, $3, $4, $5, $6)`
	for i, cov := range template.Coverages {
		id := cov.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if _, err := tx.ExecContext(ctx, coverageQuery,
			id, template.ID, cov.CoverageType, cov.MinAmount, cov.LimitType, i); err != nil {
			return fmt.Errorf("failed to create coverage requirement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit requirement template: %w", err)
	}
	return nil
}

func (r *RequirementTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RequirementTemplate, error) {
	var template models.RequirementTemplate
	query := `
		SELECT id, organization_id, property_id, name, entity_type, is_default, active,
		       require_additional_insured, require_waiver_of_subrogation,
		       require_primary_non_contributory, min_cancellation_notice_days,
		       created_at, updated_at, created_by
		FROM requirement_template
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &template, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("requirement template %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requirement template: %w", err)
	}
	if err := r.loadCoverages(ctx, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// GetActiveForProperty returns the active property-specific template for an
// entity type, or nil when none is configured.
func (r *RequirementTemplateRepository) GetActiveForProperty(ctx context.Context, propertyID uuid.UUID, entityType models.EntityType) (*models.RequirementTemplate, error) {
	var template models.RequirementTemplate
	query := `
		SELECT id, organization_id, property_id, name, entity_type, is_default, active,
		       require_additional_insured, require_waiver_of_subrogation,
		       require_primary_non_contributory, min_cancellation_notice_days,
		       created_at, updated_at, created_by
		FROM requirement_template
		WHERE property_id = $1 AND entity_type = $2 AND active = TRUE
		ORDER BY updated_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &template, query, propertyID, entityType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property template: %w", err)
	}
	if err := r.loadCoverages(ctx, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// GetOrganizationDefault returns the active org-wide default template for an
// entity type, or nil when none is configured.
func (r *RequirementTemplateRepository) GetOrganizationDefault(ctx context.Context, orgID uuid.UUID, entityType models.EntityType) (*models.RequirementTemplate, error) {
	var template models.RequirementTemplate
	query := `
		SELECT id, organization_id, property_id, name, entity_type, is_default, active,
		       require_additional_insured, require_waiver_of_subrogation,
		       require_primary_non_contributory, min_cancellation_notice_days,
		       created_at, updated_at, created_by
		FROM requirement_template
		WHERE organization_id = $1 AND entity_type = $2
		      AND is_default = TRUE AND property_id IS NULL AND active = TRUE
		ORDER BY updated_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &template, query, orgID, entityType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default template: %w", err)
	}
	if err := r.loadCoverages(ctx, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *RequirementTemplateRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.RequirementTemplate, error) {
	var templates []models.RequirementTemplate
	query := `
		SELECT id, organization_id, property_id, name, entity_type, is_default, active,
		       require_additional_insured, require_waiver_of_subrogation,
		       require_primary_non_contributory, min_cancellation_notice_days,
		       created_at, updated_at, created_by
		FROM requirement_template
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &templates, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list requirement templates: %w", err)
	}
	for i := range templates {
		if err := r.loadCoverages(ctx, &templates[i]); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (r *RequirementTemplateRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE requirement_template SET active = FALSE, updated_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to deactivate requirement template: %w", err)
	}
	return nil
}

func (r *RequirementTemplateRepository) loadCoverages(ctx context.Context, template *models.RequirementTemplate) error {
	query := `
		SELECT id, template_id, coverage_type, min_amount, limit_type, display_order
		FROM coverage_requirement
		WHERE template_id = $1
		ORDER BY display_order ASC
	`
	if err := r.db.SelectContext(ctx, &template.Coverages, query, template.ID); err != nil {
		return fmt.Errorf("failed to load coverage requirements: %w", err)
	}
	return nil
}
