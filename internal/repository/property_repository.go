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

type PropertyRepository struct {
	db *sqlx.DB
}

func NewPropertyRepository(db *sqlx.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	slog.Info("Creating property",
		"property_id", property.ID,
		"organization_id", property.OrganizationID,
		"name", property.Name)

	property.CreatedAt = time.Now()
	property.UpdatedAt = time.Now()

	query := `
		INSERT INTO property (id, organization_id, name, address, created_at, updated_at)
		VALUES (:id, :organization_id, :name, :address, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, property); err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	query := `
		SELECT id, organization_id, name, address, created_at, updated_at
		FROM property
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &property, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	return &property, nil
}

func (r *PropertyRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]models.Property, error) {
	var properties []models.Property
	query := `
		SELECT id, organization_id, name, address, created_at, updated_at
		FROM property
		WHERE organization_id = $1
		ORDER BY name ASC
	`
	if err := r.db.SelectContext(ctx, &properties, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

func (r *PropertyRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM property WHERE organization_id = $1`, orgID); err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return count, nil
}

// AddEntity registers a legal name/DBA that must appear as additional
// insured on certificates for the property.
func (r *PropertyRepository) AddEntity(ctx context.Context, entity *models.PropertyEntity) error {
	entity.CreatedAt = time.Now()
	query := `
		INSERT INTO property_entity (id, property_id, legal_name, dba, created_at)
		VALUES (:id, :property_id, :legal_name, :dba, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entity); err != nil {
		return fmt.Errorf("failed to add property entity: %w", err)
	}
	return nil
}

func (r *PropertyRepository) GetEntities(ctx context.Context, propertyID uuid.UUID) ([]models.PropertyEntity, error) {
	var entities []models.PropertyEntity
	query := `
		SELECT id, property_id, legal_name, dba, created_at
		FROM property_entity
		WHERE property_id = $1
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &entities, query, propertyID); err != nil {
		return nil, fmt.Errorf("failed to get property entities: %w", err)
	}
	return entities, nil
}

func (r *PropertyRepository) RemoveEntity(ctx context.Context, entityID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM property_entity WHERE id = $1`, entityID); err != nil {
		return fmt.Errorf("failed to remove property entity: %w", err)
	}
	return nil
}
