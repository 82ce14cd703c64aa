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

// PartyRepository stores the vendors and tenants whose compliance is
// tracked per property.
type PartyRepository struct {
	db *sqlx.DB
}

func NewPartyRepository(db *sqlx.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

func (r *PartyRepository) Create(ctx context.Context, party *models.ComplianceParty) error {
	slog.Info("Creating compliance party",
		"party_id", party.ID,
		"property_id", party.PropertyID,
		"entity_type", party.EntityType,
		"name", party.Name)

	party.CreatedAt = time.Now()
	party.UpdatedAt = time.Now()
	if party.Status == "" {
		party.Status = models.StatusNonCompliant
	}

	query := `
		INSERT INTO compliance_party (
			id, organization_id, property_id, name, entity_type, contact_email,
			status, days_overdue, status_updated, created_at, updated_at
		) VALUES (
			:id, :organization_id, :property_id, :name, :entity_type, :contact_email,
			:status, :days_overdue, :status_updated, :created_at, :updated_at
		)`
	if _, err := r.db.NamedExecContext(ctx, query, party); err != nil {
		return fmt.Errorf("failed to create compliance party: %w", err)
	}
	return nil
}

func (r *PartyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceParty, error) {
	var party models.ComplianceParty
	query := `
		SELECT id, organization_id, property_id, name, entity_type, contact_email,
		       status, days_overdue, status_updated, created_at, updated_at
		FROM compliance_party
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &party, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("compliance party %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get compliance party: %w", err)
	}
	return &party, nil
}

func (r *PartyRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.ComplianceParty, error) {
	var parties []models.ComplianceParty
	query := `
		SELECT id, organization_id, property_id, name, entity_type, contact_email,
		       status, days_overdue, status_updated, created_at, updated_at
		FROM compliance_party
		WHERE property_id = $1
		ORDER BY name ASC
	`
	if err := r.db.SelectContext(ctx, &parties, query, propertyID); err != nil {
		return nil, fmt.Errorf("failed to list compliance parties: %w", err)
	}
	return parties, nil
}

func (r *PartyRepository) ListByStatus(ctx context.Context, orgID uuid.UUID, status models.ComplianceStatus) ([]models.ComplianceParty, error) {
	var parties []models.ComplianceParty
	query := `
		SELECT id, organization_id, property_id, name, entity_type, contact_email,
		       status, days_overdue, status_updated, created_at, updated_at
		FROM compliance_party
		WHERE organization_id = $1 AND status = $2
		ORDER BY days_overdue DESC NULLS LAST, name ASC
	`
	if err := r.db.SelectContext(ctx, &parties, query, orgID, status); err != nil {
		return nil, fmt.Errorf("failed to list parties by status: %w", err)
	}
	return parties, nil
}

// UpdateStatus records a freshly derived lifecycle status. daysOverdue is
// nil unless the status is expired.
func (r *PartyRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ComplianceStatus, daysOverdue *int) error {
	query := `
		UPDATE compliance_party
		SET status = $1, days_overdue = $2, status_updated = $3, updated_at = $3
		WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, status, daysOverdue, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update party status: %w", err)
	}
	return nil
}
