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

type CertificateRepository struct {
	db *sqlx.DB
}

func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	slog.Info("Creating certificate",
		"certificate_id", cert.ID,
		"property_id", cert.PropertyID,
		"party_id", cert.PartyID,
		"uploaded_via", cert.UploadedVia)

	cert.CreatedAt = time.Now()
	cert.UpdatedAt = time.Now()

	query := `
		INSERT INTO certificate (
			id, organization_id, property_id, party_id, document_url, object_name,
			page_count, status, expiration_date, latest_run, uploaded_via,
			uploaded_by, created_at, updated_at
		) VALUES (
			:id, :organization_id, :property_id, :party_id, :document_url, :object_name,
			:page_count, :status, :expiration_date, :latest_run, :uploaded_via,
			:uploaded_by, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	return nil
}

func (r *CertificateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	var cert models.Certificate
	query := `
		SELECT id, organization_id, property_id, party_id, document_url, object_name,
		       page_count, status, expiration_date, latest_run, uploaded_via,
		       uploaded_by, created_at, updated_at
		FROM certificate
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &cert, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("certificate %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate by id: %w", err)
	}
	return &cert, nil
}

func (r *CertificateRepository) GetLatestByParty(ctx context.Context, partyID uuid.UUID) (*models.Certificate, error) {
	var cert models.Certificate
	query := `
		SELECT id, organization_id, property_id, party_id, document_url, object_name,
		       page_count, status, expiration_date, latest_run, uploaded_via,
		       uploaded_by, created_at, updated_at
		FROM certificate
		WHERE party_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &cert, query, partyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest certificate for party: %w", err)
	}
	return &cert, nil
}

func (r *CertificateRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Certificate, error) {
	var certs []models.Certificate
	query := `
		SELECT id, organization_id, property_id, party_id, document_url, object_name,
		       page_count, status, expiration_date, latest_run, uploaded_via,
		       uploaded_by, created_at, updated_at
		FROM certificate
		WHERE property_id = $1
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &certs, query, propertyID); err != nil {
		return nil, fmt.Errorf("failed to list certificates by property: %w", err)
	}
	return certs, nil
}

// ListExpiringBefore returns the latest certificate per party whose
// expiration date falls before the cutoff. The daily status sweep feeds on
// this to catch expiring and expired transitions.
func (r *CertificateRepository) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.Certificate, error) {
	var certs []models.Certificate
	query := `
		SELECT DISTINCT ON (party_id)
		       id, organization_id, property_id, party_id, document_url, object_name,
		       page_count, status, expiration_date, latest_run, uploaded_via,
		       uploaded_by, created_at, updated_at
		FROM certificate
		WHERE expiration_date IS NOT NULL AND expiration_date < $1
		ORDER BY party_id, created_at DESC
	`
	if err := r.db.SelectContext(ctx, &certs, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list expiring certificates: %w", err)
	}
	return certs, nil
}

func (r *CertificateRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.CertificateStatus) error {
	query := `UPDATE certificate SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update certificate status: %w", err)
	}
	return nil
}

// SetLatestRun records the extraction run a certificate's current rows
// belong to, together with the certificate-level expiration derived from
// those rows.
func (r *CertificateRepository) SetLatestRun(ctx context.Context, id, runID uuid.UUID, expiration *time.Time) error {
	query := `UPDATE certificate SET latest_run = $1, expiration_date = $2, status = $3, updated_at = $4 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, runID, expiration, models.CertificateExtracted, time.Now(), id); err != nil {
		return fmt.Errorf("failed to set latest extraction run: %w", err)
	}
	return nil
}

func (r *CertificateRepository) CountByOrganization(ctx context.Context, orgID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM certificate WHERE organization_id = $1`
	if err := r.db.GetContext(ctx, &count, query, orgID); err != nil {
		return 0, fmt.Errorf("failed to count certificates: %w", err)
	}
	return count, nil
}
