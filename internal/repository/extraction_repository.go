package repository

import (
	"context"
	"fmt"
	"log/slog"

	"coi-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ExtractionRepository stores the immutable coverage and entity rows one
// extraction run produced. Rows are only ever inserted; a re-extraction
// writes a fresh run and the certificate points at the newest one.
type ExtractionRepository struct {
	db *sqlx.DB
}

func NewExtractionRepository(db *sqlx.DB) *ExtractionRepository {
	return &ExtractionRepository{db: db}
}

func (r *ExtractionRepository) InsertCoverages(ctx context.Context, coverages []models.ExtractedCoverage) error {
	if len(coverages) == 0 {
		return nil
	}
	slog.Info("Inserting extracted coverages",
		"certificate_id", coverages[0].CertificateID,
		"extraction_run", coverages[0].ExtractionRun,
		"count", len(coverages))

	query := `
		INSERT INTO extracted_coverage (
			id, certificate_id, extraction_run, coverage_type, carrier_name,
			policy_number, limit_amount, limit_type, limit_text, effective_date,
			expiration_date, additional_insured_listed, additional_insured_names,
			waiver_of_subrogation, primary_non_contributory,
			cancellation_notice_days, confidence, source_text, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range coverages {
		_, err := tx.ExecContext(ctx, query,
			c.ID, c.CertificateID, c.ExtractionRun, c.CoverageType, c.CarrierName,
			c.PolicyNumber, c.LimitAmount, c.LimitType, c.LimitText, c.EffectiveDate,
			c.ExpirationDate, c.AdditionalInsuredListed, pq.Array(c.AdditionalInsuredNames),
			c.WaiverOfSubrogation, c.PrimaryNonContributory,
			c.CancellationNoticeDays, c.Confidence, c.SourceText, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert extracted coverage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit extracted coverages: %w", err)
	}
	return nil
}

func (r *ExtractionRepository) InsertEntities(ctx context.Context, entities []models.ExtractedEntity) error {
	if len(entities) == 0 {
		return nil
	}

	query := `
		INSERT INTO extracted_entity (
			id, certificate_id, extraction_run, name, address, role, confidence, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entities {
		_, err := tx.ExecContext(ctx, query,
			e.ID, e.CertificateID, e.ExtractionRun, e.Name, e.Address, e.Role, e.Confidence, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert extracted entity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit extracted entities: %w", err)
	}
	return nil
}

func (r *ExtractionRepository) GetCoveragesByRun(ctx context.Context, runID uuid.UUID) ([]models.ExtractedCoverage, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, certificate_id, extraction_run, coverage_type, carrier_name,
		       policy_number, limit_amount, limit_type, limit_text, effective_date,
		       expiration_date, additional_insured_listed, additional_insured_names,
		       waiver_of_subrogation, primary_non_contributory,
		       cancellation_notice_days, confidence, source_text, created_at
		FROM extracted_coverage
		WHERE extraction_run = $1
		ORDER BY created_at ASC, id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query extracted coverages: %w", err)
	}
	defer rows.Close()

	var coverages []models.ExtractedCoverage
	for rows.Next() {
		var c models.ExtractedCoverage
		var names pq.StringArray
		err := rows.Scan(
			&c.ID, &c.CertificateID, &c.ExtractionRun, &c.CoverageType, &c.CarrierName,
			&c.PolicyNumber, &c.LimitAmount, &c.LimitType, &c.LimitText, &c.EffectiveDate,
			&c.ExpirationDate, &c.AdditionalInsuredListed, &names,
			&c.WaiverOfSubrogation, &c.PrimaryNonContributory,
			&c.CancellationNoticeDays, &c.Confidence, &c.SourceText, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extracted coverage: %w", err)
		}
		c.AdditionalInsuredNames = names
		coverages = append(coverages, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate extracted coverages: %w", err)
	}
	return coverages, nil
}

func (r *ExtractionRepository) GetEntitiesByRun(ctx context.Context, runID uuid.UUID) ([]models.ExtractedEntity, error) {
	var entities []models.ExtractedEntity
	query := `
		SELECT id, certificate_id, extraction_run, name, address, role, confidence, created_at
		FROM extracted_entity
		WHERE extraction_run = $1
		ORDER BY created_at ASC, id ASC
	`
	if err := r.db.SelectContext(ctx, &entities, query, runID); err != nil {
		return nil, fmt.Errorf("failed to query extracted entities: %w", err)
	}
	return entities, nil
}
