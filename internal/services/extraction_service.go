package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"coi-service/internal/ai/gemini"
	"coi-service/internal/database/minio"
	"coi-service/internal/models"
	"coi-service/internal/repository"

	"github.com/google/uuid"
)

// ExtractionService runs AI extraction over a stored certificate PDF and
// persists the resulting coverage and entity rows under a fresh run id.
// Rows are append-only; re-extraction never rewrites an earlier run.
type ExtractionService struct {
	minioClient     *minio.MinioClient
	geminiSelector  *gemini.GeminiClientSelector
	certificates    *repository.CertificateRepository
	extractions     *repository.ExtractionRepository
	complianceCache *repository.ComplianceCacheRepository
}

func NewExtractionService(
	minioClient *minio.MinioClient,
	geminiSelector *gemini.GeminiClientSelector,
	certificates *repository.CertificateRepository,
	extractions *repository.ExtractionRepository,
	complianceCache *repository.ComplianceCacheRepository,
) *ExtractionService {
	return &ExtractionService{
		minioClient:     minioClient,
		geminiSelector:  geminiSelector,
		certificates:    certificates,
		extractions:     extractions,
		complianceCache: complianceCache,
	}
}

// Extract pulls the PDF from object storage, sends it through Gemini, and
// stores the normalized rows. Returns the new run id. The certificate is
// marked extraction_failed only when the AI call itself fails; a successful
// call that yields zero usable rows still counts as an extracted run, and
// evaluation later reports the missing evidence.
func (s *ExtractionService) Extract(ctx context.Context, certificateID uuid.UUID) (uuid.UUID, error) {
	cert, err := s.certificates.GetByID(ctx, certificateID)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.certificates.UpdateStatus(ctx, cert.ID, models.CertificateExtracting); err != nil {
		return uuid.Nil, err
	}

	pdfData, err := s.minioClient.GetFileBytes(ctx, minio.Storage.Certificates, cert.ObjectName)
	if err != nil {
		s.markFailed(ctx, cert.ID)
		return uuid.Nil, fmt.Errorf("failed to fetch certificate PDF: %w", err)
	}

	rawMap, err := gemini.ExtractFromPDFWithRetry(ctx, gemini.ExtractionPromptTemplate, pdfData, s.geminiSelector)
	if err != nil {
		s.markFailed(ctx, cert.ID)
		return uuid.Nil, fmt.Errorf("AI extraction failed: %w", err)
	}

	runID := uuid.New()

	rawJSON, err := json.Marshal(rawMap)
	if err != nil {
		s.markFailed(ctx, cert.ID)
		return uuid.Nil, fmt.Errorf("failed to encode extraction output: %w", err)
	}

	// Archive the raw model output alongside the normalized rows so a
	// disputed evaluation can be traced back to what the model saw.
	archiveName := fmt.Sprintf("%s/%s.json", cert.ID, runID)
	if err := s.minioClient.UploadBytes(ctx, minio.Storage.ExtractionResults, archiveName, rawJSON, "application/json"); err != nil {
		slog.Warn("Failed to archive raw extraction output", "certificate_id", cert.ID, "run_id", runID, "error", err)
	}

	var raw models.RawExtraction
	if err := json.Unmarshal(rawJSON, &raw); err != nil {
		s.markFailed(ctx, cert.ID)
		return uuid.Nil, fmt.Errorf("failed to decode extraction output: %w", err)
	}

	now := time.Now().UTC()
	coverages, entities := models.NormalizeExtraction(cert.ID, runID, raw, now)

	if err := s.extractions.InsertCoverages(ctx, coverages); err != nil {
		s.markFailed(ctx, cert.ID)
		return uuid.Nil, err
	}
	if err := s.extractions.InsertEntities(ctx, entities); err != nil {
		s.markFailed(ctx, cert.ID)
		return uuid.Nil, err
	}

	expiration := earliestExpiration(coverages)
	if err := s.certificates.SetLatestRun(ctx, cert.ID, runID, expiration); err != nil {
		return uuid.Nil, err
	}
	if err := s.certificates.UpdateStatus(ctx, cert.ID, models.CertificateExtracted); err != nil {
		return uuid.Nil, err
	}

	if err := s.complianceCache.InvalidateCertificate(ctx, cert.ID); err != nil {
		slog.Warn("Failed to invalidate compliance cache", "certificate_id", cert.ID, "error", err)
	}

	slog.Info("Certificate extracted",
		"certificate_id", cert.ID,
		"run_id", runID,
		"coverages", len(coverages),
		"entities", len(entities),
	)
	return runID, nil
}

func (s *ExtractionService) markFailed(ctx context.Context, certificateID uuid.UUID) {
	if err := s.certificates.UpdateStatus(ctx, certificateID, models.CertificateFailed); err != nil {
		slog.Error("Failed to mark certificate as extraction_failed", "certificate_id", certificateID, "error", err)
	}
}

// earliestExpiration returns the soonest expiration date across extracted
// coverage rows, nil when no row carries a date.
func earliestExpiration(coverages []models.ExtractedCoverage) *time.Time {
	var earliest *time.Time
	for i := range coverages {
		exp := coverages[i].ExpirationDate
		if exp == nil {
			continue
		}
		if earliest == nil || exp.Before(*earliest) {
			earliest = exp
		}
	}
	return earliest
}
