package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coi-service/internal/compliance"
	"coi-service/internal/event"
	"coi-service/internal/models"
	"coi-service/internal/repository"

	"github.com/google/uuid"
)

// EvaluationOutcome bundles what one evaluation produced: the field-level
// result, the derived lifecycle status, and whether the party's stored
// status changed as a consequence.
type EvaluationOutcome struct {
	Party         *models.ComplianceParty  `json:"party"`
	Result        *models.ComplianceResult `json:"result"`
	Derivation    *compliance.Derivation   `json:"derivation"`
	StatusChanged bool                     `json:"status_changed"`
	FromCache     bool                     `json:"from_cache"`
}

// ComplianceService orchestrates one evaluation: load the extracted rows and
// the governing template, run the engine, derive the status, persist it on
// the party, and publish a notification when the status moved.
type ComplianceService struct {
	engine               *compliance.Engine
	resolver             *TemplateResolver
	certificates         *repository.CertificateRepository
	extractions          *repository.ExtractionRepository
	parties              *repository.PartyRepository
	properties           *repository.PropertyRepository
	complianceCache      *repository.ComplianceCacheRepository
	publisher            *event.NotificationPublisher
	warningThresholdDays int
}

func NewComplianceService(
	engine *compliance.Engine,
	resolver *TemplateResolver,
	certificates *repository.CertificateRepository,
	extractions *repository.ExtractionRepository,
	parties *repository.PartyRepository,
	properties *repository.PropertyRepository,
	complianceCache *repository.ComplianceCacheRepository,
	publisher *event.NotificationPublisher,
	warningThresholdDays int,
) *ComplianceService {
	return &ComplianceService{
		engine:               engine,
		resolver:             resolver,
		certificates:         certificates,
		extractions:          extractions,
		parties:              parties,
		properties:           properties,
		complianceCache:      complianceCache,
		publisher:            publisher,
		warningThresholdDays: warningThresholdDays,
	}
}

// EvaluateParty evaluates a party's latest certificate against its governing
// template and stores the derived status. Safe to call repeatedly; the
// engine is deterministic and identical inputs hit the result cache.
func (s *ComplianceService) EvaluateParty(ctx context.Context, partyID uuid.UUID) (*EvaluationOutcome, error) {
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		return nil, err
	}

	template, err := s.resolver.Resolve(ctx, party.OrganizationID, party.PropertyID, party.EntityType)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if template == nil {
		return s.finishWithoutTemplate(ctx, party, now)
	}

	cert, err := s.certificates.GetLatestByParty(ctx, party.ID)
	if err != nil {
		return nil, err
	}

	var (
		coverages      []models.ExtractedCoverage
		entities       []models.ExtractedEntity
		certExpiration *time.Time
	)

	if cert != nil && cert.LatestRun != nil {
		certExpiration = cert.ExpirationDate

		// Only the evaluation result is cached; status derivation depends
		// on the clock, so a hit still re-derives against now. A cached
		// "expiring" flips to "expired" the moment the date passes.
		cachedResult, err := s.complianceCache.Get(ctx, cert.ID, template.ID, *cert.LatestRun)
		if err != nil {
			slog.Warn("Compliance cache read failed", "certificate_id", cert.ID, "error", err)
		}
		if cachedResult != nil {
			derivation, err := compliance.DeriveStatus(cachedResult, certExpiration, now, s.warningThresholdDays)
			if err != nil {
				return nil, fmt.Errorf("status derivation failed for party %s: %w", party.ID, err)
			}
			return s.finish(ctx, party, cachedResult, derivation, true)
		}

		coverages, err = s.extractions.GetCoveragesByRun(ctx, *cert.LatestRun)
		if err != nil {
			return nil, err
		}
		entities, err = s.extractions.GetEntitiesByRun(ctx, *cert.LatestRun)
		if err != nil {
			return nil, err
		}
	}

	propertyEntities, err := s.properties.GetEntities(ctx, party.PropertyID)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Evaluate(coverages, entities, template, propertyEntities, party.EntityType, now)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed for party %s: %w", party.ID, err)
	}

	derivation, err := compliance.DeriveStatus(result, certExpiration, now, s.warningThresholdDays)
	if err != nil {
		return nil, fmt.Errorf("status derivation failed for party %s: %w", party.ID, err)
	}

	if cert == nil {
		derivation.Issues = append([]models.ComplianceIssue{{
			Severity: models.SeverityCritical,
			Message:  "No certificate on file",
		}}, derivation.Issues...)
	}

	if cert != nil && cert.LatestRun != nil {
		if err := s.complianceCache.Set(ctx, cert.ID, template.ID, *cert.LatestRun, result); err != nil {
			slog.Warn("Compliance cache write failed", "certificate_id", cert.ID, "error", err)
		}
	}

	return s.finish(ctx, party, result, derivation, false)
}

// finishWithoutTemplate handles parties with neither a property template nor
// an organization default: tracked, but with nothing to check against.
func (s *ComplianceService) finishWithoutTemplate(ctx context.Context, party *models.ComplianceParty, now time.Time) (*EvaluationOutcome, error) {
	result := &models.ComplianceResult{
		EntityType:     party.EntityType,
		NoRequirements: true,
		Issues: []models.ComplianceIssue{{
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("No requirements configured for this %s.", party.EntityType),
		}},
		EvaluatedAt: now,
	}
	derivation, err := compliance.DeriveStatus(result, nil, now, s.warningThresholdDays)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, party, result, derivation, false)
}

func (s *ComplianceService) finish(
	ctx context.Context,
	party *models.ComplianceParty,
	result *models.ComplianceResult,
	derivation *compliance.Derivation,
	fromCache bool,
) (*EvaluationOutcome, error) {
	previousStatus := party.Status
	changed := previousStatus != derivation.Status

	var daysOverdue *int
	if derivation.Status == models.StatusExpired {
		d := derivation.DaysOverdue
		daysOverdue = &d
	}

	if err := s.parties.UpdateStatus(ctx, party.ID, derivation.Status, daysOverdue); err != nil {
		return nil, err
	}
	party.Status = derivation.Status
	party.DaysOverdue = daysOverdue

	if changed {
		s.publishStatusChange(ctx, party, previousStatus, derivation)
	}

	return &EvaluationOutcome{
		Party:         party,
		Result:        result,
		Derivation:    derivation,
		StatusChanged: changed,
		FromCache:     fromCache,
	}, nil
}

func (s *ComplianceService) publishStatusChange(
	ctx context.Context,
	party *models.ComplianceParty,
	previousStatus models.ComplianceStatus,
	derivation *compliance.Derivation,
) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishStatusChange(ctx, event.ComplianceEventModel{
		OrganizationID: party.OrganizationID.String(),
		PropertyID:     party.PropertyID.String(),
		PartyID:        party.ID.String(),
		PartyName:      party.Name,
		EntityType:     party.EntityType,
		PreviousStatus: previousStatus,
		NewStatus:      derivation.Status,
		DaysOverdue:    party.DaysOverdue,
		Issues:         event.IssueModels(derivation.Issues),
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		slog.Error("Failed to publish status change", "party_id", party.ID, "error", err)
	}
}
