package services

import (
	"context"
	"log/slog"
	"time"

	"coi-service/internal/repository"
)

// SweepService re-derives statuses on a schedule. Evaluation only runs when
// something is uploaded or edited, so calendar-driven transitions
// (compliant to expiring, expiring to expired, growing days overdue) need a
// periodic pass over certificates whose expiration is near or past.
type SweepService struct {
	certificates         *repository.CertificateRepository
	complianceService    *ComplianceService
	warningThresholdDays int
}

func NewSweepService(
	certificates *repository.CertificateRepository,
	complianceService *ComplianceService,
	warningThresholdDays int,
) *SweepService {
	return &SweepService{
		certificates:         certificates,
		complianceService:    complianceService,
		warningThresholdDays: warningThresholdDays,
	}
}

// Run evaluates every party whose latest certificate expires within the
// warning window or has already expired. Individual failures are logged and
// skipped so one bad row cannot stall the sweep.
func (s *SweepService) Run(ctx context.Context) error {
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, s.warningThresholdDays)

	certs, err := s.certificates.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	evaluated := 0
	changed := 0
	for _, cert := range certs {
		outcome, err := s.complianceService.EvaluateParty(ctx, cert.PartyID)
		if err != nil {
			slog.Error("Status sweep evaluation failed", "party_id", cert.PartyID, "error", err)
			continue
		}
		evaluated++
		if outcome.StatusChanged {
			changed++
		}
	}

	slog.Info("Status sweep finished",
		"candidates", len(certs),
		"evaluated", evaluated,
		"status_changes", changed,
	)
	return nil
}
