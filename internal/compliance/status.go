package compliance

import (
	"fmt"
	"strings"
	"time"

	"coi-service/internal/models"
)

// Derivation is the outcome of mapping a compliance result and expiration
// date onto the lifecycle status set. Issues is the final ordered list the
// review screen and notification copy are built from; for an expired
// certificate the per-policy expiry reasons are collapsed into a single
// critical summary line.
type Derivation struct {
	Status      models.ComplianceStatus  `json:"status"`
	DaysOverdue int                      `json:"days_overdue,omitempty"`
	Issues      []models.ComplianceIssue `json:"issues"`
}

// DeriveStatus maps a compliance result plus the certificate's expiration
// date into one lifecycle status. The priority order is load-bearing:
//
//	not_required > expired > non_compliant > expiring > compliant
//
// An expired-but-otherwise-compliant certificate reports expired, and a
// non-compliant certificate that also expires soon reports non_compliant
// (the compliance gap is the more actionable signal).
func DeriveStatus(result *models.ComplianceResult, expirationDate *time.Time, now time.Time, warningThresholdDays int) (*Derivation, error) {
	if result == nil {
		return nil, fmt.Errorf("compliance result is nil")
	}
	if now.Before(time.Unix(0, 0)) {
		return nil, fmt.Errorf("now %s is before the epoch", now.Format(time.RFC3339))
	}
	if warningThresholdDays < 0 {
		warningThresholdDays = 0
	}

	if result.NoRequirements {
		return &Derivation{
			Status: models.StatusNotRequired,
			Issues: result.Issues,
		}, nil
	}

	if expired, expiredOn := expirationOf(result, expirationDate, now); expired {
		overdue := wholeDays(now.Sub(expiredOn))
		issues := []models.ComplianceIssue{{
			Severity: models.SeverityCritical,
			Message:  fmt.Sprintf("All policies expired %s (%d days overdue)", expiredOn.Format("2006-01-02"), overdue),
		}}
		for _, issue := range result.Issues {
			if strings.HasPrefix(issue.Message, "Policy expired on") {
				continue
			}
			issues = append(issues, issue)
		}
		return &Derivation{
			Status:      models.StatusExpired,
			DaysOverdue: overdue,
			Issues:      issues,
		}, nil
	}

	if result.NonCompliantCount() > 0 {
		return &Derivation{
			Status: models.StatusNonCompliant,
			Issues: result.Issues,
		}, nil
	}

	if expirationDate != nil {
		until := wholeDays(expirationDate.Sub(now))
		if !expirationDate.Before(now) && until <= warningThresholdDays {
			issues := append([]models.ComplianceIssue{}, result.Issues...)
			issues = append(issues, models.ComplianceIssue{
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("Coverage expires on %s (in %d days)", expirationDate.Format("2006-01-02"), until),
			})
			return &Derivation{
				Status: models.StatusExpiring,
				Issues: issues,
			}, nil
		}
	}

	return &Derivation{
		Status: models.StatusCompliant,
		Issues: result.Issues,
	}, nil
}

// expirationOf decides whether the evaluation is expired and from which
// date: the certificate's own expiration when it has passed, otherwise the
// earliest expired policy date found during evaluation.
func expirationOf(result *models.ComplianceResult, expirationDate *time.Time, now time.Time) (bool, time.Time) {
	if expirationDate != nil && expirationDate.Before(now) {
		return true, *expirationDate
	}
	if result.HasExpiredField() && result.EarliestExpiration != nil {
		return true, *result.EarliestExpiration
	}
	return false, time.Time{}
}

func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}
