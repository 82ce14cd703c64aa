package event

import (
	"time"

	"coi-service/internal/models"
)

// ComplianceEventModel is the payload the notification service consumes when
// a party's compliance status changes. Issue messages are copied verbatim so
// downstream channels (email, dashboard feed) render the same wording the
// evaluation produced.
type ComplianceEventModel struct {
	OrganizationID string                  `json:"organization_id"`
	PropertyID     string                  `json:"property_id"`
	PartyID        string                  `json:"party_id"`
	PartyName      string                  `json:"party_name"`
	EntityType     models.EntityType       `json:"entity_type"`
	PreviousStatus models.ComplianceStatus `json:"previous_status"`
	NewStatus      models.ComplianceStatus `json:"new_status"`
	DaysOverdue    *int                    `json:"days_overdue,omitempty"`
	Issues         []ComplianceIssueModel  `json:"issues,omitempty"`
	OccurredAt     time.Time               `json:"occurred_at"`
}

type ComplianceIssueModel struct {
	Severity models.IssueSeverity `json:"severity"`
	Message  string               `json:"message"`
}

// IssueModels copies evaluation issues into the wire shape.
func IssueModels(issues []models.ComplianceIssue) []ComplianceIssueModel {
	out := make([]ComplianceIssueModel, 0, len(issues))
	for _, issue := range issues {
		out = append(out, ComplianceIssueModel{Severity: issue.Severity, Message: issue.Message})
	}
	return out
}

const ComplianceEventQueue string = "coi_compliance_events"
