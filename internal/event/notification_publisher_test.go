package event

import (
	"sync"
	"testing"

	"coi-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherMetrics_StartEmpty(t *testing.T) {
	p := NewNotificationPublisher(nil)

	metrics := p.GetMetrics()
	assert.Equal(t, int64(0), metrics["messages_published"])
	assert.Equal(t, int64(0), metrics["messages_failed"])
	assert.Equal(t, ComplianceEventQueue, metrics["queue"])

	assert.False(t, p.HealthCheck())
}

func TestPublisherMetrics_CountersAreConcurrencySafe(t *testing.T) {
	p := NewNotificationPublisher(nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.messagesPublished.Add(1)
			p.messagesFailed.Add(1)
		}()
	}
	wg.Wait()

	metrics := p.GetMetrics()
	assert.Equal(t, int64(50), metrics["messages_published"])
	assert.Equal(t, int64(50), metrics["messages_failed"])
}

func TestIssueModels_CopiesMessageAndSeverity(t *testing.T) {
	issues := []models.ComplianceIssue{
		{Severity: models.SeverityCritical, Message: "All policies expired 2025-06-13 (210 days overdue)"},
		{Severity: models.SeverityWarning, Message: "Low-confidence extraction for General Liability; please verify"},
	}

	out := IssueModels(issues)
	require.Len(t, out, 2)
	assert.Equal(t, models.SeverityCritical, out[0].Severity)
	assert.Equal(t, issues[0].Message, out[0].Message)
	assert.Equal(t, models.SeverityWarning, out[1].Severity)
}
