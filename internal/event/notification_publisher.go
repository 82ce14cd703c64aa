package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationPublisher publishes compliance status change events to
// RabbitMQ. Pool workers publish concurrently, so the counters are atomic.
type NotificationPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished atomic.Int64
	messagesFailed    atomic.Int64
	lastPublishNanos  atomic.Int64
}

func NewNotificationPublisher(conn *RabbitMQConnection) *NotificationPublisher {
	p := &NotificationPublisher{conn: conn}
	p.lastPublishNanos.Store(time.Now().UnixNano())
	return p
}

// PublishStatusChange publishes a status change event to the
// coi_compliance_events queue, declared durable at connect time.
func (p *NotificationPublisher) PublishStatusChange(ctx context.Context, event ComplianceEventModel) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to marshal compliance event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",                   // exchange
		ComplianceEventQueue, // routing key (queue name)
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed.Add(1)
		return fmt.Errorf("failed to publish compliance event: %w", err)
	}

	p.messagesPublished.Add(1)
	p.lastPublishNanos.Store(time.Now().UnixNano())

	slog.Info("Compliance event published",
		"queue", ComplianceEventQueue,
		"party_id", event.PartyID,
		"new_status", event.NewStatus,
	)

	return nil
}

// GetMetrics returns publisher metrics
func (p *NotificationPublisher) GetMetrics() map[string]any {
	return map[string]any{
		"messages_published": p.messagesPublished.Load(),
		"messages_failed":    p.messagesFailed.Load(),
		"last_publish_time":  time.Unix(0, p.lastPublishNanos.Load()),
		"queue":              ComplianceEventQueue,
	}
}

// HealthCheck reports whether the underlying connection is still open
func (p *NotificationPublisher) HealthCheck() bool {
	return p.conn != nil && p.conn.Connection != nil && !p.conn.Connection.IsClosed()
}
