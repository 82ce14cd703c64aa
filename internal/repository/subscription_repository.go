package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coi-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SubscriptionRepository reads the billing processor's mirrored view of an
// organization's plan. Webhook ingestion lives in a separate service; this
// side only consults and upserts the mirror row.
type SubscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByOrganization(ctx context.Context, orgID uuid.UUID) (*models.OrganizationSubscription, error) {
	var sub models.OrganizationSubscription
	query := `
		SELECT id, organization_id, tier, payment_status, property_limit,
		       certificate_limit, period_end, created_at, updated_at
		FROM organization_subscription
		WHERE organization_id = $1
	`
	err := r.db.GetContext(ctx, &sub, query, orgID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *models.OrganizationSubscription) error {
	sub.UpdatedAt = time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = sub.UpdatedAt
	}
	props, certs := models.PlanLimits(sub.Tier)
	if sub.PropertyLimit == 0 {
		sub.PropertyLimit = props
	}
	if sub.CertificateLimit == 0 {
		sub.CertificateLimit = certs
	}

	query := `
		INSERT INTO organization_subscription (
			id, organization_id, tier, payment_status, property_limit,
			certificate_limit, period_end, created_at, updated_at
		) VALUES (
			:id, :organization_id, :tier, :payment_status, :property_limit,
			:certificate_limit, :period_end, :created_at, :updated_at
		)
		ON CONFLICT (organization_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			payment_status = EXCLUDED.payment_status,
			property_limit = EXCLUDED.property_limit,
			certificate_limit = EXCLUDED.certificate_limit,
			period_end = EXCLUDED.period_end,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}
