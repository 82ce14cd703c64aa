package handlers

import (
	"log/slog"

	"coi-service/internal/models"
	"coi-service/internal/repository"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// SubscriptionHandler exposes the plan row the billing processor maintains.
// Payment webhooks land in a separate edge service; this service only reads
// and mirrors the outcome.
type SubscriptionHandler struct {
	subscriptions *repository.SubscriptionRepository
}

func NewSubscriptionHandler(subscriptions *repository.SubscriptionRepository) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

func (sh *SubscriptionHandler) Register(app *fiber.App) {
	protectedGr := app.Group("coi/protected/api/v1")

	subGroup := protectedGr.Group("/subscriptions")
	subGroup.Get("/organization/:orgID", sh.Get)
	subGroup.Put("/organization/:orgID", sh.Upsert)
}

func (sh *SubscriptionHandler) Get(c fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("orgID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_ORGANIZATION_ID", "organization id must be a UUID"))
	}

	sub, err := sh.subscriptions.GetByOrganization(c.Context(), orgID)
	if err != nil {
		slog.Error("Failed to load subscription", "organization_id", orgID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to load subscription"))
	}
	if sub == nil {
		return c.Status(fiber.StatusNotFound).JSON(models.NewErrorResponse("SUBSCRIPTION_NOT_FOUND", "no subscription on record"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(sub))
}

func (sh *SubscriptionHandler) Upsert(c fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("orgID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_ORGANIZATION_ID", "organization id must be a UUID"))
	}

	var req struct {
		Tier          models.PlanTier      `json:"tier"`
		PaymentStatus models.PaymentStatus `json:"payment_status"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}

	sub := &models.OrganizationSubscription{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Tier:           req.Tier,
		PaymentStatus:  req.PaymentStatus,
	}
	if err := sh.subscriptions.Upsert(c.Context(), sub); err != nil {
		slog.Error("Failed to upsert subscription", "organization_id", orgID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to store subscription"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(sub))
}
