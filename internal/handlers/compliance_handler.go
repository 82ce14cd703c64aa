package handlers

import (
	"log/slog"

	"coi-service/internal/models"
	"coi-service/internal/repository"
	"coi-service/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ComplianceHandler struct {
	complianceService *services.ComplianceService
	parties           *repository.PartyRepository
}

func NewComplianceHandler(complianceService *services.ComplianceService, parties *repository.PartyRepository) *ComplianceHandler {
	return &ComplianceHandler{
		complianceService: complianceService,
		parties:           parties,
	}
}

func (ch *ComplianceHandler) Register(app *fiber.App) {
	protectedGr := app.Group("coi/protected/api/v1")

	partyGroup := protectedGr.Group("/parties")
	partyGroup.Post("/", ch.CreateParty)
	partyGroup.Get("/:id", ch.GetParty)
	partyGroup.Post("/:id/evaluate", ch.Evaluate)  // POST /parties/{id}/evaluate - Run evaluation now
	partyGroup.Get("/property/:propertyID", ch.ListByProperty)
	partyGroup.Get("/organization/:orgID/status/:status", ch.ListByStatus)
}

func (ch *ComplianceHandler) CreateParty(c fiber.Ctx) error {
	var req struct {
		OrganizationID uuid.UUID         `json:"organization_id"`
		PropertyID     uuid.UUID         `json:"property_id"`
		Name           string            `json:"name"`
		EntityType     models.EntityType `json:"entity_type"`
		ContactEmail   *string           `json:"contact_email"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if req.Name == "" || !req.EntityType.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_REQUEST", "name and a valid entity_type are required"))
	}

	party := &models.ComplianceParty{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		PropertyID:     req.PropertyID,
		Name:           req.Name,
		EntityType:     req.EntityType,
		ContactEmail:   req.ContactEmail,
	}
	if err := ch.parties.Create(c.Context(), party); err != nil {
		slog.Error("Failed to create party", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to create party"))
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewSuccessResponse(party))
}

func (ch *ComplianceHandler) GetParty(c fiber.Ctx) error {
	partyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_PARTY_ID", "party id must be a UUID"))
	}

	party, err := ch.parties.GetByID(c.Context(), partyID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.NewErrorResponse("PARTY_NOT_FOUND", "party not found"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(party))
}

// Evaluate runs a synchronous evaluation and returns the field-level result
// alongside the derived status. The dashboard detail view calls this.
func (ch *ComplianceHandler) Evaluate(c fiber.Ctx) error {
	partyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_PARTY_ID", "party id must be a UUID"))
	}

	outcome, err := ch.complianceService.EvaluateParty(c.Context(), partyID)
	if err != nil {
		slog.Error("Evaluation failed", "party_id", partyID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("EVALUATION_FAILED", "failed to evaluate party compliance"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(outcome))
}

func (ch *ComplianceHandler) ListByProperty(c fiber.Ctx) error {
	propertyID, err := uuid.Parse(c.Params("propertyID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_PROPERTY_ID", "property id must be a UUID"))
	}

	parties, err := ch.parties.ListByProperty(c.Context(), propertyID)
	if err != nil {
		slog.Error("Failed to list parties", "property_id", propertyID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to list parties"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(parties))
}

// ListByStatus powers the dashboard's non-compliant and expiring queues.
func (ch *ComplianceHandler) ListByStatus(c fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("orgID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_ORGANIZATION_ID", "organization id must be a UUID"))
	}
	status := models.ComplianceStatus(c.Params("status"))
	if !status.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_STATUS", "unknown compliance status"))
	}

	parties, err := ch.parties.ListByStatus(c.Context(), orgID, status)
	if err != nil {
		slog.Error("Failed to list parties by status", "organization_id", orgID, "status", status, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to list parties"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(parties))
}
