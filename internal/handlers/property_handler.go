package handlers

import (
	"log/slog"

	"coi-service/internal/models"
	"coi-service/internal/repository"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type PropertyHandler struct {
	properties    *repository.PropertyRepository
	subscriptions *repository.SubscriptionRepository
}

func NewPropertyHandler(properties *repository.PropertyRepository, subscriptions *repository.SubscriptionRepository) *PropertyHandler {
	return &PropertyHandler{
		properties:    properties,
		subscriptions: subscriptions,
	}
}

func (ph *PropertyHandler) Register(app *fiber.App) {
	protectedGr := app.Group("coi/protected/api/v1")

	propertyGroup := protectedGr.Group("/properties")
	propertyGroup.Post("/", ph.Create)
	propertyGroup.Get("/:id", ph.Get)
	propertyGroup.Get("/organization/:orgID", ph.ListByOrganization)

	// Named insureds: the legal names and DBAs that must appear as
	// additional insured on certificates for the property.
	propertyGroup.Post("/:id/entities", ph.AddEntity)
	propertyGroup.Get("/:id/entities", ph.ListEntities)
	propertyGroup.Delete("/entities/:entityID", ph.RemoveEntity)
}

func (ph *PropertyHandler) Create(c fiber.Ctx) error {
	var req struct {
		OrganizationID uuid.UUID `json:"organization_id"`
		Name           string    `json:"name"`
		Address        *string   `json:"address"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_REQUEST", "name is required"))
	}

	sub, err := ph.subscriptions.GetByOrganization(c.Context(), req.OrganizationID)
	if err != nil {
		slog.Error("Failed to load subscription", "organization_id", req.OrganizationID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to check plan limits"))
	}
	if sub != nil {
		count, err := ph.properties.CountByOrganization(c.Context(), req.OrganizationID)
		if err != nil {
			slog.Error("Failed to count properties", "organization_id", req.OrganizationID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to check plan limits"))
		}
		if count >= sub.PropertyLimit {
			return c.Status(fiber.StatusForbidden).JSON(models.NewErrorResponse("PLAN_LIMIT_REACHED", "property limit reached for the current plan"))
		}
	}

	property := &models.Property{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Address:        req.Address,
	}
	if err := ph.properties.Create(c.Context(), property); err != nil {
		slog.Error("Failed to create property", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to create property"))
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewSuccessResponse(property))
}

func (ph *PropertyHandler) Get(c fiber.Ctx) error {
	propertyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_PROPERTY_ID", "property id must be a UUID"))
	}

	property, err := ph.properties.GetByID(c.Context(), propertyID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.NewErrorResponse("PROPERTY_NOT_FOUND", "property not found"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(property))
}

func (ph *PropertyHandler) ListByOrganization(c fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("orgID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_ORGANIZATION_ID", "organization id must be a UUID"))
	}

	properties, err := ph.properties.ListByOrganization(c.Context(), orgID)
	if err != nil {
		slog.Error("Failed to list properties", "organization_id", orgID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to list properties"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(properties))
}

func (ph *PropertyHandler) AddEntity(c fiber.Ctx) error {
	propertyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_PROPERTY_ID", "property id must be a UUID"))
	}

	var req struct {
		LegalName string  `json:"legal_name"`
		DBA       *string `json:"dba"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if req.LegalName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_REQUEST", "legal_name is required"))
	}

	entity := &models.PropertyEntity{
		ID:         uuid.New(),
		PropertyID: propertyID,
		LegalName:  req.LegalName,
		DBA:        req.DBA,
	}
	if err := ph.properties.AddEntity(c.Context(), entity); err != nil {
		slog.Error("Failed to add property entity", "property_id", propertyID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to add named insured"))
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewSuccessResponse(entity))
}

func (ph *PropertyHandler) ListEntities(c fiber.Ctx) error {
	propertyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_PROPERTY_ID", "property id must be a UUID"))
	}

	entities, err := ph.properties.GetEntities(c.Context(), propertyID)
	if err != nil {
		slog.Error("Failed to list property entities", "property_id", propertyID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to list named insureds"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(entities))
}

func (ph *PropertyHandler) RemoveEntity(c fiber.Ctx) error {
	entityID, err := uuid.Parse(c.Params("entityID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_ENTITY_ID", "entity id must be a UUID"))
	}

	if err := ph.properties.RemoveEntity(c.Context(), entityID); err != nil {
		slog.Error("Failed to remove property entity", "entity_id", entityID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to remove named insured"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(fiber.Map{"removed": true}))
}
