package handlers

import (
	"log/slog"

	"coi-service/internal/models"
	"coi-service/internal/repository"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type TemplateHandler struct {
	templates       *repository.RequirementTemplateRepository
	complianceCache *repository.ComplianceCacheRepository
}

func NewTemplateHandler(templates *repository.RequirementTemplateRepository, complianceCache *repository.ComplianceCacheRepository) *TemplateHandler {
	return &TemplateHandler{
		templates:       templates,
		complianceCache: complianceCache,
	}
}

func (th *TemplateHandler) Register(app *fiber.App) {
	protectedGr := app.Group("coi/protected/api/v1")

	templateGroup := protectedGr.Group("/templates")
	templateGroup.Post("/", th.Create)
	templateGroup.Get("/:id", th.Get)
	templateGroup.Get("/organization/:orgID", th.ListByOrganization)
	templateGroup.Delete("/:id", th.Deactivate)
}

type createTemplateRequest struct {
	OrganizationID uuid.UUID         `json:"organization_id"`
	PropertyID     *uuid.UUID        `json:"property_id"`
	Name           string            `json:"name"`
	EntityType     models.EntityType `json:"entity_type"`
	IsDefault      bool              `json:"is_default"`

	Coverages []struct {
		CoverageType models.CoverageType `json:"coverage_type"`
		MinAmount    float64             `json:"min_amount"`
		LimitType    models.LimitType    `json:"limit_type"`
	} `json:"coverages"`

	RequireAdditionalInsured      bool `json:"require_additional_insured"`
	RequireWaiverOfSubrogation    bool `json:"require_waiver_of_subrogation"`
	RequirePrimaryNonContributory bool `json:"require_primary_non_contributory"`
	MinCancellationNoticeDays     int  `json:"min_cancellation_notice_days"`
}

// Create stores a new requirement template. Templates are versioned by
// replacement: editing means deactivating the old one and creating a new
// one, so past evaluations stay traceable to the template they ran against.
func (th *TemplateHandler) Create(c fiber.Ctx) error {
	var req createTemplateRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}
	if req.Name == "" || !req.EntityType.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_REQUEST", "name and a valid entity_type are required"))
	}
	for _, cov := range req.Coverages {
		if !cov.CoverageType.IsValid() || !cov.LimitType.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_REQUEST", "unknown coverage_type or limit_type"))
		}
	}

	template := &models.RequirementTemplate{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		PropertyID:     req.PropertyID,
		Name:           req.Name,
		EntityType:     req.EntityType,
		IsDefault:      req.IsDefault,
		Active:         true,

		RequireAdditionalInsured:      req.RequireAdditionalInsured,
		RequireWaiverOfSubrogation:    req.RequireWaiverOfSubrogation,
		RequirePrimaryNonContributory: req.RequirePrimaryNonContributory,
		MinCancellationNoticeDays:     req.MinCancellationNoticeDays,
	}
	if createdBy := c.Get("X-User-ID"); createdBy != "" {
		template.CreatedBy = &createdBy
	}
	for i, cov := range req.Coverages {
		template.Coverages = append(template.Coverages, models.CoverageRequirement{
			ID:           uuid.New(),
			TemplateID:   template.ID,
			CoverageType: cov.CoverageType,
			MinAmount:    cov.MinAmount,
			LimitType:    cov.LimitType,
			DisplayOrder: i,
		})
	}

	if err := th.templates.Create(c.Context(), template); err != nil {
		slog.Error("Failed to create template", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to create template"))
	}
	return c.Status(fiber.StatusCreated).JSON(models.NewSuccessResponse(template))
}

func (th *TemplateHandler) Get(c fiber.Ctx) error {
	templateID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_TEMPLATE_ID", "template id must be a UUID"))
	}

	template, err := th.templates.GetByID(c.Context(), templateID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.NewErrorResponse("TEMPLATE_NOT_FOUND", "template not found"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(template))
}

func (th *TemplateHandler) ListByOrganization(c fiber.Ctx) error {
	orgID, err := uuid.Parse(c.Params("orgID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_ORGANIZATION_ID", "organization id must be a UUID"))
	}

	templates, err := th.templates.ListByOrganization(c.Context(), orgID)
	if err != nil {
		slog.Error("Failed to list templates", "organization_id", orgID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to list templates"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(templates))
}

// Deactivate retires a template and drops cached evaluations computed
// against it. Parties governed by it fall back to the organization default
// on their next evaluation.
func (th *TemplateHandler) Deactivate(c fiber.Ctx) error {
	templateID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_TEMPLATE_ID", "template id must be a UUID"))
	}

	if err := th.templates.Deactivate(c.Context(), templateID); err != nil {
		slog.Error("Failed to deactivate template", "template_id", templateID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to deactivate template"))
	}
	if err := th.complianceCache.InvalidateTemplate(c.Context(), templateID); err != nil {
		slog.Warn("Failed to invalidate template cache", "template_id", templateID, "error", err)
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(fiber.Map{"deactivated": true}))
}
