package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"coi-service/internal/models"
	"coi-service/internal/services"
	"coi-service/internal/worker"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type CertificateHandler struct {
	certificateService *services.CertificateService
	extractionService  *services.ExtractionService
	complianceService  *services.ComplianceService
	pool               *worker.WorkingPool
}

func NewCertificateHandler(
	certificateService *services.CertificateService,
	extractionService *services.ExtractionService,
	complianceService *services.ComplianceService,
	pool *worker.WorkingPool,
) *CertificateHandler {
	return &CertificateHandler{
		certificateService: certificateService,
		extractionService:  extractionService,
		complianceService:  complianceService,
		pool:               pool,
	}
}

func (ch *CertificateHandler) Register(app *fiber.App) {
	protectedGr := app.Group("coi/protected/api/v1")

	certGroup := protectedGr.Group("/certificates")
	certGroup.Post("/upload/:partyID", ch.Upload)        // POST /certificates/upload/{partyID} - Dashboard upload
	certGroup.Get("/:id", ch.Get)                        // GET  /certificates/{id}
	certGroup.Get("/property/:propertyID", ch.ListByProperty)
	certGroup.Post("/:id/extract", ch.Reextract)         // POST /certificates/{id}/extract - Force a fresh extraction run
	protectedGr.Post("/parties/:partyID/portal-link", ch.CreatePortalLink)

	// Vendor-facing portal routes carry their own token, no session.
	portalGr := app.Group("coi/portal/api/v1")
	portalGr.Post("/:token/upload", ch.PortalUpload)
}

// Upload stores a certificate PDF for a party and queues extraction plus
// evaluation in the background. Responds 202; the dashboard polls status.
func (ch *CertificateHandler) Upload(c fiber.Ctx) error {
	partyID, err := uuid.Parse(c.Params("partyID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_PARTY_ID", "party id must be a UUID"))
	}

	var uploadedBy *string
	if userID := c.Get("X-User-ID"); userID != "" {
		uploadedBy = &userID
	}

	return ch.handleUpload(c, partyID, "dashboard", uploadedBy)
}

// PortalUpload is the self-service path: the token in the link maps back to
// the party it was minted for.
func (ch *CertificateHandler) PortalUpload(c fiber.Ctx) error {
	partyID, err := ch.certificateService.ResolvePortalToken(c.Context(), c.Params("token"))
	if err != nil {
		if errors.Is(err, services.ErrPortalTokenExpired) {
			return c.Status(fiber.StatusUnauthorized).JSON(models.NewErrorResponse("PORTAL_LINK_EXPIRED", "This upload link is invalid or has expired"))
		}
		slog.Error("Portal token lookup failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to resolve upload link"))
	}

	return ch.handleUpload(c, partyID, "portal", nil)
}

func (ch *CertificateHandler) handleUpload(c fiber.Ctx, partyID uuid.UUID, via string, uploadedBy *string) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("MISSING_FILE", "multipart field 'file' is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_FILE", "failed to open uploaded file"))
	}
	defer file.Close()

	pdfData, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_FILE", "failed to read uploaded file"))
	}

	cert, err := ch.certificateService.Upload(c.Context(), partyID, pdfData, via, uploadedBy)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotAPDF):
			return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_PDF", err.Error()))
		case errors.Is(err, services.ErrTooManyPages):
			return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("PDF_TOO_LONG", err.Error()))
		case errors.Is(err, services.ErrUploadLimit):
			return c.Status(fiber.StatusForbidden).JSON(models.NewErrorResponse("PLAN_LIMIT_REACHED", err.Error()))
		}
		slog.Error("Certificate upload failed", "party_id", partyID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to store certificate"))
	}

	ch.queueExtraction(cert.ID, partyID)

	return c.Status(fiber.StatusAccepted).JSON(models.NewSuccessResponse(cert))
}

// Reextract queues a fresh extraction run for an existing certificate,
// used after a failed run or a model upgrade.
func (ch *CertificateHandler) Reextract(c fiber.Ctx) error {
	certID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_CERTIFICATE_ID", "certificate id must be a UUID"))
	}

	cert, err := ch.certificateService.Get(c.Context(), certID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.NewErrorResponse("CERTIFICATE_NOT_FOUND", "certificate not found"))
	}

	ch.queueExtraction(cert.ID, cert.PartyID)

	return c.Status(fiber.StatusAccepted).JSON(models.NewSuccessResponse(cert))
}

func (ch *CertificateHandler) queueExtraction(certID, partyID uuid.UUID) {
	job := func(ctx context.Context) error {
		jobCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()

		if _, err := ch.extractionService.Extract(jobCtx, certID); err != nil {
			return err
		}
		_, err := ch.complianceService.EvaluateParty(jobCtx, partyID)
		return err
	}
	if err := ch.pool.SubmitJob(job); err != nil {
		slog.Error("Failed to queue extraction job", "certificate_id", certID, "error", err)
	}
}

func (ch *CertificateHandler) Get(c fiber.Ctx) error {
	certID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_CERTIFICATE_ID", "certificate id must be a UUID"))
	}

	cert, err := ch.certificateService.Get(c.Context(), certID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.NewErrorResponse("CERTIFICATE_NOT_FOUND", "certificate not found"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(cert))
}

func (ch *CertificateHandler) ListByProperty(c fiber.Ctx) error {
	propertyID, err := uuid.Parse(c.Params("propertyID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_PROPERTY_ID", "property id must be a UUID"))
	}

	certs, err := ch.certificateService.ListByProperty(c.Context(), propertyID)
	if err != nil {
		slog.Error("Failed to list certificates", "property_id", propertyID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to list certificates"))
	}
	return c.Status(fiber.StatusOK).JSON(models.NewSuccessResponse(certs))
}

// CreatePortalLink mints a tokenized upload link for a party.
func (ch *CertificateHandler) CreatePortalLink(c fiber.Ctx) error {
	partyID, err := uuid.Parse(c.Params("partyID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.NewErrorResponse("INVALID_PARTY_ID", "party id must be a UUID"))
	}

	token, err := ch.certificateService.CreatePortalToken(c.Context(), partyID)
	if err != nil {
		slog.Error("Failed to create portal token", "party_id", partyID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.NewErrorResponse("INTERNAL_SERVER_ERROR", "failed to create portal link"))
	}

	return c.Status(fiber.StatusCreated).JSON(models.NewSuccessResponse(fiber.Map{
		"token":      token,
		"upload_url": "/coi/portal/api/v1/" + token + "/upload",
	}))
}
