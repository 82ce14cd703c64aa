package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coi-service/internal/database/minio"
	"coi-service/internal/models"
	"coi-service/internal/repository"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	goredis "github.com/redis/go-redis/v9"
)

var (
	ErrNotAPDF            = errors.New("uploaded file is not a valid PDF")
	ErrTooManyPages       = errors.New("uploaded PDF exceeds the page limit")
	ErrUploadLimit        = errors.New("subscription does not permit another certificate upload")
	ErrPortalTokenExpired = errors.New("portal upload link is invalid or expired")
)

// CertificateService owns the upload path: PDF validation, plan limit
// enforcement, object storage, and the tokenized self-service portal links
// sent to vendors and tenants.
type CertificateService struct {
	minioClient    *minio.MinioClient
	redisClient    *goredis.Client
	certificates   *repository.CertificateRepository
	parties        *repository.PartyRepository
	subscriptions  *repository.SubscriptionRepository
	maxUploadPages int
	portalTokenTTL time.Duration
}

func NewCertificateService(
	minioClient *minio.MinioClient,
	redisClient *goredis.Client,
	certificates *repository.CertificateRepository,
	parties *repository.PartyRepository,
	subscriptions *repository.SubscriptionRepository,
	maxUploadPages int,
	portalTokenTTL time.Duration,
) *CertificateService {
	return &CertificateService{
		minioClient:    minioClient,
		redisClient:    redisClient,
		certificates:   certificates,
		parties:        parties,
		subscriptions:  subscriptions,
		maxUploadPages: maxUploadPages,
		portalTokenTTL: portalTokenTTL,
	}
}

// Upload validates and stores a certificate PDF for a party. uploadedBy is
// the acting user for dashboard uploads, nil for portal uploads.
func (s *CertificateService) Upload(ctx context.Context, partyID uuid.UUID, pdfData []byte, uploadedVia string, uploadedBy *string) (*models.Certificate, error) {
	party, err := s.parties.GetByID(ctx, partyID)
	if err != nil {
		return nil, err
	}

	pageCount, err := s.validatePDF(pdfData)
	if err != nil {
		return nil, err
	}

	if err := s.checkUploadLimit(ctx, party.OrganizationID); err != nil {
		return nil, err
	}

	certID := uuid.New()
	objectName := fmt.Sprintf("%s/%s/%s.pdf", party.OrganizationID, party.ID, certID)
	if err := s.minioClient.UploadBytes(ctx, minio.Storage.Certificates, objectName, pdfData, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to store certificate PDF: %w", err)
	}

	cert := &models.Certificate{
		ID:             certID,
		OrganizationID: party.OrganizationID,
		PropertyID:     party.PropertyID,
		PartyID:        party.ID,
		DocumentURL:    s.minioClient.ResourceURL(minio.Storage.Certificates, objectName),
		ObjectName:     objectName,
		PageCount:      pageCount,
		Status:         models.CertificateUploaded,
		UploadedVia:    uploadedVia,
		UploadedBy:     uploadedBy,
	}
	if err := s.certificates.Create(ctx, cert); err != nil {
		return nil, err
	}

	slog.Info("Certificate uploaded",
		"certificate_id", cert.ID,
		"party_id", party.ID,
		"pages", pageCount,
		"via", uploadedVia,
	)
	return cert, nil
}

func (s *CertificateService) validatePDF(pdfData []byte) (int, error) {
	rs := bytes.NewReader(pdfData)
	if err := api.Validate(rs, nil); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotAPDF, err)
	}
	if _, err := rs.Seek(0, 0); err != nil {
		return 0, err
	}
	pageCount, err := api.PageCount(rs, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotAPDF, err)
	}
	if pageCount > s.maxUploadPages {
		return 0, fmt.Errorf("%w: %d pages (max %d)", ErrTooManyPages, pageCount, s.maxUploadPages)
	}
	return pageCount, nil
}

func (s *CertificateService) checkUploadLimit(ctx context.Context, orgID uuid.UUID) error {
	sub, err := s.subscriptions.GetByOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if sub == nil {
		// No billing row means the org predates plan enforcement.
		return nil
	}
	count, err := s.certificates.CountByOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if !sub.CanUpload(count) {
		return fmt.Errorf("%w: %d of %d used on %s plan", ErrUploadLimit, count, sub.CertificateLimit, sub.Tier)
	}
	return nil
}

// CreatePortalToken mints a one-off upload link token for a party. The token
// lives in Redis for the configured TTL and maps back to the party id.
func (s *CertificateService) CreatePortalToken(ctx context.Context, partyID uuid.UUID) (string, error) {
	if _, err := s.parties.GetByID(ctx, partyID); err != nil {
		return "", err
	}
	token := uuid.New().String()
	key := portalTokenKey(token)
	if err := s.redisClient.Set(ctx, key, partyID.String(), s.portalTokenTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store portal token: %w", err)
	}
	return token, nil
}

// ResolvePortalToken maps a portal token to its party, consuming nothing;
// the token stays valid until it expires so a vendor can retry a failed
// upload from the same link.
func (s *CertificateService) ResolvePortalToken(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.redisClient.Get(ctx, portalTokenKey(token)).Result()
	if errors.Is(err, goredis.Nil) {
		return uuid.Nil, ErrPortalTokenExpired
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up portal token: %w", err)
	}
	partyID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrPortalTokenExpired
	}
	return partyID, nil
}

func portalTokenKey(token string) string {
	return "coi:portal_token:" + token
}

func (s *CertificateService) Get(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	return s.certificates.GetByID(ctx, id)
}

func (s *CertificateService) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Certificate, error) {
	return s.certificates.ListByProperty(ctx, propertyID)
}
