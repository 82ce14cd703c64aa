package models

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is one uploaded COI document. Coverage and entity rows hang off
// the latest extraction run; the file itself lives in object storage.
type Certificate struct {
	ID             uuid.UUID         `json:"id" db:"id"`
	OrganizationID uuid.UUID         `json:"organization_id" db:"organization_id"`
	PropertyID     uuid.UUID         `json:"property_id" db:"property_id"`
	PartyID        uuid.UUID         `json:"party_id" db:"party_id"`
	DocumentURL    string            `json:"document_url" db:"document_url"`
	ObjectName     string            `json:"object_name" db:"object_name"`
	PageCount      int               `json:"page_count" db:"page_count"`
	Status         CertificateStatus `json:"status" db:"status"`
	ExpirationDate *time.Time        `json:"expiration_date,omitempty" db:"expiration_date"`
	LatestRun      *uuid.UUID        `json:"latest_run,omitempty" db:"latest_run"`
	UploadedVia    string            `json:"uploaded_via" db:"uploaded_via"`
	UploadedBy     *string           `json:"uploaded_by,omitempty" db:"uploaded_by"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// ComplianceParty is a vendor or tenant tracked against a property. Its
// Status field holds the last derived lifecycle status.
type ComplianceParty struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	OrganizationID uuid.UUID        `json:"organization_id" db:"organization_id"`
	PropertyID     uuid.UUID        `json:"property_id" db:"property_id"`
	Name           string           `json:"name" db:"name"`
	EntityType     EntityType       `json:"entity_type" db:"entity_type"`
	ContactEmail   *string          `json:"contact_email,omitempty" db:"contact_email"`
	Status         ComplianceStatus `json:"status" db:"status"`
	DaysOverdue    *int             `json:"days_overdue,omitempty" db:"days_overdue"`
	StatusUpdated  *time.Time       `json:"status_updated,omitempty" db:"status_updated"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}
