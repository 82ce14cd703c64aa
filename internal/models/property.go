package models

import (
	"time"

	"github.com/google/uuid"
)

// Property is one managed commercial property under an organization.
type Property struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Address        *string   `json:"address,omitempty" db:"address"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// PropertyEntity is one legal name or DBA that must appear as additional
// insured on certificates for a property (the owner, the management company,
// and any other required named party). Match target for extracted entities.
type PropertyEntity struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PropertyID uuid.UUID `json:"property_id" db:"property_id"`
	LegalName  string    `json:"legal_name" db:"legal_name"`
	DBA        *string   `json:"dba,omitempty" db:"dba"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Names returns the legal name plus DBA when present, the set an extracted
// additional-insured name is matched against.
func (p *PropertyEntity) Names() []string {
	names := []string{p.LegalName}
	if p.DBA != nil && *p.DBA != "" {
		names = append(names, *p.DBA)
	}
	return names
}
