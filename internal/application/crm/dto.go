package crm

import (
	"time"

	"github.com/compia/backend/internal/domain/crm"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLeadInput contains the input for creating a lead
type CreateLeadInput struct {
	OrganizationID *uuid.UUID          `json:"organization_id"`
	CompanyName    string              `json:"company_name" binding:"max=200"`
	CNPJ           string              `json:"cnpj"`
	ContactName    string              `json:"contact_name" binding:"max=200"`
	ContactEmail   string              `json:"contact_email" binding:"omitempty,email"`
	ContactPhone   string              `json:"contact_phone" binding:"max=30"`
	Address        valueobject.Address `json:"address"`
	EstimatedValue decimal.Decimal     `json:"estimated_value"`
	Notes          string              `json:"notes" binding:"max=5000"`
	OwnerID        *uuid.UUID          `json:"owner_id"`
	// Enrich fills blank company fields from the public CNPJ registry
	Enrich bool `json:"enrich"`
}

// UpdateLeadInput replaces the editable fields of an open lead
type UpdateLeadInput struct {
	CompanyName    string               `json:"company_name" binding:"max=200"`
	CNPJ           *string              `json:"cnpj"`
	ContactName    string               `json:"contact_name" binding:"max=200"`
	ContactEmail   string               `json:"contact_email" binding:"omitempty,email"`
	ContactPhone   string               `json:"contact_phone" binding:"max=30"`
	Address        *valueobject.Address `json:"address"`
	EstimatedValue decimal.Decimal      `json:"estimated_value"`
	Notes          string               `json:"notes" binding:"max=5000"`
	OwnerID        *uuid.UUID           `json:"owner_id"`
}

// MoveStageInput moves a lead through the funnel
type MoveStageInput struct {
	Stage  crm.Stage `json:"stage" binding:"required"`
	Reason string    `json:"reason" binding:"max=1000"`
}

// LeadListFilter narrows a lead listing
type LeadListFilter struct {
	shared.Filter
	OrganizationID *uuid.UUID
	Stage          crm.Stage
	OwnerID        *uuid.UUID
}

// LeadResponse is the public view of a lead
type LeadResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrganizationID uuid.UUID           `json:"organization_id"`
	CompanyName    string              `json:"company_name"`
	CNPJ           string              `json:"cnpj,omitempty"`
	ContactName    string              `json:"contact_name,omitempty"`
	ContactEmail   string              `json:"contact_email,omitempty"`
	ContactPhone   string              `json:"contact_phone,omitempty"`
	Address        valueobject.Address `json:"address"`
	Stage          crm.Stage           `json:"stage"`
	EstimatedValue decimal.Decimal     `json:"estimated_value"`
	Notes          string              `json:"notes,omitempty"`
	OwnerID        *uuid.UUID          `json:"owner_id,omitempty"`
	ConvertedOrgID *uuid.UUID          `json:"converted_organization_id,omitempty"`
	LostReason     string              `json:"lost_reason,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ToLeadResponse converts a domain lead
func ToLeadResponse(l *crm.Lead) LeadResponse {
	return LeadResponse{
		ID:             l.ID,
		OrganizationID: l.OrganizationID,
		CompanyName:    l.CompanyName,
		CNPJ:           l.CNPJ,
		ContactName:    l.ContactName,
		ContactEmail:   l.ContactEmail,
		ContactPhone:   l.ContactPhone,
		Address:        l.Address,
		Stage:          l.Stage,
		EstimatedValue: l.EstimatedValue,
		Notes:          l.Notes,
		OwnerID:        l.OwnerID,
		ConvertedOrgID: l.ConvertedOrgID,
		LostReason:     l.LostReason,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}
