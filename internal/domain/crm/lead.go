// Package crm tracks sales leads of consultancies and the platform owner.
package crm

import (
	"net/mail"
	"strings"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stage of a lead in the sales funnel
type Stage string

const (
	StageNew         Stage = "new"
	StageContacted   Stage = "contacted"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageWon         Stage = "won"
	StageLost        Stage = "lost"
)

// IsValid reports whether s is a known stage
func (s Stage) IsValid() bool {
	switch s {
	case StageNew, StageContacted, StageProposal, StageNegotiation, StageWon, StageLost:
		return true
	}
	return false
}

// IsTerminal reports whether the lead is closed
func (s Stage) IsTerminal() bool {
	return s == StageWon || s == StageLost
}

// Lead is a prospective client company
type Lead struct {
	shared.OrgAggregateRoot
	CompanyName    string
	CNPJ           string
	ContactName    string
	ContactEmail   string
	ContactPhone   string
	Address        valueobject.Address
	Stage          Stage
	EstimatedValue decimal.Decimal
	Notes          string
	OwnerID        *uuid.UUID
	// ConvertedOrgID is set once a won lead became a client organization
	ConvertedOrgID *uuid.UUID
	LostReason     string
}

// Contact groups the lead's contact fields
type Contact struct {
	Name  string
	Email string
	Phone string
}

// NewLead creates a lead in the "new" stage
func NewLead(orgID, createdBy uuid.UUID, companyName string) (*Lead, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, shared.NewDomainError("INVALID_LEAD", "Company name is required")
	}
	l := &Lead{
		OrgAggregateRoot: shared.NewOrgAggregateRootWithCreator(orgID, createdBy),
		CompanyName:      companyName,
		Stage:            StageNew,
	}
	if createdBy != uuid.Nil {
		owner := createdBy
		l.OwnerID = &owner
	}
	return l, nil
}

// SetCNPJ validates and stores the company's CNPJ; empty clears it
func (l *Lead) SetCNPJ(raw string) error {
	if strings.TrimSpace(raw) == "" {
		l.CNPJ = ""
		return nil
	}
	c, err := valueobject.NewCNPJ(raw)
	if err != nil {
		return shared.NewDomainError("INVALID_CNPJ", err.Error())
	}
	l.CNPJ = c.String()
	return nil
}

// SetContact validates and stores the contact fields
func (l *Lead) SetContact(c Contact) error {
	email := strings.TrimSpace(c.Email)
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil {
			return shared.NewDomainError("INVALID_EMAIL", "Invalid contact email")
		}
		email = strings.ToLower(addr.Address)
	}
	l.ContactName = strings.TrimSpace(c.Name)
	l.ContactEmail = email
	l.ContactPhone = strings.TrimSpace(c.Phone)
	return nil
}

// Update changes the descriptive fields of an open lead
func (l *Lead) Update(companyName, notes string, value decimal.Decimal, owner *uuid.UUID) error {
	if l.Stage.IsTerminal() {
		return shared.NewDomainError("LEAD_CLOSED", "Closed leads cannot be edited")
	}
	if companyName = strings.TrimSpace(companyName); companyName != "" {
		l.CompanyName = companyName
	}
	if value.IsNegative() {
		return shared.NewDomainError("INVALID_VALUE", "Estimated value cannot be negative")
	}
	l.Notes = strings.TrimSpace(notes)
	l.EstimatedValue = value
	if owner != nil {
		l.OwnerID = owner
	}
	l.IncrementVersion()
	return nil
}

// MoveTo advances the lead; won and lost are terminal
func (l *Lead) MoveTo(next Stage, reason string) error {
	if !next.IsValid() {
		return shared.NewDomainError("INVALID_STAGE", "Unknown stage")
	}
	if next == l.Stage {
		return nil
	}
	if l.Stage.IsTerminal() {
		return shared.NewDomainError("LEAD_CLOSED", "Lead is already closed")
	}
	old := l.Stage
	l.Stage = next
	if next == StageLost {
		l.LostReason = strings.TrimSpace(reason)
	}
	l.IncrementVersion()
	l.AddDomainEvent(NewLeadStageChangedEvent(l, old))
	return nil
}

// MarkConverted links a won lead to the organization created from it
func (l *Lead) MarkConverted(orgID uuid.UUID) error {
	if l.Stage != StageWon {
		return shared.NewDomainError("LEAD_NOT_WON", "Only won leads can be converted")
	}
	if l.ConvertedOrgID != nil {
		return shared.NewDomainError("LEAD_ALREADY_CONVERTED", "Lead was already converted")
	}
	l.ConvertedOrgID = &orgID
	l.IncrementVersion()
	l.AddDomainEvent(NewLeadConvertedEvent(l))
	return nil
}

// SetAddress normalizes and stores the company address
func (l *Lead) SetAddress(a valueobject.Address) error {
	normalized, err := a.Normalize()
	if err != nil {
		return shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}
	l.Address = normalized
	return nil
}
