package models

import (
	"github.com/compia/backend/internal/domain/crm"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeadModel maps crm.Lead
type LeadModel struct {
	OrgAggregateModel
	CompanyName    string              `gorm:"type:varchar(200);not null"`
	CNPJ           string              `gorm:"column:cnpj;type:varchar(14);index"`
	ContactName    string              `gorm:"type:varchar(200)"`
	ContactEmail   string              `gorm:"type:varchar(200)"`
	ContactPhone   string              `gorm:"type:varchar(30)"`
	Address        valueobject.Address `gorm:"type:jsonb"`
	Stage          crm.Stage           `gorm:"type:varchar(20);not null;index"`
	EstimatedValue decimal.Decimal     `gorm:"type:decimal(14,2);not null"`
	Notes          string              `gorm:"type:text"`
	OwnerID        *uuid.UUID          `gorm:"type:uuid;index"`
	ConvertedOrgID *uuid.UUID          `gorm:"type:uuid"`
	LostReason     string              `gorm:"type:varchar(500)"`
}

func (LeadModel) TableName() string { return "leads" }

func (m *LeadModel) ToDomain() *crm.Lead {
	l := &crm.Lead{
		CompanyName:    m.CompanyName,
		CNPJ:           m.CNPJ,
		ContactName:    m.ContactName,
		ContactEmail:   m.ContactEmail,
		ContactPhone:   m.ContactPhone,
		Address:        m.Address,
		Stage:          m.Stage,
		EstimatedValue: m.EstimatedValue,
		Notes:          m.Notes,
		OwnerID:        m.OwnerID,
		ConvertedOrgID: m.ConvertedOrgID,
		LostReason:     m.LostReason,
	}
	m.PopulateOrgAggregateRoot(&l.OrgAggregateRoot)
	return l
}

func LeadModelFromDomain(l *crm.Lead) *LeadModel {
	m := &LeadModel{
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
	}
	m.FromDomainOrgAggregateRoot(l.OrgAggregateRoot)
	return m
}
