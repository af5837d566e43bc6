package models

import (
	"time"

	"github.com/compia/backend/internal/domain/actionplan"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ActionItemModel maps actionplan.ActionItem. The 5W2H fields are flat columns.
type ActionItemModel struct {
	OrgAggregateModel
	InspectionID *uuid.UUID          `gorm:"type:uuid;index"`
	ItemID       *uuid.UUID          `gorm:"type:uuid;index"`
	Title        string              `gorm:"type:varchar(300);not null"`
	What         string              `gorm:"type:text"`
	Why          string              `gorm:"type:text"`
	Where        string              `gorm:"column:where_text;type:varchar(300)"`
	WhenDue      *time.Time          `gorm:"column:when_due;index"`
	Who          string              `gorm:"type:varchar(200)"`
	WhoUserID    *uuid.UUID          `gorm:"type:uuid;index"`
	How          string              `gorm:"type:text"`
	HowMuch      decimal.Decimal     `gorm:"type:decimal(14,2);not null"`
	Priority     actionplan.Priority `gorm:"type:varchar(20);not null"`
	Status       actionplan.Status   `gorm:"type:varchar(20);not null;index"`
	IsOverdue    bool                `gorm:"not null"`
	CompletedAt  *time.Time
	Generated    bool `gorm:"not null"`
}

func (ActionItemModel) TableName() string { return "action_items" }

func (m *ActionItemModel) ToDomain() *actionplan.ActionItem {
	a := &actionplan.ActionItem{
		InspectionID: m.InspectionID,
		ItemID:       m.ItemID,
		Title:        m.Title,
		Plan: actionplan.Plan{
			What:      m.What,
			Why:       m.Why,
			Where:     m.Where,
			When:      m.WhenDue,
			Who:       m.Who,
			WhoUserID: m.WhoUserID,
			How:       m.How,
			HowMuch:   m.HowMuch,
		},
		Priority:    m.Priority,
		Status:      m.Status,
		IsOverdue:   m.IsOverdue,
		CompletedAt: m.CompletedAt,
		Generated:   m.Generated,
	}
	m.PopulateOrgAggregateRoot(&a.OrgAggregateRoot)
	return a
}

func ActionItemModelFromDomain(a *actionplan.ActionItem) *ActionItemModel {
	m := &ActionItemModel{
		InspectionID: a.InspectionID,
		ItemID:       a.ItemID,
		Title:        a.Title,
		What:         a.What,
		Why:          a.Why,
		Where:        a.Where,
		WhenDue:      a.When,
		Who:          a.Who,
		WhoUserID:    a.WhoUserID,
		How:          a.How,
		HowMuch:      a.HowMuch,
		Priority:     a.Priority,
		Status:       a.Status,
		IsOverdue:    a.IsOverdue,
		CompletedAt:  a.CompletedAt,
		Generated:    a.Generated,
	}
	m.FromDomainOrgAggregateRoot(a.OrgAggregateRoot)
	return m
}
