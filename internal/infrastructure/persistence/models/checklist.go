package models

import (
	"github.com/compia/backend/internal/domain/checklist"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// ChecklistTemplateModel maps checklist.Template. A nil OrganizationID
// marks the global library.
type ChecklistTemplateModel struct {
	AggregateModel
	OrganizationID *uuid.UUID            `gorm:"type:uuid;index"`
	Name           string                `gorm:"type:varchar(200);not null"`
	Description    string                `gorm:"type:text"`
	Category       string                `gorm:"type:varchar(100);index"`
	IsPublic       bool                  `gorm:"not null"`
	CreatedBy      *uuid.UUID            `gorm:"type:uuid"`
	Fields         []ChecklistFieldModel `gorm:"foreignKey:TemplateID;references:ID"`
}

func (ChecklistTemplateModel) TableName() string { return "checklist_templates" }

// SharedCondition lets every organization read global and public templates
func (ChecklistTemplateModel) SharedCondition() clause.Expression {
	return clause.Expr{SQL: "organization_id IS NULL OR is_public = ?", Vars: []interface{}{true}}
}

func (m *ChecklistTemplateModel) ToDomain() *checklist.Template {
	t := &checklist.Template{
		OrganizationID: m.OrganizationID,
		Name:           m.Name,
		Description:    m.Description,
		Category:       m.Category,
		IsPublic:       m.IsPublic,
		CreatedBy:      m.CreatedBy,
		Fields:         make([]checklist.Field, len(m.Fields)),
	}
	m.populate(&t.BaseAggregateRoot)
	for i := range m.Fields {
		t.Fields[i] = m.Fields[i].ToDomain()
	}
	return t
}

func ChecklistTemplateModelFromDomain(t *checklist.Template) *ChecklistTemplateModel {
	m := &ChecklistTemplateModel{
		OrganizationID: t.OrganizationID,
		Name:           t.Name,
		Description:    t.Description,
		Category:       t.Category,
		IsPublic:       t.IsPublic,
		CreatedBy:      t.CreatedBy,
		Fields:         make([]ChecklistFieldModel, len(t.Fields)),
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	for i, f := range t.Fields {
		m.Fields[i] = ChecklistFieldModel{
			ID:         f.ID,
			TemplateID: t.ID,
			Label:      f.Label,
			Category:   f.Category,
			Type:       f.Type,
			Required:   f.Required,
			Options:    f.Options,
			SortOrder:  f.SortOrder,
		}
	}
	return m
}

// ChecklistFieldModel maps checklist.Field
type ChecklistFieldModel struct {
	ID         uuid.UUID           `gorm:"type:uuid;primaryKey"`
	TemplateID uuid.UUID           `gorm:"type:uuid;not null;index"`
	Label      string              `gorm:"type:varchar(500);not null"`
	Category   string              `gorm:"type:varchar(100)"`
	Type       checklist.FieldType `gorm:"type:varchar(20);not null"`
	Required   bool                `gorm:"not null"`
	Options    []string            `gorm:"type:jsonb;serializer:json"`
	SortOrder  int                 `gorm:"not null"`
}

func (ChecklistFieldModel) TableName() string { return "checklist_fields" }

func (m *ChecklistFieldModel) ToDomain() checklist.Field {
	return checklist.Field{
		ID:        m.ID,
		Label:     m.Label,
		Category:  m.Category,
		Type:      m.Type,
		Required:  m.Required,
		Options:   m.Options,
		SortOrder: m.SortOrder,
	}
}
