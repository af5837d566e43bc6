// Package models holds the GORM persistence models. Domain types carry no
// ORM tags; each model converts with ToDomain and a ...FromDomain constructor.
package models

import (
	"time"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel maps shared.BaseEntity
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel adds the optimistic-lock version
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null"`
}

func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

func (m *AggregateModel) populate(a *shared.BaseAggregateRoot) {
	a.BaseEntity = m.BaseModel.ToDomain()
	a.RestoreVersion(m.Version)
}

// OrgAggregateModel is the base of every organization-owned table.
// The organization_id column is what the RLS policies key on.
type OrgAggregateModel struct {
	AggregateModel
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy      *uuid.UUID `gorm:"type:uuid"`
}

func (m *OrgAggregateModel) FromDomainOrgAggregateRoot(o shared.OrgAggregateRoot) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrganizationID = o.OrganizationID
	m.CreatedBy = o.CreatedBy
}

// PopulateOrgAggregateRoot copies the base columns into o
func (m *OrgAggregateModel) PopulateOrgAggregateRoot(o *shared.OrgAggregateRoot) {
	m.populate(&o.BaseAggregateRoot)
	o.OrganizationID = m.OrganizationID
	o.CreatedBy = m.CreatedBy
}

// All lists every model, parents first. Tests use it with AutoMigrate;
// production schemas come from the SQL migrations.
func All() []interface{} {
	return []interface{}{
		&OrganizationModel{},
		&UserModel{},
		&ChecklistTemplateModel{},
		&ChecklistFieldModel{},
		&InspectionModel{},
		&InspectionItemModel{},
		&InspectionMediaModel{},
		&InspectionSignatureModel{},
		&ActionItemModel{},
		&AtaModel{},
		&LeadModel{},
		&AuditLogModel{},
	}
}
