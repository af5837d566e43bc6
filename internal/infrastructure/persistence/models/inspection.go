package models

import (
	"time"

	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InspectionModel maps inspection.Inspection
type InspectionModel struct {
	OrgAggregateModel
	Title            string              `gorm:"type:varchar(300);not null"`
	Description      string              `gorm:"type:text"`
	Location         string              `gorm:"type:varchar(300)"`
	CompanyName      string              `gorm:"type:varchar(200)"`
	Address          valueobject.Address `gorm:"type:jsonb"`
	Latitude         *float64
	Longitude        *float64
	InspectorID      *uuid.UUID          `gorm:"type:uuid;index"`
	InspectorName    string              `gorm:"type:varchar(200)"`
	ResponsibleName  string              `gorm:"type:varchar(200)"`
	ResponsibleEmail string              `gorm:"type:varchar(200)"`
	TemplateID       *uuid.UUID          `gorm:"type:uuid;index"`
	Status           inspection.Status   `gorm:"type:varchar(20);not null;index"`
	Priority         inspection.Priority `gorm:"type:varchar(20);not null"`
	ScheduledAt      *time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
	ComplianceScore  *decimal.Decimal `gorm:"type:decimal(5,2)"`
	Summary          string           `gorm:"type:text"`
	Recommendations  string           `gorm:"type:text"`
}

func (InspectionModel) TableName() string { return "inspections" }

func (m *InspectionModel) ToDomain() *inspection.Inspection {
	i := &inspection.Inspection{
		Title:            m.Title,
		Description:      m.Description,
		Location:         m.Location,
		CompanyName:      m.CompanyName,
		Address:          m.Address,
		InspectorID:      m.InspectorID,
		InspectorName:    m.InspectorName,
		ResponsibleName:  m.ResponsibleName,
		ResponsibleEmail: m.ResponsibleEmail,
		TemplateID:       m.TemplateID,
		Status:           m.Status,
		Priority:         m.Priority,
		ScheduledAt:      m.ScheduledAt,
		StartedAt:        m.StartedAt,
		CompletedAt:      m.CompletedAt,
		ComplianceScore:  m.ComplianceScore,
		Summary:          m.Summary,
		Recommendations:  m.Recommendations,
	}
	if m.Latitude != nil && m.Longitude != nil {
		i.Geo = &valueobject.GeoPoint{Latitude: *m.Latitude, Longitude: *m.Longitude}
	}
	m.PopulateOrgAggregateRoot(&i.OrgAggregateRoot)
	return i
}

func InspectionModelFromDomain(i *inspection.Inspection) *InspectionModel {
	m := &InspectionModel{
		Title:            i.Title,
		Description:      i.Description,
		Location:         i.Location,
		CompanyName:      i.CompanyName,
		Address:          i.Address,
		InspectorID:      i.InspectorID,
		InspectorName:    i.InspectorName,
		ResponsibleName:  i.ResponsibleName,
		ResponsibleEmail: i.ResponsibleEmail,
		TemplateID:       i.TemplateID,
		Status:           i.Status,
		Priority:         i.Priority,
		ScheduledAt:      i.ScheduledAt,
		StartedAt:        i.StartedAt,
		CompletedAt:      i.CompletedAt,
		ComplianceScore:  i.ComplianceScore,
		Summary:          i.Summary,
		Recommendations:  i.Recommendations,
	}
	if i.Geo != nil {
		lat, lng := i.Geo.Latitude, i.Geo.Longitude
		m.Latitude, m.Longitude = &lat, &lng
	}
	m.FromDomainOrgAggregateRoot(i.OrgAggregateRoot)
	return m
}

// InspectionItemModel maps inspection.Item
type InspectionItemModel struct {
	BaseModel
	Version        int                 `gorm:"not null;default:1"`
	OrganizationID uuid.UUID           `gorm:"type:uuid;not null;index"`
	InspectionID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	FieldID        *uuid.UUID          `gorm:"type:uuid"`
	Category       string              `gorm:"type:varchar(100)"`
	Description    string              `gorm:"type:text;not null"`
	FieldType      checklist.FieldType `gorm:"type:varchar(20);not null"`
	Required       bool                `gorm:"not null"`
	Options        []string            `gorm:"type:jsonb;serializer:json"`
	IsCompliant    *bool
	NotApplicable  bool       `gorm:"not null"`
	Response       string     `gorm:"type:text"`
	Observations   string     `gorm:"type:text"`
	AIObservation  string     `gorm:"column:ai_observation;type:text"`
	AIAssisted     bool       `gorm:"column:ai_assisted;not null"`
	SortOrder      int        `gorm:"not null"`
	EvaluatedBy    *uuid.UUID `gorm:"type:uuid"`
	EvaluatedAt    *time.Time
}

func (InspectionItemModel) TableName() string { return "inspection_items" }

func (m *InspectionItemModel) ToDomain() *inspection.Item {
	it := &inspection.Item{
		BaseEntity:     m.BaseModel.ToDomain(),
		OrganizationID: m.OrganizationID,
		InspectionID:   m.InspectionID,
		FieldID:        m.FieldID,
		Category:       m.Category,
		Description:    m.Description,
		FieldType:      m.FieldType,
		Required:       m.Required,
		Options:        m.Options,
		IsCompliant:    m.IsCompliant,
		NotApplicable:  m.NotApplicable,
		Response:       m.Response,
		Observations:   m.Observations,
		AIObservation:  m.AIObservation,
		AIAssisted:     m.AIAssisted,
		SortOrder:      m.SortOrder,
		EvaluatedBy:    m.EvaluatedBy,
		EvaluatedAt:    m.EvaluatedAt,
	}
	it.RestoreVersion(m.Version)
	return it
}

func InspectionItemModelFromDomain(it *inspection.Item) *InspectionItemModel {
	m := &InspectionItemModel{
		Version:        it.Version,
		OrganizationID: it.OrganizationID,
		InspectionID:   it.InspectionID,
		FieldID:        it.FieldID,
		Category:       it.Category,
		Description:    it.Description,
		FieldType:      it.FieldType,
		Required:       it.Required,
		Options:        it.Options,
		IsCompliant:    it.IsCompliant,
		NotApplicable:  it.NotApplicable,
		Response:       it.Response,
		Observations:   it.Observations,
		AIObservation:  it.AIObservation,
		AIAssisted:     it.AIAssisted,
		SortOrder:      it.SortOrder,
		EvaluatedBy:    it.EvaluatedBy,
		EvaluatedAt:    it.EvaluatedAt,
	}
	m.FromDomainBaseEntity(it.BaseEntity)
	return m
}

// InspectionMediaModel maps inspection.Media
type InspectionMediaModel struct {
	BaseModel
	OrganizationID uuid.UUID            `gorm:"type:uuid;not null;index"`
	InspectionID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	ItemID         *uuid.UUID           `gorm:"type:uuid;index"`
	Type           inspection.MediaType `gorm:"type:varchar(20);not null"`
	FileName       string               `gorm:"type:varchar(255);not null"`
	ContentType    string               `gorm:"type:varchar(100);not null"`
	Size           int64                `gorm:"not null"`
	StorageKey     string               `gorm:"type:varchar(500);not null;uniqueIndex"`
	Description    string               `gorm:"type:text"`
	UploadedBy     uuid.UUID            `gorm:"type:uuid;not null"`
}

func (InspectionMediaModel) TableName() string { return "inspection_media" }

func (m *InspectionMediaModel) ToDomain() *inspection.Media {
	return &inspection.Media{
		BaseEntity:     m.BaseModel.ToDomain(),
		OrganizationID: m.OrganizationID,
		InspectionID:   m.InspectionID,
		ItemID:         m.ItemID,
		Type:           m.Type,
		FileName:       m.FileName,
		ContentType:    m.ContentType,
		Size:           m.Size,
		StorageKey:     m.StorageKey,
		Description:    m.Description,
		UploadedBy:     m.UploadedBy,
	}
}

func InspectionMediaModelFromDomain(md *inspection.Media) *InspectionMediaModel {
	m := &InspectionMediaModel{
		OrganizationID: md.OrganizationID,
		InspectionID:   md.InspectionID,
		ItemID:         md.ItemID,
		Type:           md.Type,
		FileName:       md.FileName,
		ContentType:    md.ContentType,
		Size:           md.Size,
		StorageKey:     md.StorageKey,
		Description:    md.Description,
		UploadedBy:     md.UploadedBy,
	}
	m.FromDomainBaseEntity(md.BaseEntity)
	return m
}

// InspectionSignatureModel maps inspection.Signature
type InspectionSignatureModel struct {
	BaseModel
	OrganizationID uuid.UUID                `gorm:"type:uuid;not null;index"`
	InspectionID   uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_signature_kind"`
	Kind           inspection.SignatureKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_signature_kind"`
	SignerName     string                   `gorm:"type:varchar(200);not null"`
	SignerRole     string                   `gorm:"type:varchar(100)"`
	StorageKey     string                   `gorm:"type:varchar(500)"`
	SignedAt       time.Time                `gorm:"not null"`
}

func (InspectionSignatureModel) TableName() string { return "inspection_signatures" }

func (m *InspectionSignatureModel) ToDomain() inspection.Signature {
	return inspection.Signature{
		BaseEntity:     m.BaseModel.ToDomain(),
		OrganizationID: m.OrganizationID,
		InspectionID:   m.InspectionID,
		Kind:           m.Kind,
		SignerName:     m.SignerName,
		SignerRole:     m.SignerRole,
		StorageKey:     m.StorageKey,
		SignedAt:       m.SignedAt,
	}
}

func InspectionSignatureModelFromDomain(s *inspection.Signature) *InspectionSignatureModel {
	m := &InspectionSignatureModel{
		OrganizationID: s.OrganizationID,
		InspectionID:   s.InspectionID,
		Kind:           s.Kind,
		SignerName:     s.SignerName,
		SignerRole:     s.SignerRole,
		StorageKey:     s.StorageKey,
		SignedAt:       s.SignedAt,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
