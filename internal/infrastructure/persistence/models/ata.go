package models

import (
	"time"

	"github.com/compia/backend/internal/domain/ata"
	"github.com/google/uuid"
)

// AtaModel maps ata.Ata. List fields are JSON documents.
type AtaModel struct {
	OrgAggregateModel
	InspectionID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Status       ata.Status            `gorm:"type:varchar(20);not null;index"`
	AudioKeys    []string              `gorm:"type:jsonb;serializer:json"`
	Transcript   string                `gorm:"type:text"`
	Summary      string                `gorm:"type:text"`
	Participants []string              `gorm:"type:jsonb;serializer:json"`
	Decisions    []string              `gorm:"type:jsonb;serializer:json"`
	Findings     []ata.Finding         `gorm:"type:jsonb;serializer:json"`
	Actions      []ata.SuggestedAction `gorm:"type:jsonb;serializer:json"`
	MatchedItems int                   `gorm:"not null"`
	Model        string                `gorm:"type:varchar(100)"`
	ErrorMessage string                `gorm:"type:text"`
	Attempts     int                   `gorm:"not null"`
	GeneratedAt  *time.Time
}

func (AtaModel) TableName() string { return "atas" }

func (m *AtaModel) ToDomain() *ata.Ata {
	a := &ata.Ata{
		InspectionID: m.InspectionID,
		Status:       m.Status,
		AudioKeys:    m.AudioKeys,
		Transcript:   m.Transcript,
		Summary:      m.Summary,
		Participants: m.Participants,
		Decisions:    m.Decisions,
		Findings:     m.Findings,
		Actions:      m.Actions,
		MatchedItems: m.MatchedItems,
		Model:        m.Model,
		ErrorMessage: m.ErrorMessage,
		Attempts:     m.Attempts,
		GeneratedAt:  m.GeneratedAt,
	}
	m.PopulateOrgAggregateRoot(&a.OrgAggregateRoot)
	return a
}

func AtaModelFromDomain(a *ata.Ata) *AtaModel {
	m := &AtaModel{
		InspectionID: a.InspectionID,
		Status:       a.Status,
		AudioKeys:    a.AudioKeys,
		Transcript:   a.Transcript,
		Summary:      a.Summary,
		Participants: a.Participants,
		Decisions:    a.Decisions,
		Findings:     a.Findings,
		Actions:      a.Actions,
		MatchedItems: a.MatchedItems,
		Model:        a.Model,
		ErrorMessage: a.ErrorMessage,
		Attempts:     a.Attempts,
		GeneratedAt:  a.GeneratedAt,
	}
	m.FromDomainOrgAggregateRoot(a.OrgAggregateRoot)
	return m
}
