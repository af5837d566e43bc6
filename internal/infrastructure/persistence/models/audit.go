package models

import (
	"encoding/json"
	"time"

	"github.com/compia/backend/internal/domain/audit"
	"github.com/google/uuid"
)

// AuditLogModel maps audit.Log. Rows are insert-only.
type AuditLogModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ActorID        *uuid.UUID      `gorm:"type:uuid;index"`
	Action         string          `gorm:"type:varchar(100);not null"`
	EntityType     string          `gorm:"type:varchar(50);not null;index:idx_audit_entity"`
	EntityID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_audit_entity"`
	Payload        json.RawMessage `gorm:"type:jsonb"`
	OccurredAt     time.Time       `gorm:"not null;index"`
	CreatedAt      time.Time       `gorm:"not null"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }

func (m *AuditLogModel) ToDomain() *audit.Log {
	return &audit.Log{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		ActorID:        m.ActorID,
		Action:         m.Action,
		EntityType:     m.EntityType,
		EntityID:       m.EntityID,
		Payload:        m.Payload,
		OccurredAt:     m.OccurredAt,
		CreatedAt:      m.CreatedAt,
	}
}

func AuditLogModelFromDomain(l *audit.Log) *AuditLogModel {
	return &AuditLogModel{
		ID:             l.ID,
		OrganizationID: l.OrganizationID,
		ActorID:        l.ActorID,
		Action:         l.Action,
		EntityType:     l.EntityType,
		EntityID:       l.EntityID,
		Payload:        l.Payload,
		OccurredAt:     l.OccurredAt,
		CreatedAt:      l.CreatedAt,
	}
}
