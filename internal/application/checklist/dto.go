package checklist

import (
	"time"

	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FieldInput is one question in a create/update request
type FieldInput struct {
	Label    string              `json:"label" binding:"required,max=500"`
	Category string              `json:"category" binding:"max=100"`
	Type     checklist.FieldType `json:"type" binding:"required"`
	Required bool                `json:"required"`
	Options  []string            `json:"options"`
}

// CreateTemplateInput contains the input for creating a template
type CreateTemplateInput struct {
	OrganizationID *uuid.UUID
	// Global puts the template in the platform library (sys_admin only)
	Global      bool
	Name        string
	Description string
	Category    string
	IsPublic    bool
	Fields      []FieldInput
}

// UpdateTemplateInput replaces descriptive fields and, when Fields is non-nil, the field list
type UpdateTemplateInput struct {
	Name        string
	Description string
	Category    string
	IsPublic    bool
	Fields      []FieldInput
}

// TemplateListFilter narrows a template listing
type TemplateListFilter struct {
	shared.Filter
	OrganizationID *uuid.UUID
	Category       string
}

// FieldResponse is the public view of a field
type FieldResponse struct {
	ID        uuid.UUID           `json:"id"`
	Label     string              `json:"label"`
	Category  string              `json:"category,omitempty"`
	Type      checklist.FieldType `json:"type"`
	Required  bool                `json:"required"`
	Options   []string            `json:"options,omitempty"`
	SortOrder int                 `json:"sort_order"`
}

// TemplateResponse is the public view of a template
type TemplateResponse struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID *uuid.UUID      `json:"organization_id,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Category       string          `json:"category,omitempty"`
	IsPublic       bool            `json:"is_public"`
	IsGlobal       bool            `json:"is_global"`
	Fields         []FieldResponse `json:"fields"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ToTemplateResponse converts a domain template
func ToTemplateResponse(t *checklist.Template) TemplateResponse {
	fields := t.SortedFields()
	out := make([]FieldResponse, len(fields))
	for i, f := range fields {
		out[i] = FieldResponse{
			ID:        f.ID,
			Label:     f.Label,
			Category:  f.Category,
			Type:      f.Type,
			Required:  f.Required,
			Options:   f.Options,
			SortOrder: f.SortOrder,
		}
	}
	return TemplateResponse{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		Name:           t.Name,
		Description:    t.Description,
		Category:       t.Category,
		IsPublic:       t.IsPublic,
		IsGlobal:       t.IsGlobal(),
		Fields:         out,
		CreatedBy:      t.CreatedBy,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func toFields(in []FieldInput) []checklist.Field {
	out := make([]checklist.Field, len(in))
	for i, f := range in {
		out[i] = checklist.Field{
			Label:    f.Label,
			Category: f.Category,
			Type:     f.Type,
			Required: f.Required,
			Options:  f.Options,
		}
	}
	return out
}
