// Package checklist holds inspection checklist templates.
package checklist

import (
	"sort"
	"strings"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FieldType is the kind of answer a checklist field expects
type FieldType string

const (
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeText        FieldType = "text"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeNumber      FieldType = "number"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
	FieldTypeRating      FieldType = "rating"
	FieldTypeDate        FieldType = "date"
	FieldTypePhoto       FieldType = "photo"
)

// IsValid reports whether t is a known field type
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeBoolean, FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeSelect,
		FieldTypeMultiSelect, FieldTypeRating, FieldTypeDate, FieldTypePhoto:
		return true
	}
	return false
}

// NeedsOptions reports whether the type requires a list of options
func (t FieldType) NeedsOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeMultiSelect
}

// Field is one question of a template
type Field struct {
	ID        uuid.UUID
	Label     string
	Category  string
	Type      FieldType
	Required  bool
	Options   []string
	SortOrder int
}

// Template is a reusable list of fields. OrganizationID is nil for the
// global library maintained by platform administrators.
type Template struct {
	shared.BaseAggregateRoot
	OrganizationID *uuid.UUID
	Name           string
	Description    string
	Category       string
	IsPublic       bool
	Fields         []Field
	CreatedBy      *uuid.UUID
}

// NewTemplate creates an empty template
func NewTemplate(orgID *uuid.UUID, name, description, category string) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Template name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Template name cannot exceed 200 characters")
	}
	return &Template{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrganizationID:    orgID,
		Name:              name,
		Description:       strings.TrimSpace(description),
		Category:          strings.TrimSpace(category),
		Fields:            make([]Field, 0),
	}, nil
}

// Update changes descriptive fields
func (t *Template) Update(name, description, category string, isPublic bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Template name cannot be empty")
	}
	t.Name = name
	t.Description = strings.TrimSpace(description)
	t.Category = strings.TrimSpace(category)
	t.IsPublic = isPublic
	t.IncrementVersion()
	return nil
}

// ReplaceFields validates and stores a new field list. SortOrder is
// rewritten to the slice position so the stored order is dense.
func (t *Template) ReplaceFields(fields []Field) error {
	out := make([]Field, 0, len(fields))
	for i, f := range fields {
		f.Label = strings.TrimSpace(f.Label)
		f.Category = strings.TrimSpace(f.Category)
		if f.Label == "" {
			return shared.NewDomainError("INVALID_FIELD", "Field label cannot be empty")
		}
		if !f.Type.IsValid() {
			return shared.NewDomainError("INVALID_FIELD_TYPE", "Unknown field type: "+string(f.Type))
		}
		if f.Type.NeedsOptions() && len(f.Options) == 0 {
			return shared.NewDomainError("INVALID_FIELD", "Field '"+f.Label+"' needs at least one option")
		}
		if !f.Type.NeedsOptions() {
			f.Options = nil
		}
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		f.SortOrder = i
		out = append(out, f)
	}
	t.Fields = out
	t.IncrementVersion()
	return nil
}

// SortedFields returns the fields ordered by SortOrder
func (t *Template) SortedFields() []Field {
	out := make([]Field, len(t.Fields))
	copy(out, t.Fields)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// IsGlobal reports whether the template belongs to the platform library
func (t *Template) IsGlobal() bool {
	return t.OrganizationID == nil
}

// VisibleTo reports whether a principal whose visibility is canSee may use the template
func (t *Template) VisibleTo(canSee func(uuid.UUID) bool) bool {
	if t.IsGlobal() || t.IsPublic {
		return true
	}
	return canSee(*t.OrganizationID)
}

// Duplicate copies the template into orgID with fresh field IDs
func (t *Template) Duplicate(orgID uuid.UUID, createdBy uuid.UUID) *Template {
	owner := orgID
	dup := &Template{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrganizationID:    &owner,
		Name:              t.Name + " (cópia)",
		Description:       t.Description,
		Category:          t.Category,
		Fields:            make([]Field, 0, len(t.Fields)),
		CreatedBy:         &createdBy,
	}
	for _, f := range t.SortedFields() {
		f.ID = uuid.New()
		f.Options = append([]string(nil), f.Options...)
		dup.Fields = append(dup.Fields, f)
	}
	return dup
}
