package inspection

import (
	"strings"
	"time"

	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Item is one checklist question inside an inspection.
// IsCompliant nil means "not evaluated" unless NotApplicable is set.
type Item struct {
	shared.BaseEntity
	shared.Versioned
	OrganizationID uuid.UUID
	InspectionID   uuid.UUID
	FieldID        *uuid.UUID
	Category       string
	Description    string
	FieldType      checklist.FieldType
	Required       bool
	Options        []string
	IsCompliant    *bool
	NotApplicable  bool
	Response       string
	Observations   string
	AIObservation  string
	AIAssisted     bool
	SortOrder      int
	EvaluatedBy    *uuid.UUID
	EvaluatedAt    *time.Time
}

// NewItem creates an ad-hoc item (not copied from a template)
func NewItem(insp *Inspection, category, description string, fieldType checklist.FieldType, sortOrder int) (*Item, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item description cannot be empty")
	}
	if fieldType == "" {
		fieldType = checklist.FieldTypeBoolean
	}
	if !fieldType.IsValid() {
		return nil, shared.NewDomainError("INVALID_FIELD_TYPE", "Unknown field type")
	}
	return &Item{
		BaseEntity:     shared.NewBaseEntity(),
		OrganizationID: insp.OrganizationID,
		InspectionID:   insp.ID,
		Category:       strings.TrimSpace(category),
		Description:    description,
		FieldType:      fieldType,
		SortOrder:      sortOrder,
	}, nil
}

// ItemsFromTemplate copies every template field into a new item
func ItemsFromTemplate(insp *Inspection, tpl *checklist.Template) []Item {
	fields := tpl.SortedFields()
	items := make([]Item, 0, len(fields))
	for _, f := range fields {
		fieldID := f.ID
		items = append(items, Item{
			BaseEntity:     shared.NewBaseEntity(),
			OrganizationID: insp.OrganizationID,
			InspectionID:   insp.ID,
			FieldID:        &fieldID,
			Category:       f.Category,
			Description:    f.Label,
			FieldType:      f.Type,
			Required:       f.Required,
			Options:        append([]string(nil), f.Options...),
			SortOrder:      f.SortOrder,
		})
	}
	return items
}

// Answer is an inspector's evaluation of one item
type Answer struct {
	IsCompliant   *bool
	NotApplicable bool
	Response      string
	Observations  string
}

// Evaluate records an inspector's answer. A human answer always wins
// over a previous AI suggestion.
func (it *Item) Evaluate(a Answer, by uuid.UUID, at time.Time) error {
	if a.NotApplicable && a.IsCompliant != nil {
		return shared.NewDomainError("INVALID_ANSWER", "An item cannot be both compliant/non-compliant and not applicable")
	}
	resp := strings.TrimSpace(a.Response)
	if resp != "" && it.FieldType.NeedsOptions() && !it.acceptsResponse(resp) {
		return shared.NewDomainError("INVALID_ANSWER", "Response is not one of the field options")
	}
	it.IsCompliant = a.IsCompliant
	it.NotApplicable = a.NotApplicable
	it.Response = resp
	it.Observations = strings.TrimSpace(a.Observations)
	it.AIAssisted = false
	it.EvaluatedBy = &by
	it.EvaluatedAt = &at
	it.Touch()
	return nil
}

// acceptsResponse checks select answers; multiselect answers are separated by ';'
func (it *Item) acceptsResponse(resp string) bool {
	parts := []string{resp}
	if it.FieldType == checklist.FieldTypeMultiSelect {
		parts = strings.Split(resp, ";")
	}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		ok := false
		for _, opt := range it.Options {
			if strings.EqualFold(opt, p) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// IsEvaluated reports whether the item has an answer of any kind
func (it *Item) IsEvaluated() bool {
	if it.NotApplicable || it.IsCompliant != nil {
		return true
	}
	return it.FieldType != checklist.FieldTypeBoolean && it.Response != ""
}

// IsNonCompliant reports whether the item was explicitly marked non-compliant
func (it *Item) IsNonCompliant() bool {
	return it.IsCompliant != nil && !*it.IsCompliant
}

// ApplySuggestion fills an unevaluated item from an automated finding.
// It reports false and changes nothing when the item already has an answer.
func (it *Item) ApplySuggestion(compliant *bool, observation string) bool {
	if it.IsEvaluated() {
		if observation != "" && it.AIObservation == "" {
			it.AIObservation = strings.TrimSpace(observation)
			it.Touch()
		}
		return false
	}
	it.IsCompliant = compliant
	it.AIObservation = strings.TrimSpace(observation)
	it.AIAssisted = true
	it.Touch()
	return true
}

// MissingRequired returns the descriptions of required items without an answer
func MissingRequired(items []Item) []string {
	var missing []string
	for i := range items {
		if items[i].Required && !items[i].IsEvaluated() {
			missing = append(missing, items[i].Description)
		}
	}
	return missing
}
