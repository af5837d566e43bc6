package inspection

import (
	"time"

	"github.com/compia/backend/internal/domain/checklist"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInspectionInput contains the input for creating an inspection
type CreateInspectionInput struct {
	OrganizationID   *uuid.UUID            `json:"organization_id"`
	TemplateID       *uuid.UUID            `json:"template_id"`
	InspectorID      *uuid.UUID            `json:"inspector_id"`
	Title            string                `json:"title" binding:"required,max=300"`
	Description      string                `json:"description"`
	Location         string                `json:"location"`
	CompanyName      string                `json:"company_name"`
	Address          valueobject.Address   `json:"address"`
	Geo              *valueobject.GeoPoint `json:"geo"`
	ResponsibleName  string                `json:"responsible_name"`
	ResponsibleEmail string                `json:"responsible_email" binding:"omitempty,email"`
	Priority         inspection.Priority   `json:"priority"`
	ScheduledAt      *time.Time            `json:"scheduled_at"`
}

// UpdateInspectionInput replaces the descriptive fields
type UpdateInspectionInput struct {
	InspectorID      *uuid.UUID            `json:"inspector_id"`
	Title            string                `json:"title" binding:"required,max=300"`
	Description      string                `json:"description"`
	Location         string                `json:"location"`
	CompanyName      string                `json:"company_name"`
	Address          valueobject.Address   `json:"address"`
	Geo              *valueobject.GeoPoint `json:"geo"`
	ResponsibleName  string                `json:"responsible_name"`
	ResponsibleEmail string                `json:"responsible_email" binding:"omitempty,email"`
	Priority         inspection.Priority   `json:"priority"`
	ScheduledAt      *time.Time            `json:"scheduled_at"`
}

// ListFilter narrows an inspection listing
type ListFilter struct {
	shared.Filter
	OrganizationID *uuid.UUID
	Status         inspection.Status
	InspectorID    *uuid.UUID
	From           *time.Time
	To             *time.Time
}

// AddItemInput adds an ad-hoc question to an inspection
type AddItemInput struct {
	Category    string              `json:"category" binding:"max=100"`
	Description string              `json:"description" binding:"required,max=500"`
	FieldType   checklist.FieldType `json:"field_type"`
	Required    bool                `json:"required"`
	Options     []string            `json:"options"`
}

// ItemAnswerInput is an inspector's answer for one item
type ItemAnswerInput struct {
	ItemID        uuid.UUID `json:"item_id"`
	IsCompliant   *bool     `json:"is_compliant"`
	NotApplicable bool      `json:"not_applicable"`
	Response      string    `json:"response"`
	Observations  string    `json:"observations"`
}

// SignatureInput is one signature sent on finalize. Exactly one of
// StorageKey (an already uploaded image) or DataURL must be set.
type SignatureInput struct {
	Kind       inspection.SignatureKind `json:"kind" binding:"required"`
	SignerName string                   `json:"signer_name" binding:"required"`
	SignerRole string                   `json:"signer_role"`
	StorageKey string                   `json:"storage_key"`
	DataURL    string                   `json:"data_url"`
}

// FinalizeInput closes an inspection. CreateActionItems drafts a 5W2H
// action for every non-compliant item that lacks one.
type FinalizeInput struct {
	Signatures        []SignatureInput `json:"signatures"`
	Summary           string           `json:"summary"`
	Recommendations   string           `json:"recommendations"`
	CreateActionItems bool             `json:"create_action_items"`
}

// ItemResponse is the public view of a checklist item
type ItemResponse struct {
	ID            uuid.UUID           `json:"id"`
	FieldID       *uuid.UUID          `json:"field_id,omitempty"`
	Category      string              `json:"category,omitempty"`
	Description   string              `json:"description"`
	FieldType     checklist.FieldType `json:"field_type"`
	Required      bool                `json:"required"`
	Options       []string            `json:"options,omitempty"`
	IsCompliant   *bool               `json:"is_compliant"`
	NotApplicable bool                `json:"not_applicable"`
	Response      string              `json:"response,omitempty"`
	Observations  string              `json:"observations,omitempty"`
	AIObservation string              `json:"ai_observation,omitempty"`
	AIAssisted    bool                `json:"ai_assisted"`
	SortOrder     int                 `json:"sort_order"`
	EvaluatedBy   *uuid.UUID          `json:"evaluated_by,omitempty"`
	EvaluatedAt   *time.Time          `json:"evaluated_at,omitempty"`
}

// ToItemResponse converts a domain item
func ToItemResponse(it *inspection.Item) ItemResponse {
	return ItemResponse{
		ID:            it.ID,
		FieldID:       it.FieldID,
		Category:      it.Category,
		Description:   it.Description,
		FieldType:     it.FieldType,
		Required:      it.Required,
		Options:       it.Options,
		IsCompliant:   it.IsCompliant,
		NotApplicable: it.NotApplicable,
		Response:      it.Response,
		Observations:  it.Observations,
		AIObservation: it.AIObservation,
		AIAssisted:    it.AIAssisted,
		SortOrder:     it.SortOrder,
		EvaluatedBy:   it.EvaluatedBy,
		EvaluatedAt:   it.EvaluatedAt,
	}
}

// SignatureResponse is the public view of a signature
type SignatureResponse struct {
	ID         uuid.UUID                `json:"id"`
	Kind       inspection.SignatureKind `json:"kind"`
	SignerName string                   `json:"signer_name"`
	SignerRole string                   `json:"signer_role,omitempty"`
	StorageKey string                   `json:"storage_key"`
	SignedAt   time.Time                `json:"signed_at"`
}

// InspectionResponse is the public view of an inspection
type InspectionResponse struct {
	ID               uuid.UUID             `json:"id"`
	OrganizationID   uuid.UUID             `json:"organization_id"`
	Title            string                `json:"title"`
	Description      string                `json:"description,omitempty"`
	Location         string                `json:"location,omitempty"`
	CompanyName      string                `json:"company_name,omitempty"`
	Address          valueobject.Address   `json:"address"`
	Geo              *valueobject.GeoPoint `json:"geo,omitempty"`
	InspectorID      *uuid.UUID            `json:"inspector_id,omitempty"`
	InspectorName    string                `json:"inspector_name,omitempty"`
	ResponsibleName  string                `json:"responsible_name,omitempty"`
	ResponsibleEmail string                `json:"responsible_email,omitempty"`
	TemplateID       *uuid.UUID            `json:"template_id,omitempty"`
	Status           inspection.Status     `json:"status"`
	Priority         inspection.Priority   `json:"priority"`
	ScheduledAt      *time.Time            `json:"scheduled_at,omitempty"`
	StartedAt        *time.Time            `json:"started_at,omitempty"`
	CompletedAt      *time.Time            `json:"completed_at,omitempty"`
	ComplianceScore  *decimal.Decimal      `json:"compliance_score,omitempty"`
	Summary          string                `json:"summary,omitempty"`
	Recommendations  string                `json:"recommendations,omitempty"`
	CreatedBy        *uuid.UUID            `json:"created_by,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Version          int                   `json:"version"`

	Items      []ItemResponse      `json:"items,omitempty"`
	Signatures []SignatureResponse `json:"signatures,omitempty"`
	Score      *inspection.Score   `json:"score,omitempty"`
}

// ToInspectionResponse converts a domain inspection without its children
func ToInspectionResponse(i *inspection.Inspection) InspectionResponse {
	return InspectionResponse{
		ID:               i.ID,
		OrganizationID:   i.OrganizationID,
		Title:            i.Title,
		Description:      i.Description,
		Location:         i.Location,
		CompanyName:      i.CompanyName,
		Address:          i.Address,
		Geo:              i.Geo,
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
		CreatedBy:        i.CreatedBy,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
		Version:          i.Version,
	}
}

func withChildren(resp InspectionResponse, items []inspection.Item, sigs []inspection.Signature) InspectionResponse {
	resp.Items = make([]ItemResponse, len(items))
	for i := range items {
		resp.Items[i] = ToItemResponse(&items[i])
	}
	score := inspection.CalculateScore(items)
	resp.Score = &score
	for _, s := range sigs {
		resp.Signatures = append(resp.Signatures, SignatureResponse{
			ID:         s.ID,
			Kind:       s.Kind,
			SignerName: s.SignerName,
			SignerRole: s.SignerRole,
			StorageKey: s.StorageKey,
			SignedAt:   s.SignedAt,
		})
	}
	return resp
}

// FinalizeResult reports the closed inspection and any drafted actions
type FinalizeResult struct {
	Inspection         InspectionResponse `json:"inspection"`
	Score              inspection.Score   `json:"score"`
	ActionItemsCreated int                `json:"action_items_created"`
}

// UploadURLInput asks for a presigned upload
type UploadURLInput struct {
	ItemID      *uuid.UUID `json:"item_id"`
	FileName    string     `json:"file_name" binding:"required,max=255"`
	ContentType string     `json:"content_type" binding:"required"`
	Size        int64      `json:"size" binding:"required,gt=0"`
}

// UploadURLResponse carries the URL the client PUTs the file to
type UploadURLResponse struct {
	UploadURL   string    `json:"upload_url"`
	StorageKey  string    `json:"storage_key"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// RegisterMediaInput records a finished upload
type RegisterMediaInput struct {
	ItemID      *uuid.UUID `json:"item_id"`
	StorageKey  string     `json:"storage_key" binding:"required"`
	FileName    string     `json:"file_name" binding:"required,max=255"`
	ContentType string     `json:"content_type" binding:"required"`
	Size        int64      `json:"size" binding:"required,gt=0"`
	Description string     `json:"description" binding:"max=500"`
}

// MediaResponse is the public view of a media record
type MediaResponse struct {
	ID           uuid.UUID            `json:"id"`
	InspectionID uuid.UUID            `json:"inspection_id"`
	ItemID       *uuid.UUID           `json:"item_id,omitempty"`
	Type         inspection.MediaType `json:"type"`
	FileName     string               `json:"file_name"`
	ContentType  string               `json:"content_type"`
	Size         int64                `json:"size"`
	StorageKey   string               `json:"storage_key"`
	Description  string               `json:"description,omitempty"`
	UploadedBy   uuid.UUID            `json:"uploaded_by"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ToMediaResponse converts a domain media record
func ToMediaResponse(m *inspection.Media) MediaResponse {
	return MediaResponse{
		ID:           m.ID,
		InspectionID: m.InspectionID,
		ItemID:       m.ItemID,
		Type:         m.Type,
		FileName:     m.FileName,
		ContentType:  m.ContentType,
		Size:         m.Size,
		StorageKey:   m.StorageKey,
		Description:  m.Description,
		UploadedBy:   m.UploadedBy,
		CreatedAt:    m.CreatedAt,
	}
}

// DownloadURLResponse carries a short-lived read URL
type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
