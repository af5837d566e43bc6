package ata

import (
	"time"

	"github.com/compia/backend/internal/domain/ata"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// GenerateInput starts a generation from uploaded audio chunks
type GenerateInput struct {
	AudioKeys []string `json:"audio_keys" binding:"required,min=1,max=50"`
}

// AudioUploadInput requests a presigned URL for one audio chunk
type AudioUploadInput struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
}

// AudioUploadResponse is where the client PUTs the chunk
type AudioUploadResponse struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// UpdateTranscriptInput is a human correction of the generated minutes
type UpdateTranscriptInput struct {
	Transcript string `json:"transcript" binding:"required"`
	Summary    string `json:"summary"`
}

// ListFilter narrows an ata listing
type ListFilter struct {
	shared.Filter
	OrganizationID *uuid.UUID
	InspectionID   *uuid.UUID
	Status         ata.Status
}

// AtaResponse is the public view of generated minutes
type AtaResponse struct {
	ID             uuid.UUID             `json:"id"`
	OrganizationID uuid.UUID             `json:"organization_id"`
	InspectionID   uuid.UUID             `json:"inspection_id"`
	Status         ata.Status            `json:"status"`
	AudioKeys      []string              `json:"audio_keys"`
	Transcript     string                `json:"transcript"`
	Summary        string                `json:"summary"`
	Participants   []string              `json:"participants"`
	Decisions      []string              `json:"decisions"`
	Findings       []ata.Finding         `json:"findings"`
	Actions        []ata.SuggestedAction `json:"actions"`
	MatchedItems   int                   `json:"matched_items"`
	Model          string                `json:"model,omitempty"`
	ErrorMessage   string                `json:"error_message,omitempty"`
	Attempts       int                   `json:"attempts"`
	GeneratedAt    *time.Time            `json:"generated_at,omitempty"`
	CreatedBy      *uuid.UUID            `json:"created_by,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// ToAtaResponse converts a domain ata
func ToAtaResponse(a *ata.Ata) AtaResponse {
	return AtaResponse{
		ID:             a.ID,
		OrganizationID: a.OrganizationID,
		InspectionID:   a.InspectionID,
		Status:         a.Status,
		AudioKeys:      a.AudioKeys,
		Transcript:     a.Transcript,
		Summary:        a.Summary,
		Participants:   a.Participants,
		Decisions:      a.Decisions,
		Findings:       a.Findings,
		Actions:        a.Actions,
		MatchedItems:   a.MatchedItems,
		Model:          a.Model,
		ErrorMessage:   a.ErrorMessage,
		Attempts:       a.Attempts,
		GeneratedAt:    a.GeneratedAt,
		CreatedBy:      a.CreatedBy,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
