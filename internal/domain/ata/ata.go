// Package ata models the AI-generated minutes ("ata") of an inspection:
// a transcript of the recorded audio plus findings mapped onto the checklist.
package ata

import (
	"strings"
	"time"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status of a generation
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// MaxAudioChunks bounds how many uploaded chunks one generation may combine
const MaxAudioChunks = 50

// Ata is the generated minutes of one inspection
type Ata struct {
	shared.OrgAggregateRoot
	InspectionID uuid.UUID
	Status       Status
	// AudioKeys are storage keys of the recorded chunks, in playback order
	AudioKeys    []string
	Transcript   string
	Summary      string
	Participants []string
	Decisions    []string
	Findings     []Finding
	Actions      []SuggestedAction
	MatchedItems int
	Model        string
	ErrorMessage string
	Attempts     int
	GeneratedAt  *time.Time
}

// NewAta creates a generation request that is immediately picked up by a worker
func NewAta(orgID, createdBy, inspectionID uuid.UUID, audioKeys []string) (*Ata, error) {
	keys := make([]string, 0, len(audioKeys))
	for _, k := range audioKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, shared.NewDomainError("AUDIO_REQUIRED", "At least one audio chunk is required")
	}
	if len(keys) > MaxAudioChunks {
		return nil, shared.NewDomainError("TOO_MANY_CHUNKS", "Too many audio chunks")
	}
	return &Ata{
		OrgAggregateRoot: shared.NewOrgAggregateRootWithCreator(orgID, createdBy),
		InspectionID:     inspectionID,
		Status:           StatusProcessing,
		AudioKeys:        keys,
		Attempts:         1,
	}, nil
}

// Complete stores the parsed result
func (a *Ata) Complete(res *Result, matched int, model string, at time.Time) error {
	if a.Status != StatusProcessing {
		return shared.NewDomainError("INVALID_STATE", "Only processing atas can be completed")
	}
	a.Transcript = res.Transcript
	a.Summary = res.Summary
	a.Participants = res.Participants
	a.Decisions = res.Decisions
	a.Findings = res.Findings
	a.Actions = res.Actions
	a.MatchedItems = matched
	a.Model = model
	a.ErrorMessage = ""
	a.Status = StatusCompleted
	a.GeneratedAt = &at
	a.IncrementVersion()
	a.AddDomainEvent(NewAtaCompletedEvent(a))
	return nil
}

// Fail records a pipeline error
func (a *Ata) Fail(reason string) {
	if r := []rune(reason); len(r) > 1000 {
		reason = string(r[:1000])
	}
	a.Status = StatusFailed
	a.ErrorMessage = reason
	a.IncrementVersion()
	a.AddDomainEvent(NewAtaFailedEvent(a))
}

// Retry puts a failed generation back into processing
func (a *Ata) Retry() error {
	if a.Status != StatusFailed {
		return shared.NewDomainError("INVALID_STATE", "Only failed atas can be retried")
	}
	a.Status = StatusProcessing
	a.ErrorMessage = ""
	a.Attempts++
	a.IncrementVersion()
	return nil
}

// EditTranscript replaces the transcript and summary after human review
func (a *Ata) EditTranscript(transcript, summary string) error {
	if a.Status != StatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only completed atas can be edited")
	}
	a.Transcript = strings.TrimSpace(transcript)
	if s := strings.TrimSpace(summary); s != "" {
		a.Summary = s
	}
	a.IncrementVersion()
	return nil
}
