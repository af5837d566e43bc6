// Package ata runs the pipeline that turns recorded inspection meetings into
// structured minutes and pre-fills the checklist from them.
package ata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/compia/backend/internal/domain/ata"
	"github.com/compia/backend/internal/domain/billing"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/llm"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/compia/backend/internal/infrastructure/scheduler"
	"github.com/compia/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMaxAudioBytes = 20 << 20
	resumeBatch          = 100
	maxSaveAttempts      = 3
)

var (
	ErrAtaInProgress = shared.NewDomainError("ATA_IN_PROGRESS", "A generation is already running for this inspection")
	ErrQueueFull     = shared.NewDomainError("ATA_QUEUE_FULL", "Too many generations queued, try again later")
	ErrAudioTooLarge = shared.NewDomainError("AUDIO_TOO_LARGE", "Recorded audio exceeds the allowed size")
)

// JobQueue accepts background jobs
type JobQueue interface {
	Submit(job *scheduler.Job) error
}

// Generator produces structured minutes from audio
type Generator interface {
	GenerateJSON(ctx context.Context, req llm.Request) (string, error)
	Model() string
}

// AudioStorage reads recorded chunks and signs their uploads
type AudioStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error)
	Get(ctx context.Context, key string, maxBytes int64) ([]byte, string, error)
}

// InspectionFinder loads the inspection being transcribed
type InspectionFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*inspection.Inspection, error)
}

// ItemStore loads and updates the checklist
type ItemStore interface {
	FindByInspection(ctx context.Context, inspectionID uuid.UUID) ([]inspection.Item, error)
	SaveAll(ctx context.Context, items []inspection.Item) error
}

// UsageChecker enforces plan limits
type UsageChecker interface {
	CheckUsage(ctx context.Context, orgID uuid.UUID, usageType billing.UsageType) error
}

// TxManager runs fn in one database transaction
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config tunes the pipeline
type Config struct {
	// MaxAudioBytes caps the concatenated audio sent to the model
	MaxAudioBytes int64
	// MaxRetries is how often the worker pool re-runs a job that returned an error
	MaxRetries int
}

// AtaService handles generation requests and runs the pipeline jobs
type AtaService struct {
	repo        ata.Repository
	inspections InspectionFinder
	items       ItemStore
	objects     AudioStorage
	generator   Generator
	queue       JobQueue
	config      Config
	logger      *zap.Logger

	usage  UsageChecker
	tx     TxManager
	events shared.EventPublisher
	now    func() time.Time
}

// NewAtaService creates a new ata service
func NewAtaService(
	repo ata.Repository,
	inspections InspectionFinder,
	items ItemStore,
	objects AudioStorage,
	generator Generator,
	queue JobQueue,
	config Config,
	logger *zap.Logger,
) *AtaService {
	if config.MaxAudioBytes <= 0 {
		config.MaxAudioBytes = defaultMaxAudioBytes
	}
	return &AtaService{
		repo:        repo,
		inspections: inspections,
		items:       items,
		objects:     objects,
		generator:   generator,
		queue:       queue,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// SetUsageChecker enables the plan check on generate
func (s *AtaService) SetUsageChecker(usage UsageChecker) {
	s.usage = usage
}

// SetTransactionManager makes the checklist update and the ata save atomic
func (s *AtaService) SetTransactionManager(tx TxManager) {
	s.tx = tx
}

// SetEventPublisher sets the publisher for ata events
func (s *AtaService) SetEventPublisher(publisher shared.EventPublisher) {
	s.events = publisher
}

// AudioUploadURL presigns the upload of one recorded chunk
func (s *AtaService) AudioUploadURL(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID, input AudioUploadInput) (*AudioUploadResponse, error) {
	insp, err := s.editableInspection(ctx, scope, inspectionID)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(input.ContentType, "audio/") && !strings.HasPrefix(input.ContentType, "video/") {
		return nil, shared.NewDomainError("INVALID_AUDIO", "Only audio recordings are accepted")
	}
	if input.Size > s.config.MaxAudioBytes {
		return nil, ErrAudioTooLarge
	}

	key := storage.AudioKey(insp.OrganizationID, insp.ID, input.FileName)
	url, expiresAt, err := s.objects.PresignUpload(ctx, key, input.ContentType)
	if err != nil {
		return nil, err
	}
	return &AudioUploadResponse{StorageKey: key, UploadURL: url, ExpiresAt: expiresAt}, nil
}

// Generate records a generation request and queues it.
// The ata is returned in processing; the job completes or fails it later.
func (s *AtaService) Generate(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID, input GenerateInput) (*AtaResponse, error) {
	insp, err := s.editableInspection(ctx, scope, inspectionID)
	if err != nil {
		return nil, err
	}
	for _, key := range input.AudioKeys {
		if !isAudioOf(key, insp) {
			return nil, shared.NewDomainError("INVALID_AUDIO", "Audio key does not belong to this inspection")
		}
	}
	if s.usage != nil {
		if err := s.usage.CheckUsage(ctx, insp.OrganizationID, billing.UsageAta); err != nil {
			return nil, err
		}
	}
	latest, err := s.repo.FindLatestByInspection(ctx, insp.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if latest != nil && latest.Status == ata.StatusProcessing {
		return nil, ErrAtaInProgress
	}

	a, err := ata.NewAta(insp.OrganizationID, scope.UserID, insp.ID, input.AudioKeys)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	if err := s.enqueue(a); err != nil {
		return nil, s.rejectQueued(ctx, scope, a, err)
	}

	s.logger.Info("Ata generation queued",
		zap.String("ata_id", a.ID.String()),
		zap.String("inspection_id", insp.ID.String()),
		zap.Int("chunks", len(a.AudioKeys)))
	resp := ToAtaResponse(a)
	return &resp, nil
}

// Retry re-queues a failed generation with the same audio
func (s *AtaService) Retry(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*AtaResponse, error) {
	a, err := s.load(ctx, scope, id, identity.PermAtaGenerate)
	if err != nil {
		return nil, err
	}
	if _, err := s.editableInspection(ctx, scope, a.InspectionID); err != nil {
		return nil, err
	}
	if err := a.Retry(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	if err := s.enqueue(a); err != nil {
		return nil, s.rejectQueued(ctx, scope, a, err)
	}
	s.logger.Info("Ata generation re-queued",
		zap.String("ata_id", a.ID.String()),
		zap.Int("attempt", a.Attempts))
	resp := ToAtaResponse(a)
	return &resp, nil
}

// Get returns one ata
func (s *AtaService) Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*AtaResponse, error) {
	a, err := s.load(ctx, scope, id, identity.PermAtaRead)
	if err != nil {
		return nil, err
	}
	resp := ToAtaResponse(a)
	return &resp, nil
}

// GetLatest returns the most recent generation of an inspection
func (s *AtaService) GetLatest(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID) (*AtaResponse, error) {
	if err := scope.Require(identity.PermAtaRead); err != nil {
		return nil, err
	}
	insp, err := s.inspections.FindByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if err := scope.RequireOrganization(insp.OrganizationID); err != nil {
		return nil, err
	}
	a, err := s.repo.FindLatestByInspection(ctx, insp.ID)
	if err != nil {
		return nil, err
	}
	resp := ToAtaResponse(a)
	return &resp, nil
}

// List returns atas of the visible organizations
func (s *AtaService) List(ctx context.Context, scope identity.AccessScope, filter ListFilter) (*shared.Paginated[AtaResponse], error) {
	if err := scope.Require(identity.PermAtaRead); err != nil {
		return nil, err
	}
	orgIDs, err := scope.Restrict(filter.OrganizationID)
	if err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown status")
	}
	list, total, err := s.repo.FindAll(ctx, ata.Filter{
		Filter:          filter.Filter,
		OrganizationIDs: orgIDs,
		InspectionID:    filter.InspectionID,
		Status:          filter.Status,
	})
	if err != nil {
		return nil, err
	}
	out := make([]AtaResponse, len(list))
	for i := range list {
		out[i] = ToAtaResponse(&list[i])
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.Limit())
	return &page, nil
}

// UpdateTranscript stores a human correction of completed minutes
func (s *AtaService) UpdateTranscript(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input UpdateTranscriptInput) (*AtaResponse, error) {
	a, err := s.load(ctx, scope, id, identity.PermAtaGenerate)
	if err != nil {
		return nil, err
	}
	if err := a.EditTranscript(input.Transcript, input.Summary); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, err
	}
	resp := ToAtaResponse(a)
	return &resp, nil
}

// Resume re-queues generations left in processing by a previous process.
// It returns how many were queued.
func (s *AtaService) Resume(ctx context.Context) (int, error) {
	pending, err := s.repo.FindProcessing(rls.System(ctx), resumeBatch)
	if err != nil {
		return 0, err
	}
	queued := 0
	for i := range pending {
		a := &pending[i]
		if err := s.enqueue(a); err != nil {
			s.logger.Warn("Failed to resume ata generation",
				zap.String("ata_id", a.ID.String()),
				zap.Error(err))
			if errors.Is(err, scheduler.ErrJobQueueFull) {
				break
			}
			continue
		}
		queued++
	}
	if queued > 0 {
		s.logger.Info("Resumed ata generations", zap.Int("count", queued))
	}
	return queued, nil
}

func (s *AtaService) enqueue(a *ata.Ata) error {
	id, orgID := a.ID, a.OrganizationID
	var userID uuid.UUID
	if a.CreatedBy != nil {
		userID = *a.CreatedBy
	}
	job := scheduler.NewJob("ata:"+id.String(), s.config.MaxRetries, func(ctx context.Context) error {
		return s.process(rls.Worker(ctx, orgID, userID), id)
	})
	return s.queue.Submit(job)
}

// rejectQueued fails an ata that never reached the worker pool
func (s *AtaService) rejectQueued(ctx context.Context, scope identity.AccessScope, a *ata.Ata, cause error) error {
	s.logger.Warn("Failed to queue ata generation",
		zap.String("ata_id", a.ID.String()),
		zap.Error(cause))
	a.Fail("queue unavailable: " + cause.Error())
	if err := s.repo.Save(ctx, a); err != nil {
		s.logger.Error("Failed to mark ata as failed", zap.String("ata_id", a.ID.String()), zap.Error(err))
	}
	shared.StampActor(a, scope.UserID)
	s.publish(ctx, a)
	if errors.Is(cause, scheduler.ErrJobQueueFull) || errors.Is(cause, scheduler.ErrSchedulerNotRunning) {
		return ErrQueueFull
	}
	return cause
}

// process is the body of one generation job. A shutdown leaves the ata in
// processing so Resume picks it up; any other error fails it.
func (s *AtaService) process(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != ata.StatusProcessing {
		return nil
	}
	log := s.logger.With(zap.String("ata_id", a.ID.String()), zap.String("inspection_id", a.InspectionID.String()))
	started := s.now()

	err = s.generate(ctx, a)
	if a.CreatedBy != nil {
		shared.StampActor(a, *a.CreatedBy)
	}
	if err == nil {
		log.Info("Ata generated",
			zap.Int("findings", len(a.Findings)),
			zap.Int("matched_items", a.MatchedItems),
			zap.Duration("took", s.now().Sub(started)))
		s.publish(ctx, a)
		return nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		log.Info("Ata generation interrupted", zap.Error(err))
		return err
	}

	log.Error("Ata generation failed", zap.Error(err))
	a.ClearDomainEvents()
	a.Fail(err.Error())
	if a.CreatedBy != nil {
		shared.StampActor(a, *a.CreatedBy)
	}
	saveCtx := context.WithoutCancel(ctx)
	if err := s.repo.Save(saveCtx, a); err != nil {
		return fmt.Errorf("mark ata failed: %w", err)
	}
	s.publish(saveCtx, a)
	return nil
}

func (s *AtaService) generate(ctx context.Context, a *ata.Ata) error {
	insp, err := s.inspections.FindByID(ctx, a.InspectionID)
	if err != nil {
		return fmt.Errorf("load inspection: %w", err)
	}
	items, err := s.items.FindByInspection(ctx, a.InspectionID)
	if err != nil {
		return fmt.Errorf("load checklist: %w", err)
	}
	audio, mimeType, err := s.loadAudio(ctx, a.AudioKeys)
	if err != nil {
		return err
	}

	output, err := s.generator.GenerateJSON(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		Prompt:       buildPrompt(insp, items),
		Audio:        audio,
		MimeType:     mimeType,
	})
	if err != nil {
		return err
	}
	res, err := ata.ParseResult(output)
	if err != nil {
		return err
	}

	matches := ata.MatchFindings(res.Findings, candidates(items))
	linkFindings(res, matches)
	if err := a.Complete(res, len(matches), s.generator.Model(), s.now()); err != nil {
		return err
	}
	return s.saveGenerated(ctx, a, res, matches)
}

// saveGenerated stores the completed ata and applies its suggestions to a
// fresh read of the checklist. The model call can take minutes; an answer
// saved by the inspector meanwhile makes the item write conflict, and the
// suggestions are applied again on top of it.
func (s *AtaService) saveGenerated(ctx context.Context, a *ata.Ata, res *ata.Result, matches []ata.Match) error {
	var err error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		err = s.inTx(ctx, func(ctx context.Context) error {
			insp, err := s.inspections.FindByID(ctx, a.InspectionID)
			if err != nil {
				return fmt.Errorf("reload inspection: %w", err)
			}
			items, err := s.items.FindByInspection(ctx, a.InspectionID)
			if err != nil {
				return fmt.Errorf("reload checklist: %w", err)
			}
			if changed := applySuggestions(insp, items, res, matches); len(changed) > 0 {
				if err := s.items.SaveAll(ctx, changed); err != nil {
					return err
				}
			}
			return s.repo.Save(ctx, a)
		})
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		s.logger.Debug("Checklist changed during ata generation, retrying",
			zap.String("ata_id", a.ID.String()), zap.Int("attempt", attempt+1))
	}
	return err
}

// loadAudio fetches the chunks in order and concatenates them
func (s *AtaService) loadAudio(ctx context.Context, keys []string) ([]byte, string, error) {
	var (
		audio    []byte
		mimeType string
	)
	for i, key := range keys {
		remaining := s.config.MaxAudioBytes - int64(len(audio))
		if remaining <= 0 {
			return nil, "", ErrAudioTooLarge
		}
		chunk, contentType, err := s.objects.Get(ctx, key, remaining)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				return nil, "", shared.NewDomainError("AUDIO_MISSING", fmt.Sprintf("Audio chunk %d was not uploaded", i+1))
			}
			return nil, "", fmt.Errorf("read audio chunk %d: %w", i+1, err)
		}
		if i == 0 {
			mimeType = contentType
		}
		audio = append(audio, chunk...)
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "audio/webm"
	}
	return audio, mimeType, nil
}

// linkFindings points each matched finding at its checklist item
func linkFindings(res *ata.Result, matches []ata.Match) {
	for _, m := range matches {
		itemID := m.ItemID
		res.Findings[m.FindingIndex].ItemID = &itemID
	}
}

// applySuggestions fills the unanswered matched items and returns the ones
// that changed. Answers given by the inspector are kept. Nothing changes
// once the inspection is closed.
func applySuggestions(insp *inspection.Inspection, items []inspection.Item, res *ata.Result, matches []ata.Match) []inspection.Item {
	if !insp.IsEditable() {
		return nil
	}
	byID := make(map[uuid.UUID]int, len(items))
	for i := range items {
		byID[items[i].ID] = i
	}
	var changed []inspection.Item
	for _, m := range matches {
		idx, ok := byID[m.ItemID]
		if !ok {
			continue
		}
		f := res.Findings[m.FindingIndex]
		it := &items[idx]
		observation := it.AIObservation
		if it.ApplySuggestion(f.Compliant, f.Observation) || it.AIObservation != observation {
			changed = append(changed, *it)
		}
	}
	return changed
}

func (s *AtaService) editableInspection(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID) (*inspection.Inspection, error) {
	if err := scope.Require(identity.PermAtaGenerate); err != nil {
		return nil, err
	}
	insp, err := s.inspections.FindByID(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	if err := scope.RequireOrganization(insp.OrganizationID); err != nil {
		return nil, err
	}
	if !insp.IsEditable() {
		return nil, shared.NewDomainError("INSPECTION_CLOSED", "Minutes can only be generated for open inspections")
	}
	return insp, nil
}

func (s *AtaService) load(ctx context.Context, scope identity.AccessScope, id uuid.UUID, permission string) (*ata.Ata, error) {
	if err := scope.Require(permission); err != nil {
		return nil, err
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.RequireOrganization(a.OrganizationID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AtaService) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.Transaction(ctx, fn)
}

func (s *AtaService) publish(ctx context.Context, a *ata.Ata) {
	if err := shared.PublishAndClear(ctx, s.events, a); err != nil {
		s.logger.Warn("Failed to publish ata events", zap.Error(err))
	}
}

func isAudioOf(key string, insp *inspection.Inspection) bool {
	return storage.KeyBelongsTo(key, insp.OrganizationID) &&
		strings.Contains(key, "/inspections/"+insp.ID.String()+"/audio/")
}
