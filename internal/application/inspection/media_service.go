package inspection

import (
	"context"
	"strings"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/inspection"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrMediaNotUploaded is returned when registering a key with no object behind it
var ErrMediaNotUploaded = shared.NewDomainError("MEDIA_NOT_UPLOADED", "The file was not uploaded to storage")

// MediaService handles evidence files. Bytes go straight from the client
// to object storage through presigned URLs; only metadata passes here.
type MediaService struct {
	repo     inspection.Repository
	items    inspection.ItemRepository
	evidence inspection.EvidenceRepository
	objects  ObjectStorage
	logger   *zap.Logger
}

// NewMediaService creates a new media service
func NewMediaService(
	repo inspection.Repository,
	items inspection.ItemRepository,
	evidence inspection.EvidenceRepository,
	objects ObjectStorage,
	logger *zap.Logger,
) *MediaService {
	return &MediaService{
		repo:     repo,
		items:    items,
		evidence: evidence,
		objects:  objects,
		logger:   logger,
	}
}

// UploadURL reserves a storage key and returns a presigned PUT URL for it
func (s *MediaService) UploadURL(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID, input UploadURLInput) (*UploadURLResponse, error) {
	insp, err := s.editable(ctx, scope, inspectionID, identity.PermMediaUpload)
	if err != nil {
		return nil, err
	}
	if input.Size > inspection.MaxMediaSize {
		return nil, shared.NewDomainError("MEDIA_TOO_LARGE", "File exceeds the 100MB limit")
	}
	if err := s.checkItem(ctx, insp, input.ItemID); err != nil {
		return nil, err
	}

	key := storage.MediaKey(insp.OrganizationID, insp.ID, uuid.New(), input.FileName)
	url, expires, err := s.objects.PresignUpload(ctx, key, input.ContentType)
	if err != nil {
		return nil, err
	}
	return &UploadURLResponse{
		UploadURL:   url,
		StorageKey:  key,
		ContentType: input.ContentType,
		ExpiresAt:   expires,
	}, nil
}

// Register records an uploaded file once the object exists in storage
func (s *MediaService) Register(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID, input RegisterMediaInput) (*MediaResponse, error) {
	insp, err := s.editable(ctx, scope, inspectionID, identity.PermMediaUpload)
	if err != nil {
		return nil, err
	}
	if !belongsToInspection(input.StorageKey, insp) {
		return nil, shared.NewDomainError("INVALID_MEDIA", "Storage key does not belong to this inspection")
	}
	if err := s.checkItem(ctx, insp, input.ItemID); err != nil {
		return nil, err
	}
	ok, err := s.objects.Exists(ctx, input.StorageKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMediaNotUploaded
	}

	m, err := inspection.NewMedia(insp, input.ItemID, storage.SanitizeFileName(input.FileName), input.ContentType, input.Size, scope.UserID)
	if err != nil {
		return nil, err
	}
	m.StorageKey = input.StorageKey
	m.Description = strings.TrimSpace(input.Description)
	if err := s.evidence.SaveMedia(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("Media registered",
		zap.String("inspection_id", insp.ID.String()),
		zap.String("media_id", m.ID.String()),
		zap.String("type", string(m.Type)),
		zap.Int64("size", m.Size))
	resp := ToMediaResponse(m)
	return &resp, nil
}

// List returns the evidence files of an inspection
func (s *MediaService) List(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID) ([]MediaResponse, error) {
	insp, err := s.load(ctx, scope, inspectionID, identity.PermMediaRead)
	if err != nil {
		return nil, err
	}
	media, err := s.evidence.FindMedia(ctx, insp.ID)
	if err != nil {
		return nil, err
	}
	out := make([]MediaResponse, len(media))
	for i := range media {
		out[i] = ToMediaResponse(&media[i])
	}
	return out, nil
}

// DownloadURL returns a short-lived read URL for a media file
func (s *MediaService) DownloadURL(ctx context.Context, scope identity.AccessScope, mediaID uuid.UUID) (*DownloadURLResponse, error) {
	if err := scope.Require(identity.PermMediaRead); err != nil {
		return nil, err
	}
	m, err := s.evidence.FindMediaByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if err := scope.RequireOrganization(m.OrganizationID); err != nil {
		return nil, err
	}
	url, expires, err := s.objects.PresignDownload(ctx, m.StorageKey)
	if err != nil {
		return nil, err
	}
	return &DownloadURLResponse{URL: url, ExpiresAt: expires}, nil
}

// Delete removes a media record and its object
func (s *MediaService) Delete(ctx context.Context, scope identity.AccessScope, mediaID uuid.UUID) error {
	if err := scope.Require(identity.PermMediaDelete); err != nil {
		return err
	}
	m, err := s.evidence.FindMediaByID(ctx, mediaID)
	if err != nil {
		return err
	}
	if _, err := s.editable(ctx, scope, m.InspectionID, identity.PermMediaDelete); err != nil {
		return err
	}
	if err := s.evidence.DeleteMedia(ctx, m.ID); err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, m.StorageKey); err != nil {
		s.logger.Warn("Failed to delete media object", zap.String("key", m.StorageKey), zap.Error(err))
	}
	return nil
}

func (s *MediaService) checkItem(ctx context.Context, insp *inspection.Inspection, itemID *uuid.UUID) error {
	if itemID == nil {
		return nil
	}
	item, err := s.items.FindByID(ctx, *itemID)
	if err != nil {
		return err
	}
	if item.InspectionID != insp.ID {
		return shared.ErrNotFound
	}
	return nil
}

func (s *MediaService) load(ctx context.Context, scope identity.AccessScope, id uuid.UUID, permission string) (*inspection.Inspection, error) {
	if err := scope.Require(permission); err != nil {
		return nil, err
	}
	insp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.RequireOrganization(insp.OrganizationID); err != nil {
		return nil, err
	}
	return insp, nil
}

func (s *MediaService) editable(ctx context.Context, scope identity.AccessScope, id uuid.UUID, permission string) (*inspection.Inspection, error) {
	insp, err := s.load(ctx, scope, id, permission)
	if err != nil {
		return nil, err
	}
	if !insp.IsEditable() {
		return nil, shared.NewDomainError("INSPECTION_CLOSED", "Inspection is no longer editable")
	}
	return insp, nil
}

func belongsToInspection(key string, insp *inspection.Inspection) bool {
	return storage.KeyBelongsTo(key, insp.OrganizationID) &&
		strings.Contains(key, "/inspections/"+insp.ID.String()+"/")
}
