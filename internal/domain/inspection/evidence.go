package inspection

import (
	"path"
	"strings"
	"time"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SignatureKind identifies who signed
type SignatureKind string

const (
	SignatureInspector   SignatureKind = "inspector"
	SignatureResponsible SignatureKind = "responsible"
)

// Signature is a drawn signature captured when closing an inspection.
// The image lives in object storage under StorageKey.
type Signature struct {
	shared.BaseEntity
	OrganizationID uuid.UUID
	InspectionID   uuid.UUID
	Kind           SignatureKind
	SignerName     string
	SignerRole     string
	StorageKey     string
	SignedAt       time.Time
}

// NewSignature validates and creates a signature record
func NewSignature(insp *Inspection, kind SignatureKind, signerName, signerRole, storageKey string, at time.Time) (*Signature, error) {
	if kind != SignatureInspector && kind != SignatureResponsible {
		return nil, shared.NewDomainError("INVALID_SIGNATURE", "Unknown signature kind")
	}
	signerName = strings.TrimSpace(signerName)
	if signerName == "" {
		return nil, shared.NewDomainError("INVALID_SIGNATURE", "Signer name is required")
	}
	if strings.TrimSpace(storageKey) == "" {
		return nil, shared.NewDomainError("INVALID_SIGNATURE", "Signature image is required")
	}
	return &Signature{
		BaseEntity:     shared.NewBaseEntity(),
		OrganizationID: insp.OrganizationID,
		InspectionID:   insp.ID,
		Kind:           kind,
		SignerName:     signerName,
		SignerRole:     strings.TrimSpace(signerRole),
		StorageKey:     storageKey,
		SignedAt:       at,
	}, nil
}

// HasContent reports whether the signature points at an image
func (s Signature) HasContent() bool {
	return s.StorageKey != "" && s.SignerName != ""
}

// MediaType classifies evidence files
type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeAudio    MediaType = "audio"
	MediaTypeVideo    MediaType = "video"
	MediaTypeDocument MediaType = "document"
)

// MediaTypeFromMIME maps a content type to a media type
func MediaTypeFromMIME(mime string) MediaType {
	mime = strings.ToLower(strings.TrimSpace(mime))
	switch {
	case strings.HasPrefix(mime, "image/"):
		return MediaTypeImage
	case strings.HasPrefix(mime, "audio/"):
		return MediaTypeAudio
	case strings.HasPrefix(mime, "video/"):
		return MediaTypeVideo
	default:
		return MediaTypeDocument
	}
}

// MaxMediaSize caps a single upload
const MaxMediaSize int64 = 100 << 20

// Media is an evidence file attached to an inspection or one of its items
type Media struct {
	shared.BaseEntity
	OrganizationID uuid.UUID
	InspectionID   uuid.UUID
	ItemID         *uuid.UUID
	Type           MediaType
	FileName       string
	ContentType    string
	Size           int64
	StorageKey     string
	Description    string
	UploadedBy     uuid.UUID
}

// NewMedia validates and creates a media record. The caller assigns StorageKey.
func NewMedia(insp *Inspection, itemID *uuid.UUID, fileName, contentType string, size int64, uploadedBy uuid.UUID) (*Media, error) {
	fileName = path.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, shared.NewDomainError("INVALID_MEDIA", "File name is required")
	}
	if size <= 0 {
		return nil, shared.NewDomainError("INVALID_MEDIA", "File size must be positive")
	}
	if size > MaxMediaSize {
		return nil, shared.NewDomainError("MEDIA_TOO_LARGE", "File exceeds the 100MB limit")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Media{
		BaseEntity:     shared.NewBaseEntity(),
		OrganizationID: insp.OrganizationID,
		InspectionID:   insp.ID,
		ItemID:         itemID,
		Type:           MediaTypeFromMIME(contentType),
		FileName:       fileName,
		ContentType:    contentType,
		Size:           size,
		UploadedBy:     uploadedBy,
	}, nil
}
