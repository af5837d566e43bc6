package handler

import (
	"context"

	ataapp "github.com/compia/backend/internal/application/ata"
	"github.com/compia/backend/internal/domain/ata"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AtaService generates meeting minutes from recorded audio
type AtaService interface {
	AudioUploadURL(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID, input ataapp.AudioUploadInput) (*ataapp.AudioUploadResponse, error)
	Generate(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID, input ataapp.GenerateInput) (*ataapp.AtaResponse, error)
	Retry(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*ataapp.AtaResponse, error)
	Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*ataapp.AtaResponse, error)
	GetLatest(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID) (*ataapp.AtaResponse, error)
	List(ctx context.Context, scope identity.AccessScope, filter ataapp.ListFilter) (*shared.Paginated[ataapp.AtaResponse], error)
	UpdateTranscript(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input ataapp.UpdateTranscriptInput) (*ataapp.AtaResponse, error)
}

// AtaListQuery are the query parameters of the ata listing
type AtaListQuery struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=pending processing completed failed"`
}

// AtaHandler handles meeting minutes requests
type AtaHandler struct {
	BaseHandler
	service AtaService
}

// NewAtaHandler creates a new ata handler
func NewAtaHandler(service AtaService) *AtaHandler {
	return &AtaHandler{service: service}
}

// AudioUploadURL godoc
// @ID           createAtaAudioUploadURL
// @Summary      Presigned URL for an audio chunk
// @Tags         atas
// @Accept       json
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Param        request body ataapp.AudioUploadInput true "Audio chunk"
// @Success      200 {object} APIResponse[ataapp.AudioUploadResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/ata/audio-url [post]
func (h *AtaHandler) AudioUploadURL(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ataapp.AudioUploadInput
	if !h.bindJSON(c, &req) {
		return
	}
	out, err := h.service.AudioUploadURL(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Generate godoc
// @ID           generateAta
// @Summary      Generate meeting minutes
// @Description  Queues transcription and structuring of the uploaded audio.
// @Description  Poll the returned ata until it is completed or failed.
// @Tags         atas
// @Accept       json
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Param        request body ataapp.GenerateInput true "Audio keys"
// @Success      202 {object} APIResponse[ataapp.AtaResponse]
// @Failure      402 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/ata [post]
func (h *AtaHandler) Generate(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ataapp.GenerateInput
	if !h.bindJSON(c, &req) {
		return
	}
	out, err := h.service.Generate(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, out)
}

// GetLatest godoc
// @ID           getLatestAta
// @Summary      Latest minutes of an inspection
// @Tags         atas
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Success      200 {object} APIResponse[ataapp.AtaResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/ata [get]
func (h *AtaHandler) GetLatest(c *gin.Context) {
	h.withID(c, "id", h.service.GetLatest)
}

// Get godoc
// @ID           getAta
// @Summary      Get meeting minutes
// @Tags         atas
// @Produce      json
// @Param        ataId path string true "Ata ID" format(uuid)
// @Success      200 {object} APIResponse[ataapp.AtaResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /atas/{ataId} [get]
func (h *AtaHandler) Get(c *gin.Context) {
	h.withID(c, "ataId", h.service.Get)
}

// Retry godoc
// @ID           retryAta
// @Summary      Retry a failed generation
// @Tags         atas
// @Produce      json
// @Param        ataId path string true "Ata ID" format(uuid)
// @Success      202 {object} APIResponse[ataapp.AtaResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /atas/{ataId}/retry [post]
func (h *AtaHandler) Retry(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "ataId")
	if !ok {
		return
	}
	out, err := h.service.Retry(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, out)
}

// List godoc
// @ID           listAtas
// @Summary      List meeting minutes
// @Tags         atas
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        status query string false "Status" Enums(pending, processing, completed, failed)
// @Param        organization_id query string false "Organization" format(uuid)
// @Param        inspection_id query string false "Inspection" format(uuid)
// @Success      200 {object} APIResponse[[]ataapp.AtaResponse]
// @Security     BearerAuth
// @Router       /atas [get]
func (h *AtaHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var q AtaListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	orgID, ok := h.optionalUUID(c, "organization_id")
	if !ok {
		return
	}
	inspectionID, ok := h.optionalUUID(c, "inspection_id")
	if !ok {
		return
	}
	page, err := h.service.List(c.Request.Context(), scope, ataapp.ListFilter{
		Filter:         q.Filter(),
		OrganizationID: orgID,
		InspectionID:   inspectionID,
		Status:         ata.Status(q.Status),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}

// UpdateTranscript godoc
// @ID           updateAtaTranscript
// @Summary      Correct the transcript
// @Tags         atas
// @Accept       json
// @Produce      json
// @Param        ataId path string true "Ata ID" format(uuid)
// @Param        request body ataapp.UpdateTranscriptInput true "Transcript"
// @Success      200 {object} APIResponse[ataapp.AtaResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /atas/{ataId}/transcript [put]
func (h *AtaHandler) UpdateTranscript(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "ataId")
	if !ok {
		return
	}
	var req ataapp.UpdateTranscriptInput
	if !h.bindJSON(c, &req) {
		return
	}
	out, err := h.service.UpdateTranscript(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

func (h *AtaHandler) withID(c *gin.Context, param string, fn func(context.Context, identity.AccessScope, uuid.UUID) (*ataapp.AtaResponse, error)) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, param)
	if !ok {
		return
	}
	out, err := fn(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}
