package handler

import (
	"context"

	inspectionapp "github.com/compia/backend/internal/application/inspection"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MediaService handles inspection attachments stored in object storage
type MediaService interface {
	UploadURL(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID, input inspectionapp.UploadURLInput) (*inspectionapp.UploadURLResponse, error)
	Register(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID, input inspectionapp.RegisterMediaInput) (*inspectionapp.MediaResponse, error)
	List(ctx context.Context, scope identity.AccessScope, inspectionID uuid.UUID) ([]inspectionapp.MediaResponse, error)
	DownloadURL(ctx context.Context, scope identity.AccessScope, mediaID uuid.UUID) (*inspectionapp.DownloadURLResponse, error)
	Delete(ctx context.Context, scope identity.AccessScope, mediaID uuid.UUID) error
}

// MediaHandler handles media upload and download requests
type MediaHandler struct {
	BaseHandler
	service MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(service MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

// UploadURL godoc
// @ID           createMediaUploadURL
// @Summary      Presigned upload URL
// @Description  The client PUTs the file to upload_url, then registers it
// @Tags         media
// @Accept       json
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Param        request body inspectionapp.UploadURLInput true "File"
// @Success      200 {object} APIResponse[inspectionapp.UploadURLResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/media/upload-url [post]
func (h *MediaHandler) UploadURL(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req inspectionapp.UploadURLInput
	if !h.bindJSON(c, &req) {
		return
	}
	out, err := h.service.UploadURL(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Register godoc
// @ID           registerMedia
// @Summary      Register an upload
// @Tags         media
// @Accept       json
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Param        request body inspectionapp.RegisterMediaInput true "Uploaded file"
// @Success      201 {object} APIResponse[inspectionapp.MediaResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/media [post]
func (h *MediaHandler) Register(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req inspectionapp.RegisterMediaInput
	if !h.bindJSON(c, &req) {
		return
	}
	media, err := h.service.Register(c.Request.Context(), scope, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, media)
}

// List godoc
// @ID           listMedia
// @Summary      List inspection media
// @Tags         media
// @Produce      json
// @Param        id path string true "Inspection ID" format(uuid)
// @Success      200 {object} APIResponse[[]inspectionapp.MediaResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inspections/{id}/media [get]
func (h *MediaHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	media, err := h.service.List(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, media)
}

// DownloadURL godoc
// @ID           getMediaDownloadURL
// @Summary      Presigned download URL
// @Tags         media
// @Produce      json
// @Param        mediaId path string true "Media ID" format(uuid)
// @Success      200 {object} APIResponse[inspectionapp.DownloadURLResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /media/{mediaId}/download-url [get]
func (h *MediaHandler) DownloadURL(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "mediaId")
	if !ok {
		return
	}
	out, err := h.service.DownloadURL(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Delete godoc
// @ID           deleteMedia
// @Summary      Delete media
// @Tags         media
// @Param        mediaId path string true "Media ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /media/{mediaId} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "mediaId")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), scope, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
