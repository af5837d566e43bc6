package handler

import (
	"context"

	"github.com/compia/backend/internal/infrastructure/lookup"
	"github.com/gin-gonic/gin"
)

// LookupService queries public postal and company registries
type LookupService interface {
	CEP(ctx context.Context, raw string) (*lookup.CEPResult, error)
	CNPJ(ctx context.Context, raw string) (*lookup.CNPJResult, error)
}

// LookupHandler serves the unauthenticated registry lookups
type LookupHandler struct {
	BaseHandler
	service LookupService
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(service LookupService) *LookupHandler {
	return &LookupHandler{service: service}
}

// CEP godoc
// @ID           lookupCEP
// @Summary      Address by postal code
// @Tags         lookup
// @Produce      json
// @Param        cep path string true "CEP, with or without mask"
// @Success      200 {object} APIResponse[lookup.CEPResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /cep/{cep} [get]
func (h *LookupHandler) CEP(c *gin.Context) {
	res, err := h.service.CEP(c.Request.Context(), c.Param("cep"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// CNPJ godoc
// @ID           lookupCNPJ
// @Summary      Company by CNPJ
// @Tags         lookup
// @Produce      json
// @Param        cnpj path string true "CNPJ, digits only"
// @Success      200 {object} APIResponse[lookup.CNPJResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /cnpj/{cnpj} [get]
func (h *LookupHandler) CNPJ(c *gin.Context) {
	res, err := h.service.CNPJ(c.Request.Context(), c.Param("cnpj"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
