package handler

import (
	"context"

	identityapp "github.com/compia/backend/internal/application/identity"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthService is the part of the identity application the auth routes use
type AuthService interface {
	Login(ctx context.Context, input identityapp.LoginInput) (*identityapp.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*identityapp.TokenResult, error)
	Logout(ctx context.Context, input identityapp.LogoutInput) error
	Me(ctx context.Context, scope identity.AccessScope) (*identityapp.UserInfo, error)
	ChangePassword(ctx context.Context, input identityapp.ChangePasswordInput) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @ID           login
// @Summary      User login
// @Description  Authenticate with e-mail and password. Repeated failures lock the account.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} APIResponse[identityapp.LoginResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.authService.Login(c.Request.Context(), identityapp.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refresh godoc
// @ID           refreshToken
// @Summary      Refresh tokens
// @Description  Exchange a refresh token for a new pair. The old refresh token is revoked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} APIResponse[identityapp.TokenResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout godoc
// @ID           logout
// @Summary      User logout
// @Description  Revoke the current access token and, when sent, the refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LogoutRequest false "Refresh token to revoke"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req LogoutRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	err := h.authService.Logout(c.Request.Context(), identityapp.LogoutInput{
		AccessTokenJTI: claims.ID,
		AccessTokenTTL: claims.GetRemainingTTL(),
		RefreshToken:   req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "logged out"})
}

// Me godoc
// @ID           getCurrentUser
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[identityapp.UserInfo]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	user, err := h.authService.Me(c.Request.Context(), scope)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ChangePassword godoc
// @ID           changePassword
// @Summary      Change own password
// @Description  Every token issued before the change stops working
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Passwords"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	err := h.authService.ChangePassword(c.Request.Context(), identityapp.ChangePasswordInput{
		UserID:          scope.UserID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "password changed"})
}
