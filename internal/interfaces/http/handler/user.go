package handler

import (
	"context"

	identityapp "github.com/compia/backend/internal/application/identity"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserService manages users of the visible organizations
type UserService interface {
	Create(ctx context.Context, scope identity.AccessScope, input identityapp.CreateUserInput) (*identityapp.UserInfo, error)
	Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*identityapp.UserInfo, error)
	List(ctx context.Context, scope identity.AccessScope, filter identityapp.UserListFilter) (*shared.Paginated[identityapp.UserInfo], error)
	Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input identityapp.UpdateUserInput) (*identityapp.UserInfo, error)
	ChangeRole(ctx context.Context, scope identity.AccessScope, id uuid.UUID, role identity.Role) (*identityapp.UserInfo, error)
	Deactivate(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*identityapp.UserInfo, error)
	Activate(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*identityapp.UserInfo, error)
	ResetPassword(ctx context.Context, scope identity.AccessScope, id uuid.UUID, password string) error
}

// UserHandler handles user management requests
type UserHandler struct {
	BaseHandler
	service UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(service UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Create godoc
// @ID           createUser
// @Summary      Create user
// @Description  Without a password the user is created pending an invitation
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "User"
// @Success      201 {object} APIResponse[identityapp.UserInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      402 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var req CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.service.Create(c.Request.Context(), scope, identityapp.CreateUserInput{
		OrganizationID: req.OrganizationID,
		Email:          req.Email,
		Name:           req.Name,
		Phone:          req.Phone,
		Role:           identity.Role(req.Role),
		Password:       req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Get godoc
// @ID           getUser
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identityapp.UserInfo]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// List godoc
// @ID           listUsers
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Name or e-mail"
// @Param        organization_id query string false "Organization" format(uuid)
// @Param        role query string false "Role"
// @Param        status query string false "Status"
// @Success      200 {object} APIResponse[[]identityapp.UserInfo]
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	var q UserListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	orgID, ok := h.optionalUUID(c, "organization_id")
	if !ok {
		return
	}
	page, err := h.service.List(c.Request.Context(), scope, identityapp.UserListFilter{
		Filter:         q.Filter(),
		OrganizationID: orgID,
		Role:           identity.Role(q.Role),
		Status:         identity.UserStatus(q.Status),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	respondPage(c, page)
}

// Update godoc
// @ID           updateUser
// @Summary      Update user profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body UpdateUserRequest true "Profile"
// @Success      200 {object} APIResponse[identityapp.UserInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.service.Update(c.Request.Context(), scope, id, identityapp.UpdateUserInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ChangeRole godoc
// @ID           changeUserRole
// @Summary      Change role
// @Description  Callers may only grant roles they are allowed to assign
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body ChangeRoleRequest true "Role"
// @Success      200 {object} APIResponse[identityapp.UserInfo]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/role [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.service.ChangeRole(c.Request.Context(), scope, id, identity.Role(req.Role))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Deactivate godoc
// @ID           deactivateUser
// @Summary      Deactivate user
// @Description  Revokes every token of the user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identityapp.UserInfo]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/deactivate [post]
func (h *UserHandler) Deactivate(c *gin.Context) {
	h.changeStatus(c, h.service.Deactivate)
}

// Activate godoc
// @ID           activateUser
// @Summary      Activate user
// @Description  Also clears a login lock
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} APIResponse[identityapp.UserInfo]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	h.changeStatus(c, h.service.Activate)
}

func (h *UserHandler) changeStatus(c *gin.Context, apply func(context.Context, identity.AccessScope, uuid.UUID) (*identityapp.UserInfo, error)) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	user, err := apply(c.Request.Context(), scope, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ResetPassword godoc
// @ID           resetUserPassword
// @Summary      Reset password
// @Description  Sets a temporary password the user must change at next login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body ResetPasswordRequest true "Temporary password"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/{id}/password [put]
func (h *UserHandler) ResetPassword(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req ResetPasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), scope, id, req.Password); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "password reset"})
}
