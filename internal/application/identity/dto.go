package identity

import (
	"time"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// TokenResult is a freshly issued token pair
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	TokenResult
	User UserInfo `json:"user"`
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	AccessTokenJTI string
	AccessTokenTTL time.Duration
	// RefreshToken is optional; when present it is revoked too
	RefreshToken string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// UserInfo is the public view of a user
type UserInfo struct {
	ID                 uuid.UUID           `json:"id"`
	OrganizationID     uuid.UUID           `json:"organization_id"`
	Email              string              `json:"email"`
	Name               string              `json:"name"`
	Phone              string              `json:"phone,omitempty"`
	Role               identity.Role       `json:"role"`
	Status             identity.UserStatus `json:"status"`
	AvatarURL          string              `json:"avatar_url,omitempty"`
	Permissions        []string            `json:"permissions,omitempty"`
	MustChangePassword bool                `json:"must_change_password"`
	LastLoginAt        *time.Time          `json:"last_login_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// ToUserInfo converts a domain user
func ToUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:                 u.ID,
		OrganizationID:     u.OrganizationID,
		Email:              u.Email,
		Name:               u.Name,
		Phone:              u.Phone,
		Role:               u.Role,
		Status:             u.Status,
		AvatarURL:          u.AvatarURL,
		Permissions:        u.Role.Permissions(),
		MustChangePassword: u.MustChangePassword,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

// OrganizationResponse is the public view of an organization
type OrganizationResponse struct {
	ID           uuid.UUID                   `json:"id"`
	Name         string                      `json:"name"`
	TradeName    string                      `json:"trade_name,omitempty"`
	CNPJ         string                      `json:"cnpj,omitempty"`
	Type         identity.OrganizationType   `json:"type"`
	ParentID     *uuid.UUID                  `json:"parent_id,omitempty"`
	Plan         identity.Plan               `json:"plan"`
	Status       identity.OrganizationStatus `json:"status"`
	ContactEmail string                      `json:"contact_email,omitempty"`
	ContactPhone string                      `json:"contact_phone,omitempty"`
	Address      valueobject.Address         `json:"address"`
	LogoURL      string                      `json:"logo_url,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// ToOrganizationResponse converts a domain organization
func ToOrganizationResponse(o *identity.Organization) OrganizationResponse {
	resp := OrganizationResponse{
		ID:           o.ID,
		Name:         o.Name,
		TradeName:    o.TradeName,
		Type:         o.Type,
		ParentID:     o.ParentID,
		Plan:         o.Plan,
		Status:       o.Status,
		ContactEmail: o.ContactEmail,
		ContactPhone: o.ContactPhone,
		Address:      o.Address,
		LogoURL:      o.LogoURL,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	if o.CNPJ != "" {
		resp.CNPJ = valueobject.CNPJ(o.CNPJ).Formatted()
	}
	return resp
}

// OrganizationNode is one level of the hierarchy tree
type OrganizationNode struct {
	OrganizationResponse
	Children []*OrganizationNode `json:"children"`
}

// CreateOrganizationInput contains the input for creating an organization
type CreateOrganizationInput struct {
	Name         string
	TradeName    string
	CNPJ         string
	Type         identity.OrganizationType
	ParentID     *uuid.UUID
	Plan         identity.Plan
	ContactEmail string
	ContactPhone string
	Address      valueobject.Address
}

// UpdateOrganizationInput replaces the editable fields.
// Nil pointers leave the field untouched.
type UpdateOrganizationInput struct {
	Name         *string
	TradeName    *string
	CNPJ         *string
	ContactEmail *string
	ContactPhone *string
	Address      *valueobject.Address
	ParentID     *uuid.UUID
	Plan         *identity.Plan
}

// OrganizationListFilter narrows an organization listing
type OrganizationListFilter struct {
	shared.Filter
	ParentID *uuid.UUID
	Status   identity.OrganizationStatus
	Type     identity.OrganizationType
}

// CreateUserInput contains the input for creating or inviting a user.
// An empty Password creates a pending invitation.
type CreateUserInput struct {
	OrganizationID *uuid.UUID // Defaults to the caller's organization
	Email          string
	Name           string
	Phone          string
	Role           identity.Role
	Password       string
}

// UpdateUserInput changes profile fields
type UpdateUserInput struct {
	Name  string
	Phone string
}

// UserListFilter narrows a user listing
type UserListFilter struct {
	shared.Filter
	OrganizationID *uuid.UUID
	Role           identity.Role
	Status         identity.UserStatus
}
