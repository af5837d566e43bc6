package handler

import (
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
)

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally names the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
}

// AddressRequest is a postal address in request bodies
type AddressRequest struct {
	CEP          string `json:"cep" binding:"cep"`
	Street       string `json:"street" binding:"max=200"`
	Number       string `json:"number" binding:"max=20"`
	Complement   string `json:"complement" binding:"max=100"`
	Neighborhood string `json:"neighborhood" binding:"max=100"`
	City         string `json:"city" binding:"max=100"`
	State        string `json:"state" binding:"omitempty,len=2"`
}

func (a AddressRequest) toValue() valueobject.Address {
	return valueobject.Address{
		CEP:          a.CEP,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
	}
}

// CreateOrganizationRequest represents the request body for creating an organization
type CreateOrganizationRequest struct {
	Name         string         `json:"name" binding:"required,min=2,max=200"`
	TradeName    string         `json:"trade_name" binding:"max=200"`
	CNPJ         string         `json:"cnpj" binding:"omitempty,cnpj"`
	Type         string         `json:"type" binding:"required,oneof=consultancy company branch master"`
	ParentID     *uuid.UUID     `json:"parent_id"`
	Plan         string         `json:"plan" binding:"omitempty,oneof=free basic pro enterprise"`
	ContactEmail string         `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string         `json:"contact_phone" binding:"max=30"`
	Address      AddressRequest `json:"address"`
}

// UpdateOrganizationRequest changes only the fields present in the body
type UpdateOrganizationRequest struct {
	Name         *string         `json:"name" binding:"omitempty,min=2,max=200"`
	TradeName    *string         `json:"trade_name" binding:"omitempty,max=200"`
	CNPJ         *string         `json:"cnpj" binding:"omitempty,cnpj"`
	ContactEmail *string         `json:"contact_email" binding:"omitempty,email"`
	ContactPhone *string         `json:"contact_phone" binding:"omitempty,max=30"`
	Address      *AddressRequest `json:"address"`
	ParentID     *uuid.UUID      `json:"parent_id"`
	Plan         *string         `json:"plan" binding:"omitempty,oneof=free basic pro enterprise"`
}

// CreateUserRequest creates a user; without password it sends an invitation
type CreateUserRequest struct {
	OrganizationID *uuid.UUID `json:"organization_id"`
	Email          string     `json:"email" binding:"required,email,max=255"`
	Name           string     `json:"name" binding:"required,min=2,max=200"`
	Phone          string     `json:"phone" binding:"max=30"`
	Role           string     `json:"role" binding:"required,oneof=sys_admin org_admin manager inspector client"`
	Password       string     `json:"password" binding:"omitempty,min=8,max=128"`
}

// UpdateUserRequest changes profile fields
type UpdateUserRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=200"`
	Phone string `json:"phone" binding:"max=30"`
}

// ChangeRoleRequest assigns a new role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=sys_admin org_admin manager inspector client"`
}

// ResetPasswordRequest sets a temporary password chosen by an admin
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// OrganizationListQuery are the query parameters of the organization listing
type OrganizationListQuery struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=active suspended inactive"`
	Type   string `form:"type" binding:"omitempty,oneof=master consultancy company branch"`
}

// UserListQuery are the query parameters of the user listing
type UserListQuery struct {
	dto.ListRequest
	Role   string `form:"role" binding:"omitempty,oneof=sys_admin org_admin manager inspector client"`
	Status string `form:"status" binding:"omitempty,oneof=pending active locked inactive"`
}
