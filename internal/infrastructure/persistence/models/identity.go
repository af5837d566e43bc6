package models

import (
	"time"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// OrganizationModel maps identity.Organization
type OrganizationModel struct {
	AggregateModel
	Name         string                      `gorm:"type:varchar(200);not null"`
	TradeName    string                      `gorm:"type:varchar(200)"`
	CNPJ         string                      `gorm:"column:cnpj;type:varchar(14);index"`
	Type         identity.OrganizationType   `gorm:"type:varchar(20);not null"`
	ParentID     *uuid.UUID                  `gorm:"type:uuid;index"`
	Plan         identity.Plan               `gorm:"type:varchar(20);not null"`
	Status       identity.OrganizationStatus `gorm:"type:varchar(20);not null;index"`
	ContactEmail string                      `gorm:"type:varchar(200)"`
	ContactPhone string                      `gorm:"type:varchar(30)"`
	Address      valueobject.Address         `gorm:"type:jsonb"`
	LogoURL      string                      `gorm:"type:varchar(500)"`
}

func (OrganizationModel) TableName() string { return "organizations" }

// OrganizationColumn makes the RLS guard scope organizations by their own id
func (OrganizationModel) OrganizationColumn() string { return "id" }

func (m *OrganizationModel) ToDomain() *identity.Organization {
	o := &identity.Organization{
		Name:         m.Name,
		TradeName:    m.TradeName,
		CNPJ:         m.CNPJ,
		Type:         m.Type,
		ParentID:     m.ParentID,
		Plan:         m.Plan,
		Status:       m.Status,
		ContactEmail: m.ContactEmail,
		ContactPhone: m.ContactPhone,
		Address:      m.Address,
		LogoURL:      m.LogoURL,
	}
	m.populate(&o.BaseAggregateRoot)
	return o
}

func OrganizationModelFromDomain(o *identity.Organization) *OrganizationModel {
	m := &OrganizationModel{
		Name:         o.Name,
		TradeName:    o.TradeName,
		CNPJ:         o.CNPJ,
		Type:         o.Type,
		ParentID:     o.ParentID,
		Plan:         o.Plan,
		Status:       o.Status,
		ContactEmail: o.ContactEmail,
		ContactPhone: o.ContactPhone,
		Address:      o.Address,
		LogoURL:      o.LogoURL,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	return m
}

// UserModel maps identity.User
type UserModel struct {
	OrgAggregateModel
	Email              string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	Name               string              `gorm:"type:varchar(200);not null"`
	Phone              string              `gorm:"type:varchar(30)"`
	Role               identity.Role       `gorm:"type:varchar(20);not null"`
	Status             identity.UserStatus `gorm:"type:varchar(20);not null"`
	PasswordHash       string              `gorm:"type:varchar(100)"`
	AvatarURL          string              `gorm:"type:varchar(500)"`
	LastLoginAt        *time.Time
	LastLoginIP        string `gorm:"type:varchar(45)"`
	FailedAttempts     int    `gorm:"not null"`
	LockedUntil        *time.Time
	PasswordChangedAt  *time.Time
	MustChangePassword bool `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *identity.User {
	u := &identity.User{
		Email:              m.Email,
		Name:               m.Name,
		Phone:              m.Phone,
		Role:               m.Role,
		Status:             m.Status,
		PasswordHash:       m.PasswordHash,
		AvatarURL:          m.AvatarURL,
		LastLoginAt:        m.LastLoginAt,
		LastLoginIP:        m.LastLoginIP,
		FailedAttempts:     m.FailedAttempts,
		LockedUntil:        m.LockedUntil,
		PasswordChangedAt:  m.PasswordChangedAt,
		MustChangePassword: m.MustChangePassword,
	}
	m.PopulateOrgAggregateRoot(&u.OrgAggregateRoot)
	return u
}

func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:              u.Email,
		Name:               u.Name,
		Phone:              u.Phone,
		Role:               u.Role,
		Status:             u.Status,
		PasswordHash:       u.PasswordHash,
		AvatarURL:          u.AvatarURL,
		LastLoginAt:        u.LastLoginAt,
		LastLoginIP:        u.LastLoginIP,
		FailedAttempts:     u.FailedAttempts,
		LockedUntil:        u.LockedUntil,
		PasswordChangedAt:  u.PasswordChangedAt,
		MustChangePassword: u.MustChangePassword,
	}
	m.FromDomainOrgAggregateRoot(u.OrgAggregateRoot)
	return m
}
