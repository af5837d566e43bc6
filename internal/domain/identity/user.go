package identity

import (
	"net/mail"
	"strings"
	"time"

	"github.com/compia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"  // Invited, has not set a password yet
	UserStatusActive   UserStatus = "active"
	UserStatusLocked   UserStatus = "locked"   // Too many failed logins
	UserStatusInactive UserStatus = "inactive" // Deactivated by an admin
)

const bcryptCost = 12

// User is a member of exactly one organization
type User struct {
	shared.OrgAggregateRoot
	Email              string
	Name               string
	Phone              string
	Role               Role
	Status             UserStatus
	PasswordHash       string
	AvatarURL          string
	LastLoginAt        *time.Time
	LastLoginIP        string
	FailedAttempts     int
	LockedUntil        *time.Time
	PasswordChangedAt  *time.Time
	MustChangePassword bool
}

// NewUser creates an active user with a password
func NewUser(orgID uuid.UUID, email, name, password string, role Role) (*User, error) {
	u, err := newUser(orgID, email, name, role)
	if err != nil {
		return nil, err
	}
	if err := u.applyPassword(password); err != nil {
		return nil, err
	}
	u.Status = UserStatusActive
	u.AddDomainEvent(NewUserCreatedEvent(u))
	return u, nil
}

// NewInvitedUser creates a pending user who must set a password on first access
func NewInvitedUser(orgID uuid.UUID, email, name string, role Role) (*User, error) {
	u, err := newUser(orgID, email, name, role)
	if err != nil {
		return nil, err
	}
	u.Status = UserStatusPending
	u.MustChangePassword = true
	u.AddDomainEvent(NewUserCreatedEvent(u))
	return u, nil
}

func newUser(orgID uuid.UUID, email, name string, role Role) (*User, error) {
	if orgID == uuid.Nil {
		return nil, shared.NewDomainError("ORGANIZATION_REQUIRED", "User must belong to an organization")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Name must be between 1 and 200 characters")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	return &User{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Email:            email,
		Name:             name,
		Role:             role,
	}, nil
}

// UpdateProfile changes name and phone
func (u *User) UpdateProfile(name, phone string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name must be between 1 and 200 characters")
	}
	if len(phone) > 30 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 30 characters")
	}
	u.Name = name
	u.Phone = strings.TrimSpace(phone)
	u.IncrementVersion()
	return nil
}

// ChangeRole assigns a new role
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError("INVALID_ROLE", "Unknown role")
	}
	if u.Role == role {
		return nil
	}
	old := u.Role
	u.Role = role
	u.IncrementVersion()
	u.AddDomainEvent(NewUserRoleChangedEvent(u, old))
	return nil
}

// ChangePassword verifies the current password before replacing it
func (u *User) ChangePassword(current, next string) error {
	if !u.VerifyPassword(current) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(next)
}

// SetPassword replaces the password without checking the old one (admin reset, first access)
func (u *User) SetPassword(password string) error {
	if err := u.applyPassword(password); err != nil {
		return err
	}
	u.MustChangePassword = false
	if u.Status == UserStatusPending {
		old := u.Status
		u.Status = UserStatusActive
		u.AddDomainEvent(NewUserStatusChangedEvent(u, old))
	}
	u.IncrementVersion()
	u.AddDomainEvent(NewUserPasswordChangedEvent(u))
	return nil
}

func (u *User) applyPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	now := time.Now()
	u.PasswordHash = string(hash)
	u.PasswordChangedAt = &now
	return nil
}

// VerifyPassword checks password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Deactivate blocks the user permanently until reactivated
func (u *User) Deactivate() error {
	if u.Status == UserStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "User is already inactive")
	}
	u.setStatus(UserStatusInactive)
	return nil
}

// Activate re-enables an inactive or locked user
func (u *User) Activate() error {
	if u.Status == UserStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "User is already active")
	}
	if u.PasswordHash == "" {
		return shared.NewDomainError("PASSWORD_NOT_SET", "User has not set a password yet")
	}
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.setStatus(UserStatusActive)
	return nil
}

func (u *User) setStatus(status UserStatus) {
	old := u.Status
	u.Status = status
	u.IncrementVersion()
	u.AddDomainEvent(NewUserStatusChangedEvent(u, old))
}

// RecordLoginSuccess resets the failure counter
func (u *User) RecordLoginSuccess(ip string, at time.Time) {
	u.LastLoginAt = &at
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	if u.Status == UserStatusLocked {
		u.Status = UserStatusActive
		u.LockedUntil = nil
	}
	u.IncrementVersion()
}

// RecordLoginFailure counts a failed attempt and reports whether the account got locked
func (u *User) RecordLoginFailure(maxAttempts int, lockFor time.Duration, at time.Time) bool {
	u.FailedAttempts++
	u.IncrementVersion()
	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := at.Add(lockFor)
		u.LockedUntil = &until
		if u.Status != UserStatusLocked {
			u.setStatus(UserStatusLocked)
		}
		return true
	}
	return false
}

// IsLocked reports whether the lock is still in force at the given time
func (u *User) IsLocked(at time.Time) bool {
	if u.Status != UserStatusLocked {
		return false
	}
	return u.LockedUntil == nil || at.Before(*u.LockedUntil)
}

// CanLogin reports whether credentials may be accepted at the given time
func (u *User) CanLogin(at time.Time) bool {
	switch u.Status {
	case UserStatusActive:
		return true
	case UserStatusLocked:
		return !u.IsLocked(at)
	default:
		return false
	}
}

// IsSysAdmin reports whether the user is a platform administrator
func (u *User) IsSysAdmin() bool {
	return u.Role == RoleSysAdmin
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(email) > 200 {
		return "", shared.NewDomainError("INVALID_EMAIL", "Email must be between 1 and 200 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}
