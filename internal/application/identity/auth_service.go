package identity

import (
	"context"
	"errors"
	"time"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/auth"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	ErrInvalidRefresh     = shared.NewDomainError("INVALID_REFRESH_TOKEN", "Refresh token is invalid or has been revoked")
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	orgRepo    identity.OrganizationRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	events     shared.EventPublisher
	config     AuthServiceConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	orgRepo identity.OrganizationRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		orgRepo:    orgRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

// Login authenticates a user and returns tokens.
// Lookups run under a system session because no tenant is known yet.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	s.logger.Info("Login attempt", zap.String("email", input.Email))
	sysCtx := rls.System(ctx)

	user, err := s.userRepo.FindByEmail(sysCtx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("User not found during login", zap.String("email", input.Email))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if !user.CanLogin(now) {
		return nil, s.loginBlocked(user, now)
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration, now)
		if err := s.save(sysCtx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("email", user.Email),
				zap.Int("attempts", user.FailedAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("email", user.Email),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, ErrInvalidCredentials
	}

	if err := s.requireActiveOrganization(sysCtx, user); err != nil {
		return nil, err
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	user.RecordLoginSuccess(input.IP, now)
	if err := s.save(sysCtx, user); err != nil {
		// The tokens are valid either way
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("organization_id", user.OrganizationID.String()))

	return &LoginResult{TokenResult: *tokens, User: ToUserInfo(user)}, nil
}

func (s *AuthService) loginBlocked(user *identity.User, now time.Time) error {
	s.logger.Warn("Login attempt for blocked account",
		zap.String("email", user.Email),
		zap.String("status", string(user.Status)))
	switch {
	case user.IsLocked(now):
		return shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later or contact support")
	case user.Status == identity.UserStatusPending:
		return shared.NewDomainError("ACCOUNT_PENDING", "Account is pending activation")
	case user.Status == identity.UserStatusInactive:
		return shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
	}
	return shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
}

// requireActiveOrganization blocks members of suspended tenants; sys_admins are exempt
func (s *AuthService) requireActiveOrganization(ctx context.Context, user *identity.User) error {
	if user.IsSysAdmin() {
		return nil
	}
	org, err := s.orgRepo.FindByID(ctx, user.OrganizationID)
	if err != nil {
		return err
	}
	if !org.IsActive() {
		s.logger.Warn("Login attempt for suspended organization",
			zap.String("organization_id", org.ID.String()))
		return shared.NewDomainError("ORGANIZATION_SUSPENDED", "Organization is not active")
	}
	return nil
}

// Refresh rotates a refresh token: the old one is revoked and the user reloaded
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Debug("Refresh token rejected", zap.Error(err))
		return nil, ErrInvalidRefresh
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	sysCtx := rls.System(ctx)
	user, err := s.userRepo.FindByID(sysCtx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if !user.CanLogin(s.now()) {
		return nil, s.loginBlocked(user, s.now())
	}
	if err := s.requireActiveOrganization(sysCtx, user); err != nil {
		return nil, err
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke rotated refresh token", zap.Error(err))
	}
	return tokens, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		s.logger.Warn("Revoked refresh token presented", zap.String("user_id", claims.UserID))
		return ErrInvalidRefresh
	}
	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		return err
	}
	if invalidated {
		return ErrInvalidRefresh
	}
	return nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.AccessTokenJTI != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.AccessTokenJTI, input.AccessTokenTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken == "" {
		return nil
	}
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		// Already unusable
		return nil
	}
	return s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL())
}

// Me returns the signed-in user
func (s *AuthService) Me(ctx context.Context, scope identity.AccessScope) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, scope.UserID)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// ChangePassword replaces the caller's password and revokes every token issued before
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if err := user.ChangePassword(input.CurrentPassword, input.NewPassword); err != nil {
		return err
	}
	shared.StampActor(user, user.ID)
	if err := s.save(ctx, user); err != nil {
		return err
	}
	if err := s.revokeUserTokens(ctx, user.ID); err != nil {
		return err
	}
	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AuthService) revokeUserTokens(ctx context.Context, userID uuid.UUID) error {
	return s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), s.jwtService.GetRefreshTokenExpiration())
}

func (s *AuthService) issue(user *identity.User) (*TokenResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		OrganizationID: user.OrganizationID,
		UserID:         user.ID,
		Email:          user.Email,
		Role:           string(user.Role),
		Permissions:    user.Role.Permissions(),
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	return &TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

func (s *AuthService) save(ctx context.Context, user *identity.User) error {
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	if err := shared.PublishAndClear(ctx, s.events, user); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
	return nil
}
