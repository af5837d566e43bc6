package identity

import (
	"context"
	"time"

	"github.com/compia/backend/internal/domain/billing"
	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/domain/shared"
	"github.com/compia/backend/internal/infrastructure/auth"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UsageChecker enforces plan limits before a resource is created
type UsageChecker interface {
	CheckUsage(ctx context.Context, orgID uuid.UUID, usage billing.UsageType) error
}

// UserService manages the members of organizations
type UserService struct {
	userRepo  identity.UserRepository
	orgRepo   identity.OrganizationRepository
	usage     UsageChecker
	blacklist auth.TokenBlacklist
	tokenTTL  time.Duration
	events    shared.EventPublisher
	logger    *zap.Logger
}

// NewUserService creates a new user service.
// tokenTTL is the longest token lifetime; revocations are kept that long.
func NewUserService(
	userRepo identity.UserRepository,
	orgRepo identity.OrganizationRepository,
	usage UsageChecker,
	blacklist auth.TokenBlacklist,
	tokenTTL time.Duration,
	events shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		orgRepo:   orgRepo,
		usage:     usage,
		blacklist: blacklist,
		tokenTTL:  tokenTTL,
		events:    events,
		logger:    logger,
	}
}

// Create adds a user to a visible organization.
// Without a password the user is invited and must set one on first access.
func (s *UserService) Create(ctx context.Context, scope identity.AccessScope, input CreateUserInput) (*UserInfo, error) {
	if err := scope.Require(identity.PermUserCreate); err != nil {
		return nil, err
	}
	orgID := scope.OrganizationID
	if input.OrganizationID != nil {
		orgID = *input.OrganizationID
	}
	if err := scope.RequireOrganization(orgID); err != nil {
		return nil, err
	}
	if !scope.Role.CanAssign(input.Role) {
		return nil, shared.NewDomainError("FORBIDDEN_ROLE", "You cannot assign this role")
	}
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsActive() {
		return nil, shared.NewDomainError("ORGANIZATION_SUSPENDED", "Organization is not active")
	}

	// Emails are unique across every tenant
	exists, err := s.userRepo.ExistsByEmail(rls.System(ctx), input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_ALREADY_EXISTS", "A user with this email already exists")
	}
	if err := s.usage.CheckUsage(ctx, orgID, billing.UsageUsers); err != nil {
		return nil, err
	}

	var user *identity.User
	if input.Password == "" {
		user, err = identity.NewInvitedUser(orgID, input.Email, input.Name, input.Role)
	} else {
		user, err = identity.NewUser(orgID, input.Email, input.Name, input.Password, input.Role)
	}
	if err != nil {
		return nil, err
	}
	if input.Phone != "" {
		if err := user.UpdateProfile(user.Name, input.Phone); err != nil {
			return nil, err
		}
	}
	creator := scope.UserID
	user.CreatedBy = &creator

	if err := s.save(ctx, scope, user); err != nil {
		return nil, err
	}
	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("organization_id", orgID.String()),
		zap.String("role", string(user.Role)),
		zap.Bool("invited", input.Password == ""))

	info := ToUserInfo(user)
	return &info, nil
}

// Get returns a visible user; everyone may read their own record
func (s *UserService) Get(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*UserInfo, error) {
	if id != scope.UserID {
		if err := scope.Require(identity.PermUserRead); err != nil {
			return nil, err
		}
	}
	user, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// List returns the users of the visible organizations
func (s *UserService) List(ctx context.Context, scope identity.AccessScope, filter UserListFilter) (*shared.Paginated[UserInfo], error) {
	if err := scope.Require(identity.PermUserRead); err != nil {
		return nil, err
	}
	orgIDs, err := scope.Restrict(filter.OrganizationID)
	if err != nil {
		return nil, err
	}
	users, total, err := s.userRepo.FindAll(ctx, identity.UserFilter{
		Filter:          filter.Filter,
		OrganizationIDs: orgIDs,
		Role:            filter.Role,
		Status:          filter.Status,
	})
	if err != nil {
		return nil, err
	}
	items := make([]UserInfo, len(users))
	for i := range users {
		items[i] = ToUserInfo(&users[i])
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.Limit())
	return &page, nil
}

// Update changes profile fields; users may edit themselves
func (s *UserService) Update(ctx context.Context, scope identity.AccessScope, id uuid.UUID, input UpdateUserInput) (*UserInfo, error) {
	if id != scope.UserID {
		if err := scope.Require(identity.PermUserUpdate); err != nil {
			return nil, err
		}
	}
	user, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if id != scope.UserID && !scope.Role.CanAssign(user.Role) {
		return nil, shared.ErrForbidden
	}
	if err := user.UpdateProfile(input.Name, input.Phone); err != nil {
		return nil, err
	}
	if err := s.save(ctx, scope, user); err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// ChangeRole assigns a new role and revokes the user's tokens, which carry the old one
func (s *UserService) ChangeRole(ctx context.Context, scope identity.AccessScope, id uuid.UUID, role identity.Role) (*UserInfo, error) {
	user, err := s.managed(ctx, scope, id, identity.PermUserUpdate)
	if err != nil {
		return nil, err
	}
	if !scope.Role.CanAssign(role) {
		return nil, shared.NewDomainError("FORBIDDEN_ROLE", "You cannot assign this role")
	}
	if err := user.ChangeRole(role); err != nil {
		return nil, err
	}
	if err := s.save(ctx, scope, user); err != nil {
		return nil, err
	}
	if err := s.revokeTokens(ctx, user.ID); err != nil {
		return nil, err
	}
	s.logger.Info("User role changed",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)))
	info := ToUserInfo(user)
	return &info, nil
}

// Deactivate blocks the user and revokes their tokens
func (s *UserService) Deactivate(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*UserInfo, error) {
	user, err := s.managed(ctx, scope, id, identity.PermUserDelete)
	if err != nil {
		return nil, err
	}
	if err := user.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, scope, user); err != nil {
		return nil, err
	}
	if err := s.revokeTokens(ctx, user.ID); err != nil {
		return nil, err
	}
	s.logger.Info("User deactivated", zap.String("user_id", user.ID.String()))
	info := ToUserInfo(user)
	return &info, nil
}

// Activate re-enables an inactive or locked user
func (s *UserService) Activate(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*UserInfo, error) {
	user, err := s.managed(ctx, scope, id, identity.PermUserUpdate)
	if err != nil {
		return nil, err
	}
	if err := user.Activate(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, scope, user); err != nil {
		return nil, err
	}
	info := ToUserInfo(user)
	return &info, nil
}

// ResetPassword sets a temporary password the user must change on next access
func (s *UserService) ResetPassword(ctx context.Context, scope identity.AccessScope, id uuid.UUID, password string) error {
	user, err := s.managed(ctx, scope, id, identity.PermUserUpdate)
	if err != nil {
		return err
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	user.MustChangePassword = true
	if err := s.save(ctx, scope, user); err != nil {
		return err
	}
	if err := s.revokeTokens(ctx, user.ID); err != nil {
		return err
	}
	s.logger.Info("User password reset",
		zap.String("user_id", user.ID.String()),
		zap.String("reset_by", scope.UserID.String()))
	return nil
}

// managed loads a user the caller administers: never themselves, never a higher role
func (s *UserService) managed(ctx context.Context, scope identity.AccessScope, id uuid.UUID, permission string) (*identity.User, error) {
	if err := scope.Require(permission); err != nil {
		return nil, err
	}
	if id == scope.UserID {
		return nil, shared.NewDomainError("FORBIDDEN_SELF", "You cannot perform this action on your own account")
	}
	user, err := s.find(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if !scope.Role.CanAssign(user.Role) {
		return nil, shared.ErrForbidden
	}
	return user, nil
}

func (s *UserService) find(ctx context.Context, scope identity.AccessScope, id uuid.UUID) (*identity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := scope.RequireOrganization(user.OrganizationID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) revokeTokens(ctx context.Context, userID uuid.UUID) error {
	return s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), s.tokenTTL)
}

func (s *UserService) save(ctx context.Context, scope identity.AccessScope, user *identity.User) error {
	shared.StampActor(user, scope.UserID)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return err
	}
	if err := shared.PublishAndClear(ctx, s.events, user); err != nil {
		s.logger.Warn("Failed to publish user events", zap.Error(err))
	}
	return nil
}
