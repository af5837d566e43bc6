package identity

import (
	"context"
	"time"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultScopeCacheTTL bounds how long a hierarchy change takes to reach
// requests authenticated before it
const DefaultScopeCacheTTL = time.Minute

// ScopeResolver turns token claims into an AccessScope.
// Descendant lists are cached per organization.
type ScopeResolver struct {
	orgRepo identity.OrganizationRepository
	cache   *gocache.Cache
	logger  *zap.Logger
}

// NewScopeResolver creates a resolver whose cache entries live for ttl
func NewScopeResolver(orgRepo identity.OrganizationRepository, ttl time.Duration, logger *zap.Logger) *ScopeResolver {
	if ttl <= 0 {
		ttl = DefaultScopeCacheTTL
	}
	return &ScopeResolver{
		orgRepo: orgRepo,
		cache:   gocache.New(ttl, 2*ttl),
		logger:  logger,
	}
}

// Resolve builds the scope of a principal
func (r *ScopeResolver) Resolve(ctx context.Context, userID, orgID uuid.UUID, role identity.Role) (identity.AccessScope, error) {
	if !role.SeesDescendants() {
		return identity.NewAccessScope(userID, orgID, role, nil), nil
	}
	descendants, err := r.descendants(ctx, orgID)
	if err != nil {
		return identity.AccessScope{}, err
	}
	return identity.NewAccessScope(userID, orgID, role, descendants), nil
}

func (r *ScopeResolver) descendants(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	key := orgID.String()
	if v, ok := r.cache.Get(key); ok {
		return v.([]uuid.UUID), nil
	}
	ids, err := r.orgRepo.DescendantIDs(rls.System(ctx), orgID)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, ids)
	r.logger.Debug("Resolved organization descendants",
		zap.String("organization_id", key),
		zap.Int("count", len(ids)))
	return ids, nil
}

// Invalidate drops every cached hierarchy.
// Called after an organization is created or moved.
func (r *ScopeResolver) Invalidate() {
	r.cache.Flush()
}
