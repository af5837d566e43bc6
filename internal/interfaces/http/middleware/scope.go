package middleware

import (
	"context"
	"net/http"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const accessScopeKey = "access_scope"

// ScopeResolver builds the access scope of an authenticated principal
type ScopeResolver interface {
	Resolve(ctx context.Context, userID, orgID uuid.UUID, role identity.Role) (identity.AccessScope, error)
}

// AccessScope resolves the caller's visible organizations from the JWT
// claims and binds the matching row-level session to the request context.
// Requests without claims (skipped paths) pass through untouched.
func AccessScope(resolver ScopeResolver, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.Next()
			return
		}

		userID, err := claims.GetUserUUID()
		if err != nil {
			abortScope(c, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Invalid token subject")
			return
		}
		orgID, err := claims.GetOrganizationUUID()
		if err != nil {
			abortScope(c, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Invalid token organization")
			return
		}
		role := identity.Role(claims.Role)
		if !role.IsValid() {
			abortScope(c, http.StatusForbidden, dto.ErrCodeForbidden, "Unknown role")
			return
		}

		scope, err := resolver.Resolve(c.Request.Context(), userID, orgID, role)
		if err != nil {
			log.Error("Failed to resolve access scope",
				zap.String("user_id", claims.UserID),
				zap.Error(err))
			abortScope(c, http.StatusInternalServerError, dto.ErrCodeInternal, "Failed to resolve access scope")
			return
		}

		SetScope(c, scope)
		c.Next()
	}
}

func abortScope(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// SetScope stores scope on the context and binds its row-level session
func SetScope(c *gin.Context, scope identity.AccessScope) {
	c.Set(accessScopeKey, scope)
	c.Request = c.Request.WithContext(rls.WithSession(c.Request.Context(), rls.FromScope(scope)))
}

// GetScope returns the scope stored by AccessScope
func GetScope(c *gin.Context) (identity.AccessScope, bool) {
	v, ok := c.Get(accessScopeKey)
	if !ok {
		return identity.AccessScope{}, false
	}
	scope, ok := v.(identity.AccessScope)
	return scope, ok
}
