package middleware

import (
	"net/http"

	"github.com/compia/backend/internal/domain/identity"
	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	Logger *zap.Logger
}

// RequirePermission rejects callers whose role lacks permission.
// Services check again; this only fails fast at the route.
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permission)
}

// RequireAnyPermission passes when the role grants at least one permission
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return RequireAnyPermissionWithConfig(PermissionConfig{}, permissions...)
}

// RequireAnyPermissionWithConfig is RequireAnyPermission with logging
func RequireAnyPermissionWithConfig(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := GetScope(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		for _, p := range permissions {
			if scope.Can(p) {
				c.Next()
				return
			}
		}
		denyPermission(c, cfg, scope, permissions)
	}
}

// RequireRole passes only for the listed roles
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := GetScope(c)
		if ok {
			for _, r := range roles {
				if scope.Role == r {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Access denied for this role", GetRequestID(c)))
	}
}

func denyPermission(c *gin.Context, cfg PermissionConfig, scope identity.AccessScope, required []string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Permission denied",
			zap.String("user_id", scope.UserID.String()),
			zap.String("role", string(scope.Role)),
			zap.Strings("required_permissions", required),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))
	}
	c.AbortWithStatusJSON(http.StatusForbidden,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Access denied: insufficient permissions", GetRequestID(c)))
}
