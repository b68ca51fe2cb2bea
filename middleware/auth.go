package middleware

import (
	"net/http"
	"strings"

	"roomkeeper/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by JWTAuthMiddleware.
const (
	ActorIDKey = "actorID"
	RoleKey    = "role"
)

// JWTAuthMiddleware verifies the bearer token and stores the caller's subject and
// role in the context. With optional set, a missing header lets the request through
// anonymously; a present but bad token is still rejected. When roles are given the
// caller's role must be one of them.
func JWTAuthMiddleware(optional bool, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" && optional {
			c.Next()
			return
		}
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := utils.ParseClaims(tokenString)
		if err != nil {
			zap.L().Debug("JWTAuthMiddleware: token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			zap.L().Warn("JWTAuthMiddleware: role not permitted",
				zap.String("subject", claims.Subject),
				zap.String("role", claims.Role),
				zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}

		c.Set(ActorIDKey, claims.Subject)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// StaffOnly admits staff and administrators.
func StaffOnly() gin.HandlerFunc {
	return JWTAuthMiddleware(false, utils.RoleStaff, utils.RoleAdmin)
}

// AdminOnly admits administrators.
func AdminOnly() gin.HandlerFunc {
	return JWTAuthMiddleware(false, utils.RoleAdmin)
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}
