package handlers

import (
	"roomkeeper/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves a Zap logger from the Gin context or falls back to the global one.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.L()
}

// actorFrom returns the authenticated subject, or "anonymous" for public callers.
func actorFrom(c *gin.Context) string {
	if id := c.GetString("actorID"); id != "" {
		return id
	}
	return "anonymous"
}

func isStaff(c *gin.Context) bool {
	role := c.GetString("role")
	return role == utils.RoleStaff || role == utils.RoleAdmin
}
