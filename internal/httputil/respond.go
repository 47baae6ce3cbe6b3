// Package httputil holds the response helpers shared by the gin handlers.
package httputil

import (
	"net/http"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/docflow/docflow/pkg/logger"
	"github.com/docflow/docflow/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// Error writes {"error": msg} with the status mapped from the error kind.
// Store and internal failures are logged and answered with a generic message.
func Error(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err)})
}

// RequireUser returns the caller identity or answers 401.
func RequireUser(c *gin.Context) (string, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return user, ok
}
