package users

import (
	"net/http"

	"github.com/docflow/docflow/internal/httputil"
	"github.com/docflow/docflow/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts GET /me, which records and returns the caller, and
// GET /users/:sub, which looks up an identity seen before.
func RegisterRoutes(rg gin.IRouter, svc *Service) {
	rg.GET("/me", func(c *gin.Context) {
		if _, ok := httputil.RequireUser(c); !ok {
			return
		}
		claims, _ := c.Get(middleware.ClaimsKey)
		m, _ := claims.(map[string]interface{})
		u, err := svc.UpsertFromClaims(c.Request.Context(), m)
		if err != nil {
			httputil.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	})

	rg.GET("/users/:sub", func(c *gin.Context) {
		u, err := svc.GetBySub(c.Request.Context(), c.Param("sub"))
		if err != nil {
			httputil.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	})
}
