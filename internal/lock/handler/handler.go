package handler

import (
	"net/http"

	"github.com/docflow/docflow/internal/httputil"
	"github.com/docflow/docflow/internal/lock/service"
	"github.com/gin-gonic/gin"
)

// RegisterLockRoutes mounts the edit-lock endpoints under /documents/:id/lock.
func RegisterLockRoutes(rg gin.IRouter, svc service.Service) {
	rg.GET("/documents/:id/lock", func(c *gin.Context) {
		l, found, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httputil.Error(c, err)
			return
		}
		if !found {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, l)
	})

	rg.PUT("/documents/:id/lock", func(c *gin.Context) {
		user, ok := httputil.RequireUser(c)
		if !ok {
			return
		}
		l, err := svc.Acquire(c.Request.Context(), c.Param("id"), user)
		if err != nil {
			httputil.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, l)
	})

	rg.DELETE("/documents/:id/lock", func(c *gin.Context) {
		user, ok := httputil.RequireUser(c)
		if !ok {
			return
		}
		released, err := svc.Release(c.Request.Context(), c.Param("id"), user)
		if err != nil {
			httputil.Error(c, err)
			return
		}
		if !released {
			c.JSON(http.StatusConflict, gin.H{"error": "no lock held by " + user})
			return
		}
		c.Status(http.StatusNoContent)
	})
}
