package handler

import (
	"net/http"
	"strconv"

	"github.com/docflow/docflow/internal/document"
	"github.com/docflow/docflow/internal/document/service"
	"github.com/docflow/docflow/internal/httputil"
	"github.com/gin-gonic/gin"
)

type createRequest struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type updateRequest struct {
	Title   *string `json:"title"`
	Body    *string `json:"body"`
	Version *int64  `json:"version"`
}

// RegisterDocumentRoutes mounts the document endpoints on rg. The group is
// expected to run an identity middleware first.
func RegisterDocumentRoutes(rg gin.IRouter, svc service.Service) {
	rg.GET("/documents", func(c *gin.Context) {
		number, err1 := queryInt(c, "page")
		size, err2 := queryInt(c, "size")
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page and size must be integers"})
			return
		}
		p, err := svc.List(c.Request.Context(), document.PageRequest{Number: number, Size: size})
		if err != nil {
			httputil.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	rg.POST("/documents", func(c *gin.Context) {
		user, ok := httputil.RequireUser(c)
		if !ok {
			return
		}
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sum, err := svc.Create(c.Request.Context(), &document.Document{ID: req.ID, Title: req.Title, Body: req.Body}, user)
		if err != nil {
			httputil.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, sum)
	})

	rg.GET("/documents/:id", func(c *gin.Context) {
		d, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httputil.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	rg.PUT("/documents/:id", func(c *gin.Context) {
		user, ok := httputil.RequireUser(c)
		if !ok {
			return
		}
		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Version == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "version is required"})
			return
		}
		patch := document.Patch{Title: req.Title, Body: req.Body, Version: *req.Version}
		d, err := svc.Update(c.Request.Context(), c.Param("id"), patch, user)
		if err != nil {
			httputil.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	// body is the bare status, e.g. text/plain "VALIDATED"
	rg.PUT("/documents/:id/status", func(c *gin.Context) {
		if _, ok := httputil.RequireUser(c); !ok {
			return
		}
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		target, err := document.ParseStatus(string(raw))
		if err != nil {
			httputil.Error(c, err)
			return
		}
		d, err := svc.SetStatus(c.Request.Context(), c.Param("id"), target)
		if err != nil {
			httputil.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	rg.GET("/documents/:id/archive", func(c *gin.Context) {
		u, err := svc.ArchiveURL(c.Request.Context(), c.Param("id"))
		if err != nil {
			httputil.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "url": u})
	})
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
