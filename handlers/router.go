package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	dochandler "github.com/docflow/docflow/internal/document/handler"
	docservice "github.com/docflow/docflow/internal/document/service"
	lockhandler "github.com/docflow/docflow/internal/lock/handler"
	lockservice "github.com/docflow/docflow/internal/lock/service"
	"github.com/docflow/docflow/internal/users"
	"github.com/docflow/docflow/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadyCheck reports whether a backing dependency answers.
type ReadyCheck func(ctx context.Context) error

// Dependencies is everything NewRouter mounts.
type Dependencies struct {
	Documents docservice.Service
	Locks     lockservice.Service
	Users     *users.Service
	// Auth resolves the caller; it runs before every /api route.
	Auth gin.HandlerFunc
	// RateLimit is optional and runs after Auth so limits are per user.
	RateLimit gin.HandlerFunc
	Checks    map[string]ReadyCheck
	Gatherer  prometheus.Gatherer
	StartTime time.Time
}

// NewRouter builds the gin engine serving the documents API and the
// operational endpoints.
func NewRouter(d Dependencies) *gin.Engine {
	if d.StartTime.IsZero() {
		d.StartTime = time.Now()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	r := gin.New()
	r.Use(cors(), logger.GinMiddleware(), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", readyHandler(d.Checks, d.StartTime))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	RegisterSwagger(r)

	chain := []gin.HandlerFunc{d.Auth}
	if d.RateLimit != nil {
		chain = append(chain, d.RateLimit)
	}

	api := r.Group("/api", chain...)
	dochandler.RegisterDocumentRoutes(api, d.Documents)
	lockhandler.RegisterLockRoutes(api, d.Locks)

	if d.Users != nil {
		users.RegisterRoutes(r.Group("/api/v1", chain...), d.Users)
	}
	return r
}

// cors is a permissive policy for browser clients during development.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		h.Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func readyHandler(checks map[string]ReadyCheck, start time.Time) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		ready := true
		deps := map[string]bool{}
		for _, name := range names {
			err := checks[name](ctx)
			deps[name] = err == nil
			if err != nil {
				ready = false
				logger.Warnf("readiness: %s: %v", name, err)
			}
		}
		body := gin.H{"deps": deps, "uptime": time.Since(start).Round(time.Second).String()}
		if !ready {
			body["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["status"] = "ready"
		c.JSON(http.StatusOK, body)
	}
}
