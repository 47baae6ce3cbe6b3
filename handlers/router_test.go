package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	docservice "github.com/docflow/docflow/internal/document/service"
	lockservice "github.com/docflow/docflow/internal/lock/service"
	"github.com/docflow/docflow/internal/users"
	"github.com/docflow/docflow/pkg/metrics"
	"github.com/docflow/docflow/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, checks map[string]ReadyCheck) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)
	locks := lockservice.NewMemoryManager()
	return NewRouter(Dependencies{
		Documents: docservice.NewMemoryManager(locks),
		Locks:     locks,
		Users:     users.NewService(users.NewMemoryUserRepository()),
		Auth:      middleware.HeaderIdentity("X-User"),
		Checks:    checks,
		Gatherer:  reg,
	})
}

func do(r http.Handler, method, path, user string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterOperationalEndpoints(t *testing.T) {
	r := newTestRouter(t, map[string]ReadyCheck{"mongo": func(context.Context) error { return nil }})

	w := do(r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", w.Body.String())

	w = do(r, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"mongo":true`)

	w = do(r, http.MethodOptions, "/api/documents", "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterNotReady(t *testing.T) {
	r := newTestRouter(t, map[string]ReadyCheck{
		"mongo": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("down") },
	})
	w := do(r, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status string          `json:"status"`
		Deps   map[string]bool `json:"deps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "not_ready", body.Status)
	require.False(t, body.Deps["redis"])
	require.True(t, body.Deps["mongo"])
}

func TestRouterDocumentFlowAndMetrics(t *testing.T) {
	r := newTestRouter(t, nil)

	require.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/documents", "", nil).Code)

	w := do(r, http.MethodPost, "/api/documents", "alice", []byte(`{"title":"T","body":"B"}`))
	require.Equal(t, http.StatusCreated, w.Code)
	var sum struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))

	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/api/documents/"+sum.ID+"/lock", "alice", nil).Code)
	require.Equal(t, http.StatusLocked, do(r, http.MethodPut, "/api/documents/"+sum.ID, "bob", []byte(`{"body":"x","version":0}`)).Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/api/documents/"+sum.ID, "alice", []byte(`{"body":"x","version":0}`)).Code)

	w = do(r, http.MethodGet, "/api/v1/me", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"sub":"alice"`)

	w = do(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "docflow_document_operations_total")
	require.Contains(t, w.Body.String(), "docflow_lock_operations_total")
}
