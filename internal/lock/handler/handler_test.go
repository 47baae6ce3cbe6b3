package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docflow/docflow/internal/lock"
	"github.com/docflow/docflow/internal/lock/service"
	"github.com/docflow/docflow/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func call(g *gin.Engine, method, path, user string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-User", user)
	g.ServeHTTP(w, req)
	return w
}

func TestLockHandler(t *testing.T) {
	g := gin.New()
	RegisterLockRoutes(g.Group("/api", middleware.HeaderIdentity("X-User")), service.NewMemoryManager())

	w := call(g, http.MethodGet, "/api/documents/d1/lock", "alice")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = call(g, http.MethodPut, "/api/documents/d1/lock", "alice")
	require.Equal(t, http.StatusOK, w.Code)
	var l lock.Lock
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	require.Equal(t, "alice", l.Owner)
	require.Equal(t, "d1", l.DocumentID)

	w = call(g, http.MethodPut, "/api/documents/d1/lock", "bob")
	require.Equal(t, http.StatusLocked, w.Code)

	w = call(g, http.MethodGet, "/api/documents/d1/lock", "bob")
	require.Equal(t, http.StatusOK, w.Code)

	w = call(g, http.MethodDelete, "/api/documents/d1/lock", "bob")
	require.Equal(t, http.StatusConflict, w.Code)

	w = call(g, http.MethodDelete, "/api/documents/d1/lock", "alice")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = call(g, http.MethodGet, "/api/documents/d1/lock", "alice")
	require.Equal(t, http.StatusNoContent, w.Code)
}
