package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/docflow/docflow/internal/models"
	"github.com/docflow/docflow/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestUpsertFromClaims(t *testing.T) {
	repo := NewMemoryUserRepository()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.UpsertFromClaims(ctx, map[string]interface{}{
		"sub":                "sub-123",
		"preferred_username": "xuser",
		"email":              "x@example.com",
		"name":               "X User",
	})
	require.NoError(t, err)
	require.Equal(t, "sub-123", u.Sub)
	require.Equal(t, "xuser", u.Username)
	require.Equal(t, clock, u.CreatedAt)

	clock = clock.Add(time.Hour)
	u, err = svc.UpsertFromClaims(ctx, map[string]interface{}{"sub": "sub-123", "email": "new@example.com"})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", u.Email)
	require.Equal(t, "sub-123", u.Username)
	require.True(t, u.LastSeen.After(u.CreatedAt))

	got, err := svc.GetBySub(ctx, "sub-123")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", got.Email)

	_, err = svc.GetBySub(ctx, "missing")
	require.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = svc.UpsertFromClaims(ctx, map[string]interface{}{"email": "y@e.com"})
	require.True(t, errors.Is(err, apperr.ErrBadRequest))
}

func TestMeHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", middleware.HeaderIdentity("X-User"))
	RegisterRoutes(api, NewService(NewMemoryUserRepository()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-User", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var u models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	require.Equal(t, "alice", u.Sub)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/alice", nil)
	req.Header.Set("X-User", "bob")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"sub":"alice"`)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/carol", nil)
	req.Header.Set("X-User", "bob")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{{Key: "_id", Value: "s1"}, {Key: "username", Value: "alice"}}},
		})
		u, err := repo.UpsertBySub(context.Background(), &models.User{Sub: "s1", Username: "alice"})
		require.NoError(mt, err)
		require.Equal(mt, "alice", u.Username)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.users", mtest.FirstBatch))
		_, ok, err := repo.GetBySub(context.Background(), "nobody")
		require.NoError(mt, err)
		require.False(mt, ok)
	})
}
