package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisRateLimitMiddleware_Basic(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})

	r := gin.New()
	// one request per minute keeps both calls inside a single window
	r.Use(RedisRateLimitMiddleware(client, 0, 1, time.Minute))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, requestFrom("10.2.0.1:1000", "/r"))
	require.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, requestFrom("10.2.0.1:1000", "/r"))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	require.Equal(t, "60", w2.Header().Get("Retry-After"))

	// other clients have their own counter
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, requestFrom("10.2.0.2:1000", "/r"))
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRedisRateLimitMiddleware_RedisDown(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	m.Close()

	r := gin.New()
	r.Use(RedisRateLimitMiddleware(client, 1, 1, time.Second))
	r.GET("/r", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, requestFrom("10.2.0.3:1000", "/r"))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
