package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// context keys shared with the logger and handlers
const (
	ClaimsKey = "claims"
	UserKey   = "user"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
// and records the caller identity for CurrentUser.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}
		user := UserFromClaims(claims)
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token carries no subject"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserKey, user)
		c.Next()
	}
}

// HeaderIdentity trusts a plain request header as the caller identity. It is
// only wired in development when no token verifier is configured.
func HeaderIdentity(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(header))
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + header + " header"})
			return
		}
		c.Set(ClaimsKey, map[string]interface{}{"sub": user})
		c.Set(UserKey, user)
		c.Next()
	}
}

// UserFromClaims picks the display identity: preferred_username, then sub.
func UserFromClaims(claims map[string]interface{}) string {
	for _, k := range []string{"preferred_username", "sub"} {
		if v, ok := claims[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// CurrentUser returns the identity resolved by AuthMiddleware or HeaderIdentity.
func CurrentUser(c *gin.Context) (string, bool) {
	u := c.GetString(UserKey)
	return u, u != ""
}
