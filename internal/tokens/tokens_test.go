package tokens

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/docflow/docflow/internal/config"
	"github.com/docflow/docflow/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testCfg() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret-32-bytes-should-be-long-enough", Issuer: "docflow"}
}

func claimsOf(t *testing.T, tok middleware.Token) map[string]interface{} {
	t.Helper()
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	return claims
}

func TestGenerateAndVerify(t *testing.T) {
	cfg := testCfg()
	raw, err := GenerateAccessToken(cfg, "alice", "Alice A", 2*time.Minute)
	require.NoError(t, err)

	v, err := NewVerifier(cfg)
	require.NoError(t, err)
	tok, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)

	claims := claimsOf(t, tok)
	require.Equal(t, "alice", claims["sub"])
	require.Equal(t, "alice", middleware.UserFromClaims(claims))
	require.Equal(t, "docflow", claims["iss"])
}

func TestVerifyExpired(t *testing.T) {
	cfg := testCfg()
	raw, err := GenerateAccessToken(cfg, "u2", "", time.Minute)
	require.NoError(t, err)

	v, err := NewVerifier(cfg)
	require.NoError(t, err)
	v.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = v.Verify(context.Background(), raw)
	require.Error(t, err)
}

func TestVerifyWrongSecret(t *testing.T) {
	raw, err := GenerateAccessToken(testCfg(), "u3", "", 2*time.Minute)
	require.NoError(t, err)

	v, err := NewVerifier(config.JWTConfig{Secret: "different-secret-xxxxxxxxxxxxxxxx", Issuer: "docflow"})
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), raw)
	require.Error(t, err)
}

func TestVerifyWrongIssuer(t *testing.T) {
	cfg := testCfg()
	cfg.Issuer = "someone-else"
	raw, err := GenerateAccessToken(cfg, "u4", "", 2*time.Minute)
	require.NoError(t, err)

	v, err := NewVerifier(testCfg())
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), raw)
	require.Error(t, err)
}

func TestVerifyMalformed(t *testing.T) {
	v, err := NewVerifier(testCfg())
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), "not.a.jwt")
	require.Error(t, err)
}

func seg(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

func TestVerifyRejectsAlgNone(t *testing.T) {
	v, err := NewVerifier(testCfg())
	require.NoError(t, err)
	tok := seg(`{"alg":"none"}`) + "." + seg(`{"sub":"u-none","exp":9999999999,"iss":"docflow"}`) + "."
	_, err = v.Verify(context.Background(), tok)
	require.Error(t, err)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	cfg := testCfg()
	raw, err := GenerateAccessToken(cfg, "user-t", "", 5*time.Minute)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	parts[1] = seg(strings.Replace(string(payload), "user-t", "attacker", -1))

	v, err := NewVerifier(cfg)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), strings.Join(parts, "."))
	require.Error(t, err)
}

func TestVerifyRejectsOtherHMAC(t *testing.T) {
	cfg := testCfg()
	claims := jwt.MapClaims{"sub": "x", "iss": "docflow", "exp": time.Now().Add(time.Minute).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	v, err := NewVerifier(cfg)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), raw)
	require.Error(t, err)
}

func TestEmptySecret(t *testing.T) {
	_, err := NewVerifier(config.JWTConfig{})
	require.Error(t, err)
	_, err = GenerateAccessToken(config.JWTConfig{}, "a", "", time.Minute)
	require.Error(t, err)
}
