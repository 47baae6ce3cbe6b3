package oidc

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer = "https://kc.example/realms/docs"
	testClient = "docflow"
)

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return raw
}

func TestKeySetVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewKeySetVerifier(testIssuer, testClient, &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{key.Public()}})

	good := jwt.MapClaims{
		"iss":                testIssuer,
		"aud":                testClient,
		"sub":                "s-1",
		"preferred_username": "alice",
		"exp":                time.Now().Add(time.Minute).Unix(),
		"iat":                time.Now().Unix(),
	}
	tok, err := v.Verify(context.Background(), signRS256(t, key, good))
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "alice", claims["preferred_username"])

	wrongAud := jwt.MapClaims{}
	for k, val := range good {
		wrongAud[k] = val
	}
	wrongAud["aud"] = "other"
	_, err = v.Verify(context.Background(), signRS256(t, key, wrongAud))
	require.Error(t, err)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), signRS256(t, other, good))
	require.Error(t, err)
}

func TestInsecureVerifier(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString
	v := NewInsecureVerifier()

	tok, err := v.Verify(context.Background(), enc([]byte(`{"alg":"none"}`))+"."+enc([]byte(`{"sub":"bob"}`))+".")
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "bob", claims["sub"])

	_, err = v.Verify(context.Background(), enc([]byte(`{}`))+"."+enc([]byte(`{"sub":"bob","exp":1}`))+".")
	require.Error(t, err)

	_, err = v.Verify(context.Background(), "garbage")
	require.Error(t, err)
}
