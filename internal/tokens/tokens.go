package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docflow/docflow/internal/config"
	"github.com/docflow/docflow/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates HS256 access tokens signed with the shared JWT secret.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(cfg config.JWTConfig) (*Verifier, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Verifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer, now: time.Now}, nil
}

type claimsToken struct {
	claims jwt.MapClaims
}

func (t claimsToken) Claims(v interface{}) error {
	m, ok := v.(*map[string]interface{})
	if !ok {
		return fmt.Errorf("unsupported claims target %T", v)
	}
	*m = map[string]interface{}(t.claims)
	return nil
}

func (v *Verifier) Verify(_ context.Context, raw string) (middleware.Token, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claimsToken{claims: claims}, nil
}

// GenerateAccessToken creates a signed JWT access token for the user
func GenerateAccessToken(cfg config.JWTConfig, sub, name string, ttl time.Duration) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("jwt secret is empty")
	}
	if sub == "" {
		return "", errors.New("subject is empty")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":                sub,
		"preferred_username": sub,
		"iat":                now.Unix(),
		"exp":                now.Add(ttl).Unix(),
	}
	if name != "" {
		claims["name"] = name
	}
	if cfg.Issuer != "" {
		claims["iss"] = cfg.Issuer
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.Secret))
}
