package users

import (
	"context"
	"fmt"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/docflow/docflow/internal/models"
	"github.com/docflow/docflow/pkg/middleware"
)

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromClaims records the identity carried by verified token claims.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: claims carry no subject", apperr.ErrBadRequest)
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	u := &models.User{
		Sub:      sub,
		Username: middleware.UserFromClaims(claims),
		Email:    email,
		Name:     name,
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	u, ok, err := s.repo.GetBySub(ctx, sub)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, sub)
	}
	return u, nil
}
