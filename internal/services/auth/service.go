package auth

import (
	"context"
	"strings"
)

// Service resolves a bearer token into the caller identity. Token issuance
// and session handling belong to the account service.
type Service struct {
	jwt *JWTManager
}

func NewService(jwtManager *JWTManager) *Service {
	return &Service{jwt: jwtManager}
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	if err := ctx.Err(); err != nil {
		return AccessClaims{}, err
	}
	if s.jwt == nil {
		return AccessClaims{}, ErrUnauthorized
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return AccessClaims{}, ErrInvalidInput
	}

	return s.jwt.ParseAccessToken(accessToken)
}

func (s *Service) Authenticate(ctx context.Context, accessToken string) (Identity, error) {
	claims, err := s.ValidateAccessToken(ctx, accessToken)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}
