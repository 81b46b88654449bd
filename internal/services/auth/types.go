package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

type AccessClaims struct {
	UserID    uuid.UUID
	Role      enums.Role
	ExpiresAt time.Time
}
