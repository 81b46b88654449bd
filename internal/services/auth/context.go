package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Jeffrey-enterN/entern-match/internal/domain/enums"
)

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

// Identity is the verified caller attached to a request.
type Identity struct {
	UserID uuid.UUID
	Role   enums.Role
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
