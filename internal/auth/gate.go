package auth

import (
	"context"
	"strings"
)

const bearerPrefix = "Bearer "

// Verifier resolves a raw token into an identity.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// Gate turns an Authorization header into an Identity.
type Gate struct {
	verifier Verifier
}

func NewGate(verifier Verifier) *Gate {
	return &Gate{verifier: verifier}
}

// Resolve fails with ErrUnauthenticated when the header is missing or not a
// bearer credential, and with ErrInvalidToken when verification fails.
func (g *Gate) Resolve(header string) (Identity, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return Identity{}, ErrUnauthenticated
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return Identity{}, ErrUnauthenticated
	}
	return g.verifier.Verify(token)
}

type identityKey struct{}

// WithIdentity stores the resolved caller in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID > 0
}
