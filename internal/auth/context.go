package auth

import (
	"context"

	"github.com/goaltrackr/apiserver/types"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the authenticated caller in ctx.
func WithIdentity(ctx context.Context, identity types.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the caller stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (types.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(types.Identity)
	if !ok || identity.ID == "" {
		return types.Identity{}, false
	}
	return identity, true
}
