package auth

import (
	"context"
)

type contextKey string

const authContextKey contextKey = "lockllm_gateway_auth"

// Identity is the caller a local token resolved to.
type Identity struct {
	// KeyID is a short, loggable prefix of the token hash.
	KeyID string
}

func ContextWithAuth(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, authContextKey, id)
}

func AuthFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(authContextKey).(*Identity)
	return id, ok
}
