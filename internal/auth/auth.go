// Package auth provides bearer-token session identities backed by the
// shared cache store. Absence of an identity is a valid, handled state;
// endpoints that require one reject with 401 before any processing.
package auth

import (
	"context"
	"net/http"
)

// Identity represents an authenticated caller.
type Identity struct {
	Subject string // opaque user identifier, e.g. "user:ab12"
	Email   string
	Tier    string // entitlement-backed quota class
}

// contextKey is used for storing Identity in context.
type contextKey struct{}

var identityKey = contextKey{}

// WithIdentity adds an Identity to the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity retrieves the Identity from context, or nil.
func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey).(*Identity); ok {
		return id
	}
	return nil
}

// Authenticator is the interface for authentication providers.
type Authenticator interface {
	// Authenticate attempts to authenticate the request.
	// Returns an Identity if successful, nil otherwise.
	Authenticate(r *http.Request) *Identity
}
