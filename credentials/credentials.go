// Package credentials carries request-scoped Stackby credentials on a
// context.Context.
//
// A long-running HTTP gateway serves many callers with different API keys.
// Each inbound request gets its credentials attached to that request's
// context, and every downstream call reads them from the context it was
// handed. Two interleaved requests can never observe each other's key: the
// value is written once per request context and never mutated.
package credentials

import (
	"context"
	"strings"
)

// Credentials identifies one caller against the remote API. The zero value
// means "no credentials".
type Credentials struct {
	// APIKey is the caller's API key or personal access token.
	APIKey string
	// APIURL optionally overrides the client's base URL for this caller.
	APIURL string
}

// Valid reports whether an API key is present after trimming.
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type contextKey struct{}

// WithContext returns a context carrying creds. Invalid credentials are not
// attached.
func WithContext(ctx context.Context, creds Credentials) context.Context {
	creds.APIKey = strings.TrimSpace(creds.APIKey)
	creds.APIURL = strings.TrimSpace(creds.APIURL)
	if !creds.Valid() {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, creds)
}

// FromContext returns the credentials attached to ctx, if any.
func FromContext(ctx context.Context) (Credentials, bool) {
	if ctx == nil {
		return Credentials{}, false
	}
	creds, ok := ctx.Value(contextKey{}).(Credentials)
	return creds, ok
}
