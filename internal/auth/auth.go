// Package auth identifies the viewer of a request. The authenticated
// subject is the viewer id that favorites and starred events belong to; a
// request without a viewer is browsed anonymously.
package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthMethod names the kind of credential a viewer was identified by. The
// values match the APP_AUTH_MODE settings.
type AuthMethod string

// Authentication methods.
const (
	AuthMethodNone   AuthMethod = "none"
	AuthMethodBasic  AuthMethod = "basic"
	AuthMethodAPIKey AuthMethod = "apikey"
	AuthMethodMulti  AuthMethod = "multi"
)

// AuthInfo is the outcome of identifying a request. Subject is the viewer
// id, empty for an anonymous viewer.
type AuthInfo struct {
	Method  AuthMethod
	Subject string
}

// Anonymous reports whether the info carries no viewer.
func (i *AuthInfo) Anonymous() bool {
	return i == nil || i.Subject == ""
}

// Authenticator identifies the viewer of a request. It returns
// ErrUnauthenticated when the request carries no credential it understands,
// and another error when a credential is present but wrong.
type Authenticator interface {
	Authenticate(r *http.Request) (*AuthInfo, error)
	Method() AuthMethod
}

// Sentinel errors for authentication failures.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no credentials provided")
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type contextKey struct{}

var authInfoKey contextKey

// FromContext retrieves AuthInfo from the context.
func FromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(authInfoKey).(*AuthInfo)
	return info, ok
}

// WithAuthInfo stores AuthInfo in the context.
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey, info)
}

// ViewerID returns the viewer id stored in ctx, or "" for an anonymous
// viewer.
func ViewerID(ctx context.Context) string {
	info, ok := FromContext(ctx)
	if !ok || info.Anonymous() {
		return ""
	}
	return info.Subject
}
