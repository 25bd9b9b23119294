package auth

import (
	"errors"
	"net/http"
)

// OptionalAuthenticator lets requests without credentials through as
// anonymous viewers. Invalid credentials are still rejected.
type OptionalAuthenticator struct {
	next Authenticator
}

// NewOptionalAuthenticator wraps next. A nil next accepts every request as
// anonymous.
func NewOptionalAuthenticator(next Authenticator) *OptionalAuthenticator {
	return &OptionalAuthenticator{next: next}
}

// Authenticate delegates to the wrapped authenticator and maps a missing
// credential to an anonymous AuthInfo.
func (a *OptionalAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	if a.next == nil {
		return &AuthInfo{Method: AuthMethodNone}, nil
	}

	info, err := a.next.Authenticate(r)
	if errors.Is(err, ErrUnauthenticated) {
		return &AuthInfo{Method: AuthMethodNone}, nil
	}
	return info, err
}

// Method returns the method of the wrapped authenticator.
func (a *OptionalAuthenticator) Method() AuthMethod {
	if a.next == nil {
		return AuthMethodNone
	}
	return a.next.Method()
}
