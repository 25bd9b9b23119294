package auth

import (
	"errors"
	"net/http"
)

// MultiAuthenticator accepts any of several credential kinds, e.g. Basic
// for people and API keys for tools. Authenticators are asked in order;
// one that finds no credential of its kind passes to the next, while a
// credential of its kind that fails to verify rejects the request.
type MultiAuthenticator struct {
	chain []Authenticator
}

// NewMultiAuthenticator creates a MultiAuthenticator asking chain in order.
func NewMultiAuthenticator(chain ...Authenticator) *MultiAuthenticator {
	return &MultiAuthenticator{chain: chain}
}

// Authenticate returns the viewer identified by the first authenticator
// that finds credentials in r, or ErrUnauthenticated if none does.
func (a *MultiAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	for _, next := range a.chain {
		info, err := next.Authenticate(r)
		switch {
		case err == nil:
			return info, nil
		case !errors.Is(err, ErrUnauthenticated):
			return nil, err
		}
	}
	return nil, ErrUnauthenticated
}

// Method returns AuthMethodMulti; the AuthInfo returned by Authenticate
// names the method that matched.
func (a *MultiAuthenticator) Method() AuthMethod {
	return AuthMethodMulti
}
