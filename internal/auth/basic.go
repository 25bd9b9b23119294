package auth

import (
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// unknownViewerHash is compared against when the viewer does not exist so
// both failure paths cost one bcrypt comparison.
var unknownViewerHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("unknown viewer"), bcrypt.DefaultCost)
	return hash
})

// BasicAuthenticator identifies viewers by HTTP Basic credentials. The
// username is the viewer ID; passwords are stored as bcrypt hashes.
type BasicAuthenticator struct {
	viewers map[string]string // viewer ID -> bcrypt hash
}

// NewBasicAuthenticator creates a Basic authenticator from a
// "viewer1:hash1,viewer2:hash2" list.
func NewBasicAuthenticator(usersConfig string) (*BasicAuthenticator, error) {
	viewers, err := parseCredentials("basic", "user", "hash", usersConfig)
	if err != nil {
		return nil, err
	}
	return &BasicAuthenticator{viewers: viewers}, nil
}

// Authenticate verifies the Basic credentials of the request.
func (a *BasicAuthenticator) Authenticate(r *http.Request) (*AuthInfo, error) {
	viewer, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrUnauthenticated
	}

	hash, known := a.viewers[viewer]
	stored := []byte(hash)
	if !known {
		stored = unknownViewerHash()
	}

	err := bcrypt.CompareHashAndPassword(stored, []byte(password))
	if err != nil || !known {
		return nil, fmt.Errorf("%w: bad username or password", ErrInvalidCredentials)
	}

	return &AuthInfo{
		Method:  AuthMethodBasic,
		Subject: viewer,
	}, nil
}

// Method returns the authentication method type.
func (a *BasicAuthenticator) Method() AuthMethod {
	return AuthMethodBasic
}
