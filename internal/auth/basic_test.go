package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vyrodovalexey/venuelist/internal/auth"
)

func bcryptHash(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to generate bcrypt hash: %v", err)
	}
	return string(hash)
}

func newBasic(t *testing.T) *auth.BasicAuthenticator {
	t.Helper()

	a, err := auth.NewBasicAuthenticator(
		"alice:" + bcryptHash(t, "wonderland") + ", bob:" + bcryptHash(t, "builder"),
	)
	if err != nil {
		t.Fatalf("NewBasicAuthenticator() error = %v", err)
	}
	return a
}

func TestNewBasicAuthenticator_InvalidConfig(t *testing.T) {
	t.Parallel()

	for _, config := range []string{"", "   ", "alice", ":hash", "alice:", ","} {
		a, err := auth.NewBasicAuthenticator(config)
		if err == nil || a != nil {
			t.Errorf("NewBasicAuthenticator(%q) = %v, %v; want error", config, a, err)
		}
	}
}

func TestBasicAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()

	a := newBasic(t)

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantViewer string
		wantErrIs  error
	}{
		{"alice", func(r *http.Request) { r.SetBasicAuth("alice", "wonderland") }, "alice", nil},
		{"bob", func(r *http.Request) { r.SetBasicAuth("bob", "builder") }, "bob", nil},
		{"no header", func(*http.Request) {}, "", auth.ErrUnauthenticated},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer x") }, "", auth.ErrUnauthenticated},
		{"wrong password", func(r *http.Request) { r.SetBasicAuth("alice", "builder") }, "", auth.ErrInvalidCredentials},
		{"unknown viewer", func(r *http.Request) { r.SetBasicAuth("carol", "wonderland") }, "", auth.ErrInvalidCredentials},
		{"empty password", func(r *http.Request) { r.SetBasicAuth("alice", "") }, "", auth.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			req := httptest.NewRequest(http.MethodGet, "/api/v1/favorites", nil)
			tt.setup(req)

			// Act
			info, err := a.Authenticate(req)

			// Assert
			if tt.wantErrIs != nil {
				if !errors.Is(err, tt.wantErrIs) {
					t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErrIs)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if info.Subject != tt.wantViewer || info.Method != auth.AuthMethodBasic {
				t.Errorf("Authenticate() = %+v, want basic viewer %s", info, tt.wantViewer)
			}
		})
	}
}

func TestBasicAuthenticator_SameErrorForUnknownViewer(t *testing.T) {
	t.Parallel()

	// Arrange
	a := newBasic(t)
	unknown := httptest.NewRequest(http.MethodGet, "/", nil)
	unknown.SetBasicAuth("mallory", "wonderland")
	wrong := httptest.NewRequest(http.MethodGet, "/", nil)
	wrong.SetBasicAuth("alice", "guess")

	// Act
	_, errUnknown := a.Authenticate(unknown)
	_, errWrong := a.Authenticate(wrong)

	// Assert
	if errUnknown == nil || errWrong == nil {
		t.Fatal("Authenticate() expected errors")
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Errorf("unknown viewer error %q differs from wrong password error %q", errUnknown, errWrong)
	}
}

func TestBasicAuthenticator_Method(t *testing.T) {
	t.Parallel()

	if got := newBasic(t).Method(); got != auth.AuthMethodBasic {
		t.Errorf("Method() = %s, want %s", got, auth.AuthMethodBasic)
	}
}
