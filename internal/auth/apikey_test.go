package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vyrodovalexey/venuelist/internal/auth"
)

func TestNewAPIKeyAuthenticator_InvalidConfig(t *testing.T) {
	t.Parallel()

	for _, config := range []string{"", "key-only", ":alice", "key:", " , "} {
		a, err := auth.NewAPIKeyAuthenticator(config)
		if err == nil || a != nil {
			t.Errorf("NewAPIKeyAuthenticator(%q) = %v, %v; want error", config, a, err)
		}
	}
}

func TestAPIKeyAuthenticator_Authenticate(t *testing.T) {
	t.Parallel()

	a, err := auth.NewAPIKeyAuthenticator("k-alice:alice, k-bob:bob, k-kiosk:kiosk")
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() error = %v", err)
	}

	tests := []struct {
		name       string
		key        string
		wantViewer string
		wantErrIs  error
	}{
		{"first key", "k-alice", "alice", nil},
		{"middle key", "k-bob", "bob", nil},
		{"last key", "k-kiosk", "kiosk", nil},
		{"missing key", "", "", auth.ErrUnauthenticated},
		{"unknown key", "k-carol", "", auth.ErrInvalidAPIKey},
		{"key prefix", "k-ali", "", auth.ErrInvalidAPIKey},
		{"viewer name as key", "alice", "", auth.ErrInvalidAPIKey},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			req := httptest.NewRequest(http.MethodGet, "/api/v1/venues", nil)
			if tt.key != "" {
				req.Header.Set(auth.APIKeyHeader, tt.key)
			}

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
			if info.Subject != tt.wantViewer || info.Method != auth.AuthMethodAPIKey {
				t.Errorf("Authenticate() = %+v, want apikey viewer %s", info, tt.wantViewer)
			}
		})
	}
}

func TestAPIKeyAuthenticator_Method(t *testing.T) {
	t.Parallel()

	a, err := auth.NewAPIKeyAuthenticator("k:v")
	if err != nil {
		t.Fatalf("NewAPIKeyAuthenticator() error = %v", err)
	}
	if got := a.Method(); got != auth.AuthMethodAPIKey {
		t.Errorf("Method() = %s, want %s", got, auth.AuthMethodAPIKey)
	}
	if auth.APIKeyHeader != "X-API-Key" {
		t.Errorf("APIKeyHeader = %q, want X-API-Key", auth.APIKeyHeader)
	}
}
