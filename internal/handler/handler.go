// Package handler provides HTTP request handlers for the venue API and the
// WebSocket view stream.
package handler

import (
	"net/http"

	"github.com/vyrodovalexey/venuelist/internal/auth"
)

// Version is the application version.
const Version = "1.0.0"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
}

// viewerID returns the viewer of the request, "" when anonymous.
func viewerID(r *http.Request) string {
	return auth.ViewerID(r.Context())
}
