package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/venuelist/internal/auth"
)

// challenges maps an authentication failure to its WWW-Authenticate value.
var challenges = []struct {
	err       error
	challenge string
}{
	{auth.ErrUnauthenticated, "Basic, API-Key"},
	{auth.ErrInvalidCredentials, `Basic realm="venuelist"`},
	{auth.ErrInvalidAPIKey, "API-Key"},
}

// Auth identifies the viewer of each request and stores it in the request
// context. Probe endpoints and CORS preflights are not authenticated.
// Browsers cannot attach headers to a WebSocket handshake, so an upgrade
// without credentials continues as an anonymous viewer; bad credentials
// are still rejected.
func Auth(authenticator auth.Authenticator, logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isProbePath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			info, err := authenticator.Authenticate(r)
			if errors.Is(err, auth.ErrUnauthenticated) && isWebSocketUpgrade(r) {
				info, err = &auth.AuthInfo{Method: auth.AuthMethodNone}, nil
			}
			if err != nil {
				logger.Warn("authentication failed",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("request_id", getRequestID(r)),
					zap.Error(err),
				)
				rejectUnauthenticated(w, err)
				return
			}

			if rec := recordFrom(r.Context()); rec != nil {
				rec.viewer = info.Subject
			}
			logger.Debug("viewer identified",
				zap.String("viewer", info.Subject),
				zap.String("auth_method", string(info.Method)),
			)

			next.ServeHTTP(w, r.WithContext(auth.WithAuthInfo(r.Context(), info)))
		})
	}
}

// isProbePath reports whether path is a probe endpoint or below one, so
// /health/live is a probe but /healthz is not.
func isProbePath(path string) bool {
	for p := range quietPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// rejectUnauthenticated writes a 401 error envelope with the challenge
// matching err.
func rejectUnauthenticated(w http.ResponseWriter, err error) {
	for _, c := range challenges {
		if errors.Is(err, c.err) {
			w.Header().Set("WWW-Authenticate", c.challenge)
			break
		}
	}
	writeError(w, http.StatusUnauthorized, err.Error())
}
