package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Verifier checks a presented credential. Keeping this pluggable means
// stronger schemes (per-user tokens, signed sessions) can replace the
// shared secret without touching routing.
type Verifier func(credential string) bool

// SharedSecret returns a constant-time equality Verifier, or nil when
// secret is empty — a nil Verifier makes Auth fail closed with a 500 so
// a missing secret can never silently open the vault.
func SharedSecret(secret string) Verifier {
	if secret == "" {
		return nil
	}
	return func(credential string) bool {
		return subtle.ConstantTimeCompare([]byte(credential), []byte(secret)) == 1
	}
}

// Auth guards /api/* routes. The credential is taken from the "token"
// cookie when present, otherwise from the Authorization header; the
// cookie wins when both are sent.
func Auth(verify Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verify == nil {
				http.Error(w, "Token is required to be set in env", http.StatusInternalServerError)
				return
			}

			var cookieToken string
			if c, err := r.Cookie("token"); err == nil {
				cookieToken = c.Value
			}
			headerToken := r.Header.Get("Authorization")

			if cookieToken == "" && headerToken == "" {
				http.Error(w, "Token is required", http.StatusUnauthorized)
				return
			}

			credential := headerToken
			if cookieToken != "" {
				credential = cookieToken
			}
			if !verify(credential) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseRecorder captures the status code and bytes written for the
// access log line.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.written += int64(n)
	return n, err
}

// RequestLog emits one structured access log line per request, tagged
// with a fresh request id.
func RequestLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info().
				Str("request_id", uuid.NewString()).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Int64("response_bytes", rec.written).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("http")
		})
	}
}
