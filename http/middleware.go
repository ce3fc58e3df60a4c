package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sagarc03/scopefs/metrics"
	"golang.org/x/crypto/bcrypt"
)

// BasicAuthConfig enables HTTP basic authentication when Username is set.
// PasswordHash is a bcrypt hash and takes precedence over Password.
type BasicAuthConfig struct {
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

// Enabled reports whether credentials are required.
func (c BasicAuthConfig) Enabled() bool {
	return c.Username != ""
}

func (c BasicAuthConfig) verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1

	var passOK bool
	if c.PasswordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}

	return userOK && passOK
}

// BasicAuthMiddleware rejects requests without valid basic credentials.
// With an empty Username it passes every request through.
func BasicAuthMiddleware(cfg BasicAuthConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled() {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok || !cfg.verify(username, password) {
				metrics.RecordAuthAttempt(false)
				w.Header().Set("WWW-Authenticate", `Basic realm="scopefs", charset="UTF-8"`)
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			metrics.RecordAuthAttempt(true)
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request through slog.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.EscapedPath(),
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// MetricsMiddleware records request counts and latencies labelled by the
// matched route pattern, so per-file paths do not explode label cardinality.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			metrics.RecordHTTPRequest(r.Method, route, ww.Status(), time.Since(start))
		}()

		next.ServeHTTP(ww, r)
	})
}
