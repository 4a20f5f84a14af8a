package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/auth"
	"github.com/claude/liftlog/internal/models"
)

type contextKey int

const userKey contextKey = iota

// UserFromContext extracts the identity injected by the Identity middleware.
func UserFromContext(ctx context.Context) models.User {
	if u, ok := ctx.Value(userKey).(models.User); ok {
		return u
	}
	return models.User{}
}

// WithUser returns a context carrying the given identity.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Identity resolves the caller's identity and stores it in the request
// context. Resolution order: tailnet WhoIs, the locally stored sign-in
// slot, then the configured development fallback. Failure at any step falls
// through silently to the next; missing identity configuration is a normal
// case, not an error.
func (s *Server) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := s.resolveUser(r)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (s *Server) resolveUser(r *http.Request) models.User {
	if s.ts != nil {
		if who, err := s.ts.WhoIs(r.Context(), r.RemoteAddr); err == nil && who.UserProfile != nil {
			return auth.NewUser(who.UserProfile.LoginName, who.UserProfile.DisplayName, who.UserProfile.ProfilePicURL)
		}
	}
	if s.store != nil {
		if u, err := s.store.Identity(); err == nil && u != nil {
			return *u
		}
	}
	return s.devUser
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
