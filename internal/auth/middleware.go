package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/rs/zerolog"
)

type contextKey struct{}

// WithSession returns a copy of ctx carrying s
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by Load. Anonymous requests get a zero Session.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(contextKey{}).(Session)
	return s
}

// Middleware attaches sessions to requests and enforces access rules
type Middleware struct {
	sessions *Sessions
	log      zerolog.Logger
}

// NewMiddleware creates the auth middleware
func NewMiddleware(sessions *Sessions, log zerolog.Logger) *Middleware {
	return &Middleware{
		sessions: sessions,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// Load decodes the session cookie when present. Invalid cookies are cleared and the
// request continues anonymously.
func (m *Middleware) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		s, err := m.sessions.Decode(cookie.Value)
		if err != nil {
			if !errors.Is(err, ErrExpiredSession) {
				m.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("Rejected session cookie")
			}
			m.sessions.Clear(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// RequireAuth rejects anonymous requests with 401
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).Authenticated() {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects anonymous requests with 401 and other roles with 403
func (m *Middleware) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := FromContext(r.Context())
			if !s.Authenticated() {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !slices.Contains(roles, s.Role) {
				writeError(w, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
