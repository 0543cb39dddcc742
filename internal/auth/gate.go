// Package auth gates screens by role. The decision is pure and re-evaluated
// on every request; a denial becomes a redirect before any protected output
// is written.
package auth

import (
	"context"
	"net/http"

	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/internal/session"
)

type contextKey int

const sessionContextKey contextKey = iota

// SessionSource resolves the request's session.
type SessionSource interface {
	Current(r *http.Request) (*session.Session, bool)
}

// Authorize is the gate decision: nil when s exists and its role is in
// required, models.ErrUnauthorized when there is no session, and
// models.ErrForbidden when the role is not permitted. No side effects.
func Authorize(s *session.Session, required ...models.Role) error {
	if s == nil {
		return models.ErrUnauthorized
	}
	for _, role := range required {
		if s.Role() == role {
			return nil
		}
	}
	return models.ErrForbidden
}

// Gate builds the per-screen middleware. Denials redirect: missing session
// to the login view, wrong role to the unauthorized view.
type Gate struct {
	sessions   SessionSource
	loginPath  string
	deniedPath string
}

// NewGate creates a Gate redirecting denials to the given paths.
func NewGate(sessions SessionSource, loginPath, deniedPath string) *Gate {
	return &Gate{sessions: sessions, loginPath: loginPath, deniedPath: deniedPath}
}

// Require permits the wrapped handler only for sessions whose role is in
// roles. The role set must be non-empty.
func (g *Gate) Require(roles ...models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, _ := g.sessions.Current(r)

			switch err := Authorize(s, roles...); err {
			case nil:
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
			case models.ErrUnauthorized:
				http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
			default:
				http.Redirect(w, r, g.deniedPath, http.StatusSeeOther)
			}
		})
	}
}

// WithSession stores a session on the context the way Require does.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext returns the session placed by Require, or nil outside a gated
// handler.
func FromContext(r *http.Request) *session.Session {
	s, _ := r.Context().Value(sessionContextKey).(*session.Session)
	return s
}
