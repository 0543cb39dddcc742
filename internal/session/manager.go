package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/svargasl/finpanel/internal/cache"
	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/internal/upstream"
)

// Authenticator is the slice of the upstream client the manager needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (upstream.LoginResult, error)
}

// Manager runs the sign-in and sign-out flows and resolves the current
// session for a request.
type Manager struct {
	auth     Authenticator
	registry *Registry
	cookies  *CookieManager
	cache    *cache.ListCache
	logger   *slog.Logger
}

// NewManager creates a Manager.
func NewManager(auth Authenticator, registry *Registry, cookies *CookieManager, listCache *cache.ListCache, logger *slog.Logger) *Manager {
	return &Manager{
		auth:     auth,
		registry: registry,
		cookies:  cookies,
		cache:    listCache,
		logger:   logger,
	}
}

// Login exchanges credentials upstream, stores the resulting session and
// sets the session cookie. Credential failures pass through as the
// upstream's error (matching models.ErrUnauthorized).
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, email, password string) (*Session, error) {
	result, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if !result.User.Role.Valid() {
		m.logger.Error("upstream returned unknown role",
			slog.Int64("user_id", result.User.ID),
			slog.String("role", string(result.User.Role)))
		return nil, fmt.Errorf("login: unknown role %q: %w", result.User.Role, models.ErrInternalServer)
	}

	s := &Session{
		ID:        uuid.NewString(),
		Token:     result.Token,
		User:      result.User,
		CreatedAt: time.Now(),
	}
	m.registry.Put(s)

	if err := m.cookies.Issue(w, s.ID); err != nil {
		m.registry.Delete(s.ID)
		return nil, err
	}

	m.logger.Info("session created",
		slog.Int64("user_id", s.User.ID),
		slog.String("role", string(s.User.Role)))
	return s, nil
}

// Logout destroys the request's session: the stored token and user record
// are dropped together, the session's cached list snapshots are cleared and
// the cookie is expired. Safe to call without a valid session.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if sid, err := m.cookies.Read(r); err == nil {
		if s, ok := m.registry.Get(sid); ok {
			m.logger.Info("session destroyed", slog.Int64("user_id", s.User.ID))
		}
		m.registry.Delete(sid)
		m.cache.InvalidateSession(ctx, sid)
	}
	m.cookies.Clear(w)
}

// Current resolves the request's session, or false when the cookie is
// absent, invalid or no longer maps to a live session.
func (m *Manager) Current(r *http.Request) (*Session, bool) {
	sid, err := m.cookies.Read(r)
	if err != nil {
		return nil, false
	}
	return m.registry.Get(sid)
}

// ReplaceUser swaps the stored user record for the request's session, e.g.
// after a profile update upstream.
func (m *Manager) ReplaceUser(r *http.Request, user models.User) (*Session, bool) {
	sid, err := m.cookies.Read(r)
	if err != nil {
		return nil, false
	}
	return m.registry.SetUser(sid, user)
}
