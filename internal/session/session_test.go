package session

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/svargasl/finpanel/internal/cache"
	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/internal/upstream"
)

const testSecret = "test-secret-at-least-16-chars"

type mockAuthenticator struct {
	LoginFunc func(ctx context.Context, email, password string) (upstream.LoginResult, error)
}

func (m *mockAuthenticator) Login(ctx context.Context, email, password string) (upstream.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return upstream.LoginResult{}, models.ErrUnauthorized
}

func newTestManager(auth Authenticator) *Manager {
	registry := NewRegistry()
	cookies := NewCookieManager(testSecret, time.Hour, false)
	listCache := cache.New(cache.NewMemoryStore(), cache.DefaultTTL, slog.Default())
	return NewManager(auth, registry, cookies, listCache, slog.Default())
}

func requestWithCookies(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestCookieManager_IssueAndRead(t *testing.T) {
	cookies := NewCookieManager(testSecret, time.Hour, false)
	w := httptest.NewRecorder()

	assert.NoError(t, cookies.Issue(w, "sid-1"))

	sid, err := cookies.Read(requestWithCookies(w))
	assert.NoError(t, err)
	assert.Equal(t, "sid-1", sid)
}

func TestCookieManager_RejectsTamperedCookie(t *testing.T) {
	cookies := NewCookieManager(testSecret, time.Hour, false)
	other := NewCookieManager("another-secret-16-chars-long", time.Hour, false)
	w := httptest.NewRecorder()

	assert.NoError(t, other.Issue(w, "sid-1"))

	_, err := cookies.Read(requestWithCookies(w))
	assert.Error(t, err)
}

func TestCookieManager_ReadWithoutCookie(t *testing.T) {
	cookies := NewCookieManager(testSecret, time.Hour, false)

	_, err := cookies.Read(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Error(t, err)
}

func TestManager_LoginCreatesSession(t *testing.T) {
	auth := &mockAuthenticator{
		LoginFunc: func(ctx context.Context, email, password string) (upstream.LoginResult, error) {
			return upstream.LoginResult{
				Token: "tok-1",
				User:  models.User{ID: 9, Name: "Ana", Email: email, Role: models.RoleAdminGeneral},
			}, nil
		},
	}
	m := newTestManager(auth)
	w := httptest.NewRecorder()

	s, err := m.Login(context.Background(), w, "ana@acme.co", "hunter22")

	assert.NoError(t, err)
	assert.Equal(t, "tok-1", s.Token)
	assert.Equal(t, models.RoleAdminGeneral, s.Role())

	current, ok := m.Current(requestWithCookies(w))
	assert.True(t, ok)
	assert.Equal(t, s.ID, current.ID)
}

func TestManager_LoginFailurePassesThrough(t *testing.T) {
	m := newTestManager(&mockAuthenticator{})
	w := httptest.NewRecorder()

	_, err := m.Login(context.Background(), w, "ana@acme.co", "wrong")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Empty(t, w.Result().Cookies())
}

func TestManager_LoginRejectsUnknownRole(t *testing.T) {
	auth := &mockAuthenticator{
		LoginFunc: func(ctx context.Context, email, password string) (upstream.LoginResult, error) {
			return upstream.LoginResult{Token: "tok", User: models.User{ID: 1, Role: "superuser"}}, nil
		},
	}
	m := newTestManager(auth)

	_, err := m.Login(context.Background(), httptest.NewRecorder(), "a@a.co", "pw")

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestManager_LogoutDestroysSession(t *testing.T) {
	auth := &mockAuthenticator{
		LoginFunc: func(ctx context.Context, email, password string) (upstream.LoginResult, error) {
			return upstream.LoginResult{Token: "tok", User: models.User{ID: 1, Role: models.RoleSolicitante}}, nil
		},
	}
	m := newTestManager(auth)
	w := httptest.NewRecorder()

	_, err := m.Login(context.Background(), w, "a@a.co", "pw")
	assert.NoError(t, err)

	r := requestWithCookies(w)
	m.Logout(context.Background(), httptest.NewRecorder(), r)

	_, ok := m.Current(r)
	assert.False(t, ok)
}

func TestManager_LogoutWithoutSessionIsSafe(t *testing.T) {
	m := newTestManager(&mockAuthenticator{})

	m.Logout(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
}

func TestRegistry_SetUserReplacesRecord(t *testing.T) {
	registry := NewRegistry()
	registry.Put(&Session{ID: "sid-1", User: models.User{ID: 1, Name: "Old"}})

	s, ok := registry.SetUser("sid-1", models.User{ID: 1, Name: "New"})

	assert.True(t, ok)
	assert.Equal(t, "New", s.User.Name)

	_, ok = registry.SetUser("missing", models.User{})
	assert.False(t, ok)
}

func TestRegistry_SetUserKeepsReaderSnapshotsImmutable(t *testing.T) {
	registry := NewRegistry()
	registry.Put(&Session{ID: "sid-1", User: models.User{ID: 1, Name: "Old"}})

	snapshot, ok := registry.Get("sid-1")
	assert.True(t, ok)

	// A reader holding an earlier snapshot must never observe the update,
	// and reading it while SetUser runs must be race-free.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			registry.SetUser("sid-1", models.User{ID: 1, Name: "New"})
		}
	}()
	for i := 0; i < 200; i++ {
		assert.Equal(t, "Old", snapshot.User.Name)
	}
	<-done

	current, ok := registry.Get("sid-1")
	assert.True(t, ok)
	assert.Equal(t, "New", current.User.Name)
	assert.Equal(t, "Old", snapshot.User.Name)
}

func TestRegistry_DeleteExpired(t *testing.T) {
	registry := NewRegistry()
	registry.Put(&Session{ID: "stale", CreatedAt: time.Now().Add(-2 * time.Hour)})
	registry.Put(&Session{ID: "fresh", CreatedAt: time.Now()})

	removed := registry.DeleteExpired(time.Hour)

	assert.Equal(t, 1, removed)
	_, ok := registry.Get("stale")
	assert.False(t, ok)
	_, ok = registry.Get("fresh")
	assert.True(t, ok)
}
