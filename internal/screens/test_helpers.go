package screens

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/svargasl/finpanel/internal/auth"
	"github.com/svargasl/finpanel/internal/cache"
	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/internal/session"
	"github.com/svargasl/finpanel/internal/upstream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCache() *cache.ListCache {
	return cache.New(cache.NewMemoryStore(), cache.DefaultTTL, testLogger())
}

func testSession(id string, user models.User) *session.Session {
	return &session.Session{ID: id, Token: "token-" + id, User: user, CreatedAt: time.Now()}
}

func adminUser(id int64) models.User {
	return models.User{ID: id, Name: "Admin", Email: "admin@example.com", Role: models.RoleAdminGeneral, Active: true}
}

// withSession attaches a session to the request the way the gate would.
func withSession(r *http.Request, s *session.Session) *http.Request {
	return r.WithContext(auth.WithSession(r.Context(), s))
}

// mockDirectory implements Directory with overridable functions.
type mockDirectory struct {
	ListUsersFunc  func(ctx context.Context, token string) ([]models.User, error)
	GetUserFunc    func(ctx context.Context, token string, id int64) (models.User, error)
	CreateUserFunc func(ctx context.Context, token string, in upstream.CreateUserInput) (models.User, error)
	UpdateUserFunc func(ctx context.Context, token string, id int64, patch upstream.UserPatch) (models.User, error)
	DeleteUserFunc func(ctx context.Context, token string, id int64) error
}

func (m *mockDirectory) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, token)
	}
	return nil, nil
}

func (m *mockDirectory) GetUser(ctx context.Context, token string, id int64) (models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, token, id)
	}
	return models.User{}, models.ErrNotFound
}

func (m *mockDirectory) CreateUser(ctx context.Context, token string, in upstream.CreateUserInput) (models.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, token, in)
	}
	return models.User{}, nil
}

func (m *mockDirectory) UpdateUser(ctx context.Context, token string, id int64, patch upstream.UserPatch) (models.User, error) {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, token, id, patch)
	}
	return models.User{}, nil
}

func (m *mockDirectory) DeleteUser(ctx context.Context, token string, id int64) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, token, id)
	}
	return nil
}

// mockLedger implements Ledger with overridable functions.
type mockLedger struct {
	ListRequestsFunc       func(ctx context.Context, token string) ([]models.PaymentRequest, error)
	GetRequestFunc         func(ctx context.Context, token string, id int64) (models.PaymentRequest, error)
	CreateRequestFunc      func(ctx context.Context, token string, in upstream.CreateRequestInput) (models.PaymentRequest, error)
	UpdateRequestFunc      func(ctx context.Context, token string, id int64, patch upstream.RequestPatch) (models.PaymentRequest, error)
	DeleteRequestFunc      func(ctx context.Context, token string, id int64) error
	UpdateRequestStateFunc func(ctx context.Context, token string, id int64, state models.RequestState, comment string) (models.PaymentRequest, error)
}

func (m *mockLedger) ListRequests(ctx context.Context, token string) ([]models.PaymentRequest, error) {
	if m.ListRequestsFunc != nil {
		return m.ListRequestsFunc(ctx, token)
	}
	return nil, nil
}

func (m *mockLedger) GetRequest(ctx context.Context, token string, id int64) (models.PaymentRequest, error) {
	if m.GetRequestFunc != nil {
		return m.GetRequestFunc(ctx, token, id)
	}
	return models.PaymentRequest{}, models.ErrNotFound
}

func (m *mockLedger) CreateRequest(ctx context.Context, token string, in upstream.CreateRequestInput) (models.PaymentRequest, error) {
	if m.CreateRequestFunc != nil {
		return m.CreateRequestFunc(ctx, token, in)
	}
	return models.PaymentRequest{}, nil
}

func (m *mockLedger) UpdateRequest(ctx context.Context, token string, id int64, patch upstream.RequestPatch) (models.PaymentRequest, error) {
	if m.UpdateRequestFunc != nil {
		return m.UpdateRequestFunc(ctx, token, id, patch)
	}
	return models.PaymentRequest{}, nil
}

func (m *mockLedger) DeleteRequest(ctx context.Context, token string, id int64) error {
	if m.DeleteRequestFunc != nil {
		return m.DeleteRequestFunc(ctx, token, id)
	}
	return nil
}

func (m *mockLedger) UpdateRequestState(ctx context.Context, token string, id int64, state models.RequestState, comment string) (models.PaymentRequest, error) {
	if m.UpdateRequestStateFunc != nil {
		return m.UpdateRequestStateFunc(ctx, token, id, state, comment)
	}
	return models.PaymentRequest{}, nil
}
