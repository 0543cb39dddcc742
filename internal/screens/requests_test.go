package screens

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/internal/upstream"
)

func newRequestsScreen(ledger *mockLedger) (*RequestsScreen, *Coordinator) {
	coord := NewCoordinator(testLogger())
	s := NewRequestsScreen(ledger, testCache(), NewPagerSet(5), coord, testLogger())
	return s, coord
}

func sampleRequests(now time.Time) []models.PaymentRequest {
	return []models.PaymentRequest{
		{ID: 1, RequesterName: "Luis Perez", Department: "Marketing", Amount: 250000,
			State: models.StatePending, CreatedAt: now.AddDate(0, 0, -10)},
		{ID: 2, RequesterName: "Maria Gomez", Department: "IT", Amount: 1500000,
			State: models.StateApproved, CreatedAt: now},
		{ID: 3, RequesterName: "Luisa Mora", Department: "Marketing", Amount: 900000,
			State: models.StateRejected, CreatedAt: now.AddDate(0, 0, -2)},
		{ID: 4, RequesterName: "Pedro Ruiz", Department: "Finance", Amount: 2000000,
			State: models.StatePending, CreatedAt: now.AddDate(0, 0, -1)},
		{ID: 5, RequesterName: "Sofia Leon", Department: "IT", Amount: 50000,
			State: models.StatePaid, CreatedAt: now.AddDate(0, 0, -30)},
	}
}

func TestRequestsListQuickPresetOverridesFilters(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	sess := testSession("s2", models.User{ID: 2, Role: models.RoleAprobador})
	ledger := &mockLedger{
		ListRequestsFunc: func(ctx context.Context, token string) ([]models.PaymentRequest, error) {
			return sampleRequests(now), nil
		},
	}
	s, _ := newRequestsScreen(ledger)
	s.now = func() time.Time { return now }

	// The preset wins over the explicit params in the same query.
	rec := httptest.NewRecorder()
	s.List(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard/solicitudes?quick=pending&department=IT&search=maria", nil), sess))
	require.Equal(t, http.StatusOK, rec.Code)

	var view RequestListView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Requests, 2)
	for _, pr := range view.Requests {
		assert.Equal(t, models.StatePending, pr.State)
	}
}

func TestRequestsListQuickPresets(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	sess := testSession("s2", models.User{ID: 2, Role: models.RoleAprobador})
	ledger := &mockLedger{
		ListRequestsFunc: func(ctx context.Context, token string) ([]models.PaymentRequest, error) {
			return sampleRequests(now), nil
		},
	}
	s, _ := newRequestsScreen(ledger)
	s.now = func() time.Time { return now }

	cases := []struct {
		preset  string
		wantIDs []int64
	}{
		{"approved-today", []int64{2}},
		{"high-amount", []int64{2, 4}},
		{"this-week", []int64{2, 4, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.preset, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.List(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard/solicitudes?quick="+tc.preset, nil), sess))
			require.Equal(t, http.StatusOK, rec.Code)

			var view RequestListView
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
			ids := make([]int64, 0, len(view.Requests))
			for _, pr := range view.Requests {
				ids = append(ids, pr.ID)
			}
			assert.ElementsMatch(t, tc.wantIDs, ids)
		})
	}
}

func TestRequestsListStatsIgnoreFilters(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	sess := testSession("s2", models.User{ID: 2, Role: models.RoleAprobador})
	ledger := &mockLedger{
		ListRequestsFunc: func(ctx context.Context, token string) ([]models.PaymentRequest, error) {
			return sampleRequests(now), nil
		},
	}
	s, _ := newRequestsScreen(ledger)

	rec := httptest.NewRecorder()
	s.List(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard/solicitudes?state=pending", nil), sess))

	var view RequestListView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 5, view.Stats.Total)
	assert.Equal(t, 2, view.Stats.Pending)
	assert.Equal(t, 1, view.Stats.Approved)
	assert.Equal(t, 1, view.Stats.Rejected)
	assert.Len(t, view.Requests, 2)
}

func TestRequestsCreateValidation(t *testing.T) {
	sess := testSession("s3", models.User{ID: 3, Role: models.RoleSolicitante})
	calls := 0
	ledger := &mockLedger{
		CreateRequestFunc: func(ctx context.Context, token string, in upstream.CreateRequestInput) (models.PaymentRequest, error) {
			calls++
			return models.PaymentRequest{}, nil
		},
	}
	s, _ := newRequestsScreen(ledger)

	// Bad deadline format stays local.
	body := `{"department":"IT","amount":1000,"destinationAccount":"123","invoiceUrl":"https://x.co/f.pdf","concept":"licenses","paymentDeadline":"15/06/2026"}`
	rec := httptest.NewRecorder()
	s.Create(rec, withSession(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), sess))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, calls)

	body = `{"department":"IT","amount":1000,"destinationAccount":"123","invoiceUrl":"https://x.co/f.pdf","concept":"licenses","paymentDeadline":"2026-06-15"}`
	rec = httptest.NewRecorder()
	s.Create(rec, withSession(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), sess))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestRequestsRejectRequiresComment(t *testing.T) {
	sess := testSession("s2", models.User{ID: 2, Role: models.RoleAprobador})
	calls := 0
	ledger := &mockLedger{
		UpdateRequestStateFunc: func(ctx context.Context, token string, id int64, state models.RequestState, comment string) (models.PaymentRequest, error) {
			calls++
			return models.PaymentRequest{}, nil
		},
	}
	s, _ := newRequestsScreen(ledger)

	body := strings.NewReader(`{"state":"rejected"}`)
	req := withURLParam(withSession(httptest.NewRequest(http.MethodPost, "/", body), sess), "id", "4")
	rec := httptest.NewRecorder()
	s.BeginStateChange(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, calls)
}

func TestRequestsApproveConfirmFlow(t *testing.T) {
	sess := testSession("s2", models.User{ID: 2, Role: models.RoleAprobador})
	var gotState models.RequestState
	ledger := &mockLedger{
		UpdateRequestStateFunc: func(ctx context.Context, token string, id int64, state models.RequestState, comment string) (models.PaymentRequest, error) {
			gotState = state
			return models.PaymentRequest{ID: id, State: state}, nil
		},
	}
	s, coord := newRequestsScreen(ledger)
	mh := NewMutationHandler(coord, testLogger())

	body := strings.NewReader(`{"state":"approved"}`)
	req := withURLParam(withSession(httptest.NewRequest(http.MethodPost, "/", body), sess), "id", "4")
	rec := httptest.NewRecorder()
	s.BeginStateChange(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var confirmation ConfirmationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmation))
	assert.Empty(t, gotState, "nothing is sent upstream before confirmation")

	rec = httptest.NewRecorder()
	mh.Confirm(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "token", confirmation.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StateApproved, gotState)

	var result MutationResultView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Payment request approved.", result.Notification.Message)
}

func TestRequestsStateChangeMismatch(t *testing.T) {
	sess := testSession("s2", models.User{ID: 2, Role: models.RoleAprobador})
	ledger := &mockLedger{
		UpdateRequestStateFunc: func(ctx context.Context, token string, id int64, state models.RequestState, comment string) (models.PaymentRequest, error) {
			// Success status but the verdict did not stick.
			return models.PaymentRequest{ID: id, State: models.StatePending}, nil
		},
		GetRequestFunc: func(ctx context.Context, token string, id int64) (models.PaymentRequest, error) {
			return models.PaymentRequest{ID: id, State: models.StatePending}, nil
		},
	}
	s, coord := newRequestsScreen(ledger)
	mh := NewMutationHandler(coord, testLogger())

	body := strings.NewReader(`{"state":"approved"}`)
	req := withURLParam(withSession(httptest.NewRequest(http.MethodPost, "/", body), sess), "id", "4")
	rec := httptest.NewRecorder()
	s.BeginStateChange(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var confirmation ConfirmationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmation))

	rec = httptest.NewRecorder()
	mh.Confirm(rec, withURLParam(httptest.NewRequest(http.MethodPost, "/", nil), "token", confirmation.Token))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var result MutationResultView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "error", result.Notification.Level)
}
