package screens

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/svargasl/finpanel/internal/auth"
	"github.com/svargasl/finpanel/internal/cache"
	"github.com/svargasl/finpanel/internal/export"
	"github.com/svargasl/finpanel/internal/listview"
	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/internal/session"
	"github.com/svargasl/finpanel/internal/upstream"
	"github.com/svargasl/finpanel/pkg/httpx"
)

const requestsResource = "solicitudes"

const highAmountThreshold = "1000000"

// Ledger is the slice of the upstream API the request screens depend on.
type Ledger interface {
	ListRequests(ctx context.Context, token string) ([]models.PaymentRequest, error)
	GetRequest(ctx context.Context, token string, id int64) (models.PaymentRequest, error)
	CreateRequest(ctx context.Context, token string, in upstream.CreateRequestInput) (models.PaymentRequest, error)
	UpdateRequest(ctx context.Context, token string, id int64, patch upstream.RequestPatch) (models.PaymentRequest, error)
	DeleteRequest(ctx context.Context, token string, id int64) error
	UpdateRequestState(ctx context.Context, token string, id int64, state models.RequestState, comment string) (models.PaymentRequest, error)
}

// RequestsScreen serves the payment-request screens.
type RequestsScreen struct {
	ledger      Ledger
	cache       *cache.ListCache
	pagers      *PagerSet
	coordinator *Coordinator
	guard       *fetchGuard
	logger      *slog.Logger
	now         func() time.Time
}

func NewRequestsScreen(ledger Ledger, listCache *cache.ListCache, pagers *PagerSet, coordinator *Coordinator, logger *slog.Logger) *RequestsScreen {
	return &RequestsScreen{
		ledger:      ledger,
		cache:       listCache,
		pagers:      pagers,
		coordinator: coordinator,
		guard:       newFetchGuard(),
		logger:      logger,
		now:         time.Now,
	}
}

// CreateRequestDTO is the new-request form.
type CreateRequestDTO struct {
	Department         string  `json:"department" validate:"required"`
	Amount             float64 `json:"amount" validate:"required,gt=0"`
	DestinationAccount string  `json:"destinationAccount" validate:"required"`
	InvoiceURL         string  `json:"invoiceUrl" validate:"required,url"`
	Concept            string  `json:"concept" validate:"required"`
	PaymentDeadline    string  `json:"paymentDeadline" validate:"required,datetime=2006-01-02"`
	SupportURL         string  `json:"supportUrl" validate:"omitempty,url"`
}

// UpdateRequestDTO is the edit-request form.
type UpdateRequestDTO struct {
	Department         string  `json:"department" validate:"required"`
	Amount             float64 `json:"amount" validate:"required,gt=0"`
	DestinationAccount string  `json:"destinationAccount" validate:"required"`
	InvoiceURL         string  `json:"invoiceUrl" validate:"required,url"`
	Concept            string  `json:"concept" validate:"required"`
	PaymentDeadline    string  `json:"paymentDeadline" validate:"required,datetime=2006-01-02"`
	SupportURL         string  `json:"supportUrl" validate:"omitempty,url"`
}

// StateChangeDTO selects the review verdict.
type StateChangeDTO struct {
	State           string `json:"state" validate:"required,oneof=approved rejected"`
	ReviewerComment string `json:"reviewerComment"`
}

func (s *RequestsScreen) loadRequests(ctx context.Context, sess *session.Session, bypass bool) ([]models.PaymentRequest, error) {
	key := cache.Key(sess.ID, requestsResource)

	if !bypass {
		var cached []models.PaymentRequest
		if s.cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	seq := s.guard.begin(key)
	requests, err := s.ledger.ListRequests(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	if s.guard.isCurrent(key, seq) {
		s.cache.Put(ctx, key, requests)
	}
	return requests, nil
}

// criteria builds the ANDed filter set from the query string. A quick
// preset replaces the individual filter params entirely.
func (s *RequestsScreen) criteria(r *http.Request) listview.Criteria[models.PaymentRequest] {
	q := r.URL.Query()

	search := q.Get("search")
	state := q.Get("state")
	department := q.Get("department")
	minAmount := q.Get("min_amount")
	dateFrom := q.Get("date_from")

	if preset := q.Get("quick"); preset != "" {
		search, state, department, minAmount, dateFrom = "", "", "", "", ""
		switch preset {
		case "pending":
			state = string(models.StatePending)
		case "approved-today":
			state = string(models.StateApproved)
			dateFrom = s.now().Format("2006-01-02")
		case "high-amount":
			minAmount = highAmountThreshold
		case "this-week":
			dateFrom = s.now().AddDate(0, 0, -7).Format("2006-01-02")
		}
	}

	crit := listview.Criteria[models.PaymentRequest]{
		Search: search,
		SearchFields: func(pr models.PaymentRequest) []string {
			return []string{strconv.FormatInt(pr.ID, 10), pr.RequesterName, pr.Department}
		},
		MinAmount:   minAmount,
		AmountField: func(pr models.PaymentRequest) float64 { return pr.Amount },
		DateFrom:    dateFrom,
		DateField:   func(pr models.PaymentRequest) time.Time { return pr.CreatedAt },
	}
	if state != "" {
		crit.Equals = append(crit.Equals, listview.EqualsFilter[models.PaymentRequest]{
			Value: state,
			Field: func(pr models.PaymentRequest) string { return string(pr.State) },
		})
	}
	if department != "" {
		crit.Equals = append(crit.Equals, listview.EqualsFilter[models.PaymentRequest]{
			Value: department,
			Field: func(pr models.PaymentRequest) string { return pr.Department },
		})
	}
	return crit
}

func requestStats(requests []models.PaymentRequest) RequestStats {
	stats := RequestStats{Total: len(requests)}
	for _, pr := range requests {
		switch pr.State {
		case models.StatePending:
			stats.Pending++
		case models.StateApproved:
			stats.Approved++
		case models.StateRejected:
			stats.Rejected++
		}
	}
	return stats
}

// List renders the requests screen. A quick preset resets to page one.
func (s *RequestsScreen) List(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)

	requests, err := s.loadRequests(r.Context(), sess, r.URL.Query().Get("refresh") == "1")
	if err != nil {
		writeRemoteError(w, err, "Could not load payment requests.")
		return
	}

	filtered := listview.Apply(requests, s.criteria(r))

	pager := s.pagers.get(sess.ID, requestsResource)
	if r.URL.Query().Get("quick") != "" {
		pager.GoToPage(1)
	}
	applyPageParams(pager, r)
	page := listview.Resolve(pager, filtered)

	views := make([]RequestView, 0, len(page.Items))
	for _, pr := range page.Items {
		views = append(views, requestToView(pr))
	}
	httpx.WriteJSON(w, http.StatusOK, RequestListView{
		Requests:   views,
		Stats:      requestStats(requests),
		Pagination: pageMeta(page),
	})
}

// Get renders the request detail, always from the upstream.
func (s *RequestsScreen) Get(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)
	id, err := parseID(r)
	if err != nil {
		httpx.WriteBadRequest(w, "invalid request id")
		return
	}

	pr, err := s.ledger.GetRequest(r.Context(), sess.Token, id)
	if err != nil {
		writeRemoteError(w, err, "Could not load the payment request.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, requestToView(pr))
}

// Create registers a new payment request.
func (s *RequestsScreen) Create(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)

	var dto CreateRequestDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := validateInput(dto); err != nil {
		writeValidationError(w, err)
		return
	}

	deadline, err := time.Parse("2006-01-02", dto.PaymentDeadline)
	if err != nil {
		httpx.WriteBadRequest(w, "paymentDeadline must be a date in 2006-01-02 format")
		return
	}

	pr, err := s.ledger.CreateRequest(r.Context(), sess.Token, upstream.CreateRequestInput{
		Department:         dto.Department,
		Amount:             dto.Amount,
		DestinationAccount: dto.DestinationAccount,
		InvoiceURL:         dto.InvoiceURL,
		Concept:            dto.Concept,
		PaymentDeadline:    deadline,
		SupportURL:         dto.SupportURL,
	})
	if err != nil {
		writeRemoteError(w, err, "Could not create the payment request.")
		return
	}
	s.cache.Invalidate(r.Context(), cache.Key(sess.ID, requestsResource))

	httpx.WriteJSON(w, http.StatusCreated, MutationResultView{
		Notification: successNote("Payment request created."),
		Record:       requestToView(pr),
	})
}

// Update edits a payment request.
func (s *RequestsScreen) Update(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)
	id, err := parseID(r)
	if err != nil {
		httpx.WriteBadRequest(w, "invalid request id")
		return
	}

	var dto UpdateRequestDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := validateInput(dto); err != nil {
		writeValidationError(w, err)
		return
	}

	deadline, err := time.Parse("2006-01-02", dto.PaymentDeadline)
	if err != nil {
		httpx.WriteBadRequest(w, "paymentDeadline must be a date in 2006-01-02 format")
		return
	}

	patch := upstream.RequestPatch{
		Department:         &dto.Department,
		Amount:             &dto.Amount,
		DestinationAccount: &dto.DestinationAccount,
		InvoiceURL:         &dto.InvoiceURL,
		Concept:            &dto.Concept,
		PaymentDeadline:    &deadline,
	}
	if dto.SupportURL != "" {
		patch.SupportURL = &dto.SupportURL
	}
	pr, err := s.ledger.UpdateRequest(r.Context(), sess.Token, id, patch)
	if err != nil {
		writeRemoteError(w, err, "Could not update the payment request.")
		return
	}
	s.cache.Invalidate(r.Context(), cache.Key(sess.ID, requestsResource))

	httpx.WriteJSON(w, http.StatusOK, MutationResultView{
		Notification: successNote("Payment request updated."),
		Record:       requestToView(pr),
	})
}

// BeginDelete stages a request deletion behind a confirmation.
func (s *RequestsScreen) BeginDelete(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)
	id, err := parseID(r)
	if err != nil {
		httpx.WriteBadRequest(w, "invalid request id")
		return
	}

	token := sess.Token
	sid := sess.ID
	target := fmt.Sprintf("%s:solicitud:%d", sid, id)

	view, err := s.coordinator.Begin(sid, target,
		fmt.Sprintf("Delete payment request #%d? This cannot be undone.", id),
		func(ctx context.Context) (any, Notification, error) {
			if err := s.ledger.DeleteRequest(ctx, token, id); err != nil {
				return nil, errorNote(remoteMessage(err, "Could not delete the payment request.")), err
			}
			s.cache.Invalidate(ctx, cache.Key(sid, requestsResource))
			return nil, successNote("Payment request deleted."), nil
		})
	if err != nil {
		httpx.WriteConflict(w, "another action on this request is still running")
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, view)
}

// BeginStateChange stages an approve or reject verdict behind a
// confirmation. Rejections require a reviewer comment.
func (s *RequestsScreen) BeginStateChange(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)
	id, err := parseID(r)
	if err != nil {
		httpx.WriteBadRequest(w, "invalid request id")
		return
	}

	var dto StateChangeDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := validateInput(dto); err != nil {
		writeValidationError(w, err)
		return
	}
	want := models.RequestState(dto.State)
	if want == models.StateRejected && dto.ReviewerComment == "" {
		httpx.WriteBadRequest(w, "a comment is required when rejecting a request")
		return
	}

	token := sess.Token
	sid := sess.ID
	target := fmt.Sprintf("%s:solicitud:%d", sid, id)
	verb := "Approve"
	if want == models.StateRejected {
		verb = "Reject"
	}

	view, err := s.coordinator.Begin(sid, target,
		fmt.Sprintf("%s payment request #%d?", verb, id),
		func(ctx context.Context) (any, Notification, error) {
			return s.applyStateChange(ctx, token, sid, id, want, dto.ReviewerComment)
		})
	if err != nil {
		httpx.WriteConflict(w, "another action on this request is still running")
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, view)
}

func (s *RequestsScreen) applyStateChange(ctx context.Context, token, sid string, id int64, want models.RequestState, comment string) (any, Notification, error) {
	key := cache.Key(sid, requestsResource)

	updated, err := s.ledger.UpdateRequestState(ctx, token, id, want, comment)
	if err != nil {
		return nil, errorNote(remoteMessage(err, "Could not update the request's state.")), err
	}

	if updated.State != want {
		s.cache.Invalidate(ctx, key)
		var record any
		if fresh, ferr := s.ledger.GetRequest(ctx, token, id); ferr == nil {
			record = requestToView(fresh)
		}
		return record, errorNote("The server did not apply the state change."),
			fmt.Errorf("%w: request %d state=%s after requesting %s", models.ErrStateMismatch, id, updated.State, want)
	}

	s.cache.Invalidate(ctx, key)
	note := "Payment request approved."
	if want == models.StateRejected {
		note = "Payment request rejected."
	}
	return requestToView(updated), successNote(note), nil
}

// ExportCSV streams the filtered request list, unpaginated.
func (s *RequestsScreen) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)

	requests, err := s.loadRequests(r.Context(), sess, false)
	if err != nil {
		writeRemoteError(w, err, "Could not load payment requests.")
		return
	}
	filtered := listview.Apply(requests, s.criteria(r))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="solicitudes.csv"`)
	if err := export.Requests(w, filtered); err != nil {
		s.logger.Error("csv export failed", slog.String("error", err.Error()))
	}
}
