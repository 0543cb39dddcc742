package upstream

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/svargasl/finpanel/internal/models"
)

type requestWire struct {
	ID                 int64      `json:"id"`
	RequesterID        int64      `json:"requesterId"`
	RequesterName      string     `json:"requesterName,omitempty"`
	Department         string     `json:"department"`
	Amount             float64    `json:"amount"`
	DestinationAccount string     `json:"destinationAccount"`
	InvoiceURL         string     `json:"invoiceUrl"`
	Concept            string     `json:"concept"`
	PaymentDeadline    time.Time  `json:"paymentDeadline"`
	SupportURL         string     `json:"supportUrl,omitempty"`
	State              string     `json:"state"`
	ReviewerID         *int64     `json:"reviewerId,omitempty"`
	ReviewerName       string     `json:"reviewerName,omitempty"`
	ReviewerComment    string     `json:"reviewerComment,omitempty"`
	ReviewedAt         *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (w requestWire) toModel() models.PaymentRequest {
	return models.PaymentRequest{
		ID:                 w.ID,
		RequesterID:        w.RequesterID,
		RequesterName:      w.RequesterName,
		Department:         w.Department,
		Amount:             w.Amount,
		DestinationAccount: w.DestinationAccount,
		InvoiceURL:         w.InvoiceURL,
		Concept:            w.Concept,
		PaymentDeadline:    w.PaymentDeadline,
		SupportURL:         w.SupportURL,
		State:              models.RequestState(w.State),
		ReviewerID:         w.ReviewerID,
		ReviewerName:       w.ReviewerName,
		ReviewerComment:    w.ReviewerComment,
		ReviewedAt:         w.ReviewedAt,
		CreatedAt:          w.CreatedAt,
		UpdatedAt:          w.UpdatedAt,
	}
}

// CreateRequestInput is the payload for creating a payment request.
type CreateRequestInput struct {
	Department         string    `json:"department"`
	Amount             float64   `json:"amount"`
	DestinationAccount string    `json:"destinationAccount"`
	InvoiceURL         string    `json:"invoiceUrl"`
	Concept            string    `json:"concept"`
	PaymentDeadline    time.Time `json:"paymentDeadline"`
	SupportURL         string    `json:"supportUrl,omitempty"`
}

// RequestPatch is a partial update to a payment request. Nil fields are
// omitted from the request body.
type RequestPatch struct {
	Department         *string    `json:"department,omitempty"`
	Amount             *float64   `json:"amount,omitempty"`
	DestinationAccount *string    `json:"destinationAccount,omitempty"`
	InvoiceURL         *string    `json:"invoiceUrl,omitempty"`
	Concept            *string    `json:"concept,omitempty"`
	PaymentDeadline    *time.Time `json:"paymentDeadline,omitempty"`
	SupportURL         *string    `json:"supportUrl,omitempty"`
}

// ListRequests fetches every payment request visible to the token's user.
func (c *Client) ListRequests(ctx context.Context, token string) ([]models.PaymentRequest, error) {
	var wires []requestWire
	if err := c.do(ctx, http.MethodGet, "/solicitudes", token, nil, &wires); err != nil {
		return nil, err
	}
	requests := make([]models.PaymentRequest, len(wires))
	for i, w := range wires {
		requests[i] = w.toModel()
	}
	return requests, nil
}

// GetRequest fetches a single payment request by ID.
func (c *Client) GetRequest(ctx context.Context, token string, id int64) (models.PaymentRequest, error) {
	var w requestWire
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/solicitudes/%d", id), token, nil, &w); err != nil {
		return models.PaymentRequest{}, err
	}
	return w.toModel(), nil
}

// CreateRequest creates a payment request and returns the created record.
func (c *Client) CreateRequest(ctx context.Context, token string, in CreateRequestInput) (models.PaymentRequest, error) {
	var w requestWire
	if err := c.do(ctx, http.MethodPost, "/solicitudes", token, in, &w); err != nil {
		return models.PaymentRequest{}, err
	}
	return w.toModel(), nil
}

// UpdateRequest applies patch to a payment request.
func (c *Client) UpdateRequest(ctx context.Context, token string, id int64, patch RequestPatch) (models.PaymentRequest, error) {
	var w requestWire
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/solicitudes/%d", id), token, patch, &w); err != nil {
		return models.PaymentRequest{}, err
	}
	return w.toModel(), nil
}

// DeleteRequest removes a payment request.
func (c *Client) DeleteRequest(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/solicitudes/%d", id), token, nil, nil)
}

// UpdateRequestState moves a request into a reviewed state. The upstream
// only accepts approved or rejected as targets, so anything else is
// rejected before the call goes out.
func (c *Client) UpdateRequestState(ctx context.Context, token string, id int64, state models.RequestState, reviewerComment string) (models.PaymentRequest, error) {
	if !slices.Contains(models.TransitionTargets, state) {
		return models.PaymentRequest{}, fmt.Errorf("%w: %q is not a reviewable target state", models.ErrBadRequest, state)
	}

	body := struct {
		State           models.RequestState `json:"state"`
		ReviewerComment string              `json:"reviewerComment,omitempty"`
	}{State: state, ReviewerComment: reviewerComment}

	var w requestWire
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/solicitudes/%d/state", id), token, body, &w); err != nil {
		return models.PaymentRequest{}, err
	}
	return w.toModel(), nil
}
