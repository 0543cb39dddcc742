package screens

import (
	"time"

	"github.com/svargasl/finpanel/internal/listview"
	"github.com/svargasl/finpanel/internal/models"
)

// Notification is the user-visible outcome of an action. Every mutation
// resolves to exactly one of these; silent failure is not an option.
type Notification struct {
	Level   string `json:"level"` // "success" or "error"
	Message string `json:"message"`
}

func successNote(message string) Notification {
	return Notification{Level: "success", Message: message}
}

func errorNote(message string) Notification {
	return Notification{Level: "error", Message: message}
}

// PageMeta mirrors the pagination widget's inputs.
type PageMeta struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

func pageMeta[T any](p listview.Page[T]) PageMeta {
	return PageMeta{
		CurrentPage:  p.CurrentPage,
		TotalPages:   p.TotalPages,
		TotalItems:   p.TotalItems,
		ItemsPerPage: p.ItemsPerPage,
	}
}

// UserView is a user row as rendered on the dashboard.
type UserView struct {
	ID                  int64       `json:"id"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	Role                models.Role `json:"role"`
	Active              bool        `json:"active"`
	Blocked             bool        `json:"blocked"`
	BlockedUntil        *time.Time  `json:"blockedUntil,omitempty"`
	FailedLoginAttempts int         `json:"failedLoginAttempts"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`
}

func userToView(u models.User) UserView {
	return UserView{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		Role:                u.Role,
		Active:              u.Active,
		Blocked:             u.Blocked,
		BlockedUntil:        u.BlockedUntil,
		FailedLoginAttempts: u.FailedLoginAttempts,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

// UserStats summarizes the user list header cards. The acting admin is
// excluded before counting.
type UserStats struct {
	Total  int                 `json:"total"`
	ByRole map[models.Role]int `json:"byRole"`
}

// UserListView is the users screen payload.
type UserListView struct {
	Users      []UserView `json:"users"`
	Stats      UserStats  `json:"stats"`
	Pagination PageMeta   `json:"pagination"`
}

// RequestView is a payment-request row as rendered on the dashboard.
type RequestView struct {
	ID                 int64               `json:"id"`
	RequesterID        int64               `json:"requesterId"`
	RequesterName      string              `json:"requesterName,omitempty"`
	Department         string              `json:"department"`
	Amount             float64             `json:"amount"`
	DestinationAccount string              `json:"destinationAccount"`
	InvoiceURL         string              `json:"invoiceUrl"`
	Concept            string              `json:"concept"`
	PaymentDeadline    time.Time           `json:"paymentDeadline"`
	SupportURL         string              `json:"supportUrl,omitempty"`
	State              models.RequestState `json:"state"`
	ReviewerID         *int64              `json:"reviewerId,omitempty"`
	ReviewerName       string              `json:"reviewerName,omitempty"`
	ReviewerComment    string              `json:"reviewerComment,omitempty"`
	ReviewedAt         *time.Time          `json:"reviewedAt,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

func requestToView(r models.PaymentRequest) RequestView {
	return RequestView{
		ID:                 r.ID,
		RequesterID:        r.RequesterID,
		RequesterName:      r.RequesterName,
		Department:         r.Department,
		Amount:             r.Amount,
		DestinationAccount: r.DestinationAccount,
		InvoiceURL:         r.InvoiceURL,
		Concept:            r.Concept,
		PaymentDeadline:    r.PaymentDeadline,
		SupportURL:         r.SupportURL,
		State:              r.State,
		ReviewerID:         r.ReviewerID,
		ReviewerName:       r.ReviewerName,
		ReviewerComment:    r.ReviewerComment,
		ReviewedAt:         r.ReviewedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// RequestStats summarizes the requests screen header cards.
type RequestStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// RequestListView is the requests screen payload.
type RequestListView struct {
	Requests   []RequestView `json:"requests"`
	Stats      RequestStats  `json:"stats"`
	Pagination PageMeta      `json:"pagination"`
}

// ConfirmationView is the pending-confirmation handle returned when a
// destructive action is begun. Nothing has been sent upstream yet.
type ConfirmationView struct {
	Token  string `json:"token"`
	Prompt string `json:"prompt"`
}

// MutationResultView is the outcome of a confirmed mutation.
type MutationResultView struct {
	Notification Notification `json:"notification"`
	Record       any          `json:"record,omitempty"`
}

// SessionView is the signed-in identity as exposed to the browser. The
// bearer token never leaves the gateway.
type SessionView struct {
	UserID  int64       `json:"userId"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	Blocked bool        `json:"blocked"`
}

func sessionToView(userID int64, name, email string, role models.Role, blocked bool) SessionView {
	return SessionView{UserID: userID, Name: name, Email: email, Role: role, Blocked: blocked}
}
