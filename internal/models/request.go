package models

import (
	"time"
)

// RequestState is the workflow state of a payment request.
type RequestState string

const (
	StatePending  RequestState = "pending"
	StateApproved RequestState = "approved"
	StateRejected RequestState = "rejected"
	StatePaid     RequestState = "paid"
)

// Valid reports whether s is one of the known request states.
func (s RequestState) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected, StatePaid:
		return true
	}
	return false
}

// TransitionTargets are the only states a reviewer may move a request into.
var TransitionTargets = []RequestState{StateApproved, StateRejected}

// PaymentRequest is a payment/expense request ("solicitud") as served by the
// upstream API.
type PaymentRequest struct {
	ID                 int64
	RequesterID        int64
	RequesterName      string
	Department         string
	Amount             float64
	DestinationAccount string
	InvoiceURL         string
	Concept            string
	PaymentDeadline    time.Time
	SupportURL         string
	State              RequestState
	ReviewerID         *int64
	ReviewerName       string
	ReviewerComment    string
	ReviewedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
