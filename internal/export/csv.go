// Package export renders filtered dashboard lists as CSV downloads.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/svargasl/finpanel/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Users writes one row per user, in the order given.
func Users(w io.Writer, users []models.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "email", "role", "active", "blocked", "created_at"}); err != nil {
		return err
	}
	for _, u := range users {
		row := []string{
			strconv.FormatInt(u.ID, 10),
			u.Name,
			u.Email,
			string(u.Role),
			strconv.FormatBool(u.Active),
			strconv.FormatBool(u.Blocked),
			u.CreatedAt.Format(timeLayout),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Requests writes one row per payment request, in the order given.
func Requests(w io.Writer, requests []models.PaymentRequest) error {
	cw := csv.NewWriter(w)
	header := []string{
		"id", "requester", "department", "amount", "destination_account",
		"concept", "payment_deadline", "state", "reviewer", "reviewed_at", "created_at",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, pr := range requests {
		reviewedAt := ""
		if pr.ReviewedAt != nil {
			reviewedAt = pr.ReviewedAt.Format(timeLayout)
		}
		row := []string{
			strconv.FormatInt(pr.ID, 10),
			pr.RequesterName,
			pr.Department,
			strconv.FormatFloat(pr.Amount, 'f', 2, 64),
			pr.DestinationAccount,
			pr.Concept,
			pr.PaymentDeadline.Format("2006-01-02"),
			string(pr.State),
			pr.ReviewerName,
			reviewedAt,
			pr.CreatedAt.Format(timeLayout),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
