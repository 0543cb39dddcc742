package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svargasl/finpanel/internal/models"
)

func TestUsersCSV(t *testing.T) {
	users := []models.User{
		{ID: 1, Name: "Ana Diaz", Email: "ana@example.com", Role: models.RoleAprobador,
			Active: true, CreatedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
		{ID: 2, Name: "Luis, el de IT", Email: "luis@example.com", Role: models.RoleSolicitante,
			Blocked: true, CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, Users(&buf, users))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"id", "name", "email", "role", "active", "blocked", "created_at"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "aprobador", rows[1][3])
	// Commas in names survive the round trip.
	assert.Equal(t, "Luis, el de IT", rows[2][1])
	assert.Equal(t, "true", rows[2][5])
}

func TestRequestsCSV(t *testing.T) {
	reviewedAt := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)
	requests := []models.PaymentRequest{
		{ID: 7, RequesterName: "Maria Gomez", Department: "IT", Amount: 1500000.50,
			DestinationAccount: "123-456", Concept: "licenses",
			PaymentDeadline: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
			State:           models.StateApproved, ReviewerName: "Ana Diaz", ReviewedAt: &reviewedAt,
			CreatedAt: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)},
		{ID: 8, RequesterName: "Luis Perez", Department: "Marketing", Amount: 50000,
			State: models.StatePending, CreatedAt: time.Date(2026, 6, 2, 8, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, Requests(&buf, requests))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "1500000.50", rows[1][3])
	assert.Equal(t, "approved", rows[1][7])
	assert.Equal(t, "2026-06-10 15:00:00", rows[1][9])
	// Unreviewed rows leave the reviewer columns empty.
	assert.Equal(t, "", rows[2][8])
	assert.Equal(t, "", rows[2][9])
}
