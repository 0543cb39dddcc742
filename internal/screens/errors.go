package screens

import (
	"errors"
	"net/http"

	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/internal/upstream"
	"github.com/svargasl/finpanel/pkg/httpx"
)

// remoteMessage extracts the upstream's human-readable message, falling
// back when the failure carried none (network error, opaque body).
func remoteMessage(err error, fallback string) string {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HumanMessage()
	}
	return fallback
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrStateMismatch):
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

// writeRemoteError maps an upstream failure to the gateway's own response.
func writeRemoteError(w http.ResponseWriter, err error, fallback string) {
	httpx.WriteError(w, statusFor(err), "UPSTREAM_ERROR", remoteMessage(err, fallback))
}

// writeValidationError reports a local form violation. Nothing was sent
// upstream when this fires.
func writeValidationError(w http.ResponseWriter, err error) {
	httpx.WriteBadRequest(w, err.Error())
}
