package screens

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/pkg/httpx"
)

// MutationHandler resolves staged confirmations by token.
type MutationHandler struct {
	coordinator *Coordinator
	logger      *slog.Logger
}

func NewMutationHandler(coordinator *Coordinator, logger *slog.Logger) *MutationHandler {
	return &MutationHandler{coordinator: coordinator, logger: logger}
}

// Confirm consumes the confirmation and runs the staged action. The token
// is spent regardless of the outcome.
func (h *MutationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	record, note, err := h.coordinator.Confirm(r.Context(), token)
	if errors.Is(err, models.ErrNoPendingAction) {
		httpx.WriteNotFound(w, "no pending action for this token")
		return
	}

	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
	}
	httpx.WriteJSON(w, status, MutationResultView{Notification: note, Record: record})
}

// Cancel discards the confirmation without touching the upstream.
func (h *MutationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if err := h.coordinator.Cancel(token); err != nil {
		httpx.WriteNotFound(w, "no pending action for this token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
