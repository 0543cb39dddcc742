package screens

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/internal/session"
	"github.com/svargasl/finpanel/pkg/httpx"
)

// AuthHandler serves sign-in and sign-out. Logout also tears down the
// session's pending confirmations, scheduled checks, and pagers.
type AuthHandler struct {
	sessions    *session.Manager
	coordinator *Coordinator
	verifier    *Verifier
	pagers      *PagerSet
	logger      *slog.Logger
}

func NewAuthHandler(sessions *session.Manager, coordinator *Coordinator, verifier *Verifier, pagers *PagerSet, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:    sessions,
		coordinator: coordinator,
		verifier:    verifier,
		pagers:      pagers,
		logger:      logger,
	}
}

// LoginDTO is the sign-in form.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful sign-in. The session cookie
// rides along as a Set-Cookie header.
type LoginResponse struct {
	Message string      `json:"message"`
	User    SessionView `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := validateInput(dto); err != nil {
		writeValidationError(w, err)
		return
	}

	sess, err := h.sessions.Login(r.Context(), w, dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			httpx.WriteUnauthorized(w, "Invalid email or password.")
			return
		}
		writeRemoteError(w, err, "Sign-in is unavailable right now. Please try again.")
		return
	}

	u := sess.User
	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		Message: "Welcome, " + u.Name,
		User:    sessionToView(u.ID, u.Name, u.Email, u.Role, u.Blocked),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := h.sessions.Current(r); ok {
		h.coordinator.CancelSession(sess.ID)
		h.verifier.CancelByPrefix(sess.ID + ":")
		h.pagers.drop(sess.ID)
	}
	h.sessions.Logout(r.Context(), w, r)

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Session closed."})
}
