package screens

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/svargasl/finpanel/internal/auth"
	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/internal/session"
	"github.com/svargasl/finpanel/pkg/httpx"
)

// ProfileAPI is the self-service slice of the upstream API.
type ProfileAPI interface {
	UpdateProfile(ctx context.Context, token, name, email string) (models.User, error)
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error
}

// SessionUpdater swaps the identity held by the server-side session after
// a profile edit, so subsequent screens render the new name and email.
type SessionUpdater interface {
	ReplaceUser(r *http.Request, user models.User) (*session.Session, bool)
}

// ProfileScreen serves the signed-in user's own profile.
type ProfileScreen struct {
	api      ProfileAPI
	sessions SessionUpdater
	logger   *slog.Logger
}

func NewProfileScreen(api ProfileAPI, sessions SessionUpdater, logger *slog.Logger) *ProfileScreen {
	return &ProfileScreen{api: api, sessions: sessions, logger: logger}
}

// UpdateProfileDTO is the profile form.
type UpdateProfileDTO struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
}

// ChangePasswordDTO is the password form. The precondition checks run
// locally; no upstream call happens when they fail.
type ChangePasswordDTO struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// Me returns the signed-in identity.
func (s *ProfileScreen) Me(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)
	u := sess.User
	httpx.WriteJSON(w, http.StatusOK, sessionToView(u.ID, u.Name, u.Email, u.Role, u.Blocked))
}

// Update edits the signed-in user's name and email, and refreshes the
// server-side session with what the upstream returned.
func (s *ProfileScreen) Update(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)

	var dto UpdateProfileDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := validateInput(dto); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := s.api.UpdateProfile(r.Context(), sess.Token, dto.Name, dto.Email)
	if err != nil {
		writeRemoteError(w, err, "Could not update the profile.")
		return
	}
	if _, ok := s.sessions.ReplaceUser(r, user); !ok {
		s.logger.Warn("session refresh after profile update failed",
			slog.Int64("user_id", user.ID))
	}

	httpx.WriteJSON(w, http.StatusOK, MutationResultView{
		Notification: successNote("Profile updated."),
		Record:       sessionToView(user.ID, user.Name, user.Email, user.Role, user.Blocked),
	})
}

// ChangePassword changes the signed-in user's password.
func (s *ProfileScreen) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)

	var dto ChangePasswordDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := validateInput(dto); err != nil {
		writeValidationError(w, err)
		return
	}
	if dto.NewPassword == dto.CurrentPassword {
		httpx.WriteBadRequest(w, "the new password must differ from the current one")
		return
	}

	if err := s.api.ChangePassword(r.Context(), sess.Token, dto.CurrentPassword, dto.NewPassword); err != nil {
		writeRemoteError(w, err, "Could not change the password.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MutationResultView{
		Notification: successNote("Password changed."),
	})
}
