package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/svargasl/finpanel/internal/models"
)

// userWire is a user record as the upstream serializes it. The blocked flag
// has shipped under three different names over the API's history; decoding
// collapses them into the one canonical field here and nowhere else.
type userWire struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Role                string     `json:"role"`
	Active              bool       `json:"active"`
	Bloqueado           *bool      `json:"bloqueado,omitempty"`
	Blocked             *bool      `json:"blocked,omitempty"`
	IsBlocked           *bool      `json:"is_blocked,omitempty"`
	BlockedUntil        *time.Time `json:"blockedUntil,omitempty"`
	FailedLoginAttempts int        `json:"failedLoginAttempts"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (w userWire) toModel() models.User {
	blocked := false
	// "bloqueado" is the primary name; the others are legacy aliases.
	switch {
	case w.Bloqueado != nil:
		blocked = *w.Bloqueado
	case w.Blocked != nil:
		blocked = *w.Blocked
	case w.IsBlocked != nil:
		blocked = *w.IsBlocked
	}

	return models.User{
		ID:                  w.ID,
		Name:                w.Name,
		Email:               w.Email,
		Role:                models.Role(w.Role),
		Active:              w.Active,
		Blocked:             blocked,
		BlockedUntil:        w.BlockedUntil,
		FailedLoginAttempts: w.FailedLoginAttempts,
		CreatedAt:           w.CreatedAt,
		UpdatedAt:           w.UpdatedAt,
	}
}

// CreateUserInput is the payload for creating a user.
type CreateUserInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// UserPatch is a partial update. Nil fields are omitted from the request
// body entirely; in particular an omitted password leaves the stored
// password untouched upstream.
type UserPatch struct {
	Name         *string      `json:"name,omitempty"`
	Email        *string      `json:"email,omitempty"`
	Role         *models.Role `json:"role,omitempty"`
	Password     *string      `json:"password,omitempty"`
	Blocked      *bool        `json:"blocked,omitempty"`
	BlockedUntil *time.Time   `json:"blockedUntil,omitempty"`
}

// LoginResult is a successful sign-in response.
type LoginResult struct {
	Message string
	Token   string
	User    models.User
}

// Login exchanges credentials for a bearer token and the signed-in user.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Message string   `json:"message"`
		Token   string   `json:"token"`
		User    userWire `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Message: resp.Message, Token: resp.Token, User: resp.User.toModel()}, nil
}

// ListUsers fetches every user record.
func (c *Client) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	var wires []userWire
	if err := c.do(ctx, http.MethodGet, "/usuarios", token, nil, &wires); err != nil {
		return nil, err
	}
	users := make([]models.User, len(wires))
	for i, w := range wires {
		users[i] = w.toModel()
	}
	return users, nil
}

// GetUser fetches a single user by ID.
func (c *Client) GetUser(ctx context.Context, token string, id int64) (models.User, error) {
	var w userWire
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/usuarios/%d", id), token, nil, &w); err != nil {
		return models.User{}, err
	}
	return w.toModel(), nil
}

// CreateUser creates a user and returns the created record.
func (c *Client) CreateUser(ctx context.Context, token string, in CreateUserInput) (models.User, error) {
	var w userWire
	if err := c.do(ctx, http.MethodPost, "/usuarios", token, in, &w); err != nil {
		return models.User{}, err
	}
	return w.toModel(), nil
}

// UpdateUser applies patch to a user and returns the merged record.
func (c *Client) UpdateUser(ctx context.Context, token string, id int64, patch UserPatch) (models.User, error) {
	var w userWire
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/usuarios/%d", id), token, patch, &w); err != nil {
		return models.User{}, err
	}
	return w.toModel(), nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/usuarios/%d", id), token, nil, nil)
}

// UpdateProfile updates the acting user's own name and email.
func (c *Client) UpdateProfile(ctx context.Context, token, name, email string) (models.User, error) {
	body := map[string]string{"name": name, "email": email}
	var resp struct {
		Message string   `json:"message"`
		User    userWire `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/usuarios/profile/update", token, body, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User.toModel(), nil
}

// ChangePassword changes the acting user's password. A wrong current
// password surfaces as an error matching models.ErrUnauthorized.
func (c *Client) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	body := map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}
	var resp struct {
		Message string `json:"message"`
	}
	return c.do(ctx, http.MethodPut, "/usuarios/profile/change-password", token, body, &resp)
}
