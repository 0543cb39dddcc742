package upstream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/svargasl/finpanel/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, 5*time.Second, slog.Default())
}

func TestListUsers_NormalizesBlockedAliases(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usuarios", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		io.WriteString(w, `[
			{"id":1,"name":"Ana","email":"ana@acme.co","role":"solicitante","bloqueado":true},
			{"id":2,"name":"Luis","email":"luis@acme.co","role":"aprobador","blocked":true},
			{"id":3,"name":"Marta","email":"marta@acme.co","role":"pagador_banca","is_blocked":true},
			{"id":4,"name":"Pedro","email":"pedro@acme.co","role":"solicitante"}
		]`)
	})

	users, err := client.ListUsers(context.Background(), "tok")

	assert.NoError(t, err)
	assert.Len(t, users, 4)
	assert.True(t, users[0].Blocked)
	assert.True(t, users[1].Blocked)
	assert.True(t, users[2].Blocked)
	assert.False(t, users[3].Blocked)
}

func TestListUsers_PrimaryAliasWins(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":1,"name":"Ana","email":"a@a.co","role":"solicitante","bloqueado":false,"blocked":true}]`)
	})

	users, err := client.ListUsers(context.Background(), "tok")

	assert.NoError(t, err)
	assert.False(t, users[0].Blocked)
}

func TestUpdateUser_OmitsUnsetPassword(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/usuarios/7", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		io.WriteString(w, `{"id":7,"name":"Ana","email":"a@a.co","role":"solicitante","bloqueado":true}`)
	})

	blocked := true
	_, err := client.UpdateUser(context.Background(), "tok", 7, UserPatch{Blocked: &blocked})

	assert.NoError(t, err)
	assert.Equal(t, map[string]any{"blocked": true}, body)
	assert.NotContains(t, body, "password")
}

func TestLogin_ReturnsTokenAndUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		io.WriteString(w, `{"message":"welcome","token":"tok-1","user":{"id":9,"name":"Ana","email":"a@a.co","role":"admin_general"}}`)
	})

	result, err := client.Login(context.Background(), "a@a.co", "hunter22")

	assert.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.Equal(t, int64(9), result.User.ID)
	assert.Equal(t, models.RoleAdminGeneral, result.User.Role)
}

func TestDo_DecodesErrorPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"usuario no encontrado","code":"USER_NOT_FOUND"}`)
	})

	_, err := client.GetUser(context.Background(), "tok", 404)

	assert.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "usuario no encontrado", apiErr.HumanMessage())
	assert.Equal(t, "USER_NOT_FOUND", apiErr.Code)
}

func TestDo_GenericFallbackMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListUsers(context.Background(), "tok")

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.NotEmpty(t, apiErr.HumanMessage())
}

func TestChangePassword_WrongCurrentIsUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/usuarios/profile/change-password", r.URL.Path)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"current password is incorrect"}`)
	})

	err := client.ChangePassword(context.Background(), "tok", "wrong", "newpassword1")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestUpdateRequestState_SendsStateAndComment(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/solicitudes/3/state", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		io.WriteString(w, `{"id":3,"requesterId":1,"department":"Finanzas","amount":100,"state":"approved"}`)
	})

	req, err := client.UpdateRequestState(context.Background(), "tok", 3, models.StateApproved, "ok to pay")

	assert.NoError(t, err)
	assert.Equal(t, models.StateApproved, req.State)
	assert.Equal(t, "approved", body["state"])
	assert.Equal(t, "ok to pay", body["reviewerComment"])
}

func TestUpdateRequestState_RejectsNonReviewTargets(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.UpdateRequestState(context.Background(), "tok", 3, models.StatePaid, "")

	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.False(t, called, "the invalid target never reaches the wire")
}
