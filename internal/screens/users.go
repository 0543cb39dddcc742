package screens

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/svargasl/finpanel/internal/auth"
	"github.com/svargasl/finpanel/internal/cache"
	"github.com/svargasl/finpanel/internal/export"
	"github.com/svargasl/finpanel/internal/listview"
	"github.com/svargasl/finpanel/internal/models"
	"github.com/svargasl/finpanel/internal/session"
	"github.com/svargasl/finpanel/internal/upstream"
	"github.com/svargasl/finpanel/pkg/httpx"
)

const usersResource = "usuarios"

// Directory is the slice of the upstream API the user screens depend on.
type Directory interface {
	ListUsers(ctx context.Context, token string) ([]models.User, error)
	GetUser(ctx context.Context, token string, id int64) (models.User, error)
	CreateUser(ctx context.Context, token string, in upstream.CreateUserInput) (models.User, error)
	UpdateUser(ctx context.Context, token string, id int64, patch upstream.UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, token string, id int64) error
}

// UsersScreen serves the user-administration screen.
type UsersScreen struct {
	directory   Directory
	cache       *cache.ListCache
	pagers      *PagerSet
	coordinator *Coordinator
	verifier    *Verifier
	guard       *fetchGuard
	logger      *slog.Logger
}

func NewUsersScreen(directory Directory, listCache *cache.ListCache, pagers *PagerSet, coordinator *Coordinator, verifier *Verifier, logger *slog.Logger) *UsersScreen {
	return &UsersScreen{
		directory:   directory,
		cache:       listCache,
		pagers:      pagers,
		coordinator: coordinator,
		verifier:    verifier,
		guard:       newFetchGuard(),
		logger:      logger,
	}
}

// CreateUserDTO is the new-user form.
type CreateUserDTO struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin_general solicitante aprobador pagador_banca"`
}

// UpdateUserDTO is the edit-user form. Password is optional and is never
// sent upstream when left blank.
type UpdateUserDTO struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Role     string  `json:"role" validate:"required,oneof=admin_general solicitante aprobador pagador_banca"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// AccessChangeDTO selects the desired blocked state.
type AccessChangeDTO struct {
	Blocked bool `json:"blocked"`
}

// loadUsers returns the session's user list, from cache unless it is
// stale or the caller asked for a bypass. Fresh responses are cached only
// when no newer fetch has since been issued for the same key.
func (s *UsersScreen) loadUsers(ctx context.Context, sess *session.Session, bypass bool) ([]models.User, error) {
	key := cache.Key(sess.ID, usersResource)

	if !bypass {
		var cached []models.User
		if s.cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	seq := s.guard.begin(key)
	users, err := s.directory.ListUsers(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	if s.guard.isCurrent(key, seq) {
		s.cache.Put(ctx, key, users)
	}
	return users, nil
}

func (s *UsersScreen) criteria(sess *session.Session, r *http.Request) listview.Criteria[models.User] {
	q := r.URL.Query()
	crit := listview.Criteria[models.User]{
		// The acting admin never appears in their own list.
		Pre: func(u models.User) bool { return u.ID != sess.User.ID },
		SearchFields: func(u models.User) []string {
			return []string{u.Name, u.Email}
		},
		Search: q.Get("search"),
	}
	if role := q.Get("role"); role != "" {
		crit.Equals = append(crit.Equals, listview.EqualsFilter[models.User]{
			Value: role,
			Field: func(u models.User) string { return string(u.Role) },
		})
	}
	return crit
}

func userStats(users []models.User) UserStats {
	stats := UserStats{Total: len(users), ByRole: make(map[models.Role]int)}
	for _, u := range users {
		stats.ByRole[u.Role]++
	}
	return stats
}

// List renders the users screen: cached list, filters, stats, one page.
func (s *UsersScreen) List(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)

	users, err := s.loadUsers(r.Context(), sess, r.URL.Query().Get("refresh") == "1")
	if err != nil {
		writeRemoteError(w, err, "Could not load users.")
		return
	}

	crit := s.criteria(sess, r)
	filtered := listview.Apply(users, crit)

	// Stats count everyone except the acting admin, regardless of the
	// filters currently applied.
	visible := listview.Apply(users, listview.Criteria[models.User]{Pre: crit.Pre})

	pager := s.pagers.get(sess.ID, usersResource)
	applyPageParams(pager, r)
	page := listview.Resolve(pager, filtered)

	views := make([]UserView, 0, len(page.Items))
	for _, u := range page.Items {
		views = append(views, userToView(u))
	}
	httpx.WriteJSON(w, http.StatusOK, UserListView{
		Users:      views,
		Stats:      userStats(visible),
		Pagination: pageMeta(page),
	})
}

// Get renders the user detail, always from the upstream.
func (s *UsersScreen) Get(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)
	id, err := parseID(r)
	if err != nil {
		httpx.WriteBadRequest(w, "invalid user id")
		return
	}

	user, err := s.directory.GetUser(r.Context(), sess.Token, id)
	if err != nil {
		writeRemoteError(w, err, "Could not load the user.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userToView(user))
}

// Create registers a new user and drops the session's cached list.
func (s *UsersScreen) Create(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)

	var dto CreateUserDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := validateInput(dto); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := s.directory.CreateUser(r.Context(), sess.Token, upstream.CreateUserInput{
		Name:     dto.Name,
		Email:    dto.Email,
		Password: dto.Password,
		Role:     models.Role(dto.Role),
	})
	if err != nil {
		writeRemoteError(w, err, "Could not create the user.")
		return
	}
	s.cache.Invalidate(r.Context(), cache.Key(sess.ID, usersResource))

	httpx.WriteJSON(w, http.StatusCreated, MutationResultView{
		Notification: successNote("User created."),
		Record:       userToView(user),
	})
}

// Update edits a user and drops the session's cached list.
func (s *UsersScreen) Update(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)
	id, err := parseID(r)
	if err != nil {
		httpx.WriteBadRequest(w, "invalid user id")
		return
	}

	var dto UpdateUserDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := validateInput(dto); err != nil {
		writeValidationError(w, err)
		return
	}

	role := models.Role(dto.Role)
	patch := upstream.UserPatch{
		Name:     &dto.Name,
		Email:    &dto.Email,
		Role:     &role,
		Password: dto.Password,
	}
	user, err := s.directory.UpdateUser(r.Context(), sess.Token, id, patch)
	if err != nil {
		writeRemoteError(w, err, "Could not update the user.")
		return
	}
	s.cache.Invalidate(r.Context(), cache.Key(sess.ID, usersResource))

	httpx.WriteJSON(w, http.StatusOK, MutationResultView{
		Notification: successNote("User updated."),
		Record:       userToView(user),
	})
}

// BeginDelete stages a user deletion behind a confirmation.
func (s *UsersScreen) BeginDelete(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)
	id, err := parseID(r)
	if err != nil {
		httpx.WriteBadRequest(w, "invalid user id")
		return
	}

	token := sess.Token
	sid := sess.ID
	target := fmt.Sprintf("%s:usuario:%d", sid, id)

	view, err := s.coordinator.Begin(sid, target,
		fmt.Sprintf("Delete user #%d? This cannot be undone.", id),
		func(ctx context.Context) (any, Notification, error) {
			if err := s.directory.DeleteUser(ctx, token, id); err != nil {
				return nil, errorNote(remoteMessage(err, "Could not delete the user.")), err
			}
			s.cache.Invalidate(ctx, cache.Key(sid, usersResource))
			return nil, successNote("User deleted."), nil
		})
	if err != nil {
		httpx.WriteConflict(w, "another action on this user is still running")
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, view)
}

// BeginAccessChange stages a block or unblock behind a confirmation. The
// confirmed action sends a minimal payload, checks the response actually
// reflects the requested state, and arms a delayed re-read to catch the
// upstream silently reverting the change.
func (s *UsersScreen) BeginAccessChange(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)
	id, err := parseID(r)
	if err != nil {
		httpx.WriteBadRequest(w, "invalid user id")
		return
	}

	var dto AccessChangeDTO
	if err := decodeJSON(r, &dto); err != nil {
		httpx.WriteBadRequest(w, "invalid request body")
		return
	}

	token := sess.Token
	sid := sess.ID
	want := dto.Blocked
	target := fmt.Sprintf("%s:usuario:%d", sid, id)
	verb := "Unblock"
	if want {
		verb = "Block"
	}

	view, err := s.coordinator.Begin(sid, target,
		fmt.Sprintf("%s user #%d?", verb, id),
		func(ctx context.Context) (any, Notification, error) {
			return s.applyAccessChange(ctx, token, sid, id, want)
		})
	if err != nil {
		httpx.WriteConflict(w, "another action on this user is still running")
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, view)
}

func (s *UsersScreen) applyAccessChange(ctx context.Context, token, sid string, id int64, want bool) (any, Notification, error) {
	key := cache.Key(sid, usersResource)
	target := fmt.Sprintf("%s:usuario:%d", sid, id)

	updated, err := s.directory.UpdateUser(ctx, token, id, upstream.UserPatch{Blocked: &want})
	if err != nil {
		return nil, errorNote(remoteMessage(err, "Could not change the user's access.")), err
	}

	if updated.Blocked != want {
		// Success status but the state did not change: refetch so the
		// screen shows what the server actually holds.
		s.cache.Invalidate(ctx, key)
		var record any
		if fresh, ferr := s.directory.GetUser(ctx, token, id); ferr == nil {
			record = userToView(fresh)
		}
		return record, errorNote("The server did not apply the access change."),
			fmt.Errorf("%w: user %d blocked=%t after requesting %t", models.ErrStateMismatch, id, updated.Blocked, want)
	}

	s.cache.Invalidate(ctx, key)
	s.verifier.Schedule(target, func(vctx context.Context) {
		fresh, verr := s.directory.GetUser(vctx, token, id)
		if verr != nil {
			s.logger.Warn("access verification failed",
				slog.Int64("user_id", id),
				slog.String("error", verr.Error()))
			return
		}
		if fresh.Blocked != want {
			s.logger.Warn("access change reverted upstream",
				slog.Int64("user_id", id),
				slog.Bool("wanted", want),
				slog.Bool("actual", fresh.Blocked))
			s.cache.Invalidate(vctx, key)
		}
	})

	note := "User unblocked."
	if want {
		note = "User blocked."
	}
	return userToView(updated), successNote(note), nil
}

// ExportCSV streams the filtered user list, unpaginated.
func (s *UsersScreen) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sess := auth.FromContext(r)

	users, err := s.loadUsers(r.Context(), sess, false)
	if err != nil {
		writeRemoteError(w, err, "Could not load users.")
		return
	}
	filtered := listview.Apply(users, s.criteria(sess, r))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="usuarios.csv"`)
	if err := export.Users(w, filtered); err != nil {
		s.logger.Error("csv export failed", slog.String("error", err.Error()))
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
