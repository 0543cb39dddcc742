package screens

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/svargasl/finpanel/internal/models"
)

// mutationFunc performs the upstream call for a confirmed action. It
// returns the record to hand back to the browser (may be nil), the
// notification to show, and the underlying error when the action failed.
type mutationFunc func(ctx context.Context) (any, Notification, error)

type pendingAction struct {
	token     string
	targetKey string
	sessionID string
	prompt    string
	execute   mutationFunc
	createdAt time.Time
}

// Coordinator runs the begin/confirm/cancel lifecycle for destructive
// actions. A record admits at most one pending or in-flight action at a
// time; actions on different records proceed independently.
type Coordinator struct {
	mu       sync.Mutex
	pending  map[string]*pendingAction // token -> action
	byTarget map[string]string         // targetKey -> token
	inflight map[string]struct{}       // targetKey set
	logger   *slog.Logger
	now      func() time.Time
}

func NewCoordinator(logger *slog.Logger) *Coordinator {
	return &Coordinator{
		pending:  make(map[string]*pendingAction),
		byTarget: make(map[string]string),
		inflight: make(map[string]struct{}),
		logger:   logger,
		now:      time.Now,
	}
}

// Begin registers a pending action and returns its confirmation token.
// Nothing is sent upstream until Confirm. A target that already has a
// pending or in-flight action rejects with ErrMutationInFlight.
func (c *Coordinator) Begin(sessionID, targetKey, prompt string, execute mutationFunc) (ConfirmationView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inflight[targetKey]; busy {
		return ConfirmationView{}, models.ErrMutationInFlight
	}
	if _, busy := c.byTarget[targetKey]; busy {
		return ConfirmationView{}, models.ErrMutationInFlight
	}

	action := &pendingAction{
		token:     uuid.NewString(),
		targetKey: targetKey,
		sessionID: sessionID,
		prompt:    prompt,
		execute:   execute,
		createdAt: c.now(),
	}
	c.pending[action.token] = action
	c.byTarget[targetKey] = action.token

	return ConfirmationView{Token: action.token, Prompt: action.prompt}, nil
}

// Confirm pops the pending action and runs it. The confirmation is
// consumed immediately, before the outcome is known; a second Confirm
// with the same token reports ErrNoPendingAction.
func (c *Coordinator) Confirm(ctx context.Context, token string) (any, Notification, error) {
	c.mu.Lock()
	action, ok := c.pending[token]
	if !ok {
		c.mu.Unlock()
		return nil, Notification{}, models.ErrNoPendingAction
	}
	delete(c.pending, token)
	delete(c.byTarget, action.targetKey)
	c.inflight[action.targetKey] = struct{}{}
	c.mu.Unlock()

	record, note, err := action.execute(ctx)

	c.mu.Lock()
	delete(c.inflight, action.targetKey)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("mutation failed",
			slog.String("target", action.targetKey),
			slog.String("error", err.Error()))
	}
	return record, note, err
}

// Cancel drops a pending action without any upstream call.
func (c *Coordinator) Cancel(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	action, ok := c.pending[token]
	if !ok {
		return models.ErrNoPendingAction
	}
	delete(c.pending, token)
	delete(c.byTarget, action.targetKey)
	return nil
}

// CancelSession drops every pending action owned by a session. Used on
// logout so stale confirmations cannot fire later.
func (c *Coordinator) CancelSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for token, action := range c.pending {
		if action.sessionID == sessionID {
			delete(c.pending, token)
			delete(c.byTarget, action.targetKey)
		}
	}
}

// ExpirePending drops every pending action older than maxAge and returns
// how many were dropped. An abandoned confirmation would otherwise hold its
// record's lock for the rest of the session.
func (c *Coordinator) ExpirePending(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-maxAge)
	removed := 0
	for token, action := range c.pending {
		if action.createdAt.Before(cutoff) {
			delete(c.pending, token)
			delete(c.byTarget, action.targetKey)
			removed++
		}
	}
	return removed
}

// busy reports whether a target has a pending or in-flight action.
func (c *Coordinator) busy(targetKey string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inflight[targetKey]; ok {
		return true
	}
	_, ok := c.byTarget[targetKey]
	return ok
}
