package screens

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultVerifyDelay is how long after a successful access change the
// gateway waits before re-reading the record to catch silent reverts.
const DefaultVerifyDelay = 2 * time.Second

const verifyTimeout = 5 * time.Second

// Verifier schedules one-shot post-mutation checks. A new mutation on the
// same target supersedes any check still waiting, and checks are dropped
// when their session ends or the process shuts down.
type Verifier struct {
	delay  time.Duration
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewVerifier(delay time.Duration, logger *slog.Logger) *Verifier {
	if delay <= 0 {
		delay = DefaultVerifyDelay
	}
	return &Verifier{
		delay:  delay,
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms a single check for the target, replacing any prior one.
func (v *Verifier) Schedule(targetKey string, check func(ctx context.Context)) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	if t, ok := v.timers[targetKey]; ok {
		t.Stop()
	}
	v.timers[targetKey] = time.AfterFunc(v.delay, func() {
		v.mu.Lock()
		delete(v.timers, targetKey)
		closed := v.closed
		v.mu.Unlock()
		if closed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
		defer cancel()
		check(ctx)
	})
}

// Cancel drops the pending check for a target, if any.
func (v *Verifier) Cancel(targetKey string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if t, ok := v.timers[targetKey]; ok {
		t.Stop()
		delete(v.timers, targetKey)
	}
}

// CancelByPrefix drops every pending check whose target starts with the
// prefix. Targets are keyed by session, so logout passes "<sid>:".
func (v *Verifier) CancelByPrefix(prefix string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for key, t := range v.timers {
		if strings.HasPrefix(key, prefix) {
			t.Stop()
			delete(v.timers, key)
		}
	}
}

// Close stops all pending checks. Called on shutdown.
func (v *Verifier) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.closed = true
	for key, t := range v.timers {
		t.Stop()
		delete(v.timers, key)
	}
}
