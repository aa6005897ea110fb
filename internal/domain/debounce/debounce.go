// Package debounce coalesces bursts of per-user voice input into single
// decision rounds.
package debounce

import (
	"context"
	"sync"
	"time"

	"github.com/ericggul/moodscape/pkg/logger"
)

// Callback fires once per quiet period with the most recent payload for the
// user. Panics are recovered and logged so a timer callback can never take
// the process down.
type Callback func(userID string, payload any)

// Debouncer keeps one cancellable scheduled task per user. Trigger resets
// the user's timer; Cancel is idempotent; only the latest payload survives
// a burst.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]*pendingRound
	interval time.Duration
	callback Callback
	logger   logger.Logger
}

type pendingRound struct {
	timer   *time.Timer
	payload any
}

// New constructs a Debouncer with default configuration.
func New(callback Callback, opts ...Option) *Debouncer {
	d := &Debouncer{
		pending:  make(map[string]*pendingRound),
		interval: defaultInterval,
		callback: callback,
		logger:   nil, // resolved lazily so tests may construct before logger.Init
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Trigger schedules (or reschedules) the user's decision round. Each call
// replaces the pending payload and pushes the fire time out by the quiet
// interval.
//
// Returns true when an earlier payload was coalesced away.
func (d *Debouncer) Trigger(userID string, payload any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[userID]; ok {
		if p.timer.Stop() {
			p.payload = payload
			p.timer.Reset(d.interval)
			return true
		}
		// The old timer already fired and its callback is waiting on the
		// lock. Reusing the entry would let that callback run with the new
		// payload before the fresh quiet interval elapses; install a new
		// round instead and let the stale callback no-op.
		d.schedule(userID, payload)
		return true
	}

	d.schedule(userID, payload)
	return false
}

// schedule installs a fresh round for the user. Caller holds d.mu.
func (d *Debouncer) schedule(userID string, payload any) {
	p := &pendingRound{payload: payload}
	p.timer = time.AfterFunc(d.interval, func() {
		d.fire(userID, p)
	})
	d.pending[userID] = p
}

// Cancel drops the user's pending round, if any. Idempotent; after Cancel
// returns no residual callback fires for that scheduling.
func (d *Debouncer) Cancel(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[userID]; ok {
		p.timer.Stop()
		delete(d.pending, userID)
	}
}

// CancelAll drops every pending round. Used by the reset coordinator.
func (d *Debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for userID, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, userID)
	}
}

// Pending reports the number of scheduled rounds.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// fire runs on the timer goroutine. The pending entry is removed before the
// callback runs, so a Trigger arriving during the callback schedules a fresh
// round instead of mutating a fired one. The pointer check makes a stale
// callback harmless when Trigger replaced the round after its timer fired.
func (d *Debouncer) fire(userID string, p *pendingRound) {
	d.mu.Lock()
	cur, ok := d.pending[userID]
	if !ok || cur != p {
		// Cancelled or replaced between the timer firing and the lock.
		d.mu.Unlock()
		return
	}
	delete(d.pending, userID)
	payload := cur.payload
	d.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			lg := d.logger
			if lg == nil {
				lg = logger.Get().Named("debounce")
			}
			lg.Error(context.Background(), "decision callback panicked",
				logger.String("userID", userID),
				logger.Any("panic", r),
			)
		}
	}()
	d.callback(userID, payload)
}
