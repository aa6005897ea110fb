// Package state holds participant lifecycle records, the singleton shared
// decision, and device heartbeat bookkeeping.
package state

import (
	"sync"
	"time"

	"github.com/ericggul/moodscape/internal/domain/env"
	"github.com/ericggul/moodscape/internal/domain/normalize"
)

// Voice is a user's last spoken input.
type Voice struct {
	Text    string    `json:"text"`
	Emotion string    `json:"emotion"`
	Score   float64   `json:"score"`
	TS      time.Time `json:"ts"`
}

// UserDecision records both what the user asked for and what went live, so a
// UI can show the difference.
type UserDecision struct {
	Individual env.Environment `json:"individual"`
	Applied    env.Environment `json:"applied"`
	MergedFrom []string        `json:"mergedFrom"`
	Reason     string          `json:"reason"`
	TS         time.Time       `json:"ts"`
}

// User is one registered participant. Removed only on explicit departure,
// never on timeout.
type User struct {
	UserID       string        `json:"userId"`
	Name         string        `json:"name"`
	LastVoice    *Voice        `json:"lastVoice,omitempty"`
	LastDecision *UserDecision `json:"lastDecision,omitempty"`
	LastSeen     time.Time     `json:"lastSeen"`
}

// Decision is the singleton shared environment, monotonically versioned.
type Decision struct {
	Version        uint64          `json:"version"`
	Env            env.Environment `json:"env"`
	MergedFrom     []string        `json:"mergedFrom"`
	Reason         string          `json:"reason"`
	Flags          normalize.Flags `json:"flags"`
	EmotionKeyword string          `json:"emotionKeyword"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Controller owns users, the decision singleton, and heartbeats. All access
// goes through its lock; callers only ever see copies.
type Controller struct {
	mu          sync.RWMutex
	users       map[string]*User
	decision    Decision
	heartbeats  map[string]time.Time
	deviceSlots []string
	timeout     time.Duration
	defaults    env.Environment
}

// New creates a Controller with configuration options.
func New(opts ...Option) *Controller {
	c := &Controller{
		users:       make(map[string]*User),
		heartbeats:  make(map[string]time.Time),
		deviceSlots: defaultDeviceSlots,
		timeout:     defaultDeviceTimeout,
		defaults:    env.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.decision = c.freshDecision()
	return c
}

func (c *Controller) freshDecision() Decision {
	return Decision{
		Version: 0,
		Env:     c.defaults,
		Reason:  "idle",
	}
}

// EnsureUser creates the user on first reference; otherwise it only touches
// the last-seen marker. Returns true when a user was created.
func (c *Controller) EnsureUser(userID string, ts time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u, ok := c.users[userID]; ok {
		u.LastSeen = ts
		return false
	}
	c.users[userID] = &User{
		UserID:   userID,
		Name:     userID,
		LastSeen: ts,
	}
	return true
}

// UpdateUserName renames a user. Unknown users are a no-op.
func (c *Controller) UpdateUserName(userID, name string, ts time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users[userID]
	if !ok {
		return false
	}
	if name != "" {
		u.Name = name
	}
	u.LastSeen = ts
	return true
}

// UpdateUserVoice records the user's last spoken input. Unknown users are a
// no-op.
func (c *Controller) UpdateUserVoice(userID string, voice Voice) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users[userID]
	if !ok {
		return false
	}
	v := voice
	u.LastVoice = &v
	u.LastSeen = voice.TS
	return true
}

// UpdateUserDecision records a completed round for the user. Unknown users
// are a no-op; a departure can land while the user's round is in flight.
func (c *Controller) UpdateUserDecision(userID string, d UserDecision) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users[userID]
	if !ok {
		return false
	}
	dc := d
	dc.MergedFrom = append([]string(nil), d.MergedFrom...)
	u.LastDecision = &dc
	u.LastSeen = d.TS
	return true
}

// RemoveUser deletes the user. Returns false if unknown.
func (c *Controller) RemoveUser(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.users[userID]; !ok {
		return false
	}
	delete(c.users, userID)
	return true
}

// HasUser reports whether the user is currently registered.
func (c *Controller) HasUser(userID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.users[userID]
	return ok
}

// User returns a copy of the user record.
func (c *Controller) User(userID string) (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	u, ok := c.users[userID]
	if !ok {
		return User{}, false
	}
	return copyUser(u), true
}

// Users returns copies of every registered user.
func (c *Controller) Users() []User {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]User, 0, len(c.users))
	for _, u := range c.users {
		out = append(out, copyUser(u))
	}
	return out
}

// UserCount returns the number of registered users.
func (c *Controller) UserCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}

// SetDecision replaces the shared decision with aggregator output, bumping
// the version. Returns the stored copy.
func (c *Controller) SetDecision(e env.Environment, mergedFrom []string, reason string, flags normalize.Flags, emotionKeyword string, ts time.Time) Decision {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.decision = Decision{
		Version:        c.decision.Version + 1,
		Env:            e,
		MergedFrom:     append([]string(nil), mergedFrom...),
		Reason:         reason,
		Flags:          flags,
		EmotionKeyword: emotionKeyword,
		UpdatedAt:      ts,
	}
	return c.snapshotLocked()
}

// DecisionSnapshot returns a copy of the current shared decision.
func (c *Controller) DecisionSnapshot() Decision {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Decision {
	d := c.decision
	d.MergedFrom = append([]string(nil), c.decision.MergedFrom...)
	return d
}

// Reset clears users and reinitializes the decision with a fresh version
// counter. Heartbeats survive: device liveness is orthogonal to content.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.users = make(map[string]*User)
	c.decision = c.freshDecision()
}

func copyUser(u *User) User {
	out := *u
	if u.LastVoice != nil {
		v := *u.LastVoice
		out.LastVoice = &v
	}
	if u.LastDecision != nil {
		d := *u.LastDecision
		d.MergedFrom = append([]string(nil), u.LastDecision.MergedFrom...)
		out.LastDecision = &d
	}
	return out
}
