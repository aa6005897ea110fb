// Package app wires the orchestration core: debounced decision rounds,
// preference aggregation, participant lifecycle, and the global reset.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ericggul/moodscape/internal/adapters/device"
	"github.com/ericggul/moodscape/internal/adapters/oracle"
	"github.com/ericggul/moodscape/internal/adapters/registry"
	"github.com/ericggul/moodscape/internal/adapters/state"
	"github.com/ericggul/moodscape/internal/domain/aggregate"
	"github.com/ericggul/moodscape/internal/domain/debounce"
	"github.com/ericggul/moodscape/internal/domain/env"
	"github.com/ericggul/moodscape/internal/domain/normalize"
	"github.com/ericggul/moodscape/pkg/logger"
	"github.com/ericggul/moodscape/pkg/metrics"
)

// Broadcaster fans outbound frames to display clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, frameType string, payload any) error
}

// Service is the orchestrator. All mutation of the preference registry, the
// user registry, and the decision state is serialized through one mutex; the
// only blocking call, inference, happens outside it.
type Service struct {
	mu sync.Mutex // single-writer lock over store + control

	store      *registry.MemStore
	control    *state.Controller
	debouncer  *debounce.Debouncer
	normalizer *normalize.Normalizer
	oracle     oracle.Oracle
	sink       device.Sink
	publisher  Broadcaster

	// roundLocks keeps decision rounds strictly sequential per user.
	roundMu    sync.Mutex
	roundLocks map[string]*sync.Mutex

	debounceInterval time.Duration
	window           time.Duration
	deviceTimeout    time.Duration
	oracleTimeout    time.Duration
	defaults         env.Environment

	started bool
	logger  logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		roundLocks:       make(map[string]*sync.Mutex),
		debounceInterval: defaultDebounceInterval,
		window:           defaultWindow,
		deviceTimeout:    defaultDeviceTimeout,
		oracleTimeout:    defaultOracleTimeout,
		defaults:         env.Default(),
		sink:             device.NoopSink{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the orchestrator components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("orchestrator")
	}

	s.store = registry.NewMemStore(registry.WithWindow(s.window))
	s.control = state.New(
		state.WithDeviceTimeout(s.deviceTimeout),
		state.WithDefaultEnvironment(s.defaults),
	)
	if s.normalizer == nil {
		s.normalizer = normalize.New(normalize.WithDefaultEnvironment(s.defaults))
	}
	if s.oracle == nil {
		s.oracle = oracle.NewFakeOracle()
	}
	s.debouncer = debounce.New(s.runRound,
		debounce.WithInterval(s.debounceInterval),
		debounce.WithLogger(s.logger),
	)

	s.started = true
	s.logger.Info(ctx, "orchestrator started",
		logger.Duration("debounce", s.debounceInterval),
		logger.Duration("window", s.window),
		logger.Duration("oracleTimeout", s.oracleTimeout),
	)
	return nil
}

// Stop cancels pending work and releases the device connection.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.debouncer.CancelAll()
	s.sink.Close()
	s.started = false
	s.logger.Info(context.Background(), "orchestrator stopped")
}

// HandleJoin ensures the user exists.
func (s *Service) HandleJoin(ctx context.Context, userID string, ts time.Time) {
	if userID == "" {
		return
	}
	if s.control.EnsureUser(userID, ts) {
		s.logger.Info(ctx, "user joined", logger.String("userID", userID))
	}
	metrics.UpdateActiveUsers(s.control.UserCount())
}

// HandleRename updates the user's display name. Unknown users are a no-op.
func (s *Service) HandleRename(ctx context.Context, userID, name string, ts time.Time) {
	if !s.control.UpdateUserName(userID, name, ts) {
		s.logger.Debug(ctx, "rename for unknown user", logger.String("userID", userID))
	}
}

// HandleVoice records the spoken input and schedules a debounced decision
// round. Bursts within the quiet interval coalesce to the last payload.
func (s *Service) HandleVoice(ctx context.Context, userID string, payload VoicePayload) {
	if userID == "" {
		return
	}
	metrics.RecordVoiceEvent()

	s.control.EnsureUser(userID, payload.TS)
	s.control.UpdateUserVoice(userID, state.Voice{
		Text:    payload.Text,
		Emotion: payload.Emotion,
		Score:   payload.Score,
		TS:      payload.TS,
	})

	if s.debouncer.Trigger(userID, payload) {
		metrics.RecordVoiceCoalesced()
	}
	metrics.UpdatePendingTimers(s.debouncer.Pending())
}

// HandleLeave cancels pending work, purges the user's preferences, and
// removes the user. Any in-flight round for the user becomes a no-op at
// write-back.
func (s *Service) HandleLeave(ctx context.Context, userID string) {
	s.debouncer.Cancel(userID)
	metrics.UpdatePendingTimers(s.debouncer.Pending())

	s.mu.Lock()
	s.store.Remove(userID)
	removed := s.control.RemoveUser(userID)
	s.mu.Unlock()

	if removed {
		s.logger.Info(ctx, "user left", logger.String("userID", userID))
	}
	metrics.UpdateActiveUsers(s.control.UserCount())
}

// HandleDeviceHeartbeat refreshes the device's liveness record.
func (s *Service) HandleDeviceHeartbeat(_ context.Context, deviceID string, ts time.Time) {
	s.control.RecordHeartbeat(deviceID, ts)
}

// HandleReset clears all orchestrator state and then, only then, emits one
// soft reset so displays reset their local timelines. A decision racing the
// reset re-runs against clean state or no-ops at write-back.
func (s *Service) HandleReset(ctx context.Context, source string) SoftResetEvent {
	s.debouncer.CancelAll()
	metrics.UpdatePendingTimers(0)

	s.mu.Lock()
	s.store.Clear()
	s.control.Reset()
	s.mu.Unlock()

	metrics.RecordReset()
	metrics.UpdateActiveUsers(0)
	metrics.UpdateActiveEntries(0)
	metrics.UpdateDecisionVersion(0)

	event := SoftResetEvent{
		ID:     uuid.NewString(),
		TS:     time.Now(),
		Source: source,
	}
	s.publish(ctx, FrameSoftReset, event)
	s.logger.Info(ctx, "soft reset", logger.String("id", event.ID), logger.String("source", source))
	return event
}

// runRound is the debounce callback: one decision round for one user.
func (s *Service) runRound(userID string, payload any) {
	voice, ok := payload.(VoicePayload)
	if !ok {
		return
	}

	// Strictly sequential per user; other users' rounds are unaffected.
	lock := s.roundLock(userID)
	lock.Lock()
	defer lock.Unlock()

	ctx := context.Background()
	metrics.UpdatePendingTimers(s.debouncer.Pending())

	user, registered := s.control.User(userID)
	if !registered {
		return
	}

	var previous *env.Environment
	if user.LastDecision != nil {
		prev := user.LastDecision.Individual
		previous = &prev
	}

	// The only blocking call. Hard timeout, independent of the caller, run
	// outside the state lock so one slow inference cannot delay anyone else.
	inferCtx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	start := time.Now()
	result, err := s.oracle.Infer(inferCtx, oracle.Request{
		CurrentEnvironment: s.control.DecisionSnapshot().Env,
		CurrentUser: oracle.UserContext{
			UserID:  userID,
			Name:    user.Name,
			Text:    voice.Text,
			Emotion: voice.Emotion,
			Score:   voice.Score,
		},
	})
	cancel()
	metrics.RecordOracleLatency(float64(time.Since(start).Milliseconds()))

	in := normalize.Input{
		Text:     voice.Text,
		UserID:   userID,
		Previous: previous,
		Now:      time.Now(),
	}
	if err != nil {
		s.logger.Warn(ctx, "inference failed, using fallback",
			logger.String("userID", userID),
			logger.Error(err),
		)
	} else {
		in.Raw = &result.Params
		in.Reason = result.Reason
		in.Flags = &result.Flags
		in.EmotionKeyword = result.EmotionKeyword
	}

	out := s.normalizer.Normalize(in)
	metrics.RecordDecisionRound()
	if out.Fallback {
		metrics.RecordDecisionFallback()
	}
	if out.Overridden {
		metrics.RecordClimateOverride()
	}

	event, applied := s.commit(userID, out)
	if !applied {
		// User departed (or a reset fired) while inference was in flight.
		s.logger.Debug(ctx, "discarding round for unregistered user", logger.String("userID", userID))
		return
	}

	s.publish(ctx, FrameDecision, event)
	s.sendDeviceCommands(ctx, event.Params)
}

// commit writes a completed round back under the single-writer lock:
// persist the preference, recompute the merged environment over the active
// window, and record both results. Returns false when the user is no longer
// registered.
func (s *Service) commit(userID string, out normalize.Output) (DecisionEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.control.HasUser(userID) {
		return DecisionEvent{}, false
	}

	now := time.Now()
	s.store.Persist(registry.Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Params:    out.Env,
		CreatedAt: now,
	})

	active := s.store.ActiveEntries(now)
	prefs := make([]aggregate.Preference, len(active))
	for i, e := range active {
		prefs[i] = aggregate.Preference{UserID: e.UserID, Params: e.Params}
	}

	merged := aggregate.FairAverage(prefs, s.defaults)
	mergedFrom := aggregate.MergedFrom(prefs)
	decision := s.control.SetDecision(merged, mergedFrom, out.Reason, out.Flags, out.EmotionKeyword, now)

	s.control.UpdateUserDecision(userID, state.UserDecision{
		Individual: out.Env,
		Applied:    merged,
		MergedFrom: mergedFrom,
		Reason:     out.Reason,
		TS:         now,
	})

	metrics.RecordMergeRecompute()
	metrics.UpdateActiveEntries(len(active))
	metrics.UpdateDecisionVersion(decision.Version)

	return DecisionEvent{
		ID:             uuid.NewString(),
		TS:             now,
		UserID:         userID,
		Params:         merged,
		Reason:         out.Reason,
		Flags:          out.Flags,
		EmotionKeyword: out.EmotionKeyword,
		MergedFrom:     mergedFrom,
		Individual:     out.Env,
	}, true
}

// publish sends an outbound frame, logging and dropping failures. State is
// already consistent; the next successful publish carries it.
func (s *Service) publish(ctx context.Context, frameType string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Broadcast(ctx, frameType, payload); err != nil {
		metrics.RecordPublishError()
		s.logger.Warn(ctx, "publish failed", logger.String("type", frameType), logger.Error(err))
	}
}

// sendDeviceCommands pushes the merged environment to physical controllers,
// one parameter per call.
func (s *Service) sendDeviceCommands(ctx context.Context, merged env.Environment) {
	now := time.Now()
	s.sink.Send(ctx, "climate", device.Command{Param: "temperature", Value: merged.Temperature, TS: now})
	s.sink.Send(ctx, "climate", device.Command{Param: "humidity", Value: merged.Humidity, TS: now})
	s.sink.Send(ctx, "light", device.Command{Param: "color", Value: merged.LightColor, TS: now})
	s.sink.Send(ctx, "screen", device.Command{Param: "music", Value: merged.Music, TS: now})
}

func (s *Service) roundLock(userID string) *sync.Mutex {
	s.roundMu.Lock()
	defer s.roundMu.Unlock()

	lock, ok := s.roundLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.roundLocks[userID] = lock
	}
	return lock
}

// Snapshot bundles the read model served by the HTTP API.
type Snapshot struct {
	Decision      state.Decision `json:"decision"`
	Users         []state.User   `json:"users"`
	ActiveEntries int            `json:"activeEntries"`
}

// Snapshot returns the current decision, users, and active entry count.
func (s *Service) Snapshot() Snapshot {
	now := time.Now()
	return Snapshot{
		Decision:      s.control.DecisionSnapshot(),
		Users:         s.control.Users(),
		ActiveEntries: len(s.store.ActiveEntries(now)),
	}
}

// DeviceStatus derives liveness for every device slot.
func (s *Service) DeviceStatus() map[string]string {
	return s.control.DeviceStatus(time.Now())
}

// Users returns copies of every registered user.
func (s *Service) Users() []state.User {
	return s.control.Users()
}
