package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ericggul/moodscape/internal/adapters/oracle"
	"github.com/ericggul/moodscape/internal/app"
	"github.com/ericggul/moodscape/internal/domain/normalize"
	"github.com/ericggul/moodscape/pkg/logger"
)

// capture collects broadcast frames for assertions.
type capture struct {
	mu     sync.Mutex
	frames []capturedFrame
}

type capturedFrame struct {
	frameType string
	payload   any
}

func (c *capture) Broadcast(_ context.Context, frameType string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, capturedFrame{frameType: frameType, payload: payload})
	return nil
}

func (c *capture) decisions() []app.DecisionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []app.DecisionEvent
	for _, f := range c.frames {
		if e, ok := f.payload.(app.DecisionEvent); ok {
			out = append(out, e)
		}
	}
	return out
}

func (c *capture) softResets() []app.SoftResetEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []app.SoftResetEvent
	for _, f := range c.frames {
		if e, ok := f.payload.(app.SoftResetEvent); ok {
			out = append(out, e)
		}
	}
	return out
}

func (c *capture) waitDecisions(n int, within time.Duration) []app.DecisionEvent {
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if d := c.decisions(); len(d) >= n {
			return d
		}
		time.Sleep(5 * time.Millisecond)
	}
	return c.decisions()
}

// scriptedOracle returns canned raw guesses per user.
type scriptedOracle struct {
	mu      sync.Mutex
	temps   map[string]float64
	failFor map[string]bool
	delay   time.Duration
}

func (o *scriptedOracle) setTemp(userID string, temp float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.temps[userID] = temp
}

func (o *scriptedOracle) Infer(ctx context.Context, req oracle.Request) (oracle.Result, error) {
	if o.delay > 0 {
		select {
		case <-ctx.Done():
			return oracle.Result{}, ctx.Err()
		case <-time.After(o.delay):
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failFor[req.CurrentUser.UserID] {
		return oracle.Result{}, errors.New("scripted failure")
	}
	temp, ok := o.temps[req.CurrentUser.UserID]
	if !ok {
		temp = 22
	}
	hum := 50.0
	return oracle.Result{
		Params: normalize.RawParams{
			Temperature: &temp,
			Humidity:    &hum,
			LightColor:  "#808080",
			Music:       "Clair de Lune",
		},
		Reason:         "scripted",
		EmotionKeyword: "calm",
	}, nil
}

// identityNormalizer removes diversification so numeric assertions are exact.
func identityNormalizer() *normalize.Normalizer {
	return normalize.New(
		normalize.WithTemperatureDeltas([]float64{0}),
		normalize.WithHumidityDeltas([]float64{0}),
		normalize.WithColorJitter(0),
	)
}

func newService(o oracle.Oracle, sink *capture) *app.Service {
	return app.New(
		app.WithDebounceInterval(20*time.Millisecond),
		app.WithOracle(o),
		app.WithNormalizer(identityNormalizer()),
		app.WithBroadcaster(sink),
		app.WithOracleTimeout(500*time.Millisecond),
	)
}

func TestDecisionPipeline(t *testing.T) {
	Convey("Given a started orchestrator", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		bus := &capture{}
		scripted := &scriptedOracle{temps: map[string]float64{"u1": 20, "u2": 24, "u3": 28}}
		svc := newService(scripted, bus)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		now := time.Now()

		Convey("When one user speaks", func() {
			svc.HandleJoin(ctx, "u1", now)
			svc.HandleVoice(ctx, "u1", app.VoicePayload{Text: "calm please", Emotion: "calm", TS: now})

			events := bus.waitDecisions(1, time.Second)

			Convey("Then one decision should be published", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].UserID, ShouldEqual, "u1")
				So(events[0].Individual.Temperature, ShouldEqual, 20)
				So(events[0].Params.Temperature, ShouldEqual, 20)
				So(events[0].MergedFrom, ShouldResemble, []string{"u1"})
				So(events[0].ID, ShouldNotBeEmpty)
			})

			Convey("And the user record should carry the individual decision", func() {
				users := svc.Users()
				So(users, ShouldHaveLength, 1)
				So(users[0].LastDecision, ShouldNotBeNil)
				So(users[0].LastDecision.Individual.Temperature, ShouldEqual, 20)
			})
		})

		Convey("When three users speak", func() {
			for _, id := range []string{"u1", "u2", "u3"} {
				svc.HandleJoin(ctx, id, now)
				svc.HandleVoice(ctx, id, app.VoicePayload{Text: "mood", Emotion: "calm", TS: now})
			}

			events := bus.waitDecisions(3, 2*time.Second)

			Convey("Then the settled decision should be the mean of all three", func() {
				So(len(events), ShouldBeGreaterThanOrEqualTo, 3)
				snap := svc.Snapshot()
				So(snap.Decision.Env.Temperature, ShouldEqual, 24)
				So(snap.Decision.MergedFrom, ShouldHaveLength, 3)
			})

			Convey("And the shared decision version should have advanced", func() {
				snap := svc.Snapshot()
				So(snap.Decision.Version, ShouldBeGreaterThanOrEqualTo, 3)
				So(snap.ActiveEntries, ShouldEqual, 3)
			})
		})

		Convey("When one user speaks across several rounds inside the window", func() {
			svc.HandleJoin(ctx, "u1", now)
			svc.HandleJoin(ctx, "u2", now)

			svc.HandleVoice(ctx, "u1", app.VoicePayload{Text: "mood", TS: now})
			svc.HandleVoice(ctx, "u2", app.VoicePayload{Text: "mood", TS: now})
			So(bus.waitDecisions(2, 2*time.Second), ShouldHaveLength, 2)

			scripted.setTemp("u1", 30)
			svc.HandleVoice(ctx, "u1", app.VoicePayload{Text: "warmer", TS: time.Now()})
			bus.waitDecisions(3, 2*time.Second)

			Convey("Then only their newest entry should count in the merge", func() {
				snap := svc.Snapshot()
				So(snap.Decision.Env.Temperature, ShouldEqual, 27)
				So(snap.Decision.MergedFrom, ShouldHaveLength, 2)
			})
		})

		Convey("When a burst of voice events arrives within the quiet interval", func() {
			svc.HandleJoin(ctx, "u1", now)
			for i := 0; i < 5; i++ {
				svc.HandleVoice(ctx, "u1", app.VoicePayload{Text: "calm", Emotion: "calm", TS: now})
			}
			time.Sleep(300 * time.Millisecond)

			Convey("Then exactly one decision round should run", func() {
				So(bus.decisions(), ShouldHaveLength, 1)
			})
		})
	})
}

func TestFallbackRound(t *testing.T) {
	Convey("Given an orchestrator whose oracle fails", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		bus := &capture{}
		scripted := &scriptedOracle{failFor: map[string]bool{"u1": true}}
		svc := newService(scripted, bus)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the user speaks", func() {
			now := time.Now()
			svc.HandleJoin(ctx, "u1", now)
			svc.HandleVoice(ctx, "u1", app.VoicePayload{Text: "anything", TS: now})

			events := bus.waitDecisions(1, time.Second)

			Convey("Then a complete fallback decision should still be published", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Reason, ShouldEqual, normalize.FallbackReason)
				So(events[0].Params.Valid(), ShouldBeTrue)
			})
		})

		Convey("When the failing user uses explicit climate wording", func() {
			now := time.Now()
			svc.HandleJoin(ctx, "u1", now)
			svc.HandleVoice(ctx, "u1", app.VoicePayload{Text: "very cold please", TS: now})

			events := bus.waitDecisions(1, time.Second)

			Convey("Then the override should win even on the fallback path", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Individual.Temperature, ShouldEqual, normalize.VeryColdTemperature)
			})
		})
	})
}

func TestDepartureRaces(t *testing.T) {
	Convey("Given an orchestrator with a slow oracle", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		bus := &capture{}
		scripted := &scriptedOracle{temps: map[string]float64{"u1": 25}, delay: 100 * time.Millisecond}
		svc := newService(scripted, bus)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the user leaves while inference is in flight", func() {
			now := time.Now()
			svc.HandleJoin(ctx, "u1", now)
			svc.HandleVoice(ctx, "u1", app.VoicePayload{Text: "calm", TS: now})

			// Let the debounce fire and the oracle call begin, then depart.
			time.Sleep(50 * time.Millisecond)
			svc.HandleLeave(ctx, "u1")
			time.Sleep(300 * time.Millisecond)

			Convey("Then the late result should be discarded", func() {
				So(bus.decisions(), ShouldHaveLength, 0)
				So(svc.Users(), ShouldHaveLength, 0)
			})
		})

		Convey("When a user leaves before the debounce fires", func() {
			now := time.Now()
			svc.HandleJoin(ctx, "u1", now)
			svc.HandleVoice(ctx, "u1", app.VoicePayload{Text: "calm", TS: now})
			svc.HandleLeave(ctx, "u1")
			time.Sleep(300 * time.Millisecond)

			Convey("Then no round should run at all", func() {
				So(bus.decisions(), ShouldHaveLength, 0)
			})
		})
	})
}

func TestResetCoordination(t *testing.T) {
	Convey("Given an orchestrator with active users", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		bus := &capture{}
		scripted := &scriptedOracle{temps: map[string]float64{"u1": 20, "u2": 28}}
		svc := newService(scripted, bus)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		now := time.Now()
		for _, id := range []string{"u1", "u2"} {
			svc.HandleJoin(ctx, id, now)
			svc.HandleVoice(ctx, id, app.VoicePayload{Text: "mood", TS: now})
		}
		bus.waitDecisions(2, 2*time.Second)

		Convey("When reset fires", func() {
			event := svc.HandleReset(ctx, "operator")

			Convey("Then one soft reset should be emitted with a correlation id", func() {
				resets := bus.softResets()
				So(resets, ShouldHaveLength, 1)
				So(resets[0].ID, ShouldEqual, event.ID)
				So(resets[0].Source, ShouldEqual, "operator")
			})

			Convey("And state should be reinitialized", func() {
				snap := svc.Snapshot()
				So(snap.Decision.Version, ShouldEqual, 0)
				So(snap.Users, ShouldHaveLength, 0)
				So(snap.ActiveEntries, ShouldEqual, 0)
			})

			Convey("And a decision for a previously-active user should run against empty state", func() {
				before := len(bus.decisions())
				svc.HandleJoin(ctx, "u1", time.Now())
				svc.HandleVoice(ctx, "u1", app.VoicePayload{Text: "mood", TS: time.Now()})

				events := bus.waitDecisions(before+1, 2*time.Second)
				So(len(events), ShouldEqual, before+1)
				last := events[len(events)-1]
				So(last.MergedFrom, ShouldResemble, []string{"u1"})
				So(last.Params.Temperature, ShouldEqual, 20)
			})
		})
	})
}

func TestEnsureUserIdempotence(t *testing.T) {
	Convey("Given a started orchestrator", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		svc := newService(&scriptedOracle{}, &capture{})
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a user joins twice", func() {
			now := time.Now()
			svc.HandleJoin(ctx, "u1", now)
			svc.HandleJoin(ctx, "u1", now.Add(time.Second))

			Convey("Then the registry should hold one user", func() {
				So(svc.Users(), ShouldHaveLength, 1)
			})
		})

		Convey("When renaming", func() {
			now := time.Now()
			svc.HandleJoin(ctx, "u1", now)
			svc.HandleRename(ctx, "u1", "Mina", now)

			Convey("Then the name should stick", func() {
				So(svc.Users()[0].Name, ShouldEqual, "Mina")
			})
		})
	})
}
