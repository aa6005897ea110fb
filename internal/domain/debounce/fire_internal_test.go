package debounce

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ericggul/moodscape/pkg/logger"
)

// tap records callback invocations with their arrival time.
type tap struct {
	mu    sync.Mutex
	calls []tapCall
}

type tapCall struct {
	payload any
	at      time.Time
}

func (c *tap) callback(_ string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, tapCall{payload: payload, at: time.Now()})
}

func (c *tap) snapshot() []tapCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]tapCall, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *tap) waitCalls(n int, within time.Duration) []tapCall {
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if calls := c.snapshot(); len(calls) >= n {
			return calls
		}
		time.Sleep(2 * time.Millisecond)
	}
	return c.snapshot()
}

func TestReplacedRoundFiring(t *testing.T) {
	Convey("Given a pending round whose timer fired just as a new voice event lands", t, func() {
		So(logger.Init(), ShouldBeNil)

		const interval = 50 * time.Millisecond
		rec := &tap{}
		d := New(rec.callback, WithInterval(interval))
		defer d.CancelAll()

		// First round, then force the state Trigger sees when Stop() returns
		// false: the old timer has fired but its callback has not consumed
		// the entry yet.
		d.Trigger("u1", "first")
		d.mu.Lock()
		stale := d.pending["u1"]
		stale.timer.Stop()
		replacedAt := time.Now()
		d.schedule("u1", "second")
		d.mu.Unlock()

		Convey("When the stale callback runs", func() {
			d.fire("u1", stale)

			Convey("Then it should not consume the replacement round", func() {
				So(rec.snapshot(), ShouldHaveLength, 0)
				So(d.Pending(), ShouldEqual, 1)
			})

			Convey("And the replacement should fire once, after a full quiet interval", func() {
				calls := rec.waitCalls(1, time.Second)
				So(calls, ShouldHaveLength, 1)
				So(calls[0].payload, ShouldEqual, "second")
				So(calls[0].at.Sub(replacedAt), ShouldBeGreaterThanOrEqualTo, interval)

				time.Sleep(2 * interval)
				So(rec.snapshot(), ShouldHaveLength, 1)
			})
		})
	})
}
