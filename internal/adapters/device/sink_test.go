package device_test

import (
	"context"
	"testing"
	"time"

	"github.com/ericggul/moodscape/internal/adapters/device"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNoopSink(t *testing.T) {
	Convey("Given a noop sink", t, func() {
		var sink device.Sink = device.NoopSink{}

		Convey("When sending commands", func() {
			So(func() {
				sink.Send(context.Background(), "climate", device.Command{
					Param: "temperature",
					Value: 24,
					TS:    time.Now(),
				})
				sink.Close()
			}, ShouldNotPanic)
		})
	})
}

func TestMQTTSinkUnreachableBroker(t *testing.T) {
	Convey("Given an unreachable broker", t, func() {
		Convey("When constructing the sink", func() {
			sink, err := device.NewMQTTSink("tcp://127.0.0.1:1", "moodscape/device", nil)

			Convey("Then construction should fail instead of hanging", func() {
				So(err, ShouldNotBeNil)
				So(sink, ShouldBeNil)
			})
		})
	})
}
