package logger_test

import (
	"context"
	"testing"

	"github.com/ericggul/moodscape/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When getting the global logger", func() {
			lg := logger.Get()

			Convey("Then it should not be nil", func() {
				So(lg, ShouldNotBeNil)
			})

			Convey("And logging with fields should not panic", func() {
				So(func() {
					lg.Info(context.Background(), "hello",
						logger.String("user", "u1"),
						logger.Int("entries", 3),
						logger.Bool("fallback", false),
					)
				}, ShouldNotPanic)
			})
		})

		Convey("When creating a named logger", func() {
			named := logger.Named("orchestrator")

			Convey("Then it should log without panicking", func() {
				So(func() {
					named.Debug(context.Background(), "debug line")
				}, ShouldNotPanic)
			})
		})

		Convey("When setting log levels by string", func() {
			Convey("Then valid levels should be accepted", func() {
				So(logger.SetLevelString("debug"), ShouldBeNil)
				So(logger.SetLevelString("WARN"), ShouldBeNil)
				So(logger.SetLevelString(""), ShouldBeNil)
			})

			Convey("And unknown levels should be rejected", func() {
				So(logger.SetLevelString("loud"), ShouldNotBeNil)
			})
		})
	})
}
