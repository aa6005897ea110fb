package metrics_test

import (
	"testing"

	"github.com/ericggul/moodscape/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a metrics manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithPrometheusRegistry(reg),
			metrics.WithNamespace("testns"),
			metrics.WithSubsystem("testsub"),
		)

		Convey("Then construction should register without panicking", func() {
			So(m, ShouldNotBeNil)
		})

		Convey("When gathering registered metric families", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)

			names := make(map[string]bool, len(families))
			for _, f := range families {
				names[f.GetName()] = true
			}

			Convey("Then gauges should be present immediately", func() {
				So(names["testns_testsub_active_users"], ShouldBeTrue)
				So(names["testns_testsub_registry_active_entries"], ShouldBeTrue)
				So(names["testns_testsub_decision_version"], ShouldBeTrue)
				So(names["testns_testsub_ws_clients"], ShouldBeTrue)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording through package helpers", func() {
			So(func() {
				metrics.RecordDecisionRound()
				metrics.RecordDecisionFallback()
				metrics.RecordOracleLatency(42.0)
				metrics.RecordVoiceEvent()
				metrics.RecordVoiceCoalesced()
				metrics.UpdatePendingTimers(2)
				metrics.RecordMergeRecompute()
				metrics.UpdateActiveEntries(3)
				metrics.UpdateActiveUsers(3)
				metrics.UpdateDecisionVersion(7)
				metrics.RecordReset()
				metrics.RecordHTTPRequest("voice", "POST", "202")
				metrics.RecordHTTPRequestDuration("voice", "POST", "202", 1.5)
			}, ShouldNotPanic)
		})

		Convey("When fetching the registry for /healthz", func() {
			So(metrics.GetRegistry(), ShouldNotBeNil)
		})
	})
}
