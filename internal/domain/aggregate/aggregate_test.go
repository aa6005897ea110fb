package aggregate_test

import (
	"math/rand"
	"testing"

	"github.com/ericggul/moodscape/internal/domain/aggregate"
	"github.com/ericggul/moodscape/internal/domain/env"
	. "github.com/smartystreets/goconvey/convey"
)

func pref(user string, temp, hum float64, color, music string) aggregate.Preference {
	return aggregate.Preference{
		UserID: user,
		Params: env.Environment{
			Temperature: temp,
			Humidity:    hum,
			LightColor:  color,
			Music:       music,
		},
	}
}

func TestFairAverage(t *testing.T) {
	Convey("Given the fair aggregator", t, func() {
		defaults := env.Default()

		Convey("When the active set is empty", func() {
			merged := aggregate.FairAverage(nil, defaults)

			Convey("Then defaults should be returned", func() {
				So(merged, ShouldResemble, defaults)
			})
		})

		Convey("When three users prefer 20, 24, and 28 degrees", func() {
			prefs := []aggregate.Preference{
				pref("u1", 20, 40, "#FF0000", "A"),
				pref("u2", 24, 50, "#00FF00", "A"),
				pref("u3", 28, 60, "#0000FF", "B"),
			}
			merged := aggregate.FairAverage(prefs, defaults)

			Convey("Then the aggregate temperature should be 24", func() {
				So(merged.Temperature, ShouldEqual, 24)
			})

			Convey("And humidity should be the rounded mean", func() {
				So(merged.Humidity, ShouldEqual, 50)
			})

			Convey("And light should average per RGB channel", func() {
				So(merged.LightColor, ShouldEqual, env.EncodeHexColor(85, 85, 85))
			})

			Convey("And music 'A' should win the majority vote", func() {
				So(merged.Music, ShouldEqual, "A")
			})
		})

		Convey("When music votes tie", func() {
			prefs := []aggregate.Preference{
				pref("u1", 22, 50, "#336699", "B"),
				pref("u2", 22, 50, "#336699", "A"),
				pref("u3", 22, 50, "#336699", "A"),
				pref("u4", 22, 50, "#336699", "B"),
			}
			merged := aggregate.FairAverage(prefs, defaults)

			Convey("Then the first-seen candidate should win", func() {
				So(merged.Music, ShouldEqual, "B")
			})
		})

		Convey("When the entry order is shuffled", func() {
			prefs := []aggregate.Preference{
				pref("u1", 19, 35, "#102030", "A"),
				pref("u2", 23, 45, "#405060", "A"),
				pref("u3", 27, 55, "#708090", "A"),
				pref("u4", 31, 65, "#A0B0C0", "A"),
			}
			base := aggregate.FairAverage(prefs, defaults)

			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 10; i++ {
				shuffled := make([]aggregate.Preference, len(prefs))
				copy(shuffled, prefs)
				rng.Shuffle(len(shuffled), func(a, b int) {
					shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
				})
				merged := aggregate.FairAverage(shuffled, defaults)

				Convey("Then temperature, humidity, and light should be order-independent (run "+string(rune('a'+i))+")", func() {
					So(merged.Temperature, ShouldEqual, base.Temperature)
					So(merged.Humidity, ShouldEqual, base.Humidity)
					So(merged.LightColor, ShouldEqual, base.LightColor)
				})
			}
		})

		Convey("When one user left several entries in the window", func() {
			prefs := []aggregate.Preference{
				pref("u1", 20, 40, "#FF0000", "A"),
				pref("u2", 20, 40, "#FF0000", "B"),
				pref("u1", 30, 60, "#0000FF", "B"),
			}
			merged := aggregate.FairAverage(prefs, defaults)

			Convey("Then only their newest entry should count as a vote", func() {
				So(merged.Temperature, ShouldEqual, 25)
				So(merged.Humidity, ShouldEqual, 50)
			})

			Convey("And their stale color sample should be dropped", func() {
				So(merged.LightColor, ShouldEqual, env.EncodeHexColor(128, 0, 128))
			})
		})

		Convey("When one user repeats a music choice the group outvotes", func() {
			prefs := []aggregate.Preference{
				pref("u1", 22, 50, "#336699", "A"),
				pref("u2", 22, 50, "#336699", "B"),
				pref("u1", 22, 50, "#336699", "A"),
				pref("u3", 22, 50, "#336699", "B"),
			}
			merged := aggregate.FairAverage(prefs, defaults)

			Convey("Then their repeated vote should not stack against the majority", func() {
				So(merged.Music, ShouldEqual, "B")
			})
		})

		Convey("When rounding applies", func() {
			prefs := []aggregate.Preference{
				pref("u1", 20, 50, "#000000", "A"),
				pref("u2", 21, 50, "#000001", "A"),
			}
			merged := aggregate.FairAverage(prefs, defaults)

			Convey("Then halves should round away from zero to the nearest unit", func() {
				So(merged.Temperature, ShouldEqual, 21)
			})
		})
	})
}

func TestMergedFrom(t *testing.T) {
	Convey("Given a preference history", t, func() {
		prefs := []aggregate.Preference{
			pref("u1", 20, 50, "#336699", "A"),
			pref("u2", 22, 50, "#336699", "A"),
			pref("u1", 24, 50, "#336699", "B"),
			pref("u3", 26, 50, "#336699", "A"),
		}

		Convey("When deriving contributors", func() {
			ids := aggregate.MergedFrom(prefs)

			Convey("Then ids should be de-duplicated and ordered by most recent contribution", func() {
				So(ids, ShouldResemble, []string{"u3", "u1", "u2"})
			})
		})

		Convey("When the set is empty", func() {
			So(aggregate.MergedFrom(nil), ShouldHaveLength, 0)
		})
	})
}
