package registry_test

import (
	"testing"
	"time"

	"github.com/ericggul/moodscape/internal/adapters/registry"
	"github.com/ericggul/moodscape/internal/domain/env"
	. "github.com/smartystreets/goconvey/convey"
)

func entryAt(id, user string, createdAt time.Time) registry.Entry {
	return registry.Entry{
		ID:        id,
		UserID:    user,
		Params:    env.Default(),
		CreatedAt: createdAt,
	}
}

func TestMemStore(t *testing.T) {
	Convey("Given a store with a 30s window", t, func() {
		s := registry.NewMemStore(registry.WithWindow(30 * time.Second))
		base := time.Unix(1_700_000_000, 0)

		Convey("When entries are persisted", func() {
			s.Persist(entryAt("e1", "u1", base))
			s.Persist(entryAt("e2", "u2", base.Add(5*time.Second)))
			s.Persist(entryAt("e3", "u1", base.Add(10*time.Second)))

			Convey("Then ActiveEntries should return them in insertion order", func() {
				active := s.ActiveEntries(base.Add(12 * time.Second))
				So(active, ShouldHaveLength, 3)
				So(active[0].ID, ShouldEqual, "e1")
				So(active[2].ID, ShouldEqual, "e3")
			})

			Convey("Then entries older than the window should be excluded", func() {
				active := s.ActiveEntries(base.Add(35 * time.Second))
				So(active, ShouldHaveLength, 2)
				So(active[0].ID, ShouldEqual, "e2")
			})

			Convey("Then an entry exactly at the window edge should still count", func() {
				active := s.ActiveEntries(base.Add(30 * time.Second))
				So(active, ShouldHaveLength, 3)
			})

			Convey("Then expired entries should be compacted out of the store", func() {
				_ = s.ActiveEntries(base.Add(45 * time.Second))
				So(s.Len(), ShouldEqual, 0)
			})

			Convey("When a user departs", func() {
				s.Remove("u1")

				Convey("Then only that user's entries should be purged", func() {
					active := s.ActiveEntries(base.Add(12 * time.Second))
					So(active, ShouldHaveLength, 1)
					So(active[0].UserID, ShouldEqual, "u2")
				})
			})

			Convey("When the store is cleared", func() {
				s.Clear()

				Convey("Then nothing should remain", func() {
					So(s.Len(), ShouldEqual, 0)
					So(s.ActiveEntries(base), ShouldHaveLength, 0)
				})
			})
		})

		Convey("When removing an unknown user", func() {
			So(func() { s.Remove("ghost") }, ShouldNotPanic)
		})
	})
}
