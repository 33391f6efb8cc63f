package dedupe_test

import (
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	dedupe "github.com/vigilance/vanguard/internal/domain/dedupe"
)

func TestSet(t *testing.T) {
	Convey("Given a new Set", t, func() {
		s := dedupe.NewSet()

		Convey("Then it starts empty", func() {
			So(s.IDs(), ShouldBeEmpty)
		})

		Convey("When adding ids with repeats", func() {
			for _, id := range []string{"300", "100", "300", "200", "100"} {
				s.Add(id)
			}

			Convey("Then each id is kept once in first-seen order", func() {
				So(s.IDs(), ShouldResemble, []string{"300", "100", "200"})
			})
		})

		Convey("When adding the same id twice", func() {
			first := s.Add("1")
			second := s.Add("1")

			Convey("Then only the first add reports new", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
			})
		})

		Convey("When the returned ids are modified", func() {
			s.Add("a")
			ids := s.IDs()
			ids[0] = "z"

			Convey("Then the set is unaffected", func() {
				So(s.IDs(), ShouldResemble, []string{"a"})
			})
		})

		Convey("When adding the empty id", func() {
			Convey("Then it is treated like any other id", func() {
				So(s.Add(""), ShouldBeTrue)
				So(s.Add(""), ShouldBeFalse)
			})
		})
	})
}

func TestSetConcurrent(t *testing.T) {
	Convey("Given many goroutines adding overlapping ids", t, func() {
		s := dedupe.NewSet()
		var wg sync.WaitGroup
		var mu sync.Mutex
		added := 0
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 100 {
					if s.Add(fmt.Sprint(i)) {
						mu.Lock()
						added++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then every id is reported new exactly once", func() {
			So(added, ShouldEqual, 100)
			So(s.IDs(), ShouldHaveLength, 100)
		})
	})
}
