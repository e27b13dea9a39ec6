package debounce

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/growthring/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"
)

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) afterFunc(_ time.Duration, f func()) stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

// elapse fires every timer that was not stopped, like the window running out.
func (c *fakeClock) elapse() {
	c.mu.Lock()
	ts := c.timers
	c.timers = nil
	c.mu.Unlock()
	for _, t := range ts {
		if !t.stopped {
			t.f()
		}
	}
}

func withFakeClock(t *testing.T) *fakeClock {
	c := &fakeClock{}
	orig := afterFunc
	afterFunc = c.afterFunc
	t.Cleanup(func() { afterFunc = orig })
	return c
}

func TestDebouncer(t *testing.T) {
	convey.Convey("Given a debouncer", t, func() {
		clock := withFakeClock(t)
		var emitted []int
		d := New(300*time.Millisecond, 0, func(v int) { emitted = append(emitted, v) })

		convey.Convey("When 10, 20 and 30 arrive inside one window", func() {
			d.Push(10)
			d.Push(20)
			d.Push(30)

			convey.Convey("Then nothing settles before the window elapses", func() {
				convey.So(emitted, convey.ShouldBeEmpty)
				convey.So(d.Value(), convey.ShouldEqual, 0)
				convey.So(d.Pending(), convey.ShouldBeTrue)
			})

			convey.Convey("Then exactly one emission of 30 follows", func() {
				clock.elapse()
				convey.So(emitted, convey.ShouldResemble, []int{30})
				convey.So(d.Value(), convey.ShouldEqual, 30)
				convey.So(d.Pending(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a stale timer fires after a newer push", func() {
			d.Push(10)
			stale := clock.timers[0]
			d.Push(20)
			stale.f()

			convey.Convey("Then the stale value is never published", func() {
				convey.So(emitted, convey.ShouldBeEmpty)
				clock.elapse()
				convey.So(emitted, convey.ShouldResemble, []int{20})
			})
		})

		convey.Convey("When flushed", func() {
			d.Push(7)
			convey.So(d.Flush(), convey.ShouldBeTrue)

			convey.Convey("Then the value settles synchronously and the timer is inert", func() {
				convey.So(emitted, convey.ShouldResemble, []int{7})
				clock.elapse()
				convey.So(emitted, convey.ShouldResemble, []int{7})
				convey.So(d.Flush(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When stopped", func() {
			d.Push(5)
			d.Stop()
			clock.elapse()

			convey.Convey("Then the pending value is dropped", func() {
				convey.So(emitted, convey.ShouldBeEmpty)
				convey.So(d.Value(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestProgress(t *testing.T) {
	convey.Convey("Given debounced progress inputs", t, func() {
		clock := withFakeClock(t)
		m := metrics.New()
		var got []float64
		p := NewProgress(0, 0, 100, func(pct float64) { got = append(got, pct) }, WithMetrics(m))

		convey.Convey("When the current value is typed quickly", func() {
			p.SetCurrent(1)
			p.SetCurrent(12)
			p.SetCurrent(42)
			clock.elapse()

			convey.Convey("Then one percentage is emitted", func() {
				convey.So(got, convey.ShouldResemble, []float64{42})
				convey.So(p.Percent(), convey.ShouldEqual, 42)
				expected := `
# HELP growthring_debounce_emissions_total Settled progress values emitted by the debouncer.
# TYPE growthring_debounce_emissions_total counter
growthring_debounce_emissions_total 1
`
				err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "growthring_debounce_emissions_total")
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When current overshoots the target", func() {
			p.SetCurrent(250)
			p.Flush()

			convey.Convey("Then progress is clamped to 100", func() {
				convey.So(p.Percent(), convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When the target is set to zero", func() {
			p.SetCurrent(10)
			p.SetTarget(0)
			p.Flush()

			convey.Convey("Then progress is guarded to 0", func() {
				convey.So(p.Percent(), convey.ShouldEqual, 0)
				cur, tgt := p.Inputs()
				convey.So(cur, convey.ShouldEqual, 10)
				convey.So(tgt, convey.ShouldEqual, 0)
			})
		})
	})
}
