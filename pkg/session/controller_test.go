package session

import (
	"testing"
	"time"

	"github.com/matzehuels/pageflow/pkg/doc"
	"github.com/matzehuels/pageflow/pkg/pack"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestControllerDecide(t *testing.T) {
	paged := doc.Stats{Size: 40, TextLength: 20, Blocks: 3, HasPages: true}
	grown := doc.Stats{Size: 42, TextLength: 22, Blocks: 3, HasPages: true}

	tests := []struct {
		name     string
		baseline doc.Stats
		current  doc.Stats
		setup    func(c *Controller, now time.Time)
		want     Decision
	}{
		{
			name:     "nothing changed",
			baseline: paged, current: paged,
			want: DecisionNone,
		},
		{
			name:     "pending change",
			baseline: paged, current: paged,
			setup: func(c *Controller, now time.Time) { c.Observe(Meta{ContentChanged: true}, now) },
			want:  DecisionImmediate,
		},
		{
			name:     "first content into empty document",
			baseline: doc.Stats{Size: 2, Blocks: 1}, current: doc.Stats{Size: 3, TextLength: 1, Blocks: 1},
			want: DecisionImmediate,
		},
		{
			name:     "change without page structure",
			baseline: doc.Stats{Size: 10, TextLength: 6, Blocks: 2}, current: doc.Stats{Size: 11, TextLength: 7, Blocks: 2},
			want: DecisionImmediate,
		},
		{
			name:     "text drift past threshold",
			baseline: paged, current: doc.Stats{Size: 40, TextLength: 30, Blocks: 3, HasPages: true},
			want: DecisionImmediate,
		},
		{
			name:     "text drift within min interval",
			baseline: paged, current: doc.Stats{Size: 40, TextLength: 30, Blocks: 3, HasPages: true},
			setup: func(c *Controller, now time.Time) { c.Succeed(paged, now.Add(-50*time.Millisecond)) },
			want:  DecisionNone,
		},
		{
			name:     "small size change",
			baseline: paged, current: grown,
			want: DecisionDelayed,
		},
		{
			name:     "small size change within min interval",
			baseline: paged, current: grown,
			setup: func(c *Controller, now time.Time) { c.Succeed(paged, now.Add(-50*time.Millisecond)) },
			want:  DecisionNone,
		},
		{
			name:     "recent paste",
			baseline: paged, current: grown,
			setup: func(c *Controller, now time.Time) { c.Observe(Meta{Paste: true}, now.Add(-100*time.Millisecond)) },
			want:  DecisionPasteDeferred,
		},
		{
			name:     "paste grace elapsed",
			baseline: paged, current: grown,
			setup: func(c *Controller, now time.Time) { c.Observe(Meta{Paste: true}, now.Add(-600*time.Millisecond)) },
			want:  DecisionImmediate,
		},
		{
			name:     "pass in flight",
			baseline: paged, current: grown,
			setup: func(c *Controller, now time.Time) {
				c.Observe(Meta{ContentChanged: true}, now)
				c.Begin()
			},
			want: DecisionBusy,
		},
		{
			name:     "breaker open",
			baseline: paged, current: paged,
			setup: func(c *Controller, now time.Time) {
				c.Observe(Meta{ContentChanged: true}, now)
				for range 3 {
					c.Fail(now.Add(-time.Second))
				}
			},
			want: DecisionSuppressed,
		},
		{
			name:     "breaker cooled down",
			baseline: paged, current: paged,
			setup: func(c *Controller, now time.Time) {
				c.Observe(Meta{ContentChanged: true}, now)
				for range 3 {
					c.Fail(now.Add(-6 * time.Second))
				}
			},
			want: DecisionImmediate,
		},
		{
			name:     "two failures keep triggering",
			baseline: paged, current: paged,
			setup: func(c *Controller, now time.Time) {
				c.Observe(Meta{ContentChanged: true}, now)
				c.Fail(now)
				c.Fail(now)
			},
			want: DecisionImmediate,
		},
		{
			name:     "own transaction ignored",
			baseline: paged, current: paged,
			setup: func(c *Controller, now time.Time) {
				c.Observe(Meta{ContentChanged: true, PaginationApplied: true}, now)
			},
			want: DecisionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(DefaultThresholds(), tt.baseline)
			if tt.setup != nil {
				tt.setup(c, t0)
				c.Rebase(tt.baseline)
			}
			if got := c.Decide(tt.current, t0); got != tt.want {
				t.Errorf("Decide() = %s, want %s", got, tt.want)
			}
			if c.State().Baseline != tt.current {
				t.Error("Decide() should move the baseline to the current stats")
			}
		})
	}
}

func TestControllerSucceedResets(t *testing.T) {
	c := NewController(DefaultThresholds(), doc.Stats{})
	c.Observe(Meta{ContentChanged: true}, t0)
	c.Fail(t0)
	c.Fail(t0)

	done := doc.Stats{Size: 30, TextLength: 12, Blocks: 2, HasPages: true}
	c.Succeed(done, t0.Add(time.Second))

	s := c.State()
	if s.Failures != 0 || s.Pending {
		t.Errorf("after Succeed: failures = %d, pending = %v", s.Failures, s.Pending)
	}
	if s.LastTextLength != 12 || !s.LastRepagination.Equal(t0.Add(time.Second)) {
		t.Errorf("after Succeed: text length %d at %v", s.LastTextLength, s.LastRepagination)
	}
	if s.Baseline != done {
		t.Errorf("Baseline = %+v, want %+v", s.Baseline, done)
	}
}

func TestControllerFailKeepsPending(t *testing.T) {
	c := NewController(DefaultThresholds(), doc.Stats{})
	c.Observe(Meta{ContentChanged: true}, t0)
	c.Fail(t0)
	if s := c.State(); !s.Pending || s.Failures != 1 || !s.LastFailure.Equal(t0) {
		t.Errorf("after Fail: %+v", s)
	}
}

func TestControllerMode(t *testing.T) {
	c := NewController(DefaultThresholds(), doc.Stats{})
	if c.Mode() != pack.ModeStrict {
		t.Errorf("initial Mode() = %s, want strict", c.Mode())
	}
	c.Observe(Meta{Paste: true}, t0)
	if c.Mode() != pack.ModeBulk {
		t.Errorf("Mode() after paste = %s, want bulk", c.Mode())
	}
	c.Succeed(doc.Stats{}, t0.Add(time.Millisecond))
	if c.Mode() != pack.ModeStrict {
		t.Errorf("Mode() after pass = %s, want strict", c.Mode())
	}
}

func TestControllerBeginGuard(t *testing.T) {
	c := NewController(DefaultThresholds(), doc.Stats{})
	if !c.Begin() {
		t.Fatal("first Begin() = false")
	}
	if c.Begin() {
		t.Error("second Begin() should be refused while running")
	}
	c.End()
	if !c.Begin() {
		t.Error("Begin() after End() = false")
	}
}

func TestManualScheduler(t *testing.T) {
	m := NewManualScheduler(t0)
	var order []int
	m.AfterFunc(30*time.Millisecond, func() { order = append(order, 30) })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, 10) })
	stopped := m.AfterFunc(15*time.Millisecond, func() { order = append(order, 15) })
	m.AfterFunc(20*time.Millisecond, func() {
		order = append(order, 20)
		m.AfterFunc(5*time.Millisecond, func() { order = append(order, 25) })
	})

	if !stopped.Stop() {
		t.Error("Stop() on a pending timer = false")
	}
	if stopped.Stop() {
		t.Error("second Stop() = true")
	}

	m.Advance(25 * time.Millisecond)
	want := []int{10, 20, 25}
	if len(order) != len(want) {
		t.Fatalf("fired %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("fired %v, want %v", order, want)
		}
	}
	if !m.Now().Equal(t0.Add(25 * time.Millisecond)) {
		t.Errorf("Now() = %v, want t0+25ms", m.Now())
	}
	if m.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", m.Pending())
	}

	m.Advance(time.Second)
	if order[len(order)-1] != 30 {
		t.Errorf("last fired = %d, want 30", order[len(order)-1])
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", m.Pending())
	}
}
