package session

import (
	"time"

	"github.com/matzehuels/pageflow/pkg/doc"
	"github.com/matzehuels/pageflow/pkg/pack"
)

// Thresholds tune the trigger controller. The values are empirical; none of
// them changes what a pass computes, only when it runs.
type Thresholds struct {
	// DriftChars is the text-length change since the last pass that
	// triggers an immediate run once MinInterval has elapsed.
	DriftChars int
	// MinInterval is the minimum time between drift-triggered or delayed
	// passes.
	MinInterval time.Duration
	// DelayedDelay postpones a pass triggered only by a size change.
	DelayedDelay time.Duration
	// PasteDelay postpones a pass while a paste settles.
	PasteDelay time.Duration
	// PasteGrace is how long after a paste passes are deferred.
	PasteGrace time.Duration
	// FailureThreshold consecutive failures open the circuit breaker.
	FailureThreshold int
	// Cooldown is how long the breaker stays open after the last failure.
	Cooldown time.Duration
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DriftChars:       5,
		MinInterval:      100 * time.Millisecond,
		DelayedDelay:     50 * time.Millisecond,
		PasteDelay:       100 * time.Millisecond,
		PasteGrace:       500 * time.Millisecond,
		FailureThreshold: 3,
		Cooldown:         5 * time.Second,
	}
}

// Decision is the controller's verdict for one view update.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionImmediate
	DecisionDelayed
	DecisionPasteDeferred
	DecisionSuppressed
	DecisionBusy
)

func (d Decision) String() string {
	switch d {
	case DecisionNone:
		return "none"
	case DecisionImmediate:
		return "immediate"
	case DecisionDelayed:
		return "delayed"
	case DecisionPasteDeferred:
		return "paste-deferred"
	case DecisionSuppressed:
		return "suppressed"
	case DecisionBusy:
		return "busy"
	}
	return "unknown"
}

// Meta is the change metadata attached to a transaction.
type Meta struct {
	ContentChanged    bool `json:"content_changed,omitempty"`
	Paste             bool `json:"paste,omitempty"`
	PaginationApplied bool `json:"pagination_applied,omitempty"`
	// MetadataOnly marks the degraded transaction sent after the host
	// rejected a repagination.
	MetadataOnly bool `json:"metadata_only,omitempty"`
}

// State is a snapshot of the controller.
type State struct {
	LastRepagination time.Time
	Pending          bool
	Failures         int
	LastFailure      time.Time
	RecentPaste      time.Time
	LastTextLength   int
	Baseline         doc.Stats
	Running          bool
}

// Controller decides when a document should be repaginated. It holds no
// timers and no locks; callers serialize access and pass the current time.
type Controller struct {
	th Thresholds

	lastRepagination time.Time
	pending          bool
	failures         int
	lastFailure      time.Time
	recentPaste      time.Time
	lastTextLength   int
	baseline         doc.Stats
	running          bool
}

// NewController returns a controller whose baseline is the given document
// summary.
func NewController(th Thresholds, baseline doc.Stats) *Controller {
	return &Controller{th: th, baseline: baseline, lastTextLength: baseline.TextLength}
}

// Observe records the metadata of an applied transaction. Transactions the
// engine produced itself only move the baseline (see Rebase).
func (c *Controller) Observe(m Meta, now time.Time) {
	if m.PaginationApplied {
		return
	}
	if m.ContentChanged {
		c.pending = true
	}
	if m.Paste {
		c.recentPaste = now
		c.pending = true
	}
}

// Rebase replaces the baseline snapshot without triggering anything.
func (c *Controller) Rebase(s doc.Stats) { c.baseline = s }

// Decide evaluates the trigger rules against the current document summary
// and makes it the new baseline.
func (c *Controller) Decide(s doc.Stats, now time.Time) Decision {
	prev := c.baseline
	c.baseline = s

	if c.Suppressed(now) {
		return DecisionSuppressed
	}
	if c.running {
		return DecisionBusy
	}
	if c.pending && c.inPasteGrace(now) {
		return DecisionPasteDeferred
	}

	changed := s.Size != prev.Size || s.TextLength != prev.TextLength
	intervalElapsed := now.Sub(c.lastRepagination) >= c.th.MinInterval
	switch {
	case prev.Empty() && !s.Empty():
		return DecisionImmediate
	case changed && !s.HasPages:
		return DecisionImmediate
	case c.pending:
		return DecisionImmediate
	case abs(s.TextLength-c.lastTextLength) > c.th.DriftChars && intervalElapsed:
		return DecisionImmediate
	}

	if s.Size != prev.Size && intervalElapsed {
		return DecisionDelayed
	}
	return DecisionNone
}

// Suppressed reports whether the circuit breaker is open.
func (c *Controller) Suppressed(now time.Time) bool {
	return c.failures >= c.th.FailureThreshold && now.Sub(c.lastFailure) < c.th.Cooldown
}

// Begin marks a pass as in flight. It returns false when one already is.
func (c *Controller) Begin() bool {
	if c.running {
		return false
	}
	c.running = true
	return true
}

// End clears the in-flight flag.
func (c *Controller) End() { c.running = false }

// Succeed records a committed (or no-op) pass over a document summarized
// by s.
func (c *Controller) Succeed(s doc.Stats, now time.Time) {
	c.failures = 0
	c.pending = false
	c.lastRepagination = now
	c.lastTextLength = s.TextLength
	c.baseline = s
}

// Fail records a failed pass. Pending changes stay pending.
func (c *Controller) Fail(now time.Time) {
	c.failures++
	c.lastFailure = now
}

// Mode returns the packing mode for the next pass: bulk if a paste arrived
// since the last committed pass.
func (c *Controller) Mode() pack.Mode {
	if !c.recentPaste.IsZero() && c.recentPaste.After(c.lastRepagination) {
		return pack.ModeBulk
	}
	return pack.ModeStrict
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	return State{
		LastRepagination: c.lastRepagination,
		Pending:          c.pending,
		Failures:         c.failures,
		LastFailure:      c.lastFailure,
		RecentPaste:      c.recentPaste,
		LastTextLength:   c.lastTextLength,
		Baseline:         c.baseline,
		Running:          c.running,
	}
}

func (c *Controller) inPasteGrace(now time.Time) bool {
	return !c.recentPaste.IsZero() && now.Sub(c.recentPaste) < c.th.PasteGrace
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
