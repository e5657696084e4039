// Package session keeps a live document paginated while it is edited.
//
// A [Session] sits between a host editor and the repagination [engine]. The
// host reports every applied transaction with [Session.Observe] and every
// view update with [Session.Update]; the session's [Controller] decides
// whether to repaginate now, after a short delay, or not at all, and the
// session dispatches the result back to the host as a single transaction
// tagged PaginationApplied.
//
// # Scheduling
//
// Delayed and paste-deferred passes go through a host-supplied [Scheduler].
// A newer delayed pass replaces an older one, and [Session.Close] cancels
// whatever is still scheduled. [TimerScheduler] uses real timers;
// [ManualScheduler] only moves when told to and is what tests and the CLI
// simulator use:
//
//	clock := session.NewManualScheduler(time.Now())
//	s := session.New(ctx, host, eng, session.WithScheduler(clock), session.WithClock(clock))
//	defer s.Close()
//
//	s.Observe(session.Meta{ContentChanged: true, Paste: true})
//	s.Update()                            // paste-deferred
//	clock.Advance(100 * time.Millisecond) // the pass runs here
//
// # Failures
//
// A pass that fails (invalid measurements) commits nothing and counts
// towards a circuit breaker; after three consecutive failures, triggers are
// suppressed until a cool-down has passed. A host that rejects the
// repagination transaction is sent a metadata-only transaction instead so
// that it can clear its own pending state.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pageflow/pkg/doc"
	"github.com/matzehuels/pageflow/pkg/engine"
	perrors "github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/observability"
)

// Host is the editor a session paginates.
type Host interface {
	// Document returns the current document.
	Document() *doc.Node
	// Selection returns the current selection.
	Selection() doc.Selection
	// Dispatch applies a transaction. Replacements are in descending
	// position order, so applying them one after another is valid.
	Dispatch(tx Transaction) error
}

// Transaction is what a session sends to the host.
type Transaction struct {
	Steps     []doc.Replacement `json:"steps,omitempty"`
	Selection *doc.Selection    `json:"selection,omitempty"`
	Meta      Meta              `json:"meta"`
}

// Session is the per-document pagination state. All methods are safe for
// concurrent use.
type Session struct {
	id     string
	host   Host
	engine *engine.Engine
	sched  Scheduler
	clock  Clock
	th     Thresholds
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	ctrl     *Controller
	timer    Timer
	timerSeq uint64
	closed   bool
	passes   int
}

// Option configures a Session.
type Option func(*Session)

// WithThresholds sets the trigger tuning.
func WithThresholds(th Thresholds) Option {
	return func(s *Session) { s.th = th }
}

// WithScheduler sets the scheduler for delayed passes.
func WithScheduler(sched Scheduler) Option {
	return func(s *Session) { s.sched = sched }
}

// WithClock sets the clock.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// New starts a session over host. The host's current document becomes the
// controller's baseline. Cancelling ctx has the same effect as Close on
// in-flight passes.
func New(ctx context.Context, host Host, eng *engine.Engine, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		host:   host,
		engine: eng,
		sched:  TimerScheduler{},
		clock:  SystemClock{},
		th:     DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.logger = s.logger.With("session", shortID(s.id))
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.ctrl = NewController(s.th, host.Document().Stats())
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Observe records the metadata of a transaction the host has applied.
func (s *Session) Observe(m Meta) {
	if m.PaginationApplied {
		stats := s.host.Document().Stats()
		s.mu.Lock()
		s.ctrl.Rebase(stats)
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.ctrl.Observe(m, s.clock.Now())
}

// Update evaluates the trigger rules for the host's current view and acts
// on the decision: an immediate pass runs before Update returns, delayed
// and paste-deferred passes are scheduled.
func (s *Session) Update() Decision {
	stats := s.host.Document().Stats()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return DecisionNone
	}
	d := s.ctrl.Decide(stats, s.clock.Now())
	switch d {
	case DecisionPasteDeferred:
		s.schedule(s.th.PasteDelay)
	case DecisionDelayed:
		s.schedule(s.th.DelayedDelay)
	case DecisionImmediate:
		s.stopTimer()
	}
	failures := s.ctrl.failures
	s.mu.Unlock()

	hooks := observability.Pass()
	hooks.OnDecision(s.ctx, s.id, d.String())
	if d == DecisionSuppressed {
		hooks.OnSuppressed(s.ctx, s.id, failures)
		s.logger.Debug("repagination suppressed", "failures", failures)
	}

	if d == DecisionImmediate {
		s.run()
	}
	return d
}

// Request marks the document as pending and evaluates the trigger rules,
// forcing a pass unless the session is busy or suppressed.
func (s *Session) Request() Decision {
	s.Observe(Meta{ContentChanged: true})
	return s.Update()
}

// State returns a snapshot of the controller.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.State()
}

// Passes returns the number of passes that have run to completion or
// failure.
func (s *Session) Passes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

// Close ends the session and cancels any scheduled pass. It is safe to call
// more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stopTimer()
	s.cancel()
	s.logger.Debug("session closed", "passes", s.passes)
	return nil
}

// schedule replaces any scheduled pass with one after delay.
// Must be called with s.mu held.
func (s *Session) schedule(delay time.Duration) {
	s.stopTimer()
	s.timerSeq++
	seq := s.timerSeq
	s.timer = s.sched.AfterFunc(delay, func() { s.fire(seq) })
}

// Must be called with s.mu held.
func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire runs a scheduled pass unless it was superseded, the session closed,
// or the breaker opened in the meantime.
func (s *Session) fire(seq uint64) {
	s.mu.Lock()
	if s.closed || s.timer == nil || s.timerSeq != seq {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	suppressed := s.ctrl.Suppressed(s.clock.Now())
	s.mu.Unlock()

	if suppressed {
		s.logger.Debug("scheduled repagination suppressed")
		return
	}
	s.run()
}

// run is the execution wrapper around one pass. The session lock is never
// held while the host or the engine is called.
func (s *Session) run() {
	s.mu.Lock()
	if s.closed || !s.ctrl.Begin() {
		s.mu.Unlock()
		return
	}
	mode := s.ctrl.Mode()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.ctrl.End()
		s.passes++
		s.mu.Unlock()
	}()

	d := s.host.Document()
	sel := s.host.Selection()
	hooks := observability.Pass()
	hooks.OnPassStart(s.ctx, s.id, d.Stats().Blocks)

	pass, err := s.engine.Run(s.ctx, d, sel, mode)
	if err != nil {
		s.fail(err)
		hooks.OnPassComplete(s.ctx, s.id, 0, false, 0, err)
		return
	}

	if !pass.Changed {
		s.succeed(d.Stats())
		hooks.OnPassComplete(s.ctx, s.id, len(pass.Pages), false, pass.Duration, nil)
		return
	}

	tx := Transaction{
		Steps:     pass.Steps,
		Selection: &pass.Selection,
		Meta:      Meta{PaginationApplied: true},
	}
	if err := s.host.Dispatch(tx); err != nil {
		err = perrors.Wrap(perrors.ErrCodeCommitRejected, err, "dispatch repagination")
		s.fail(err)
		hooks.OnPassComplete(s.ctx, s.id, len(pass.Pages), false, pass.Duration, err)
		if err := s.host.Dispatch(Transaction{Meta: Meta{PaginationApplied: true, MetadataOnly: true}}); err != nil {
			s.logger.Error("metadata-only dispatch rejected", "error", err)
		}
		return
	}

	s.succeed(pass.Doc.Stats())
	hooks.OnPassComplete(s.ctx, s.id, len(pass.Pages), true, pass.Duration, nil)
	s.logger.Debug("repaginated",
		"mode", mode,
		"pages", len(pass.Pages),
		"steps", len(pass.Steps),
		"strategy", pass.Remap.Head,
		"duration", pass.Duration)
}

func (s *Session) succeed(stats doc.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Succeed(stats, s.clock.Now())
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.ctrl.Fail(s.clock.Now())
	failures := s.ctrl.failures
	s.mu.Unlock()
	s.logger.Warn("repagination failed", "failures", failures, "error", err)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
