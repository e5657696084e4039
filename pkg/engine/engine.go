// Package engine runs one repagination pass: measure the flow blocks, pack
// them into pages, diff the new tree against the old one, and remap the
// selection.
//
// A pass is pure with respect to its inputs. It never touches the host; the
// returned [Pass] holds the replacements and selection for the caller to
// dispatch.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pageflow/pkg/doc"
	"github.com/matzehuels/pageflow/pkg/measure"
	"github.com/matzehuels/pageflow/pkg/pack"
	"github.com/matzehuels/pageflow/pkg/remap"
)

// Engine holds what stays fixed across passes of one document: the oracle,
// the defaults for new pages and the block identity arena.
type Engine struct {
	oracle    measure.Oracle
	defaults  pack.Defaults
	minHeight float64
	logger    *log.Logger
	arena     *pack.Arena
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaults sets the attributes and regions of newly created pages.
func WithDefaults(d pack.Defaults) Option {
	return func(e *Engine) { e.defaults = d }
}

// WithMinHeight sets the height substituted for unmeasurable or empty blocks.
func WithMinHeight(h float64) Option {
	return func(e *Engine) { e.minHeight = h }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine around an oracle.
func New(oracle measure.Oracle, opts ...Option) *Engine {
	e := &Engine{
		oracle:    oracle,
		defaults:  pack.DefaultDefaults(),
		minHeight: measure.MinHeight,
		arena:     pack.NewArena(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	return e
}

// Pass is the outcome of a repagination pass.
type Pass struct {
	// Doc is the repaginated document. When Changed is false it is the
	// input document itself.
	Doc *doc.Node
	// Steps turn the input into Doc, in descending position order.
	Steps []doc.Replacement
	// Selection is the input selection carried into Doc.
	Selection doc.Selection
	Remap     remap.Result
	Pages     []pack.PageSummary
	Blocks    int
	Changed   bool
	Duration  time.Duration
}

// Run executes a pass over d. It fails only when packing fails (invalid
// measurements) or ctx is done; measurement errors fall back to the minimum
// height.
func (e *Engine) Run(ctx context.Context, d *doc.Node, sel doc.Selection, mode pack.Mode) (*Pass, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blocks := pack.Extract(d, e.arena)
	oracle := measure.Floor{Oracle: e.oracle, Min: e.minHeight, Logger: e.logger}
	for i := range blocks {
		dim, _ := oracle.Measure(measure.Ref{Index: i, Node: blocks[i].Node})
		blocks[i].Height = dim.Outer()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := pack.Pack(blocks, pack.NewResolver(d, e.defaults), mode)
	if err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}

	pass := &Pass{
		Doc:       d,
		Selection: sel,
		Pages:     res.Pages,
		Blocks:    len(blocks),
	}

	steps := doc.Diff(d, res.Doc)
	if len(steps) > 0 {
		size := res.Doc.ContentSize()
		pass.Remap = remap.Remap(sel, res.Map, size, remap.Options{
			Valid:    CursorValid(res.Doc),
			Fallback: res.Doc.LastCursor,
		})
		pass.Doc = res.Doc
		pass.Steps = steps
		pass.Selection = pass.Remap.Selection
		pass.Changed = true
	}
	pass.Duration = time.Since(start)

	e.logger.Debug("pass complete",
		"mode", mode,
		"blocks", pass.Blocks,
		"pages", len(pass.Pages),
		"steps", len(steps),
		"duration", pass.Duration)
	return pass, nil
}

// CursorValid reports positions of d that can hold a cursor: inside a
// textblock or directly before an atom block.
func CursorValid(d *doc.Node) func(pos int) bool {
	return func(pos int) bool {
		rp, err := d.Resolve(pos)
		if err != nil {
			return false
		}
		if rp.InTextblock() {
			return true
		}
		next := rp.NodeAfter()
		return next != nil && next.IsAtom()
	}
}
