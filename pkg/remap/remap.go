// Package remap carries a selection across a repagination pass.
//
// After a pass replaces the page tree, every old offset is stale. [Remap]
// translates each endpoint of the old selection through the pass's
// [pack.PositionMap], trying progressively looser strategies until one
// yields a position the caller accepts:
//
//  1. Exact: the offset was the start of a block.
//  2. Containing: the offset fell inside a block; keep its offset within the
//     block.
//  3. Nearest: use the block whose old start is closest.
//
// Exact and Nearest land on the new block start, or one past it when the
// start itself is rejected (the first text position of a textblock).
//
//  4. Adjacent: retry the steps above at offset+1, then offset-1.
//  5. Terminal: place the point at the end of the new document.
//
// Every result lies in [0, newDocSize), so a remapped selection is always
// safe to dispatch.
package remap

import (
	"github.com/matzehuels/pageflow/pkg/doc"
	"github.com/matzehuels/pageflow/pkg/pack"
)

// Strategy names the step that resolved an endpoint.
type Strategy int

const (
	Exact Strategy = iota
	Containing
	Nearest
	Adjacent
	Terminal
)

func (s Strategy) String() string {
	switch s {
	case Exact:
		return "exact"
	case Containing:
		return "containing"
	case Nearest:
		return "nearest"
	case Adjacent:
		return "adjacent"
	case Terminal:
		return "terminal"
	}
	return "unknown"
}

// Options tune a remap.
type Options struct {
	// Valid filters candidate positions in the new document. Nil accepts
	// every in-range position.
	Valid func(pos int) bool

	// Fallback returns the terminal position. Nil means newDocSize-1.
	// The result is clamped like every other candidate but is not checked
	// against Valid.
	Fallback func() int
}

// Result is a remapped selection.
type Result struct {
	Selection doc.Selection
	Anchor    Strategy
	Head      Strategy
	// Collapsed is set when a range selection lost an endpoint to the
	// terminal fallback and was reduced to a single point.
	Collapsed bool
}

// Remap translates sel from the old document into a document of size
// newDocSize using the position map of the pass.
func Remap(sel doc.Selection, m *pack.PositionMap, newDocSize int, opts Options) Result {
	r := remapper{m: m, size: newDocSize, opts: opts}

	if sel.Empty() {
		pos, s := r.point(sel.Anchor)
		return Result{Selection: doc.Cursor(pos), Anchor: s, Head: s}
	}

	anchor, as := r.point(sel.Anchor)
	head, hs := r.point(sel.Head)
	switch {
	case as == Terminal && hs != Terminal:
		return Result{Selection: doc.Cursor(head), Anchor: hs, Head: hs, Collapsed: true}
	case hs == Terminal && as != Terminal:
		return Result{Selection: doc.Cursor(anchor), Anchor: as, Head: as, Collapsed: true}
	case as == Terminal && hs == Terminal:
		return Result{Selection: doc.Cursor(anchor), Anchor: Terminal, Head: Terminal, Collapsed: true}
	}
	return Result{Selection: doc.Selection{Anchor: anchor, Head: head}, Anchor: as, Head: hs}
}

// Point remaps a single position.
func Point(pos int, m *pack.PositionMap, newDocSize int, opts Options) (int, Strategy) {
	r := remapper{m: m, size: newDocSize, opts: opts}
	return r.point(pos)
}

type remapper struct {
	m    *pack.PositionMap
	size int
	opts Options
}

func (r remapper) point(pos int) (int, Strategy) {
	if r.size <= 0 {
		return 0, Terminal
	}
	if p, s, ok := r.try(pos); ok {
		return p, s
	}
	for _, adj := range [...]int{pos + 1, pos - 1} {
		if p, _, ok := r.try(adj); ok {
			return p, Adjacent
		}
	}
	return r.terminal(), Terminal
}

func (r remapper) try(pos int) (int, Strategy, bool) {
	if e, ok := r.m.At(pos); ok {
		if p, ok := r.acceptStart(e); ok {
			return p, Exact, true
		}
	}
	if e, ok := r.m.Containing(pos); ok {
		if p, ok := r.accept(min(e.Translate(pos), r.size-1)); ok {
			return p, Containing, true
		}
	}
	if e, ok := r.m.Nearest(pos); ok {
		if p, ok := r.acceptStart(e); ok {
			return p, Nearest, true
		}
	}
	return 0, 0, false
}

func (r remapper) accept(pos int) (int, bool) {
	p := r.clamp(pos)
	if r.opts.Valid != nil && !r.opts.Valid(p) {
		return 0, false
	}
	return p, true
}

// acceptStart places a point at the start of a moved block. The position
// before a block only holds a cursor for atoms; textblocks take the cursor
// at their first text offset.
func (r remapper) acceptStart(e pack.Entry) (int, bool) {
	if p, ok := r.accept(e.NewStart); ok {
		return p, true
	}
	if e.OldSize < 2 {
		return 0, false
	}
	return r.accept(e.NewStart + 1)
}

func (r remapper) terminal() int {
	if r.opts.Fallback != nil {
		return r.clamp(r.opts.Fallback())
	}
	return r.size - 1
}

func (r remapper) clamp(pos int) int {
	return max(0, min(pos, r.size-1))
}
