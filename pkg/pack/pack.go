package pack

import (
	"math"

	"github.com/matzehuels/pageflow/pkg/doc"
	perrors "github.com/matzehuels/pageflow/pkg/errors"
)

// Mode selects the page-break policy.
type Mode int

const (
	// ModeStrict breaks as soon as the next block would overflow the page.
	// Used for typed edits.
	ModeStrict Mode = iota
	// ModeBulk breaks only once the page has no capacity left, so a large
	// insert produces fewer, later breaks. Used after a paste.
	ModeBulk
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeBulk:
		return "bulk"
	}
	return "unknown"
}

// ParseMode parses "strict" or "bulk". The empty string is strict.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "strict":
		return ModeStrict, nil
	case "bulk":
		return ModeBulk, nil
	}
	return ModeStrict, perrors.New(perrors.ErrCodeInvalidInput, "unknown packing mode %q", s)
}

// PageSummary describes one packed page.
type PageSummary struct {
	Index    int       `json:"index"`
	Blocks   []BlockID `json:"-"`
	Count    int       `json:"blocks"`
	Used     float64   `json:"used"`
	Capacity float64   `json:"capacity"`
	// Overflow is set when the body holds more than its capacity, which
	// happens for a lone oversize block or in bulk mode.
	Overflow bool `json:"overflow"`
}

// Result is the output of one packing run.
type Result struct {
	Doc   *doc.Node
	Map   *PositionMap
	Pages []PageSummary
}

// Pack distributes blocks over pages in a single greedy forward pass.
//
// A block joins the current page unless the page already holds a block and
// the break policy of mode says it no longer fits; then the page is closed
// and the block starts the next one. A page with invalid capacity takes
// exactly one block. Blocks are never split, dropped or reordered, so N
// blocks produce at most N pages.
//
// Heights must be finite and non-negative; anything else fails the whole
// run with an INVALID_MEASUREMENT error.
func Pack(blocks []Block, layout Layout, mode Mode) (*Result, error) {
	for _, b := range blocks {
		if math.IsNaN(b.Height) || math.IsInf(b.Height, 0) || b.Height < 0 {
			return nil, perrors.New(perrors.ErrCodeInvalidMeasurement,
				"block %s: invalid height %v", b.ID, b.Height)
		}
	}

	p := &packer{layout: layout, entries: make([]Entry, 0, len(blocks))}
	p.open()
	for _, b := range blocks {
		if len(p.current) > 0 && p.breaks(b.Height, mode) {
			p.close()
			p.open()
		}
		p.current = append(p.current, b)
		p.used += b.Height
	}
	if len(p.current) > 0 {
		p.close()
	}

	return &Result{
		Doc:   doc.NewDoc(p.pages...),
		Map:   NewPositionMap(p.entries),
		Pages: p.summaries,
	}, nil
}

type packer struct {
	layout Layout

	pages     []*doc.Node
	summaries []PageSummary
	entries   []Entry
	pos       int // position before the next page in the new document

	current  []Block
	used     float64
	capacity float64
}

func (p *packer) open() {
	p.current = p.current[:0]
	p.used = 0
	p.capacity = p.layout.Capacity(len(p.pages))
}

func (p *packer) breaks(h float64, mode Mode) bool {
	if !validCapacity(p.capacity) {
		return true
	}
	if mode == ModeBulk {
		return p.used >= p.capacity
	}
	return p.used+h > p.capacity
}

func (p *packer) close() {
	index := len(p.pages)
	tmpl := p.layout.Template(index)

	nodes := make([]*doc.Node, len(p.current))
	ids := make([]BlockID, len(p.current))

	// Page opening, header, body opening.
	at := p.pos + 1
	if tmpl.Header != nil {
		at += tmpl.Header.NodeSize()
	}
	at++
	for i, b := range p.current {
		nodes[i] = b.Node
		ids[i] = b.ID
		p.entries = append(p.entries, Entry{
			ID:       b.ID,
			OldStart: b.OldStart,
			OldSize:  b.OldSize,
			NewStart: at,
		})
		at += b.Node.NodeSize()
	}

	page := doc.NewPage(tmpl.Attrs, tmpl.Header, doc.NewBody(nodes...), tmpl.Footer)
	p.pages = append(p.pages, page)
	p.pos += page.NodeSize()
	p.summaries = append(p.summaries, PageSummary{
		Index:    index,
		Blocks:   ids,
		Count:    len(ids),
		Used:     p.used,
		Capacity: p.capacity,
		Overflow: !validCapacity(p.capacity) || p.used > p.capacity,
	})
}
