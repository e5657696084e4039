// Package boundary answers start/end-of-region questions about positions in
// a paged document. Cursor navigation uses it to decide when an arrow key
// should jump to the neighbouring page.
//
// Every predicate comes in two strengths. An exact check asks whether the
// cursor sits at the very first (or last) text offset of the region; a loose
// check only asks whether it is somewhere inside the region's first (or
// last) block. The first and last cursor positions of the whole document
// count as both start and end for exact checks, since there is no region to
// move into.
//
// Predicates never fail: a position that cannot be resolved, is not inside a
// textblock, or has no enclosing region yields false.
package boundary

import (
	"github.com/matzehuels/pageflow/pkg/doc"
)

// Granularity selects the region a predicate is evaluated against.
type Granularity int

const (
	// Body is the page body.
	Body Granularity = iota
	// Page spans every region of the page, header to footer.
	Page
	// Header is the page header.
	Header
	// Footer is the page footer.
	Footer
)

func (g Granularity) String() string {
	switch g {
	case Body:
		return "body"
	case Page:
		return "page"
	case Header:
		return "header"
	case Footer:
		return "footer"
	}
	return "unknown"
}

func (g Granularity) nodeType() doc.Type {
	switch g {
	case Page:
		return doc.TypePage
	case Header:
		return doc.TypeHeader
	case Footer:
		return doc.TypeFooter
	}
	return doc.TypeBody
}

// IsAtStart reports whether pos is at the start of its region.
func IsAtStart(d *doc.Node, pos int, g Granularity, exact bool) bool {
	rp, err := d.Resolve(pos)
	if err != nil {
		return false
	}
	return IsResolvedAtStart(rp, g, exact)
}

// IsAtEnd reports whether pos is at the end of its region.
func IsAtEnd(d *doc.Node, pos int, g Granularity, exact bool) bool {
	rp, err := d.Resolve(pos)
	if err != nil {
		return false
	}
	return IsResolvedAtEnd(rp, g, exact)
}

// IsResolvedAtStart is IsAtStart for an already resolved position.
func IsResolvedAtStart(rp *doc.ResolvedPos, g Granularity, exact bool) bool {
	return check(rp, g, exact, true)
}

// IsResolvedAtEnd is IsAtEnd for an already resolved position.
func IsResolvedAtEnd(rp *doc.ResolvedPos, g Granularity, exact bool) bool {
	return check(rp, g, exact, false)
}

func check(rp *doc.ResolvedPos, g Granularity, exact, start bool) bool {
	if rp == nil {
		return false
	}
	if exact {
		root := rp.Node(0)
		if rp.Pos <= root.FirstCursor() || rp.Pos >= root.LastCursor() {
			return true
		}
	}
	if !rp.InTextblock() {
		return false
	}

	depth := rp.Ancestor(g.nodeType())
	if depth < 0 {
		return false
	}
	edge := edgeBlock(rp.Node(depth), start)
	if edge == nil {
		return false
	}

	if !exact {
		for d := depth + 1; d <= rp.Depth(); d++ {
			if rp.Node(d) == edge {
				return true
			}
		}
		return false
	}

	tb := edgeTextblock(edge, start)
	if tb == nil || rp.Parent() != tb {
		return false
	}
	if start {
		return rp.ParentOffset == 0
	}
	return rp.ParentOffset == tb.TextLen()
}

// edgeBlock returns the first (or last) flow block of a region. For a page
// it looks through the regions in order and skips empty ones.
func edgeBlock(region *doc.Node, start bool) *doc.Node {
	if region.Type != doc.TypePage {
		return edgeChild(region, start)
	}
	n := len(region.Content)
	for i := range n {
		r := region.Content[i]
		if !start {
			r = region.Content[n-1-i]
		}
		if b := edgeChild(r, start); b != nil {
			return b
		}
	}
	return nil
}

func edgeChild(n *doc.Node, start bool) *doc.Node {
	if len(n.Content) == 0 {
		return nil
	}
	if start {
		return n.Content[0]
	}
	return n.Content[len(n.Content)-1]
}

// edgeTextblock returns the first (or last) textblock inside b, or b itself.
func edgeTextblock(b *doc.Node, start bool) *doc.Node {
	if b.IsTextblock() {
		return b
	}
	var found *doc.Node
	b.Walk(func(n *doc.Node, _ int) bool {
		if n.IsTextblock() {
			if found == nil || !start {
				found = n
			}
			return false
		}
		return true
	})
	return found
}
