package doc

import "fmt"

type step struct {
	node  *Node
	index int // child index the position falls at (or inside)
	start int // absolute position of the node's first content slot
}

// ResolvedPos is an absolute position together with its structural path from
// the root. Depth 0 is the root; Parent is the innermost node whose content
// contains the position.
type ResolvedPos struct {
	Pos          int
	ParentOffset int
	path         []step
}

// Resolve maps an absolute position to its structural path.
// It returns [ErrOutOfRange] for positions outside [0, ContentSize()].
func (n *Node) Resolve(pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > n.ContentSize() {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrOutOfRange, pos, n.ContentSize())
	}

	rp := &ResolvedPos{Pos: pos}
	node, start := n, 0
	for {
		if node.IsTextblock() || node.IsAtom() {
			rp.path = append(rp.path, step{node: node, index: pos - start, start: start})
			rp.ParentOffset = pos - start
			return rp, nil
		}

		offset := pos - start
		i, childStart := 0, 0
		for ; i < len(node.Content); i++ {
			end := childStart + node.Content[i].NodeSize()
			if offset < end {
				break
			}
			childStart = end
		}
		rp.path = append(rp.path, step{node: node, index: i, start: start})

		if i == len(node.Content) || offset == childStart {
			rp.ParentOffset = offset
			return rp, nil
		}
		node, start = node.Content[i], start+childStart+1
	}
}

// Depth returns the depth of the parent node.
func (r *ResolvedPos) Depth() int { return len(r.path) - 1 }

// Node returns the ancestor at depth d.
func (r *ResolvedPos) Node(d int) *Node { return r.path[d].node }

// Parent returns the innermost node containing the position.
func (r *ResolvedPos) Parent() *Node { return r.path[len(r.path)-1].node }

// Index returns the child index within the ancestor at depth d.
func (r *ResolvedPos) Index(d int) int { return r.path[d].index }

// Start returns the absolute position of the first content slot of the
// ancestor at depth d.
func (r *ResolvedPos) Start(d int) int { return r.path[d].start }

// End returns the absolute position after the last content slot of the
// ancestor at depth d.
func (r *ResolvedPos) End(d int) int { return r.path[d].start + r.path[d].node.ContentSize() }

// Before returns the position directly before the ancestor at depth d > 0.
func (r *ResolvedPos) Before(d int) int { return r.path[d].start - 1 }

// After returns the position directly after the ancestor at depth d > 0.
func (r *ResolvedPos) After(d int) int { return r.End(d) + 1 }

// NodeAfter returns the child directly after the position, or nil when the
// position is inside a textblock or at the end of its parent.
func (r *ResolvedPos) NodeAfter() *Node {
	p := r.Parent()
	if p.IsTextblock() || p.IsAtom() {
		return nil
	}
	return p.Child(r.Index(r.Depth()))
}

// InTextblock reports whether the position is a cursor position inside a
// textblock.
func (r *ResolvedPos) InTextblock() bool { return r.Parent().IsTextblock() }

// Ancestor returns the depth of the innermost ancestor of type t, or -1.
func (r *ResolvedPos) Ancestor(t Type) int {
	for d := len(r.path) - 1; d >= 0; d-- {
		if r.path[d].node.Type == t {
			return d
		}
	}
	return -1
}
