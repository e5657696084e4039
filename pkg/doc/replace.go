package doc

import (
	"errors"
	"slices"

	perrors "github.com/matzehuels/pageflow/pkg/errors"
)

// Selection is an anchor/head pair of absolute positions. A collapsed
// selection (Anchor == Head) is a cursor.
type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

// Cursor returns a collapsed selection at pos.
func Cursor(pos int) Selection { return Selection{Anchor: pos, Head: pos} }

// Empty reports whether the selection is collapsed.
func (s Selection) Empty() bool { return s.Anchor == s.Head }

// From returns the smaller endpoint.
func (s Selection) From() int { return min(s.Anchor, s.Head) }

// To returns the larger endpoint.
func (s Selection) To() int { return max(s.Anchor, s.Head) }

// Replacement replaces the sibling range [From, To) with Content.
// Both endpoints must sit between children of the same container.
type Replacement struct {
	From    int     `json:"from"`
	To      int     `json:"to"`
	Content []*Node `json:"content,omitempty"`
}

// Apply applies replacements in order, each against the document produced
// by the previous one, and returns the new root. The input is not modified;
// untouched subtrees are shared with the result.
func Apply(root *Node, reps ...Replacement) (*Node, error) {
	cur := root
	for i, r := range reps {
		next, err := applyOne(cur, r)
		if err != nil {
			code := perrors.ErrCodeInvalidReplacement
			if errors.Is(err, ErrOutOfRange) {
				code = perrors.ErrCodeInvalidPosition
			}
			return nil, perrors.Wrap(code, err, "replacement %d [%d,%d)", i, r.From, r.To)
		}
		cur = next
	}
	return cur, nil
}

func applyOne(root *Node, r Replacement) (*Node, error) {
	if r.From > r.To {
		return nil, ErrInvalidReplacement
	}
	from, err := root.Resolve(r.From)
	if err != nil {
		return nil, err
	}
	to, err := root.Resolve(r.To)
	if err != nil {
		return nil, err
	}
	d := from.Depth()
	parent := from.Parent()
	if to.Depth() != d || to.Parent() != parent || from.Start(d) != to.Start(d) {
		return nil, ErrInvalidReplacement
	}
	if parent.IsTextblock() || parent.IsAtom() {
		return nil, ErrInvalidReplacement
	}

	i, j := from.Index(d), to.Index(d)
	updated := parent.Copy()
	updated.Content = slices.Concat(parent.Content[:i], r.Content, parent.Content[j:])

	child := updated
	for depth := d - 1; depth >= 0; depth-- {
		anc := from.Node(depth).Copy()
		anc.Content[from.Index(depth)] = child
		child = anc
	}
	return child, nil
}

// Diff returns the replacements that turn old into updated by comparing the
// roots' children. Unchanged children at either end are skipped; when both
// roots have the same number of children, every differing run becomes its
// own replacement. Replacements are ordered by descending position so they
// can be applied in sequence. Identical trees yield no replacements.
func Diff(old, updated *Node) []Replacement {
	oc, nc := old.Content, updated.Content
	offsets := childOffsets(old)

	if len(oc) == len(nc) {
		var reps []Replacement
		for i := 0; i < len(oc); {
			if oc[i].Equal(nc[i]) {
				i++
				continue
			}
			j := i
			for j < len(oc) && !oc[j].Equal(nc[j]) {
				j++
			}
			reps = append(reps, Replacement{
				From:    offsets[i],
				To:      offsets[j],
				Content: slices.Clone(nc[i:j]),
			})
			i = j
		}
		slices.Reverse(reps)
		return reps
	}

	prefix := 0
	for prefix < len(oc) && prefix < len(nc) && oc[prefix].Equal(nc[prefix]) {
		prefix++
	}
	suffix := 0
	for suffix < len(oc)-prefix && suffix < len(nc)-prefix &&
		oc[len(oc)-1-suffix].Equal(nc[len(nc)-1-suffix]) {
		suffix++
	}
	return []Replacement{{
		From:    offsets[prefix],
		To:      offsets[len(oc)-suffix],
		Content: slices.Clone(nc[prefix : len(nc)-suffix]),
	}}
}

// childOffsets returns the position before each child plus the content end.
func childOffsets(n *Node) []int {
	offsets := make([]int, len(n.Content)+1)
	pos := 0
	for i, c := range n.Content {
		offsets[i] = pos
		pos += c.NodeSize()
	}
	offsets[len(n.Content)] = pos
	return offsets
}
