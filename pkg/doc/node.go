package doc

import (
	"errors"
	"reflect"
	"slices"
	"unicode/utf8"
)

var (
	// ErrOutOfRange is returned by [Node.Resolve] when a position lies
	// outside [0, ContentSize()].
	ErrOutOfRange = errors.New("position out of range")

	// ErrInvalidReplacement is returned by [Apply] when a replacement's
	// endpoints do not delimit a sibling range of a single container.
	ErrInvalidReplacement = errors.New("replacement must span whole siblings of one parent")
)

// Type names a node kind. Structural types are fixed; any other type is a
// flow block.
type Type string

// Structural node types.
const (
	TypeDoc    Type = "doc"
	TypePage   Type = "page"
	TypeHeader Type = "header"
	TypeBody   Type = "body"
	TypeFooter Type = "footer"
)

// Common flow block types.
const (
	TypeParagraph Type = "paragraph"
	TypeHeading   Type = "heading"
	TypeCodeBlock Type = "code_block"
	TypeImage     Type = "image"
	TypeRule      Type = "horizontal_rule"
)

// textblockTypes hold inline text and accept a cursor.
var textblockTypes = map[Type]bool{
	TypeParagraph: true,
	TypeHeading:   true,
	TypeCodeBlock: true,
}

// atomTypes are leaf blocks with a fixed size of 1.
var atomTypes = map[Type]bool{
	TypeImage: true,
	TypeRule:  true,
}

// Metadata stores arbitrary key-value attributes on flow blocks
// (for example a "height" hint used by estimating oracles).
type Metadata map[string]any

// Node is an element of the document tree.
//
// Nodes are treated as immutable once they are part of a document: edits go
// through [Apply], which copies the path to the change and shares every
// untouched subtree. Sharing is what lets header and footer regions be reused
// by identity across repagination passes.
type Node struct {
	Type    Type         `json:"type"`
	Text    string       `json:"text,omitempty"`
	Content []*Node      `json:"content,omitempty"`
	Page    *PageAttrs   `json:"page,omitempty"`
	Region  *RegionAttrs `json:"region,omitempty"`
	Meta    Metadata     `json:"meta,omitempty"`
}

// NewDoc builds a document root over the given children.
func NewDoc(children ...*Node) *Node {
	return &Node{Type: TypeDoc, Content: children}
}

// NewPage builds a page from optional header and footer regions and a body.
// Nil regions are omitted.
func NewPage(attrs *PageAttrs, header, body, footer *Node) *Node {
	p := &Node{Type: TypePage, Page: attrs}
	if header != nil {
		p.Content = append(p.Content, header)
	}
	p.Content = append(p.Content, body)
	if footer != nil {
		p.Content = append(p.Content, footer)
	}
	return p
}

// NewBody builds a body region over flow blocks.
func NewBody(blocks ...*Node) *Node {
	return &Node{Type: TypeBody, Content: blocks}
}

// NewRegion builds a header or footer region.
func NewRegion(t Type, attrs *RegionAttrs, blocks ...*Node) *Node {
	return &Node{Type: t, Region: attrs, Content: blocks}
}

// Paragraph builds a paragraph textblock.
func Paragraph(text string) *Node {
	return &Node{Type: TypeParagraph, Text: text}
}

// IsTextblock reports whether the node holds inline text and accepts a cursor.
func (n *Node) IsTextblock() bool { return textblockTypes[n.Type] }

// IsAtom reports whether the node is a leaf block of size 1.
func (n *Node) IsAtom() bool { return atomTypes[n.Type] }

// IsRegion reports whether the node is a header, body or footer.
func (n *Node) IsRegion() bool {
	return n.Type == TypeHeader || n.Type == TypeBody || n.Type == TypeFooter
}

// IsStructural reports whether the node is part of the page skeleton rather
// than flow content.
func (n *Node) IsStructural() bool {
	return n.Type == TypeDoc || n.Type == TypePage || n.IsRegion()
}

// TextLen returns the number of runes of a textblock's text.
func (n *Node) TextLen() int { return utf8.RuneCountInString(n.Text) }

// NodeSize returns the number of positions the node occupies in its parent.
func (n *Node) NodeSize() int {
	switch {
	case n.IsAtom():
		return 1
	case n.IsTextblock():
		return n.TextLen() + 2
	default:
		return n.ContentSize() + 2
	}
}

// ContentSize returns the number of positions inside the node.
func (n *Node) ContentSize() int {
	if n.IsTextblock() {
		return n.TextLen()
	}
	if n.IsAtom() {
		return 0
	}
	size := 0
	for _, c := range n.Content {
		size += c.NodeSize()
	}
	return size
}

// ChildCount returns the number of child nodes.
func (n *Node) ChildCount() int { return len(n.Content) }

// Child returns the child at index i, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Content) {
		return nil
	}
	return n.Content[i]
}

// Find returns the first child of the given type.
func (n *Node) Find(t Type) *Node {
	for _, c := range n.Content {
		if c.Type == t {
			return c
		}
	}
	return nil
}

// Header returns the page's header region, or nil.
func (n *Node) Header() *Node { return n.Find(TypeHeader) }

// Body returns the page's body region, or nil.
func (n *Node) Body() *Node { return n.Find(TypeBody) }

// Footer returns the page's footer region, or nil.
func (n *Node) Footer() *Node { return n.Find(TypeFooter) }

// Pages returns the page children of a document.
func (n *Node) Pages() []*Node {
	var pages []*Node
	for _, c := range n.Content {
		if c.Type == TypePage {
			pages = append(pages, c)
		}
	}
	return pages
}

// Copy returns a shallow copy with its own content slice.
func (n *Node) Copy() *Node {
	c := *n
	c.Content = slices.Clone(n.Content)
	return &c
}

// Equal reports whether two trees are structurally equal.
// Identical pointers short-circuit, so shared subtrees compare in O(1).
func (n *Node) Equal(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	if n.Type != o.Type || n.Text != o.Text || len(n.Content) != len(o.Content) {
		return false
	}
	if !n.Page.Equal(o.Page) || !n.Region.Equal(o.Region) || !metaEqual(n.Meta, o.Meta) {
		return false
	}
	for i := range n.Content {
		if !n.Content[i].Equal(o.Content[i]) {
			return false
		}
	}
	return true
}

func metaEqual(a, b Metadata) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Walk visits every descendant of n in document order with its absolute
// position (the position directly before the node). Returning false from
// fn skips the node's children.
func (n *Node) Walk(fn func(node *Node, pos int) bool) {
	n.walk(0, fn)
}

func (n *Node) walk(start int, fn func(node *Node, pos int) bool) {
	if n.IsTextblock() || n.IsAtom() {
		return
	}
	pos := start
	for _, c := range n.Content {
		if fn(c, pos) {
			c.walk(pos+1, fn)
		}
		pos += c.NodeSize()
	}
}

// Stats summarizes a document for change detection.
type Stats struct {
	Size       int  // ContentSize of the root
	TextLength int  // Runes across flow textblocks
	Blocks     int  // Flow blocks (header and footer content excluded)
	HasPages   bool // At least one page node exists
}

// Empty reports whether the document carries no text and at most one block.
func (s Stats) Empty() bool { return s.TextLength == 0 && s.Blocks <= 1 }

// Stats computes the document summary.
func (n *Node) Stats() Stats {
	s := Stats{Size: n.ContentSize()}
	n.Walk(func(c *Node, _ int) bool {
		switch {
		case c.Type == TypePage:
			s.HasPages = true
		case c.Type == TypeHeader || c.Type == TypeFooter:
			return false
		case !c.IsStructural():
			s.Blocks++
			if c.IsTextblock() {
				s.TextLength += c.TextLen()
			}
			return false
		}
		return true
	})
	return s
}

// FirstCursor returns the first position inside a textblock, or 0 when the
// document has none.
func (n *Node) FirstCursor() int {
	pos, found := 0, false
	n.Walk(func(c *Node, p int) bool {
		if found {
			return false
		}
		if c.IsTextblock() {
			pos, found = p+1, true
			return false
		}
		return true
	})
	return pos
}

// LastCursor returns the last position inside a textblock, or the content
// size when the document has none.
func (n *Node) LastCursor() int {
	pos := n.ContentSize()
	n.Walk(func(c *Node, p int) bool {
		if c.IsTextblock() {
			pos = p + 1 + c.TextLen()
			return false
		}
		return true
	})
	return pos
}
