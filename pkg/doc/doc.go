// Package doc provides the paged document tree and its position arithmetic.
//
// A document is an ordered tree: the root holds pages, each page holds an
// optional header, exactly one body and an optional footer, and regions hold
// flow blocks (paragraphs, headings, images, ...).
//
// # Positions
//
// Every node occupies a fixed number of integer positions:
//
//   - a textblock occupies len(text)+2 (its opening, its runes, its closing)
//   - an atom block (image, rule) occupies 1
//   - any other node occupies 2 plus the sizes of its children
//
// Absolute positions run from 0 to the root's [Node.ContentSize]. A position
// is resolved to its structural path with [Node.Resolve]:
//
//	rp, err := d.Resolve(37)
//	if err == nil && rp.InTextblock() {
//	    body := rp.Ancestor(doc.TypeBody)
//	}
//
// # Edits
//
// Nodes are immutable by convention. [Apply] replaces sibling ranges by
// copying the path to the change, and [Diff] computes the replacements that
// turn one document into another at the granularity of top-level children.
package doc
