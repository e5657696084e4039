package doc

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	perrors "github.com/matzehuels/pageflow/pkg/errors"
)

// ReadJSON decodes a JSON document from r and validates its structure.
//
// The input is the node tree itself:
//
//	{
//	  "type": "doc",
//	  "content": [
//	    {"type": "page", "page": {"paper": "A4"}, "content": [
//	      {"type": "body", "content": [{"type": "paragraph", "text": "Hello"}]}
//	    ]}
//	  ]
//	}
//
// A document without pages (flow blocks directly under the root) is valid.
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Node, error) {
	var n Node
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidDocument, err, "decode")
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// ImportJSON reads and validates the JSON document at path.
func ImportJSON(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	n, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// WriteJSON encodes the document as indented JSON.
func WriteJSON(w io.Writer, n *Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(n)
}

// MarshalJSONBytes encodes the document as compact JSON.
func MarshalJSONBytes(n *Node) ([]byte, error) {
	return json.Marshal(n)
}

// Validate checks the page skeleton: the root is a doc; pages hold
// [header] body [footer] in that order; regions hold only flow blocks;
// textblocks and atoms have no children.
func (n *Node) Validate() error {
	if n.Type != TypeDoc {
		return perrors.New(perrors.ErrCodeInvalidDocument, "root must be %q, got %q", TypeDoc, n.Type)
	}
	for i, c := range n.Content {
		var err error
		switch {
		case c == nil:
			err = perrors.New(perrors.ErrCodeInvalidDocument, "nil node")
		case c.Type == TypePage:
			err = validatePage(c)
		default:
			err = validateBlock(c)
		}
		if err != nil {
			return fmt.Errorf("doc child %d: %w", i, err)
		}
	}
	return nil
}

func validatePage(p *Node) error {
	order := map[Type]int{TypeHeader: 0, TypeBody: 1, TypeFooter: 2}
	last, bodies := -1, 0
	for _, c := range p.Content {
		if c == nil {
			return perrors.New(perrors.ErrCodeInvalidDocument, "nil node in page")
		}
		rank, ok := order[c.Type]
		if !ok {
			return perrors.New(perrors.ErrCodeInvalidDocument, "page cannot contain %q", c.Type)
		}
		if rank <= last {
			return perrors.New(perrors.ErrCodeInvalidDocument, "page regions out of order at %q", c.Type)
		}
		last = rank
		if c.Type == TypeBody {
			bodies++
		}
		for _, b := range c.Content {
			if err := validateBlock(b); err != nil {
				return fmt.Errorf("%s: %w", c.Type, err)
			}
		}
	}
	if bodies != 1 {
		return perrors.New(perrors.ErrCodeInvalidDocument, "page must contain exactly one body")
	}
	return nil
}

func validateBlock(b *Node) error {
	if b == nil {
		return perrors.New(perrors.ErrCodeInvalidDocument, "nil block")
	}
	if b.IsStructural() {
		return perrors.New(perrors.ErrCodeInvalidDocument, "%q is not a flow block", b.Type)
	}
	if (b.IsTextblock() || b.IsAtom()) && len(b.Content) > 0 {
		return perrors.New(perrors.ErrCodeInvalidDocument, "%q cannot have children", b.Type)
	}
	if !b.IsTextblock() && b.Text != "" {
		return perrors.New(perrors.ErrCodeInvalidDocument, "%q cannot hold text", b.Type)
	}
	for _, c := range b.Content {
		if err := validateBlock(c); err != nil {
			return err
		}
	}
	return nil
}
