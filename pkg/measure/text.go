package measure

import (
	"fmt"
	"math"

	"github.com/matzehuels/pageflow/pkg/doc"
)

// HeightHint is the metadata key a block can use to declare its own height,
// typically set on images.
const HeightHint = "height"

// TextOracle estimates block heights without a rendering surface: a
// textblock wraps every CharsPerLine runes and each line is LineHeight tall.
// Headings use HeadingScale times the line height. Atoms use AtomHeight.
// A numeric "height" entry in the block's metadata overrides the estimate.
type TextOracle struct {
	CharsPerLine int
	LineHeight   float64
	HeadingScale float64
	AtomHeight   float64
	BlockMargin  float64
}

// DefaultTextOracle returns estimates for 11pt text on an A4 body.
func DefaultTextOracle() TextOracle {
	return TextOracle{
		CharsPerLine: 90,
		LineHeight:   14,
		HeadingScale: 1.6,
		AtomHeight:   MinHeight,
		BlockMargin:  6,
	}
}

// Measure implements Oracle.
func (o TextOracle) Measure(ref Ref) (Dimensions, error) {
	n := ref.Node
	if n == nil {
		return Dimensions{}, fmt.Errorf("%w: nil node at %d", ErrUnmeasurable, ref.Index)
	}
	dim := Dimensions{TopMargin: o.BlockMargin}

	if h, ok := hint(n); ok {
		dim.Height = h
		return dim, nil
	}

	switch {
	case n.IsAtom():
		dim.Height = o.AtomHeight
	case n.IsTextblock():
		per := max(o.CharsPerLine, 1)
		lines := max(1, int(math.Ceil(float64(n.TextLen())/float64(per))))
		lh := o.LineHeight
		if n.Type == doc.TypeHeading && o.HeadingScale > 0 {
			lh *= o.HeadingScale
		}
		dim.Height = float64(lines) * lh
	default:
		// Containers (lists, quotes) stack their children.
		for i, c := range n.Content {
			cd, err := o.Measure(Ref{Index: i, Node: c})
			if err != nil {
				return Dimensions{}, err
			}
			dim.Height += cd.Outer()
		}
	}
	return dim, nil
}

func hint(n *doc.Node) (float64, bool) {
	v, ok := n.Meta[HeightHint]
	if !ok {
		return 0, false
	}
	switch h := v.(type) {
	case float64:
		return h, true
	case float32:
		return float64(h), true
	case int:
		return float64(h), true
	case int64:
		return float64(h), true
	}
	return 0, false
}
