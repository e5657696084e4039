package measure

import (
	"fmt"

	"github.com/matzehuels/pageflow/pkg/doc"
)

// Fixed returns an oracle that reports the same height for every block.
func Fixed(height float64) Oracle {
	return OracleFunc(func(Ref) (Dimensions, error) {
		return Dimensions{Height: height}, nil
	})
}

// Heights returns an oracle that reports heights[ref.Index]. Indexes past the
// end of the slice fail with ErrUnmeasurable.
func Heights(heights ...float64) Oracle {
	return OracleFunc(func(ref Ref) (Dimensions, error) {
		if ref.Index < 0 || ref.Index >= len(heights) {
			return Dimensions{}, fmt.Errorf("%w: index %d", ErrUnmeasurable, ref.Index)
		}
		return Dimensions{Height: heights[ref.Index]}, nil
	})
}

// ByType returns an oracle that looks dimensions up by node type, falling
// back to def for unlisted types.
func ByType(dims map[doc.Type]Dimensions, def Dimensions) Oracle {
	return OracleFunc(func(ref Ref) (Dimensions, error) {
		if ref.Node == nil {
			return def, nil
		}
		if d, ok := dims[ref.Node.Type]; ok {
			return d, nil
		}
		return def, nil
	})
}
