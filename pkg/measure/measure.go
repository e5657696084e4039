// Package measure defines the Height Oracle consulted by a repagination pass.
//
// An [Oracle] answers one question: how tall is this flow block, and how
// much space sits above it. The packing algorithm never talks to a rendering
// surface directly, so tests and batch tools can substitute a deterministic
// oracle:
//
//   - [Fixed], [Heights] and [ByType]: stub oracles for tests
//   - [TextOracle]: estimates heights from text length (used by the CLI)
//   - [Floor]: wraps any oracle and replaces failures and zero heights with
//     a minimum height, so measurement errors are never fatal
//
// # Usage
//
//	o := measure.Floor{Oracle: measure.TextOracle{CharsPerLine: 80, LineHeight: 14}}
//	dim, _ := o.Measure(measure.Ref{Index: 0, Node: block})
//	total := dim.Outer()
package measure

import (
	"errors"

	"github.com/matzehuels/pageflow/pkg/doc"
)

// MinHeight is the default height substituted for blocks that measure as
// zero or cannot be measured (empty placeholders, unresolved images).
const MinHeight = 18.0

// ErrUnmeasurable is returned by oracles that cannot size a block.
var ErrUnmeasurable = errors.New("block cannot be measured")

// Ref identifies the block being measured: its position in the flow and the
// node itself.
type Ref struct {
	Index int
	Node  *doc.Node
}

// Dimensions is the rendered size of a block in points.
type Dimensions struct {
	Height    float64 `json:"height"`
	TopMargin float64 `json:"top_margin"`
}

// Outer returns the vertical space the block consumes: height plus top margin.
func (d Dimensions) Outer() float64 { return d.Height + d.TopMargin }

// Oracle measures flow blocks. Implementations must be synchronous and
// deterministic for an unchanged document.
type Oracle interface {
	Measure(ref Ref) (Dimensions, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ref Ref) (Dimensions, error)

// Measure calls f(ref).
func (f OracleFunc) Measure(ref Ref) (Dimensions, error) { return f(ref) }
