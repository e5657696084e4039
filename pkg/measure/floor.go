package measure

import (
	"github.com/charmbracelet/log"
)

// Floor wraps an oracle so that measurement never fails: errors and
// zero heights become Min (or MinHeight when Min is zero). Non-finite and
// negative heights pass through untouched so the packer can reject them.
type Floor struct {
	Oracle Oracle
	Min    float64
	Logger *log.Logger
}

// Measure implements Oracle. The returned error is always nil.
func (f Floor) Measure(ref Ref) (Dimensions, error) {
	floor := f.Min
	if floor <= 0 {
		floor = MinHeight
	}

	dim, err := f.Oracle.Measure(ref)
	if err != nil {
		if f.Logger != nil {
			f.Logger.Debug("measurement failed, using minimum height",
				"block", ref.Index, "min", floor, "error", err)
		}
		return Dimensions{Height: floor}, nil
	}
	if dim.Height == 0 {
		dim.Height = floor
	}
	return dim, nil
}
