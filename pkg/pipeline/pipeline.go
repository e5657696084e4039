// Package pipeline paginates whole documents in one shot, with caching.
//
// Where a session repaginates a live document as it is edited, the pipeline
// takes a serialized document, runs a single pass over it and returns the
// paginated result. The CLI and batch jobs use it:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Paginate(ctx, pipeline.Options{
//	    Document: data,
//	    Mode:     "bulk",
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(len(res.Pages), "pages")
//
// Results are cached by the hash of the canonical document JSON together
// with every option that changes the outcome.
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	perrors "github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/measure"
	"github.com/matzehuels/pageflow/pkg/pack"
)

// =============================================================================
// Options
// =============================================================================

// Options configures one pagination run.
type Options struct {
	// Document is the input document JSON.
	Document []byte `json:"-"`

	// Mode is "strict" (default) or "bulk".
	Mode string `json:"mode,omitempty"`

	// Defaults describe pages beyond the input's page count. The zero
	// value is replaced by pack.DefaultDefaults.
	Defaults *pack.Defaults `json:"-"`

	// Oracle estimates block heights. The zero value is replaced by
	// measure.DefaultTextOracle.
	Oracle measure.TextOracle `json:"oracle"`

	// MinHeight replaces unmeasurable and empty block heights.
	MinHeight float64 `json:"min_height,omitempty"`

	// Refresh skips the cache lookup; the result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Document) == 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "document is empty")
	}
	if _, err := pack.ParseMode(o.Mode); err != nil {
		return err
	}
	if o.Mode == "" {
		o.Mode = pack.ModeStrict.String()
	}
	if o.Defaults == nil {
		d := pack.DefaultDefaults()
		o.Defaults = &d
	}
	if o.Oracle == (measure.TextOracle{}) {
		o.Oracle = measure.DefaultTextOracle()
	}
	if o.Oracle.CharsPerLine < 1 || o.Oracle.LineHeight <= 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "oracle needs chars_per_line >= 1 and a positive line_height")
	}
	if o.MinHeight < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "min_height must not be negative")
	}
	if o.MinHeight == 0 {
		o.MinHeight = measure.MinHeight
	}
	o.validated = true
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of a pagination run.
type Result struct {
	// Document is the paginated document JSON (compact).
	Document []byte

	// DocHash is the content hash of the canonical input document.
	DocHash string

	// Pages summarizes every output page.
	Pages []pack.PageSummary

	// Changed reports whether pagination altered the document.
	Changed bool

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats are run statistics.
type Stats struct {
	Blocks   int
	Pages    int
	Overflow int
	Duration time.Duration
}

// CacheInfo reports how the cache was used.
type CacheInfo struct {
	Key string
	Hit bool
}
