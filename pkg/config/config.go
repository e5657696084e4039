// Package config loads pageflow settings from TOML.
//
// Every section has a usable default, so a config file only needs the keys it
// changes:
//
//	[trigger]
//	drift_chars = 8
//	paste_delay = "150ms"
//
//	[page]
//	paper = "letter"
//
//	[page.header]
//	text = "Quarterly report"
//	height = 36
//	page_number = { show = true, format = "- {n} -" }
//
// Trigger values tune when a session repaginates; they never change what a
// pass computes.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pageflow/pkg/doc"
	perrors "github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/measure"
	"github.com/matzehuels/pageflow/pkg/pack"
	"github.com/matzehuels/pageflow/pkg/session"
)

// Cache backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Duration is a time.Duration written as a Go duration string ("100ms").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete configuration.
type Config struct {
	Trigger Trigger `toml:"trigger"`
	Page    Page    `toml:"page"`
	Measure Measure `toml:"measure"`
	Cache   Cache   `toml:"cache"`
}

// Trigger tunes the repagination controller.
type Trigger struct {
	DriftChars       int      `toml:"drift_chars"`
	MinInterval      Duration `toml:"min_interval"`
	DelayedDelay     Duration `toml:"delayed_delay"`
	PasteDelay       Duration `toml:"paste_delay"`
	PasteGrace       Duration `toml:"paste_grace"`
	FailureThreshold int      `toml:"failure_threshold"`
	Cooldown         Duration `toml:"cooldown"`
}

// Page describes pages created beyond the source document's page count.
type Page struct {
	Paper       string      `toml:"paper"`
	Width       float64     `toml:"width"`
	Height      float64     `toml:"height"`
	Orientation string      `toml:"orientation"`
	Margins     doc.Margins `toml:"margins"`
	Header      *Region     `toml:"header"`
	Footer      *Region     `toml:"footer"`
}

// Region is a header or footer with a single line of text.
type Region struct {
	Text       string         `toml:"text"`
	Height     float64        `toml:"height"`
	Offset     float64        `toml:"offset"`
	PageNumber doc.PageNumber `toml:"page_number"`
}

// Measure configures the text-estimating height oracle.
type Measure struct {
	CharsPerLine int     `toml:"chars_per_line"`
	LineHeight   float64 `toml:"line_height"`
	HeadingScale float64 `toml:"heading_scale"`
	AtomHeight   float64 `toml:"atom_height"`
	BlockMargin  float64 `toml:"block_margin"`
	MinHeight    float64 `toml:"min_height"`
}

// Cache selects the pipeline cache backend.
type Cache struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// Default returns the stock configuration.
func Default() Config {
	th := session.DefaultThresholds()
	attrs := doc.DefaultPageAttrs()
	o := measure.DefaultTextOracle()
	return Config{
		Trigger: Trigger{
			DriftChars:       th.DriftChars,
			MinInterval:      Duration(th.MinInterval),
			DelayedDelay:     Duration(th.DelayedDelay),
			PasteDelay:       Duration(th.PasteDelay),
			PasteGrace:       Duration(th.PasteGrace),
			FailureThreshold: th.FailureThreshold,
			Cooldown:         Duration(th.Cooldown),
		},
		Page: Page{
			Paper:       attrs.Paper,
			Orientation: string(attrs.Orientation),
			Margins:     attrs.Margins,
		},
		Measure: Measure{
			CharsPerLine: o.CharsPerLine,
			LineHeight:   o.LineHeight,
			HeadingScale: o.HeadingScale,
			AtomHeight:   o.AtomHeight,
			BlockMargin:  o.BlockMargin,
			MinHeight:    measure.MinHeight,
		},
		Cache: Cache{
			Backend: BackendFile,
			TTL:     Duration(7 * 24 * time.Hour),
		},
	}
}

// Load reads the TOML file at path on top of Default and validates the
// result. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	return Parse(string(data))
}

// Parse decodes TOML text on top of Default and validates the result.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, perrors.New(perrors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	t := c.Trigger
	if t.DriftChars < 0 {
		return invalid("trigger.drift_chars must not be negative")
	}
	if t.FailureThreshold < 1 {
		return invalid("trigger.failure_threshold must be at least 1")
	}
	for name, d := range map[string]Duration{
		"min_interval":  t.MinInterval,
		"delayed_delay": t.DelayedDelay,
		"paste_delay":   t.PasteDelay,
		"paste_grace":   t.PasteGrace,
		"cooldown":      t.Cooldown,
	} {
		if d < 0 {
			return invalid("trigger.%s must not be negative", name)
		}
	}

	p := c.Page
	if p.Paper != "" {
		if _, ok := doc.LookupPaper(p.Paper); !ok {
			return invalid("page.paper: unknown paper size %q", p.Paper)
		}
	}
	if p.Width < 0 || p.Height < 0 {
		return invalid("page.width and page.height must not be negative")
	}
	switch doc.Orientation(p.Orientation) {
	case "", doc.Portrait, doc.Landscape:
	default:
		return invalid("page.orientation must be %q or %q", doc.Portrait, doc.Landscape)
	}
	for name, r := range map[string]*Region{"header": p.Header, "footer": p.Footer} {
		if r == nil {
			continue
		}
		if r.Height < 0 || !finite(r.Height) {
			return invalid("page.%s.height must be a non-negative number", name)
		}
		if r.PageNumber.Format != "" {
			if err := perrors.ValidatePageNumberFormat(r.PageNumber.Format); err != nil {
				return perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "page.%s.page_number", name)
			}
		}
	}

	m := c.Measure
	if m.CharsPerLine < 1 {
		return invalid("measure.chars_per_line must be at least 1")
	}
	if m.LineHeight <= 0 || !finite(m.LineHeight) {
		return invalid("measure.line_height must be positive")
	}
	if m.MinHeight < 0 || !finite(m.MinHeight) {
		return invalid("measure.min_height must not be negative")
	}

	switch c.Cache.Backend {
	case "", BackendNone, BackendFile:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return invalid("cache.redis_addr is required for the redis backend")
		}
	default:
		return invalid("cache.backend %q is not one of none, file, redis", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return invalid("cache.ttl must not be negative")
	}
	return nil
}

// Thresholds returns the session trigger tuning.
func (c Config) Thresholds() session.Thresholds {
	t := c.Trigger
	return session.Thresholds{
		DriftChars:       t.DriftChars,
		MinInterval:      t.MinInterval.Std(),
		DelayedDelay:     t.DelayedDelay.Std(),
		PasteDelay:       t.PasteDelay.Std(),
		PasteGrace:       t.PasteGrace.Std(),
		FailureThreshold: t.FailureThreshold,
		Cooldown:         t.Cooldown.Std(),
	}
}

// Defaults returns the attributes and regions of new pages.
func (c Config) Defaults() pack.Defaults {
	p := c.Page
	return pack.Defaults{
		Page: doc.PageAttrs{
			Paper:       p.Paper,
			Width:       p.Width,
			Height:      p.Height,
			Orientation: doc.Orientation(p.Orientation),
			Color:       doc.DefaultPageAttrs().Color,
			Margins:     p.Margins,
		},
		Header: p.Header.node(doc.TypeHeader),
		Footer: p.Footer.node(doc.TypeFooter),
	}
}

// Oracle returns the text-estimating oracle.
func (c Config) Oracle() measure.TextOracle {
	m := c.Measure
	return measure.TextOracle{
		CharsPerLine: m.CharsPerLine,
		LineHeight:   m.LineHeight,
		HeadingScale: m.HeadingScale,
		AtomHeight:   m.AtomHeight,
		BlockMargin:  m.BlockMargin,
	}
}

func (r *Region) node(t doc.Type) *doc.Node {
	if r == nil {
		return nil
	}
	attrs := &doc.RegionAttrs{Offset: r.Offset, Height: r.Height, PageNumber: r.PageNumber}
	return doc.NewRegion(t, attrs, doc.Paragraph(r.Text))
}

func invalid(format string, args ...any) error {
	return perrors.New(perrors.ErrCodeInvalidConfig, format, args...)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// String renders the configuration as TOML.
func (c Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
