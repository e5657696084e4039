package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pageflow/pkg/doc"
	perrors "github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/measure"
	"github.com/matzehuels/pageflow/pkg/session"
)

func TestDefaultMatchesPackages(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if diff := cmp.Diff(session.DefaultThresholds(), cfg.Thresholds()); diff != "" {
		t.Errorf("Thresholds() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(measure.DefaultTextOracle(), cfg.Oracle()); diff != "" {
		t.Errorf("Oracle() mismatch (-want +got):\n%s", diff)
	}
	if got, want := cfg.Defaults().Page, doc.DefaultPageAttrs(); got != want {
		t.Errorf("Defaults().Page = %+v, want %+v", got, want)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[trigger]
drift_chars = 8
paste_delay = "150ms"
cooldown = "2s"

[page]
paper = "letter"
orientation = "landscape"

[page.header]
text = "Quarterly report"
height = 36
page_number = { show = true, format = "- {n} -" }

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "1h"
`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	th := cfg.Thresholds()
	if th.DriftChars != 8 || th.PasteDelay != 150*time.Millisecond || th.Cooldown != 2*time.Second {
		t.Errorf("Thresholds() = %+v", th)
	}
	if th.MinInterval != 100*time.Millisecond {
		t.Errorf("unset min_interval = %v, want default 100ms", th.MinInterval)
	}

	def := cfg.Defaults()
	if def.Page.Paper != "letter" || def.Page.Orientation != doc.Landscape {
		t.Errorf("Defaults().Page = %+v", def.Page)
	}
	if w, h := def.Page.Size(); w != 792 || h != 612 {
		t.Errorf("Size() = %v x %v, want 792 x 612", w, h)
	}
	if def.Header == nil || def.Header.Type != doc.TypeHeader {
		t.Fatalf("Defaults().Header = %+v", def.Header)
	}
	if got := def.Header.Region.PageLabel(3); got != "- 3 -" {
		t.Errorf("header PageLabel(3) = %q", got)
	}
	if def.Footer != nil {
		t.Errorf("Defaults().Footer = %+v, want nil", def.Footer)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.TTL.Std() != time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", `[trigger`},
		{"bad duration", "[trigger]\npaste_delay = \"soon\""},
		{"unknown key", "[trigger]\ndrift = 3"},
		{"negative drift", "[trigger]\ndrift_chars = -1"},
		{"zero failure threshold", "[trigger]\nfailure_threshold = 0"},
		{"negative delay", "[trigger]\ncooldown = \"-1s\""},
		{"unknown paper", "[page]\npaper = \"b5\""},
		{"bad orientation", "[page]\norientation = \"sideways\""},
		{"page number without placeholder", "[page.footer]\npage_number = { show = true, format = \"Page\" }"},
		{"zero chars per line", "[measure]\nchars_per_line = 0"},
		{"redis without address", "[cache]\nbackend = \"redis\""},
		{"unknown backend", "[cache]\nbackend = \"memcached\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			if !perrors.Is(err, perrors.ErrCodeInvalidConfig) {
				t.Errorf("Parse() error = %v, want code %s", err, perrors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pageflow.toml")
	if err := os.WriteFile(path, []byte("[measure]\nline_height = 16\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Oracle().LineHeight != 16 {
		t.Errorf("LineHeight = %v, want 16", cfg.Oracle().LineHeight)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !perrors.Is(err, perrors.ErrCodeInvalidConfig) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Page.Footer = &Region{Text: "footer", Height: 24, PageNumber: doc.PageNumber{Show: true, Format: "{n}"}}

	back, err := Parse(cfg.String())
	if err != nil {
		t.Fatalf("Parse(String()) error = %v\n%s", err, cfg.String())
	}
	if diff := cmp.Diff(cfg, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
