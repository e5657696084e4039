package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pageflow/pkg/cache"
	"github.com/matzehuels/pageflow/pkg/doc"
	"github.com/matzehuels/pageflow/pkg/engine"
	perrors "github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/observability"
	"github.com/matzehuels/pageflow/pkg/pack"
)

// keyType labels cache hook events.
const keyType = "layout"

// Runner executes pagination runs with caching. It holds no per-run state;
// multiple goroutines may share one Runner.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses cache.DefaultKeyer, and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// cached is the cache entry of a run.
type cached struct {
	Document json.RawMessage    `json:"document"`
	Pages    []pack.PageSummary `json:"pages"`
	Blocks   int                `json:"blocks"`
	Changed  bool               `json:"changed"`
}

// Paginate parses opts.Document, packs it into pages and returns the
// result, consulting the cache first.
func (r *Runner) Paginate(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.logger(opts)
	mode, _ := pack.ParseMode(opts.Mode)

	d, err := doc.ReadJSON(bytes.NewReader(opts.Document))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	canonical, err := doc.MarshalJSONBytes(d)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "encode input document")
	}

	res := &Result{DocHash: cache.Hash(canonical)}
	res.CacheInfo.Key = r.Keyer.LayoutKey(res.DocHash, cache.LayoutKeyOpts{
		Mode:      opts.Mode,
		Page:      opts.Defaults,
		Oracle:    opts.Oracle,
		MinHeight: opts.MinHeight,
	})

	hooks := observability.Cache()
	if !opts.Refresh {
		if c, ok := r.lookup(ctx, res.CacheInfo.Key, logger); ok {
			hooks.OnCacheHit(ctx, keyType)
			res.Document = c.Document
			res.Pages = c.Pages
			res.Changed = c.Changed
			res.CacheInfo.Hit = true
			res.Stats = stats(c.Blocks, c.Pages, time.Since(start))
			logger.Debug("layout cache hit", "pages", len(c.Pages))
			return res, nil
		}
		hooks.OnCacheMiss(ctx, keyType)
	}

	eng := engine.New(opts.Oracle,
		engine.WithDefaults(*opts.Defaults),
		engine.WithMinHeight(opts.MinHeight),
		engine.WithLogger(logger))
	pass, err := eng.Run(ctx, d, doc.Cursor(d.FirstCursor()), mode)
	if err != nil {
		return nil, fmt.Errorf("paginate: %w", err)
	}

	out, err := doc.MarshalJSONBytes(pass.Doc)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "encode paginated document")
	}
	res.Document = out
	res.Pages = pass.Pages
	res.Changed = pass.Changed
	res.Stats = stats(pass.Blocks, pass.Pages, time.Since(start))

	entry, err := json.Marshal(cached{Document: out, Pages: pass.Pages, Blocks: pass.Blocks, Changed: pass.Changed})
	if err == nil {
		if err := r.Cache.Set(ctx, res.CacheInfo.Key, entry, cache.TTLLayout); err != nil {
			logger.Warn("layout cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, keyType, len(entry))
		}
	}

	logger.Info("paginated document",
		"mode", mode,
		"blocks", res.Stats.Blocks,
		"pages", res.Stats.Pages,
		"duration", res.Stats.Duration)
	return res, nil
}

// lookup reads and decodes a cache entry. Backend and decode errors are
// misses.
func (r *Runner) lookup(ctx context.Context, key string, logger *log.Logger) (*cached, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("layout cache read failed", "error", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	var c cached
	if err := json.Unmarshal(data, &c); err != nil {
		logger.Debug("discarding corrupt layout cache entry", "error", err)
		return nil, false
	}
	return &c, true
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

func stats(blocks int, pages []pack.PageSummary, d time.Duration) Stats {
	s := Stats{Blocks: blocks, Pages: len(pages), Duration: d}
	for _, p := range pages {
		if p.Overflow {
			s.Overflow++
		}
	}
	return s
}
