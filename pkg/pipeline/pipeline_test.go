package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/pageflow/pkg/cache"
	"github.com/matzehuels/pageflow/pkg/doc"
	perrors "github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/measure"
	"github.com/matzehuels/pageflow/pkg/observability"
	"github.com/matzehuels/pageflow/pkg/pack"
)

// memCache is an in-memory cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

// cacheEvents records cache hook calls.
type cacheEvents struct {
	mu                sync.Mutex
	hits, misses, set int
}

func (e *cacheEvents) OnCacheHit(context.Context, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hits++
}

func (e *cacheEvents) OnCacheMiss(context.Context, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.misses++
}

func (e *cacheEvents) OnCacheSet(context.Context, string, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set++
}

// testOptions packs five 20-point paragraphs per 100-point page.
func testOptions(t *testing.T, blocks int) Options {
	t.Helper()
	paras := make([]*doc.Node, blocks)
	for i := range paras {
		paras[i] = doc.Paragraph(fmt.Sprintf("p%d", i))
	}
	data, err := doc.MarshalJSONBytes(doc.NewDoc(paras...))
	if err != nil {
		t.Fatal(err)
	}
	return Options{
		Document: data,
		Defaults: &pack.Defaults{Page: doc.PageAttrs{Width: 200, Height: 100}},
		Oracle:   measure.TextOracle{CharsPerLine: 10, LineHeight: 20, AtomHeight: 20},
	}
}

func TestPaginate(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Paginate(context.Background(), testOptions(t, 12))
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if !res.Changed {
		t.Error("Changed = false for a document without pages")
	}
	if res.Stats.Pages != 3 || res.Stats.Blocks != 12 {
		t.Errorf("Stats = %+v, want 3 pages of 12 blocks", res.Stats)
	}
	wantCounts := []int{5, 5, 2}
	for i, p := range res.Pages {
		if p.Count != wantCounts[i] {
			t.Errorf("page %d holds %d blocks, want %d", i, p.Count, wantCounts[i])
		}
	}

	out, err := doc.ReadJSON(bytes.NewReader(res.Document))
	if err != nil {
		t.Fatalf("result is not a valid document: %v", err)
	}
	if got := len(out.Pages()); got != 3 {
		t.Errorf("result has %d pages, want 3", got)
	}
}

func TestPaginateIdempotent(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	opts := testOptions(t, 7)
	first, err := r.Paginate(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}

	opts.Document = first.Document
	opts.validated = false
	second, err := r.Paginate(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if second.Changed {
		t.Error("paginating a paginated document should change nothing")
	}
	if string(second.Document) != string(first.Document) {
		t.Error("second run altered the document")
	}
}

func TestPaginateCache(t *testing.T) {
	events := &cacheEvents{}
	observability.SetCacheHooks(events)
	t.Cleanup(observability.Reset)

	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	first, err := r.Paginate(ctx, testOptions(t, 6))
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.Hit {
		t.Error("first run should miss")
	}

	second, err := r.Paginate(ctx, testOptions(t, 6))
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.Hit {
		t.Error("second run should hit")
	}
	if second.CacheInfo.Key != first.CacheInfo.Key || string(second.Document) != string(first.Document) {
		t.Error("cached result differs from computed result")
	}
	if second.Stats.Pages != first.Stats.Pages || second.Stats.Blocks != first.Stats.Blocks {
		t.Errorf("cached stats = %+v, want %+v", second.Stats, first.Stats)
	}

	bulk := testOptions(t, 6)
	bulk.Mode = "bulk"
	third, err := r.Paginate(ctx, bulk)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.Hit || third.CacheInfo.Key == first.CacheInfo.Key {
		t.Error("a different mode must not share the cache entry")
	}

	refresh := testOptions(t, 6)
	refresh.Refresh = true
	res, err := r.Paginate(ctx, refresh)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.Hit {
		t.Error("refresh run should not read the cache")
	}

	if events.hits != 1 || events.misses != 2 || events.set != 3 {
		t.Errorf("hooks: hits=%d misses=%d sets=%d, want 1/2/3", events.hits, events.misses, events.set)
	}
	if c.sets != 3 {
		t.Errorf("cache writes = %d, want 3", c.sets)
	}
}

func TestPaginateCorruptCacheEntry(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	first, err := r.Paginate(ctx, testOptions(t, 3))
	if err != nil {
		t.Fatal(err)
	}
	c.data[first.CacheInfo.Key] = []byte("{")

	again, err := r.Paginate(ctx, testOptions(t, 3))
	if err != nil {
		t.Fatal(err)
	}
	if again.CacheInfo.Hit {
		t.Error("corrupt entry should be a miss")
	}
}

func TestPaginateScopedKeyer(t *testing.T) {
	r := NewRunner(nil, cache.NewScopedKeyer(nil, "ws:1:"), nil)
	res, err := r.Paginate(context.Background(), testOptions(t, 2))
	if err != nil {
		t.Fatal(err)
	}
	if got := res.CacheInfo.Key[:5]; got != "ws:1:" {
		t.Errorf("key prefix = %q", got)
	}
}

func TestPaginateErrors(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	tests := []struct {
		name   string
		modify func(*Options)
		code   perrors.Code
	}{
		{"empty document", func(o *Options) { o.Document = nil }, perrors.ErrCodeInvalidInput},
		{"unknown mode", func(o *Options) { o.Mode = "fast" }, perrors.ErrCodeInvalidInput},
		{"negative min height", func(o *Options) { o.MinHeight = -1 }, perrors.ErrCodeInvalidInput},
		{"malformed json", func(o *Options) { o.Document = []byte(`{"type":`) }, perrors.ErrCodeInvalidDocument},
		{"wrong root", func(o *Options) { o.Document = []byte(`{"type":"page"}`) }, perrors.ErrCodeInvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, 2)
			tt.modify(&opts)
			_, err := r.Paginate(context.Background(), opts)
			if !perrors.Is(err, tt.code) {
				t.Errorf("Paginate() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := Options{Document: []byte("{}")}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Mode != "strict" {
		t.Errorf("Mode = %q, want strict", opts.Mode)
	}
	if opts.Oracle != measure.DefaultTextOracle() {
		t.Errorf("Oracle = %+v, want defaults", opts.Oracle)
	}
	if opts.MinHeight != measure.MinHeight {
		t.Errorf("MinHeight = %v, want %v", opts.MinHeight, measure.MinHeight)
	}
	if opts.Defaults == nil || opts.Defaults.Page != doc.DefaultPageAttrs() {
		t.Errorf("Defaults = %+v", opts.Defaults)
	}
}
