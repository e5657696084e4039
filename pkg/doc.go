// Package pkg provides the core libraries for Pageflow pagination.
//
// # Overview
//
// Pageflow keeps a rich-text document split into fixed-size pages. Blocks
// flow from page to page as the document is edited, page furniture (headers,
// footers, page attributes) survives every pass, and the cursor stays where
// the user left it. The pkg directory is organized into three areas:
//
//  1. Document model: [doc], positions, JSON and structural diffs
//  2. Pagination: [measure], [pack], [remap], [engine], [boundary]
//  3. Live editing and batch use: [session], [pipeline], [cache], [config]
//
// # Architecture
//
// A repagination pass:
//
//	doc.Node + Selection
//	         ↓
//	    [pack] package (extract flow blocks in document order)
//	         ↓
//	    [measure] package (block heights, with a minimum-height floor)
//	         ↓
//	    [pack] package (greedy page breaks, page skeletons, position map)
//	         ↓
//	    [remap] package (carry the selection into the new document)
//	         ↓
//	    doc.Diff → replacement steps for the host editor
//
// # Quick Start
//
// Paginate a document once:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/pageflow/pkg/doc"
//	    "github.com/matzehuels/pageflow/pkg/engine"
//	    "github.com/matzehuels/pageflow/pkg/measure"
//	    "github.com/matzehuels/pageflow/pkg/pack"
//	)
//
//	d, _ := doc.ImportJSON("report.json")
//	eng := engine.New(measure.DefaultTextOracle())
//	pass, _ := eng.Run(context.Background(), d, doc.Cursor(d.FirstCursor()), pack.ModeStrict)
//	fmt.Println(len(pass.Pages), "pages")
//
// Keep an editor paginated while the user types:
//
//	sess := session.New(ctx, host, eng, session.WithThresholds(cfg.Thresholds()))
//	defer sess.Close()
//
//	// after every host transaction
//	sess.Observe(session.Meta{ContentChanged: true, Paste: wasPaste})
//	sess.Update()
//
// # Main Packages
//
// [doc] - Node tree with page, header, body and footer containers, integer
// positions, position resolution, replacement steps and structural diffs.
//
// [measure] - Height oracles. [measure.TextOracle] estimates heights from
// text length; tests use fixed or per-index heights.
//
// [pack] - Block extraction, page layout resolution (attributes inherited
// from the previous page) and the greedy strict and bulk packers.
//
// [remap] - Selection remapping through the old-to-new position map, with
// exact, nearest and fallback strategies.
//
// [engine] - One repagination pass from document to replacement steps.
//
// [boundary] - Region boundary predicates and body-to-body navigation.
//
// [session] - Per-editor controller: drift and rate limits, paste deferral,
// a failure cooldown, and the timer that runs delayed passes.
//
// ## Batch
//
// [pipeline] - Paginate serialized documents with a layout cache, used by the
// CLI.
//
// [cache] - Layout cache backends: file (CLI), Redis (shared), null.
//
// [config] - TOML configuration for thresholds, page defaults and measurement.
//
// [errors] - Error codes and input validation.
//
// [observability] - Hooks for passes and cache lookups.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/session/...   # Specific package
//
// [doc]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/doc
// [measure]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/measure
// [measure.TextOracle]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/measure#TextOracle
// [pack]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/pack
// [remap]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/remap
// [engine]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/engine
// [boundary]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/boundary
// [session]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/session
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/pageflow/pkg/observability
package pkg
