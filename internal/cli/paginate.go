package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pageflow/pkg/config"
	perrors "github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/pipeline"
)

// pagedSuffix replaces ".json" in output names derived from input names.
const pagedSuffix = ".paged.json"

type paginateOpts struct {
	output  string
	bulk    bool
	noCache bool
	refresh bool
	jobs    int
}

// paginateCommand creates the paginate command.
func (c *CLI) paginateCommand() *cobra.Command {
	var opts paginateOpts

	cmd := &cobra.Command{
		Use:   "paginate FILE...",
		Short: "Split JSON documents into pages",
		Long: `Paginate reads one or more JSON documents, distributes their blocks over
pages and writes the paginated documents back as JSON.

With a single input the result goes to stdout unless -o names a file. With
several inputs, -o names a directory (default: next to each input) and the
outputs are called NAME.paged.json.`,
		Example: `  pageflow paginate report.json -o report.paged.json
  pageflow paginate --bulk chapters/*.json -o out/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPaginate(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (one input) or directory (several inputs)")
	cmd.Flags().BoolVar(&opts.bulk, "bulk", false, "pack as after a paste: break only once a page is full")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached result exists")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "documents paginated concurrently")

	return cmd
}

func (c *CLI) runPaginate(ctx context.Context, files []string, opts paginateOpts) error {
	for _, f := range files {
		if err := perrors.ValidateDocumentPath(f); err != nil {
			return err
		}
	}
	outputs, err := outputPaths(files, opts.output)
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cfg.Cache, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	base := baseOptions(cfg, opts)

	results := make([]*pipeline.Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.jobs, 1))
	for i, f := range files {
		g.Go(func() error {
			data, err := os.ReadFile(f)
			if err != nil {
				return err
			}
			o := base
			o.Document = data
			o.Logger = logger.With("file", filepath.Base(f))
			res, err := runner.Paginate(gctx, o)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, f := range files {
		res := results[i]
		out := outputs[i]
		if out == "" {
			if err := writeIndented(c.ui.w, res.Document); err != nil {
				return err
			}
			continue
		}
		if err := writeDocument(out, res.Document); err != nil {
			return err
		}
		c.ui.success("%s", filepath.Base(f))
		c.ui.stats(res.Stats.Blocks, res.Stats.Pages, res.Stats.Overflow, res.CacheInfo.Hit)
		c.ui.file(out)
	}
	if len(files) > 1 {
		prog.done(fmt.Sprintf("Paginated %d documents", len(files)))
	}
	return nil
}

// baseOptions maps configuration and flags onto pipeline options.
func baseOptions(cfg config.Config, opts paginateOpts) pipeline.Options {
	defaults := cfg.Defaults()
	mode := "strict"
	if opts.bulk {
		mode = "bulk"
	}
	return pipeline.Options{
		Mode:      mode,
		Defaults:  &defaults,
		Oracle:    cfg.Oracle(),
		MinHeight: cfg.Measure.MinHeight,
		Refresh:   opts.refresh,
	}
}

// outputPath decides where the result for input goes. An empty result
// means stdout.
func outputPath(input, output string, multi bool) string {
	if !multi {
		return output
	}
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + pagedSuffix
	if output == "" {
		return filepath.Join(filepath.Dir(input), name)
	}
	return filepath.Join(output, name)
}

// outputPaths resolves the output of every input and rejects inputs that
// would write the same file.
func outputPaths(files []string, output string) ([]string, error) {
	multi := len(files) > 1
	outputs := make([]string, len(files))
	seen := make(map[string]string, len(files))
	for i, f := range files {
		out := outputPath(f, output, multi)
		if prev, ok := seen[filepath.Clean(out)]; ok && out != "" {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "%s and %s would both write %s", prev, f, out)
		}
		seen[filepath.Clean(out)] = f
		outputs[i] = out
	}
	return outputs, nil
}

func writeDocument(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeIndented(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeIndented(w io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
