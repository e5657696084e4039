package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pageflow/pkg/config"
	"github.com/matzehuels/pageflow/pkg/doc"
	"github.com/matzehuels/pageflow/pkg/engine"
	perrors "github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/session"
)

// Script actions.
const (
	actionType    = "type"
	actionInsert  = "insert"
	actionPaste   = "paste"
	actionDelete  = "delete"
	actionWait    = "wait"
	actionRequest = "request"
)

// simEpoch is where the simulated clock starts.
var simEpoch = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

// simScript is an edit script:
//
//	paragraphs = ["Title", "First paragraph"]
//
//	[[step]]
//	action = "paste"
//	text = "pasted paragraph"
//	count = 40
//
//	[[step]]
//	action = "wait"
//	duration = "150ms"
type simScript struct {
	// Document is a JSON document to start from, relative to the script.
	Document string `toml:"document"`
	// Paragraphs build a fresh, unpaginated document instead.
	Paragraphs []string  `toml:"paragraphs"`
	Steps      []simStep `toml:"step"`
}

type simStep struct {
	Action   string          `toml:"action"`
	Text     string          `toml:"text"`
	Count    int             `toml:"count"`
	Duration config.Duration `toml:"duration"`
}

// simReport is the state after one step.
type simReport struct {
	Step     int
	Action   string
	Decision string
	Pages    int
	Blocks   int
	Cursor   int
	Passes   int
}

func loadScript(path string) (*simScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s simScript
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "parse script %s", path)
	}
	if s.Document != "" && !filepath.IsAbs(s.Document) {
		s.Document = filepath.Join(filepath.Dir(path), s.Document)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *simScript) validate() error {
	if s.Document != "" && len(s.Paragraphs) > 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "script sets both document and paragraphs")
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		switch st.Action {
		case actionType:
			if st.Text == "" {
				return perrors.New(perrors.ErrCodeInvalidInput, "step %d: type needs text", i+1)
			}
		case actionInsert, actionPaste, actionDelete:
			if st.Count < 0 {
				return perrors.New(perrors.ErrCodeInvalidInput, "step %d: count must not be negative", i+1)
			}
			if st.Count == 0 {
				st.Count = 1
			}
		case actionWait:
			if st.Duration <= 0 {
				return perrors.New(perrors.ErrCodeInvalidInput, "step %d: wait needs a positive duration", i+1)
			}
		case actionRequest:
		default:
			return perrors.New(perrors.ErrCodeInvalidInput, "step %d: unknown action %q", i+1, st.Action)
		}
	}
	return nil
}

func (s *simScript) initial() (*doc.Node, error) {
	if s.Document != "" {
		return doc.ImportJSON(s.Document)
	}
	blocks := make([]*doc.Node, len(s.Paragraphs))
	for i, p := range s.Paragraphs {
		blocks[i] = doc.Paragraph(p)
	}
	return doc.NewDoc(blocks...), nil
}

// simulateCommand creates the simulate command.
func (c *CLI) simulateCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "simulate SCRIPT.toml",
		Short: "Replay an edit script against a live pagination session",
		Long: `Simulate loads a document, opens a pagination session on it and applies
the edits of a TOML script one by one on a simulated clock. After every step
it prints the trigger decision, the page count and the cursor.

Actions: type (text at the cursor), insert and paste (count paragraphs after
the cursor), delete (count blocks from the cursor), wait (advance the clock),
request (force a pass).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := loadScript(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			d, err := script.initial()
			if err != nil {
				return err
			}

			sim := newSimulator(cmd.Context(), cfg, d, loggerFromContext(cmd.Context()))
			defer sim.close()
			reports, err := sim.run(script.Steps)
			if err != nil {
				return err
			}
			for _, r := range reports {
				c.printReport(r)
			}
			if output != "" {
				data, err := doc.MarshalJSONBytes(sim.host.Document())
				if err != nil {
					return err
				}
				if err := writeDocument(output, data); err != nil {
					return err
				}
				c.ui.file(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the final document to this file")
	return cmd
}

func (c *CLI) printReport(r simReport) {
	label := fmt.Sprintf("%2d %-8s", r.Step, r.Action)
	c.ui.info("%s %s %s", label, iconArrow, r.Decision)
	c.ui.detail("%d pages · %d blocks · cursor %d · %d passes", r.Pages, r.Blocks, r.Cursor, r.Passes)
}

// =============================================================================
// Simulator
// =============================================================================

type simulator struct {
	host  *simHost
	sess  *session.Session
	clock *session.ManualScheduler
}

func newSimulator(ctx context.Context, cfg config.Config, d *doc.Node, logger *log.Logger) *simulator {
	host := &simHost{doc: d, sel: doc.Cursor(d.FirstCursor())}
	clock := session.NewManualScheduler(simEpoch)
	eng := engine.New(cfg.Oracle(),
		engine.WithDefaults(cfg.Defaults()),
		engine.WithMinHeight(cfg.Measure.MinHeight),
		engine.WithLogger(logger))
	sess := session.New(ctx, host, eng,
		session.WithThresholds(cfg.Thresholds()),
		session.WithScheduler(clock),
		session.WithClock(clock),
		session.WithLogger(logger))
	host.attach(sess)
	return &simulator{host: host, sess: sess, clock: clock}
}

// run paginates the initial document and then applies steps in order.
func (s *simulator) run(steps []simStep) ([]simReport, error) {
	reports := []simReport{s.report(0, "load", s.sess.Request().String())}
	for i, st := range steps {
		decision := "-"
		switch st.Action {
		case actionType:
			if err := s.host.typeText(st.Text); err != nil {
				return reports, fmt.Errorf("step %d: %w", i+1, err)
			}
			decision = s.change(session.Meta{ContentChanged: true})
		case actionInsert, actionPaste:
			if err := s.host.insertParagraphs(st.Text, st.Count); err != nil {
				return reports, fmt.Errorf("step %d: %w", i+1, err)
			}
			decision = s.change(session.Meta{ContentChanged: true, Paste: st.Action == actionPaste})
		case actionDelete:
			deleted, err := s.host.deleteBlocks(st.Count)
			if err != nil {
				return reports, fmt.Errorf("step %d: %w", i+1, err)
			}
			if deleted {
				decision = s.change(session.Meta{ContentChanged: true})
			}
		case actionWait:
			s.clock.Advance(st.Duration.Std())
		case actionRequest:
			decision = s.sess.Request().String()
		}
		reports = append(reports, s.report(i+1, st.Action, decision))
	}
	return reports, nil
}

func (s *simulator) change(m session.Meta) string {
	s.sess.Observe(m)
	return s.sess.Update().String()
}

func (s *simulator) report(step int, action, decision string) simReport {
	d := s.host.Document()
	return simReport{
		Step:     step,
		Action:   action,
		Decision: decision,
		Pages:    len(d.Pages()),
		Blocks:   d.Stats().Blocks,
		Cursor:   s.host.Selection().Head,
		Passes:   s.sess.Passes(),
	}
}

func (s *simulator) close() { s.sess.Close() }

// =============================================================================
// In-memory host
// =============================================================================

// simHost is an in-memory editor. It reports every transaction it applies,
// its own edits and the session's, back to the session.
type simHost struct {
	mu   sync.Mutex
	doc  *doc.Node
	sel  doc.Selection
	sess *session.Session
}

func (h *simHost) attach(s *session.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sess = s
}

func (h *simHost) Document() *doc.Node {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.doc
}

func (h *simHost) Selection() doc.Selection {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sel
}

func (h *simHost) Dispatch(tx session.Transaction) error {
	h.mu.Lock()
	next, err := doc.Apply(h.doc, tx.Steps...)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.doc = next
	if tx.Selection != nil {
		h.sel = *tx.Selection
	}
	sess := h.sess
	h.mu.Unlock()

	if sess != nil {
		sess.Observe(tx.Meta)
	}
	return nil
}

// typeText inserts text at the cursor. Without a cursor in a textblock the
// text becomes a new paragraph at the end of the document.
func (h *simHost) typeText(text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	rp, ok := textblockAt(h.doc, h.sel.Head)
	if !ok {
		return h.insertAt(h.doc.ContentSize(), []*doc.Node{doc.Paragraph(text)})
	}
	depth := rp.Depth()
	tb := rp.Parent().Copy()
	runes := []rune(tb.Text)
	tb.Text = string(runes[:rp.ParentOffset]) + text + string(runes[rp.ParentOffset:])

	next, err := doc.Apply(h.doc, doc.Replacement{From: rp.Before(depth), To: rp.After(depth), Content: []*doc.Node{tb}})
	if err != nil {
		return err
	}
	h.doc = next
	h.sel = doc.Cursor(h.sel.Head + utf8.RuneCountInString(text))
	return nil
}

// insertParagraphs adds count paragraphs after the block holding the
// cursor and moves the cursor to the end of the last one.
func (h *simHost) insertParagraphs(text string, count int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	blocks := make([]*doc.Node, count)
	for i := range blocks {
		blocks[i] = doc.Paragraph(text)
	}
	pos := h.doc.ContentSize()
	if rp, ok := textblockAt(h.doc, h.sel.Head); ok {
		pos = rp.After(rp.Depth())
	}
	return h.insertAt(pos, blocks)
}

// Must be called with h.mu held.
func (h *simHost) insertAt(pos int, blocks []*doc.Node) error {
	next, err := doc.Apply(h.doc, doc.Replacement{From: pos, To: pos, Content: blocks})
	if err != nil {
		return err
	}
	size := 0
	for _, b := range blocks {
		size += b.NodeSize()
	}
	h.doc = next
	h.sel = doc.Cursor(pos + size - 1)
	return nil
}

// deleteBlocks removes up to count sibling blocks starting with the one
// holding the cursor. It reports false when the cursor is not in a block.
func (h *simHost) deleteBlocks(count int) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rp, ok := textblockAt(h.doc, h.sel.Head)
	if !ok {
		return false, nil
	}
	depth := rp.Depth()
	parent := rp.Node(depth - 1)
	from := rp.Before(depth)
	to := from
	for i := rp.Index(depth - 1); i < parent.ChildCount() && count > 0; i++ {
		to += parent.Child(i).NodeSize()
		count--
	}

	next, err := doc.Apply(h.doc, doc.Replacement{From: from, To: to})
	if err != nil {
		return false, err
	}
	h.doc = next

	cursor := next.LastCursor()
	valid := engine.CursorValid(next)
	for p := from; p <= next.ContentSize(); p++ {
		if valid(p) {
			cursor = p
			break
		}
	}
	h.sel = doc.Cursor(cursor)
	return true, nil
}

func textblockAt(d *doc.Node, pos int) (*doc.ResolvedPos, bool) {
	rp, err := d.Resolve(pos)
	if err != nil || !rp.InTextblock() {
		return nil, false
	}
	return rp, true
}
