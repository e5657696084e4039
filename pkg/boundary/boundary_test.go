package boundary

import (
	"testing"

	"github.com/matzehuels/pageflow/pkg/doc"
)

// twoPages builds:
//
//	page 0: header(H1) body(ab, cd) footer(F1)
//	page 1: body(ef, gh)
//
// Text offsets: H1 3..5, ab 9..11, cd 13..15, F1 19..21, ef 27..29, gh 31..33.
func twoPages() *doc.Node {
	return doc.NewDoc(
		doc.NewPage(nil,
			doc.NewRegion(doc.TypeHeader, nil, doc.Paragraph("H1")),
			doc.NewBody(doc.Paragraph("ab"), doc.Paragraph("cd")),
			doc.NewRegion(doc.TypeFooter, nil, doc.Paragraph("F1")),
		),
		doc.NewPage(nil, nil, doc.NewBody(doc.Paragraph("ef"), doc.Paragraph("gh")), nil),
	)
}

func TestIsAtStart(t *testing.T) {
	d := twoPages()
	tests := []struct {
		name  string
		pos   int
		g     Granularity
		exact bool
		want  bool
	}{
		{"body start exact", 9, Body, true, true},
		{"one past body start", 10, Body, true, false},
		{"inside first block", 10, Body, false, true},
		{"second block", 13, Body, false, false},
		{"second page body", 27, Body, true, true},
		{"page without header starts at body", 27, Page, true, true},
		{"body start is not page start", 9, Page, true, false},
		{"header block", 4, Header, false, true},
		{"footer start", 19, Footer, true, true},
		{"no footer on page", 27, Footer, false, false},
		{"document end short-circuits", 33, Body, true, true},
		{"between blocks", 8, Body, false, false},
		{"between blocks exact", 12, Body, true, false},
		{"out of range", 99, Body, true, false},
		{"negative", -1, Body, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAtStart(d, tt.pos, tt.g, tt.exact); got != tt.want {
				t.Errorf("IsAtStart(%d, %s, %v) = %v, want %v", tt.pos, tt.g, tt.exact, got, tt.want)
			}
		})
	}
}

func TestIsAtEnd(t *testing.T) {
	d := twoPages()
	tests := []struct {
		name  string
		pos   int
		g     Granularity
		exact bool
		want  bool
	}{
		{"body end exact", 15, Body, true, true},
		{"one before body end", 14, Body, true, false},
		{"inside last block", 13, Body, false, true},
		{"first block", 10, Body, false, false},
		{"page end is footer end", 21, Page, true, true},
		{"body end is not page end", 15, Page, true, false},
		{"header end", 5, Header, true, true},
		{"document start short-circuits", 3, Body, true, true},
		{"document start loose", 3, Body, false, false},
		{"last page end", 33, Page, true, true},
		{"before page", 0, Body, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAtEnd(d, tt.pos, tt.g, tt.exact); got != tt.want {
				t.Errorf("IsAtEnd(%d, %s, %v) = %v, want %v", tt.pos, tt.g, tt.exact, got, tt.want)
			}
		})
	}
}

func TestResolvedVariants(t *testing.T) {
	d := twoPages()
	rp, err := d.Resolve(27)
	if err != nil {
		t.Fatal(err)
	}
	if !IsResolvedAtStart(rp, Body, true) {
		t.Error("IsResolvedAtStart(27) = false, want true")
	}
	if IsResolvedAtEnd(rp, Body, true) {
		t.Error("IsResolvedAtEnd(27) = true, want false")
	}
	if IsResolvedAtStart(nil, Body, false) {
		t.Error("nil position should not be at start")
	}
}

func TestNestedBlocks(t *testing.T) {
	quote := &doc.Node{Type: "blockquote", Content: []*doc.Node{doc.Paragraph("xy"), doc.Paragraph("zw")}}
	d := doc.NewDoc(
		doc.NewPage(nil, nil, doc.NewBody(doc.Paragraph("first")), nil),
		doc.NewPage(nil, nil, doc.NewBody(quote, doc.Paragraph("tail")), nil),
	)

	start, ok := BodyStart(d, 1)
	if !ok {
		t.Fatal("BodyStart(1) not found")
	}
	if !IsAtStart(d, start, Body, true) {
		t.Errorf("IsAtStart(%d) inside nested block = false, want true", start)
	}
	if !IsAtStart(d, start+5, Body, false) {
		t.Errorf("second paragraph of the quote is still inside the first block")
	}
}

func TestNavigation(t *testing.T) {
	d := twoPages()

	pageAt := []struct{ pos, want int }{
		{9, 0},
		{4, 0},
		{27, 1},
		{0, -1},
		{24, -1},
		{99, -1},
	}
	for _, tt := range pageAt {
		if got := PageIndexAt(d, tt.pos); got != tt.want {
			t.Errorf("PageIndexAt(%d) = %d, want %d", tt.pos, got, tt.want)
		}
	}

	cursors := []struct {
		name   string
		fn     func(*doc.Node, int) (int, bool)
		arg    int
		want   int
		wantOK bool
	}{
		{"BodyStart(0)", BodyStart, 0, 9, true},
		{"BodyEnd(0)", BodyEnd, 0, 15, true},
		{"BodyStart(1)", BodyStart, 1, 27, true},
		{"BodyEnd(1)", BodyEnd, 1, 33, true},
		{"BodyStart(2)", BodyStart, 2, 0, false},
		{"BodyEnd(-1)", BodyEnd, -1, 0, false},
		{"NextBodyStart(13)", NextBodyStart, 13, 27, true},
		{"NextBodyStart(30)", NextBodyStart, 30, 0, false},
		{"PrevBodyEnd(30)", PrevBodyEnd, 30, 15, true},
		{"PrevBodyEnd(9)", PrevBodyEnd, 9, 0, false},
	}
	for _, tt := range cursors {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.fn(d, tt.arg)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("%s = %d, %v, want %d, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
