package doc

import (
	"strconv"
	"strings"
)

// PaperSize is a named page size in points (1/72 inch).
type PaperSize struct {
	Width  float64
	Height float64
	Name   string
}

// Standard paper sizes in points.
var (
	PaperA4     = PaperSize{Width: 595.28, Height: 841.89, Name: "A4"}
	PaperLetter = PaperSize{Width: 612.00, Height: 792.00, Name: "Letter"}
	PaperLegal  = PaperSize{Width: 612.00, Height: 1008.00, Name: "Legal"}
	PaperA3     = PaperSize{Width: 841.89, Height: 1190.55, Name: "A3"}
	PaperA5     = PaperSize{Width: 419.53, Height: 595.28, Name: "A5"}
)

var paperSizes = map[string]PaperSize{
	"a4":     PaperA4,
	"letter": PaperLetter,
	"legal":  PaperLegal,
	"a3":     PaperA3,
	"a5":     PaperA5,
}

// LookupPaper returns the paper size registered under name (case-insensitive).
func LookupPaper(name string) (PaperSize, bool) {
	p, ok := paperSizes[strings.ToLower(name)]
	return p, ok
}

// Orientation of a page.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Margins are page margins in points.
type Margins struct {
	Top    float64 `json:"top" toml:"top"`
	Right  float64 `json:"right" toml:"right"`
	Bottom float64 `json:"bottom" toml:"bottom"`
	Left   float64 `json:"left" toml:"left"`
}

// PageAttrs are the page-level attributes carried by page nodes.
// Width and Height override the named paper size when both are positive.
type PageAttrs struct {
	Paper           string      `json:"paper,omitempty" toml:"paper"`
	Width           float64     `json:"width,omitempty" toml:"width"`
	Height          float64     `json:"height,omitempty" toml:"height"`
	Orientation     Orientation `json:"orientation,omitempty" toml:"orientation"`
	Color           string      `json:"color,omitempty" toml:"color"`
	BorderThickness float64     `json:"border_thickness,omitempty" toml:"border_thickness"`
	Margins         Margins     `json:"margins" toml:"margins"`
}

// DefaultPageAttrs returns A4 portrait with 1-inch margins.
func DefaultPageAttrs() PageAttrs {
	return PageAttrs{
		Paper:       PaperA4.Name,
		Orientation: Portrait,
		Color:       "#ffffff",
		Margins:     Margins{Top: 72, Right: 72, Bottom: 72, Left: 72},
	}
}

// Size returns the page width and height after applying orientation.
// Unknown paper names fall back to A4.
func (a *PageAttrs) Size() (width, height float64) {
	if a.Width > 0 && a.Height > 0 {
		width, height = a.Width, a.Height
	} else {
		p, ok := LookupPaper(a.Paper)
		if !ok {
			p = PaperA4
		}
		width, height = p.Width, p.Height
	}
	if a.Orientation == Landscape {
		width, height = height, width
	}
	return width, height
}

// BodyCapacity returns the vertical space available to the body region given
// the page's header and footer (either may be nil). The result is not
// clamped; callers treat non-positive capacity as invalid.
func (a *PageAttrs) BodyCapacity(header, footer *Node) float64 {
	_, h := a.Size()
	return h - a.Margins.Top - a.Margins.Bottom - header.reserved() - footer.reserved()
}

func (n *Node) reserved() float64 {
	if n == nil || n.Region == nil {
		return 0
	}
	return n.Region.Height
}

// Clone returns a copy of the attributes.
func (a *PageAttrs) Clone() *PageAttrs {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Equal reports whether two attribute sets are identical. Nil equals nil.
func (a *PageAttrs) Equal(b *PageAttrs) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// NumberPosition is the horizontal placement of a page number.
type NumberPosition string

const (
	NumberLeft   NumberPosition = "left"
	NumberCenter NumberPosition = "center"
	NumberRight  NumberPosition = "right"
)

// PageNumber controls page-number display inside a region.
type PageNumber struct {
	Show     bool           `json:"show" toml:"show"`
	Position NumberPosition `json:"position,omitempty" toml:"position"`
	Format   string         `json:"format,omitempty" toml:"format"`
}

// RegionAttrs are the layout attributes of a header or footer region.
type RegionAttrs struct {
	Offset      float64    `json:"offset" toml:"offset"`
	Height      float64    `json:"height" toml:"height"`
	MarginLeft  float64    `json:"margin_left" toml:"margin_left"`
	MarginRight float64    `json:"margin_right" toml:"margin_right"`
	PageNumber  PageNumber `json:"page_number" toml:"page_number"`
}

// PageLabel renders the page-number template for page n (1-based).
// It returns "" when page numbers are hidden.
func (r *RegionAttrs) PageLabel(n int) string {
	if r == nil || !r.PageNumber.Show {
		return ""
	}
	format := r.PageNumber.Format
	if format == "" {
		format = "{n}"
	}
	return strings.ReplaceAll(format, "{n}", strconv.Itoa(n))
}

// Clone returns a copy of the attributes.
func (r *RegionAttrs) Clone() *RegionAttrs {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Equal reports whether two attribute sets are identical. Nil equals nil.
func (r *RegionAttrs) Equal(b *RegionAttrs) bool {
	if r == nil || b == nil {
		return r == b
	}
	return *r == *b
}
