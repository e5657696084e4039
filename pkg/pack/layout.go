package pack

import (
	"math"

	"github.com/matzehuels/pageflow/pkg/doc"
)

// Template carries what a page at a given index is built from: its
// attributes and the header and footer nodes to place around the body.
type Template struct {
	Attrs  *doc.PageAttrs
	Header *doc.Node
	Footer *doc.Node
}

// Layout answers per-page questions during packing.
type Layout interface {
	// Capacity returns the body capacity of page i. Non-positive or NaN
	// values are tolerated and pack one block per page.
	Capacity(i int) float64
	// Template returns the skeleton of page i.
	Template(i int) Template
}

// Defaults describe pages that have no counterpart in the source document.
type Defaults struct {
	Page   doc.PageAttrs
	Header *doc.Node
	Footer *doc.Node
}

// DefaultDefaults returns A4 pages without header or footer.
func DefaultDefaults() Defaults {
	return Defaults{Page: doc.DefaultPageAttrs()}
}

// Resolver is the Layout of a repagination pass: page i reuses the
// attributes, header and footer of page i in the source document by
// identity, and pages beyond the source's page count use the defaults.
type Resolver struct {
	pages    []*doc.Node
	defaults Defaults
}

// NewResolver builds a resolver over the pages of the source document.
func NewResolver(source *doc.Node, def Defaults) *Resolver {
	var pages []*doc.Node
	if source != nil {
		pages = source.Pages()
	}
	return &Resolver{pages: pages, defaults: def}
}

// Template implements Layout.
func (r *Resolver) Template(i int) Template {
	if i >= 0 && i < len(r.pages) {
		p := r.pages[i]
		return Template{Attrs: p.Page, Header: p.Header(), Footer: p.Footer()}
	}
	return Template{
		Attrs:  r.defaults.Page.Clone(),
		Header: r.defaults.Header,
		Footer: r.defaults.Footer,
	}
}

// Capacity implements Layout. Source pages without attributes are measured
// with the default page attributes.
func (r *Resolver) Capacity(i int) float64 {
	t := r.Template(i)
	attrs := t.Attrs
	if attrs == nil {
		attrs = &r.defaults.Page
	}
	return attrs.BodyCapacity(t.Header, t.Footer)
}

// Uniform is a Layout with the same capacity and template on every page.
type Uniform struct {
	Cap  float64
	Page Template
}

// Capacity implements Layout.
func (u Uniform) Capacity(int) float64 { return u.Cap }

// Template implements Layout.
func (u Uniform) Template(int) Template { return u.Page }

func validCapacity(c float64) bool {
	return c > 0 && !math.IsNaN(c)
}
