package boundary

import (
	"github.com/matzehuels/pageflow/pkg/doc"
)

// PageIndexAt returns the index of the page containing pos, or -1 when pos
// is outside every page.
func PageIndexAt(d *doc.Node, pos int) int {
	rp, err := d.Resolve(pos)
	if err != nil {
		return -1
	}
	if rp.Ancestor(doc.TypePage) != 1 {
		return -1
	}
	index := -1
	for i := 0; i <= rp.Index(0); i++ {
		if d.Content[i].Type == doc.TypePage {
			index++
		}
	}
	return index
}

// BodyStart returns the first text position in the body of page i.
func BodyStart(d *doc.Node, i int) (int, bool) {
	return bodyCursor(d, i, true)
}

// BodyEnd returns the last text position in the body of page i.
func BodyEnd(d *doc.Node, i int) (int, bool) {
	return bodyCursor(d, i, false)
}

// NextBodyStart returns the first text position of the next page that has
// body text, starting after the page containing pos.
func NextBodyStart(d *doc.Node, pos int) (int, bool) {
	page := PageIndexAt(d, pos)
	if page < 0 {
		return 0, false
	}
	for i := page + 1; i < len(d.Pages()); i++ {
		if p, ok := BodyStart(d, i); ok {
			return p, true
		}
	}
	return 0, false
}

// PrevBodyEnd returns the last text position of the closest preceding page
// that has body text.
func PrevBodyEnd(d *doc.Node, pos int) (int, bool) {
	page := PageIndexAt(d, pos)
	for i := page - 1; i >= 0; i-- {
		if p, ok := BodyEnd(d, i); ok {
			return p, true
		}
	}
	return 0, false
}

func bodyCursor(d *doc.Node, i int, start bool) (int, bool) {
	body, at, ok := locateBody(d, i)
	if !ok {
		return 0, false
	}
	pos, found := 0, false
	body.Walk(func(n *doc.Node, p int) bool {
		if found && start {
			return false
		}
		if n.IsTextblock() {
			pos, found = at+p+1, true
			if !start {
				pos += n.TextLen()
			}
			return false
		}
		return true
	})
	return pos, found
}

// locateBody finds the body of page i and the absolute position of its first
// content slot.
func locateBody(d *doc.Node, i int) (*doc.Node, int, bool) {
	if i < 0 {
		return nil, 0, false
	}
	pos, index := 0, -1
	for _, c := range d.Content {
		if c.Type == doc.TypePage {
			index++
			if index == i {
				inner := pos + 1
				for _, r := range c.Content {
					if r.Type == doc.TypeBody {
						return r, inner + 1, true
					}
					inner += r.NodeSize()
				}
				return nil, 0, false
			}
		}
		pos += c.NodeSize()
	}
	return nil, 0, false
}
