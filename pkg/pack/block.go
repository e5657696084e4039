package pack

import (
	"fmt"
	"sync"

	"github.com/matzehuels/pageflow/pkg/doc"
)

// BlockID identifies a flow block for the duration of one pass. Gen is the
// arena generation the ID was allocated in; Index is unique within it.
type BlockID struct {
	Gen   uint32
	Index uint32
}

func (id BlockID) String() string { return fmt.Sprintf("%d#%d", id.Gen, id.Index) }

// Arena allocates block identities. Each pass starts a new generation, so IDs
// from a stale pass never match entries of a newer position map.
type Arena struct {
	mu   sync.Mutex
	gen  uint32
	next uint32
}

// NewArena returns an arena at generation 0.
func NewArena() *Arena { return &Arena{} }

// Begin starts a new generation and returns it.
func (a *Arena) Begin() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.next = 0
	return a.gen
}

// Alloc returns a fresh ID in the current generation.
func (a *Arena) Alloc() BlockID {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := BlockID{Gen: a.gen, Index: a.next}
	a.next++
	return id
}

// Generation returns the current generation.
func (a *Arena) Generation() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen
}

// Block is one unit of flow content handed to [Pack].
type Block struct {
	ID       BlockID
	Node     *doc.Node
	Height   float64 // outer height (height + top margin)
	OldStart int     // position before the block in the source document
	OldSize  int
}

// OldEnd returns the position after the block in the source document.
func (b Block) OldEnd() int { return b.OldStart + b.OldSize }

// Extract lists the flow blocks of d in document order, allocating their IDs
// in a new arena generation. Flow blocks are the children of every page body
// and any non-page child of the root. Header and footer content is not flow.
// Heights are left at zero for the caller to fill in.
func Extract(d *doc.Node, a *Arena) []Block {
	a.Begin()
	var blocks []Block
	add := func(n *doc.Node, pos int) {
		blocks = append(blocks, Block{ID: a.Alloc(), Node: n, OldStart: pos, OldSize: n.NodeSize()})
	}

	pos := 0
	for _, c := range d.Content {
		if c.Type != doc.TypePage {
			add(c, pos)
			pos += c.NodeSize()
			continue
		}
		inner := pos + 1
		for _, region := range c.Content {
			if region.Type == doc.TypeBody {
				bp := inner + 1
				for _, b := range region.Content {
					add(b, bp)
					bp += b.NodeSize()
				}
			}
			inner += region.NodeSize()
		}
		pos += c.NodeSize()
	}
	return blocks
}
