package pack

import (
	"cmp"
	"slices"
)

// Entry records where one flow block moved during a pass.
type Entry struct {
	ID       BlockID
	OldStart int
	OldSize  int
	NewStart int
}

// Translate maps an old position inside the block's old range to the same
// offset within the block at its new location.
func (e Entry) Translate(oldPos int) int { return e.NewStart + (oldPos - e.OldStart) }

// Contains reports whether oldPos lies in [OldStart, OldStart+OldSize).
func (e Entry) Contains(oldPos int) bool {
	return oldPos >= e.OldStart && oldPos < e.OldStart+e.OldSize
}

// PositionMap translates old block positions to new ones. It is keyed by
// block identity; offset lookups go through the entries sorted by OldStart.
// A map is built once per pass and is read-only afterwards.
type PositionMap struct {
	entries []Entry
	byID    map[BlockID]int
}

// NewPositionMap indexes entries. The slice is sorted in place by OldStart.
func NewPositionMap(entries []Entry) *PositionMap {
	slices.SortStableFunc(entries, func(a, b Entry) int { return cmp.Compare(a.OldStart, b.OldStart) })
	m := &PositionMap{entries: entries, byID: make(map[BlockID]int, len(entries))}
	for i, e := range entries {
		m.byID[e.ID] = i
	}
	return m
}

// Len returns the number of entries.
func (m *PositionMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns the entries in old-document order.
func (m *PositionMap) Entries() []Entry {
	if m == nil {
		return nil
	}
	return m.entries
}

// Lookup returns the entry of a block.
func (m *PositionMap) Lookup(id BlockID) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	i, ok := m.byID[id]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// At returns the entry whose block started exactly at oldPos.
func (m *PositionMap) At(oldPos int) (Entry, bool) {
	i, ok := m.search(oldPos)
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Containing returns the entry whose old range contains oldPos.
func (m *PositionMap) Containing(oldPos int) (Entry, bool) {
	i, found := m.search(oldPos)
	if !found {
		i--
	}
	if i < 0 || !m.entries[i].Contains(oldPos) {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Nearest returns the entry whose old start is closest to oldPos. Ties go to
// the earlier block.
func (m *PositionMap) Nearest(oldPos int) (Entry, bool) {
	if m.Len() == 0 {
		return Entry{}, false
	}
	i, found := m.search(oldPos)
	if found {
		return m.entries[i], true
	}
	switch {
	case i == 0:
		return m.entries[0], true
	case i == len(m.entries):
		return m.entries[i-1], true
	}
	before, after := m.entries[i-1], m.entries[i]
	if oldPos-before.OldStart <= after.OldStart-oldPos {
		return before, true
	}
	return after, true
}

func (m *PositionMap) search(oldPos int) (int, bool) {
	if m == nil {
		return 0, false
	}
	return slices.BinarySearchFunc(m.entries, oldPos, func(e Entry, pos int) int {
		return cmp.Compare(e.OldStart, pos)
	})
}
