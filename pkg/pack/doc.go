// Package pack implements the flow-packing algorithm of a repagination pass.
//
// # Flow
//
// [Extract] lists the flow blocks of a document (the children of every page
// body, plus any loose blocks at the top level) and gives each an identity
// from an [Arena]. The caller fills in measured heights, then [Pack] builds
// the new page tree:
//
//	blocks := pack.Extract(d, arena)
//	for i := range blocks {
//	    blocks[i].Height = heights[i]
//	}
//	res, err := pack.Pack(blocks, pack.NewResolver(d, defaults), pack.ModeStrict)
//
// # Position Map
//
// While emitting pages, Pack records where each block starts in the new
// tree. The resulting [PositionMap] is keyed by [BlockID], not by offset, so
// an entry stays unambiguous even if offsets shift between measurement and
// commit. Offset lookups ([PositionMap.At], [PositionMap.Containing],
// [PositionMap.Nearest]) are binary searches over the old starts.
//
// # Page Templates
//
// A [Layout] supplies capacity and skeleton per page index. [Resolver] reuses
// the attributes, header and footer of the page at the same index in the
// source document by pointer, so independently edited regions survive a
// pass, and falls back to configured [Defaults] for new pages.
package pack
