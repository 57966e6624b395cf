// Package layout implements component F: the two-pass layout planner that
// assigns every directory and file-content extent a logical block number
// (and every directory its path-table index) before any bytes are written.
// Path tables themselves are placed by the writers.
//
// Placement happens depth-first and block-rounded, with each directory's
// extent size computed from the sum of its (marshaled) child directory
// records before descending into its own subdirectories — the same
// ordering CharlesTheGreat77-goiso9660/iso9660/layout.go's
// calculateLayout uses (not the teacher; an enrichment reference from the
// rest of the pack).
package layout

import (
	"github.com/bgrewell/isoforge/pkg/consts"
	"github.com/bgrewell/isoforge/pkg/filesource"
	"github.com/bgrewell/isoforge/pkg/projection"
)

// DirPlacement records a projected directory's own extent placement.
type DirPlacement struct {
	Node        *projection.PNode
	StartBlock  uint32
	Blocks      uint32
	DirRecSize  uint32 // this directory's own marshaled directory-record size, as seen by its parent
	PathIndex   int    // 1-based index into the path table, assigned during PlanDirectories
	ParentIndex int    // PathIndex of this directory's parent (1 for the root itself)
}

// Plan is the complete output of a layout pass for one projected tree.
type Plan struct {
	Order     []*DirPlacement // depth-first directory visitation order; Order[0] is the root
	DirByNode map[*projection.PNode]*DirPlacement
	NextBlock uint32 // first block after every directory extent this plan assigned
}

// RecordSizer computes the marshaled size of the directory record a name
// would produce; the writer chain supplies this because the exact size
// depends on which extensions (Rock Ridge, etc.) are active for the
// standard being laid out.
type RecordSizer func(pn *projection.PNode) uint32

// IsDir reports whether a projected node is itself a directory (as opposed
// to a file or symlink that merely has no children of its own).
type IsDir func(pn *projection.PNode) bool

// PlanDirectories performs the directory-placement pass: depth-first,
// block-rounded, with every directory's own "." and ".." records plus one
// record per child, sized via sizeFn. Every directory, even an empty one,
// receives a DirPlacement and a PathIndex, since an empty directory still
// needs an extent to hold its "." and ".." records and a path table entry
// of its own.
func PlanDirectories(root *projection.PNode, startBlock uint32, isDir IsDir, sizeFn RecordSizer) *Plan {
	p := &Plan{DirByNode: make(map[*projection.PNode]*DirPlacement)}
	cursor := startBlock

	var walk func(dir *projection.PNode, parentIndex int) *DirPlacement
	walk = func(dir *projection.PNode, parentIndex int) *DirPlacement {
		size := dotRecordsSize()
		var subdirs []*projection.PNode
		for _, child := range dir.Children {
			size += sizeFn(child)
			if isDir(child) {
				subdirs = append(subdirs, child)
			}
		}
		blocks := blocksFor(size)

		dp := &DirPlacement{Node: dir, StartBlock: cursor, Blocks: blocks, DirRecSize: sizeFn(dir), PathIndex: len(p.Order) + 1, ParentIndex: parentIndex}
		p.Order = append(p.Order, dp)
		p.DirByNode[dir] = dp
		cursor += blocks

		for _, sub := range subdirs {
			walk(sub, dp.PathIndex)
		}
		return dp
	}
	walk(root, 1)

	p.NextBlock = cursor
	return p
}

func dotRecordsSize() uint32 {
	// "." and ".." records are each the minimum 34-byte directory record
	// size (a single NUL/0x01 identifier byte, no extension suffix).
	return 34 * 2
}

func blocksFor(byteLen uint32) uint32 {
	return (byteLen + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE
}

// PlanFileContent assigns blocks to every unique file-source entry that
// does not already carry a prior-session placement, continuing the cursor
// from after the directory extents.
func PlanFileContent(startBlock uint32, entries []*filesource.Entry) (assigned map[*filesource.Entry][]uint32, next uint32) {
	assigned = make(map[*filesource.Entry][]uint32)
	cursor := startBlock
	for _, e := range entries {
		if len(e.PriorExtents) > 0 {
			continue // appendable mode: content already on disc, nothing to place
		}
		var blocks []uint32
		for i := range e.Sections {
			n := blocksFor(e.Sections[i].ByteLength)
			if n == 0 {
				n = 1 // a zero-byte file still occupies one block
			}
			e.Sections[i].StartBlock = cursor
			blocks = append(blocks, cursor)
			cursor += n
		}
		assigned[e] = blocks
	}
	return assigned, cursor
}
