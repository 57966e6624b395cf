// Package filesource implements component C: the file-source table that
// deduplicates content streams sharing the same underlying identity and
// assigns each unique stream its extent/section layout.
package filesource

import (
	"sort"

	"github.com/bgrewell/isoforge/pkg/consts"
	"github.com/bgrewell/isoforge/pkg/contentstream"
	"github.com/bgrewell/isoforge/pkg/logicaltree"
)

// Section is one contiguous run that a file's content is split into when
// it is too large for a single ECMA-119 extent; every section but the last
// is exactly consts.EXTENT_SIZE bytes, mirroring original_source's
// filesrc.c section accounting.
type Section struct {
	ByteLength uint32
	StartBlock uint32 // filled in by the layout planner (component F)
}

// Entry is one unique content source the file-source table has accepted.
// Every logical-tree node sharing the same stream identity points at the
// same Entry.
type Entry struct {
	Stream     contentstream.Stream
	Identity   contentstream.Identity
	Size       uint32
	SortWeight int64
	Sections   []Section

	// PriorExtents carries forward a prior session's placement for a node
	// reused from Import; when non-empty the layout planner does not
	// reassign blocks for this entry.
	PriorExtents []logicaltree.Extent

	nodes []logicaltree.ID
}

// Nodes returns every logical-tree node that shares this entry's content.
func (e *Entry) Nodes() []logicaltree.ID { return e.nodes }

// Table is the ordered, deduplicating collection of Entries. Ordering is
// insertion order until SortBySortWeight is called.
type Table struct {
	byIdentity map[contentstream.Identity]*Entry
	entries    []*Entry
}

// New creates an empty Table.
func New() *Table {
	return &Table{byIdentity: make(map[contentstream.Identity]*Entry)}
}

// Add registers node's content stream, returning the Entry it was merged
// into. A stream with a zero Identity (no natural dedup key, e.g. an
// in-memory buffer or a filter output) is never merged with any other
// entry: insertion is idempotent only for streams carrying a genuine
// (filesystem, device, inode) triple, matching original_source's
// iso_file_src_cmp contract, which treats anonymous streams as distinct.
func (t *Table) Add(node logicaltree.ID, stream contentstream.Stream, sortWeight int64, size uint32) *Entry {
	id := stream.StreamIdentity()
	if !id.IsZero() {
		if existing, ok := t.byIdentity[id]; ok {
			existing.nodes = append(existing.nodes, node)
			return existing
		}
	}

	e := &Entry{
		Stream:     stream,
		Identity:   id,
		Size:       size,
		SortWeight: sortWeight,
		Sections:   sectionsFor(size),
		nodes:      []logicaltree.ID{node},
	}
	if !id.IsZero() {
		t.byIdentity[id] = e
	}
	t.entries = append(t.entries, e)
	return e
}

// AddImported registers a node reused verbatim from a prior session,
// carrying its original extents forward so the layout planner can skip
// reassigning blocks for it (component I, appendable mode).
func (t *Table) AddImported(node logicaltree.ID, size uint32, extents []logicaltree.Extent) *Entry {
	sections := sectionsFor(size)
	if len(extents) > 0 {
		sections = make([]Section, len(extents))
		for i, x := range extents {
			sections[i] = Section{ByteLength: x.ByteLength, StartBlock: x.StartBlock}
		}
	}
	e := &Entry{
		Size:         size,
		Sections:     sections,
		PriorExtents: extents,
		nodes:        []logicaltree.ID{node},
	}
	t.entries = append(t.entries, e)
	return e
}

// Entries returns every unique entry, in current table order.
func (t *Table) Entries() []*Entry {
	out := make([]*Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// SortBySortWeight reorders entries by descending sort weight (content the
// source wants placed earlier on the disc gets a higher weight), falling
// back to stable insertion order for ties.
func (t *Table) SortBySortWeight() {
	sort.SliceStable(t.entries, func(i, j int) bool {
		return t.entries[i].SortWeight > t.entries[j].SortWeight
	})
}

// sectionsFor computes a file's section breakdown using the same
// division-rounding-up arithmetic original_source's filesrc.c uses:
// every non-final section is exactly EXTENT_SIZE, and there's always at
// least one section even for a zero-byte file.
func sectionsFor(size uint32) []Section {
	if size <= consts.EXTENT_SIZE {
		return []Section{{ByteLength: size}}
	}
	var sections []Section
	remaining := size
	for remaining > consts.EXTENT_SIZE {
		sections = append(sections, Section{ByteLength: consts.EXTENT_SIZE})
		remaining -= consts.EXTENT_SIZE
	}
	sections = append(sections, Section{ByteLength: remaining})
	return sections
}
