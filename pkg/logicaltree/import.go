package logicaltree

import (
	"os"
	"sort"
	"time"
)

// SourceEntry is the minimal shape a collaborator must provide per entry of
// a previously-written image in order for Import to reconstruct a logical
// tree from it. It mirrors the fields filesystem.FileSystemEntry already
// exposes for a parsed image, so the same parser that backs Open/Parse can
// feed an append-mode Emit without a bespoke adapter.
type SourceEntry struct {
	FullPath string // slash-separated, rooted at "" for the image root
	IsDir    bool
	Size     uint32
	UID      uint32
	GID      uint32
	Mode     os.FileMode
	Ctime    time.Time
	Mtime    time.Time
	Atime    time.Time
	Inode    uint32 // 0 if the source image carried no Rock Ridge PX inode

	// Extents lists the original image's section placement for a file
	// entry, in original_source's "section" sense: every entry but the
	// last is exactly EXTENT_SIZE bytes. A directory's Extents is empty;
	// the layout planner assigns directories fresh extents unconditionally.
	Extents []Extent
}

// Extent is one contiguous run of blocks as it was recorded in a
// previously-written image.
type Extent struct {
	StartBlock uint32
	ByteLength uint32
}

// DataSource is the read side of the append-mode contract: given the
// reconstructed tree, the caller still needs a way to read a prior-session
// file's bytes if it is copied forward (e.g. because a filter is being
// applied to it for the first time). Implementations typically wrap the
// same io.ReaderAt the original image was opened from.
type DataSource interface {
	ReadExtent(ext Extent, p []byte, offsetWithinExtent int64) (int, error)
}

// Import reconstructs a Tree from a previously-emitted image's flattened
// entry list, preserving each file's original extents so that an appendable
// Emit can skip recopying content that already sits on the disc (component
// A's import contract, component I's appendable-mode reuse).
//
// entries need not be in any particular order; Import sorts by path depth
// so that a child is never processed before its parent exists.
func Import(entries []SourceEntry) (*Tree, error) {
	t := New()

	sorted := make([]SourceEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return depthOf(sorted[i].FullPath) < depthOf(sorted[j].FullPath)
	})

	dirs := map[string]ID{"": t.root}
	assigner := NewInodeAssigner()

	for _, e := range sorted {
		if e.FullPath == "" {
			continue // root itself, already present
		}
		parentPath, name := splitPath(e.FullPath)
		parentID, ok := dirs[parentPath]
		if !ok {
			return nil, errf("logicaltree: import entry %q has no known parent directory %q", e.FullPath, parentPath)
		}

		attrs := NewNodeAttrs{
			Name:  name,
			Mode:  e.Mode,
			UID:   e.UID,
			GID:   e.GID,
			Atime: e.Atime,
			Mtime: e.Mtime,
			Ctime: e.Ctime,
		}

		kind := KindFile
		if e.IsDir {
			kind = KindDirectory
		}

		id, err := t.AddChild(parentID, kind, attrs, ReplaceNever)
		if err != nil {
			return nil, err
		}
		n := t.get(id)
		n.fromPriorSession = true
		if e.IsDir {
			dirs[e.FullPath] = id
		} else {
			n.Stream = &importedStream{extents: append([]Extent(nil), e.Extents...), size: e.Size}
		}
		if e.Inode != 0 {
			assigner.Reserve(e.Inode)
		}
	}

	return t, nil
}

// importedStream satisfies ContentHandle for a file reconstructed from a
// prior session; it carries no independent identity of its own beyond its
// extents, since component C's dedup keys off of fresh-content streams, not
// ones it is merely carrying forward unchanged.
type importedStream struct {
	extents []Extent
	size    uint32
}

// Identity reports a zero triple: imported streams are never deduplicated
// against fresh ones, they are reused verbatim by the layout planner.
func (s *importedStream) Identity() (fsID uint32, devID uint64, inoID uint64) {
	return 0, 0, 0
}

// Extents returns the prior session's section list, so the layout planner
// or file-source table can decide whether this file's content needs to be
// recopied (e.g. a filter was newly applied) or can be referenced in place.
func (s *importedStream) Extents() []Extent { return s.extents }

// Size returns the prior session's recorded byte length.
func (s *importedStream) Size() uint32 { return s.size }

func depthOf(path string) int {
	depth := 0
	for _, r := range path {
		if r == '/' {
			depth++
		}
	}
	return depth
}

func splitPath(path string) (parent, name string) {
	idx := -1
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}
