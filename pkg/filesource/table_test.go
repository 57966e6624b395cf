package filesource

import (
	"testing"

	"github.com/bgrewell/isoforge/pkg/consts"
	"github.com/bgrewell/isoforge/pkg/contentstream"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	contentstream.Stream
	id contentstream.Identity
}

func (f fakeStream) StreamIdentity() contentstream.Identity { return f.id }

func TestTable_DedupesByIdentity(t *testing.T) {
	tbl := New()
	id := contentstream.Identity{FilesystemID: 1, DeviceID: 2, InodeID: 3}
	s := fakeStream{id: id}

	e1 := tbl.Add(1, s, 0, 10)
	e2 := tbl.Add(2, s, 0, 10)

	require.Same(t, e1, e2)
	require.Len(t, tbl.Entries(), 1)
	require.Len(t, e1.Nodes(), 2)
}

func TestTable_AnonymousStreamsNeverMerge(t *testing.T) {
	tbl := New()
	s := fakeStream{}

	tbl.Add(1, s, 0, 10)
	tbl.Add(2, s, 0, 10)

	require.Len(t, tbl.Entries(), 2)
}

func TestSectionsFor_SplitsAtExtentBoundary(t *testing.T) {
	sections := sectionsFor(consts.EXTENT_SIZE + 100)
	require.Len(t, sections, 2)
	require.Equal(t, uint32(consts.EXTENT_SIZE), sections[0].ByteLength)
	require.Equal(t, uint32(100), sections[1].ByteLength)
}

func TestSectionsFor_SingleSectionForSmallFile(t *testing.T) {
	sections := sectionsFor(0)
	require.Len(t, sections, 1)
	require.Equal(t, uint32(0), sections[0].ByteLength)
}

func TestTable_SortBySortWeight(t *testing.T) {
	tbl := New()
	tbl.Add(1, fakeStream{id: contentstream.Identity{InodeID: 1}}, 1, 10)
	tbl.Add(2, fakeStream{id: contentstream.Identity{InodeID: 2}}, 5, 10)
	tbl.Add(3, fakeStream{id: contentstream.Identity{InodeID: 3}}, 3, 10)

	tbl.SortBySortWeight()
	entries := tbl.Entries()
	require.Equal(t, int64(5), entries[0].SortWeight)
	require.Equal(t, int64(3), entries[1].SortWeight)
	require.Equal(t, int64(1), entries[2].SortWeight)
}
