package logicaltree

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTree_RootInvariants(t *testing.T) {
	tr := New()
	root := tr.Root()
	require.Equal(t, "", root.Name())
	_, hasParent := root.Parent()
	require.False(t, hasParent)
	require.Equal(t, KindDirectory, root.Kind())
}

func TestTree_AddChild_SiblingUniqueness(t *testing.T) {
	tr := New()
	_, err := tr.AddChild(tr.Root().ID(), KindFile, NewNodeAttrs{Name: "readme.txt"}, ReplaceNever)
	require.NoError(t, err)

	_, err = tr.AddChild(tr.Root().ID(), KindFile, NewNodeAttrs{Name: "readme.txt"}, ReplaceNever)
	require.Error(t, err)
}

func TestTree_AddChild_ReplacePolicies(t *testing.T) {
	tr := New()
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	id, err := tr.AddChild(tr.Root().ID(), KindFile, NewNodeAttrs{Name: "a", Mtime: old}, ReplaceNever)
	require.NoError(t, err)

	t.Run("ReplaceSameTypeAndNewer rejects an older replacement", func(t *testing.T) {
		got, err := tr.AddChild(tr.Root().ID(), KindFile, NewNodeAttrs{Name: "a", Mtime: old.Add(-time.Hour)}, ReplaceSameTypeAndNewer)
		require.NoError(t, err)
		require.Equal(t, id, got)
		require.True(t, tr.Get(id).Mtime.Equal(old))
	})

	t.Run("ReplaceSameTypeAndNewer accepts a newer replacement", func(t *testing.T) {
		got, err := tr.AddChild(tr.Root().ID(), KindFile, NewNodeAttrs{Name: "a", Mtime: newer}, ReplaceSameTypeAndNewer)
		require.NoError(t, err)
		require.Equal(t, id, got)
		require.True(t, tr.Get(id).Mtime.Equal(newer))
	})

	t.Run("ReplaceSameType rejects a kind change", func(t *testing.T) {
		_, err := tr.AddChild(tr.Root().ID(), KindDirectory, NewNodeAttrs{Name: "a"}, ReplaceSameType)
		require.Error(t, err)
	})
}

func TestTree_IDsAreStableAcrossDetach(t *testing.T) {
	tr := New()
	dirID, err := tr.AddChild(tr.Root().ID(), KindDirectory, NewNodeAttrs{Name: "sub", Mode: os.ModeDir | 0o755}, ReplaceNever)
	require.NoError(t, err)

	fileID, err := tr.AddChild(dirID, KindFile, NewNodeAttrs{Name: "f"}, ReplaceNever)
	require.NoError(t, err)

	require.NoError(t, tr.Detach(fileID))
	require.NotNil(t, tr.Get(fileID), "a detached node stays resolvable by ID until Remove")

	require.NoError(t, tr.Remove(fileID))
	require.Nil(t, tr.Get(fileID))
}

func TestTree_Iterate_StopsEarly(t *testing.T) {
	tr := New()
	for _, name := range []string{"a", "b", "c"} {
		_, err := tr.AddChild(tr.Root().ID(), KindFile, NewNodeAttrs{Name: name}, ReplaceNever)
		require.NoError(t, err)
	}

	var seen []string
	err := tr.Iterate(tr.Root().ID(), func(n *Node) bool {
		seen = append(seen, n.Name())
		return n.Name() != "b"
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, seen)
}

func TestTree_Find(t *testing.T) {
	tr := New()
	sub, err := tr.AddChild(tr.Root().ID(), KindDirectory, NewNodeAttrs{Name: "sub", Mode: os.ModeDir | 0o755}, ReplaceNever)
	require.NoError(t, err)
	_, err = tr.AddChild(sub, KindFile, NewNodeAttrs{Name: "match.log", UID: 7}, ReplaceNever)
	require.NoError(t, err)
	_, err = tr.AddChild(sub, KindFile, NewNodeAttrs{Name: "other.txt", UID: 7}, ReplaceNever)
	require.NoError(t, err)

	found, err := tr.Find(tr.Root().ID(), And(NameGlob("*.log"), UID(7)))
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "match.log", tr.Get(found[0]).Name())
}

func TestInodeAssigner_SkipsReserved(t *testing.T) {
	a := NewInodeAssigner()
	a.Reserve(1)
	a.Reserve(2)
	got := a.Assign()
	require.Equal(t, uint32(3), got)
}

func TestImport_ReconstructsHierarchyAndExtents(t *testing.T) {
	entries := []SourceEntry{
		{FullPath: "docs", IsDir: true, Mode: os.ModeDir | 0o755},
		{FullPath: "docs/readme.txt", Size: 10, Mode: 0o644, Extents: []Extent{{StartBlock: 100, ByteLength: 10}}},
	}
	tr, err := Import(entries)
	require.NoError(t, err)

	found, err := tr.Find(tr.Root().ID(), NameGlob("readme.txt"))
	require.NoError(t, err)
	require.Len(t, found, 1)

	n := tr.Get(found[0])
	require.True(t, n.FromPriorSession())
	stream, ok := n.Stream.(*importedStream)
	require.True(t, ok)
	require.Equal(t, uint32(10), stream.Size())
	require.Len(t, stream.Extents(), 1)
}

func TestImport_RejectsOrphanEntry(t *testing.T) {
	_, err := Import([]SourceEntry{{FullPath: "missing-parent/file.txt"}})
	require.Error(t, err)
}
