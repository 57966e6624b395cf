package logicaltree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

func TestFromHostDirectory_ImportsFilesDirectoriesAndSymlinks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "a.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "top.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Symlink("top.txt", filepath.Join(root, "link.txt")))

	var built []string
	tr, err := FromHostDirectory(root, DirWalkOptions{}, func(path string, _ logr.Logger) (ContentHandle, error) {
		built = append(built, path)
		return nil, nil
	})
	require.NoError(t, err)

	sub, err := tr.Find(tr.Root().ID(), NameGlob("sub"))
	require.NoError(t, err)
	require.Len(t, sub, 1)
	require.Equal(t, KindDirectory, tr.Get(sub[0]).Kind())

	nested, err := tr.Find(sub[0], NameGlob("a.txt"))
	require.NoError(t, err)
	require.Len(t, nested, 1)

	link, err := tr.Find(tr.Root().ID(), NameGlob("link.txt"))
	require.NoError(t, err)
	require.Len(t, link, 1)
	linkNode := tr.Get(link[0])
	require.Equal(t, KindSymlink, linkNode.Kind())
	require.Equal(t, "top.txt", linkNode.LinkTarget)

	require.Contains(t, built, filepath.Join(root, "sub", "a.txt"))
	require.Contains(t, built, filepath.Join(root, "top.txt"))
}

func TestFromHostDirectory_OrdersEntriesByName(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o644))
	}

	tr, err := FromHostDirectory(root, DirWalkOptions{}, func(path string, _ logr.Logger) (ContentHandle, error) {
		return nil, nil
	})
	require.NoError(t, err)

	var names []string
	err = tr.Iterate(tr.Root().ID(), func(n *Node) bool {
		names = append(names, n.Name())
		return true
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names)
}
