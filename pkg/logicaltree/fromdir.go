package logicaltree

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/go-logr/logr"
)

// DirWalkOptions controls how FromHostDirectory turns a host directory into
// a logical tree.
type DirWalkOptions struct {
	// FollowSymlinks causes a symlink to be walked as the directory or file
	// it resolves to rather than recorded as a KindSymlink node.
	FollowSymlinks bool
	Log            logr.Logger
}

// StreamFactory builds a content stream for a regular file found on disk;
// the caller supplies this so the walker stays free of a hard dependency
// on contentstream's concrete FileSourceStream type.
type StreamFactory func(path string, log logr.Logger) (ContentHandle, error)

// FromHostDirectory walks root and imports every entry into a fresh Tree,
// using newStream to build each regular file's content handle. Directory
// entries are visited in name order so layout stays deterministic across
// repeated runs over the same source tree.
func FromHostDirectory(root string, opts DirWalkOptions, newStream StreamFactory) (*Tree, error) {
	t := New()
	if err := walkInto(t, t.root, root, opts, newStream); err != nil {
		return nil, err
	}
	return t, nil
}

func walkInto(t *Tree, parent ID, hostDir string, opts DirWalkOptions, newStream StreamFactory) error {
	infos, err := os.ReadDir(hostDir)
	if err != nil {
		return err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	for _, de := range infos {
		hostPath := filepath.Join(hostDir, de.Name())
		fi, err := de.Info()
		if err != nil {
			return err
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			if !opts.FollowSymlinks {
				target, err := os.Readlink(hostPath)
				if err != nil {
					return err
				}
				if _, err := t.AddChild(parent, KindSymlink, NewNodeAttrs{
					Name:       de.Name(),
					Mode:       fi.Mode(),
					Mtime:      fi.ModTime(),
					Ctime:      fi.ModTime(),
					Atime:      fi.ModTime(),
					LinkTarget: target,
				}, ReplaceNever); err != nil {
					return err
				}
				continue
			}
			resolved, err := os.Stat(hostPath)
			if err != nil {
				return err
			}
			fi = resolved
		}

		if fi.IsDir() {
			id, err := t.AddChild(parent, KindDirectory, NewNodeAttrs{
				Name:  de.Name(),
				Mode:  fi.Mode(),
				Mtime: fi.ModTime(),
				Ctime: fi.ModTime(),
				Atime: fi.ModTime(),
			}, ReplaceNever)
			if err != nil {
				return err
			}
			if err := walkInto(t, id, hostPath, opts, newStream); err != nil {
				return err
			}
			continue
		}

		stream, err := newStream(hostPath, opts.Log)
		if err != nil {
			return err
		}
		if _, err := t.AddChild(parent, KindFile, NewNodeAttrs{
			Name:   de.Name(),
			Mode:   fi.Mode(),
			Mtime:  fi.ModTime(),
			Ctime:  fi.ModTime(),
			Atime:  fi.ModTime(),
			Stream: stream,
		}, ReplaceNever); err != nil {
			return err
		}
	}
	return nil
}
