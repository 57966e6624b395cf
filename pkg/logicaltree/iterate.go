package logicaltree

import (
	"os"
	"path/filepath"
	"time"
)

// Iterate calls fn for each direct child of dir, in insertion order, until
// fn returns false or the children are exhausted. The snapshot of child IDs
// is taken once at the start of the call: it is finite and lazy in the sense
// that fn is invoked one child at a time, but it is not restartable across a
// concurrent modification of dir's children -- a child added by fn itself
// is not visited, and a child removed from the tree by fn is skipped.
func (t *Tree) Iterate(dir ID, fn func(n *Node) bool) error {
	parent := t.get(dir)
	if parent == nil {
		return errf("logicaltree: unknown node %d", dir)
	}
	if !parent.HasChildren() {
		return errf("logicaltree: node %d (%s) has no children to iterate", dir, parent.kind)
	}
	snapshot := make([]ID, len(parent.children))
	copy(snapshot, parent.children)
	for _, id := range snapshot {
		n := t.get(id)
		if n == nil {
			continue // removed mid-iteration
		}
		if !fn(n) {
			break
		}
	}
	return nil
}

// Predicate matches a Node for use with Find.
type Predicate func(n *Node) bool

// And returns a Predicate that matches when every p matches.
func And(preds ...Predicate) Predicate {
	return func(n *Node) bool {
		for _, p := range preds {
			if !p(n) {
				return false
			}
		}
		return true
	}
}

// Or returns a Predicate that matches when any p matches.
func Or(preds ...Predicate) Predicate {
	return func(n *Node) bool {
		for _, p := range preds {
			if p(n) {
				return true
			}
		}
		return false
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(n *Node) bool { return !p(n) }
}

// NameGlob matches nodes whose Name matches a shell-style wildcard pattern,
// as interpreted by path/filepath.Match.
func NameGlob(pattern string) Predicate {
	return func(n *Node) bool {
		ok, err := filepath.Match(pattern, n.name)
		return err == nil && ok
	}
}

// ModeMask matches nodes whose Mode, after applying mask, equals want.
func ModeMask(mask, want os.FileMode) Predicate {
	return func(n *Node) bool { return n.Mode&mask == want }
}

// UID matches nodes owned by the given UID.
func UID(uid uint32) Predicate {
	return func(n *Node) bool { return n.UID == uid }
}

// GID matches nodes owned by the given GID.
func GID(gid uint32) Predicate {
	return func(n *Node) bool { return n.GID == gid }
}

// TimeField selects which timestamp a time comparison predicate inspects.
type TimeField int

const (
	FieldAtime TimeField = iota
	FieldMtime
	FieldCtime
)

func (n *Node) timeField(f TimeField) time.Time {
	switch f {
	case FieldAtime:
		return n.Atime
	case FieldCtime:
		return n.Ctime
	default:
		return n.Mtime
	}
}

// TimeBefore matches nodes whose field is strictly before when.
func TimeBefore(field TimeField, when time.Time) Predicate {
	return func(n *Node) bool { return n.timeField(field).Before(when) }
}

// TimeAfter matches nodes whose field is strictly after when.
func TimeAfter(field TimeField, when time.Time) Predicate {
	return func(n *Node) bool { return n.timeField(field).After(when) }
}

// Find walks dir's subtree depth-first and returns every node for which
// pred matches. dir itself is never tested or returned.
func (t *Tree) Find(dir ID, pred Predicate) ([]ID, error) {
	root := t.get(dir)
	if root == nil {
		return nil, errf("logicaltree: unknown node %d", dir)
	}
	var out []ID
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, id := range n.children {
			c := t.get(id)
			if c == nil {
				continue
			}
			if pred(c) {
				out = append(out, c.id)
			}
			if c.HasChildren() {
				walk(c)
			}
		}
	}
	walk(root)
	return out, nil
}
