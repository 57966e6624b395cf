package logicaltree

import (
	"os"
	"time"
)

// ReplacePolicy governs what AddChild does when name already names a child
// of dir.
type ReplacePolicy int

const (
	// ReplaceNever rejects the insertion outright.
	ReplaceNever ReplacePolicy = iota
	// ReplaceAlways overwrites the existing child unconditionally.
	ReplaceAlways
	// ReplaceSameType overwrites only if the existing child has the same Kind.
	ReplaceSameType
	// ReplaceSameTypeAndNewer overwrites only if the existing child has the
	// same Kind and the incoming Mtime is strictly later.
	ReplaceSameTypeAndNewer
	// ReplaceIfNewer overwrites regardless of Kind as long as the incoming
	// Mtime is strictly later.
	ReplaceIfNewer
)

// NewNodeAttrs collects the fields a caller supplies when adding a node; the
// Tree fills in id/parent/tree itself.
type NewNodeAttrs struct {
	Name  string
	Mode  os.FileMode
	UID   uint32
	GID   uint32
	Atime time.Time
	Mtime time.Time
	Ctime time.Time

	Hidden     HideFlag
	SortWeight int64

	Stream     ContentHandle // KindFile
	LinkTarget string        // KindSymlink
	Device     DeviceID      // KindSpecial
}

// AddChild inserts a new node of kind under dir, named attrs.Name, applying
// policy if a child of that name already exists. It returns the inserted
// node's ID, or the pre-existing node's ID when a newer-only policy
// (ReplaceSameTypeAndNewer, ReplaceIfNewer) leaves it in place; ReplaceNever
// returns an error on a name clash.
//
// The root's own name is always empty; a non-root name must be non-empty,
// per the sibling-name-uniqueness and empty-root-name invariants.
func (t *Tree) AddChild(dir ID, kind Kind, attrs NewNodeAttrs, policy ReplacePolicy) (ID, error) {
	parent := t.get(dir)
	if parent == nil {
		return 0, errf("logicaltree: unknown parent node %d", dir)
	}
	if !parent.HasChildren() {
		return 0, errf("logicaltree: node %d (%s) cannot hold children", dir, parent.kind)
	}
	if attrs.Name == "" {
		return 0, errf("logicaltree: child name must not be empty")
	}

	if existingID, ok := parent.childNamed(attrs.Name); ok {
		existing := t.get(existingID)
		switch policy {
		case ReplaceNever:
			return 0, errf("logicaltree: %q already exists under node %d", attrs.Name, dir)
		case ReplaceAlways:
			t.replaceInPlace(existing, kind, attrs)
			return existingID, nil
		case ReplaceSameType:
			if existing.kind != kind {
				return 0, errf("logicaltree: %q exists with a different kind", attrs.Name)
			}
			t.replaceInPlace(existing, kind, attrs)
			return existingID, nil
		case ReplaceSameTypeAndNewer:
			if existing.kind != kind {
				return 0, errf("logicaltree: %q exists with a different kind", attrs.Name)
			}
			if !attrs.Mtime.After(existing.Mtime) {
				return existingID, nil
			}
			t.replaceInPlace(existing, kind, attrs)
			return existingID, nil
		case ReplaceIfNewer:
			if !attrs.Mtime.After(existing.Mtime) {
				return existingID, nil
			}
			t.replaceInPlace(existing, kind, attrs)
			return existingID, nil
		default:
			return 0, errf("logicaltree: unknown replace policy %d", policy)
		}
	}

	n := &Node{
		kind:       kind,
		name:       attrs.Name,
		parent:     dir,
		Mode:       attrs.Mode,
		UID:        attrs.UID,
		GID:        attrs.GID,
		Atime:      attrs.Atime,
		Mtime:      attrs.Mtime,
		Ctime:      attrs.Ctime,
		Hidden:     attrs.Hidden,
		SortWeight: attrs.SortWeight,
		Stream:     attrs.Stream,
		LinkTarget: attrs.LinkTarget,
		Device:     attrs.Device,
	}
	t.alloc(n)
	parent.children = append(parent.children, n.id)
	return n.id, nil
}

// replaceInPlace keeps the existing node's ID (and thus every reference to
// it) stable while swapping in new content and attributes.
func (t *Tree) replaceInPlace(existing *Node, kind Kind, attrs NewNodeAttrs) {
	existing.kind = kind
	existing.Mode = attrs.Mode
	existing.UID = attrs.UID
	existing.GID = attrs.GID
	existing.Atime = attrs.Atime
	existing.Mtime = attrs.Mtime
	existing.Ctime = attrs.Ctime
	existing.Hidden = attrs.Hidden
	existing.SortWeight = attrs.SortWeight
	existing.Stream = attrs.Stream
	existing.LinkTarget = attrs.LinkTarget
	existing.Device = attrs.Device
	existing.fromPriorSession = false
}

// childNamed looks up an immediate child by name; it is linear because
// directory fan-out in practice is small and this keeps Node free of an
// auxiliary map to maintain.
func (n *Node) childNamed(name string) (ID, bool) {
	for _, id := range n.children {
		c := n.tree.get(id)
		if c != nil && c.name == name {
			return id, true
		}
	}
	return 0, false
}

// SetAttr updates a node's POSIX-ish attributes in place. The node's Kind,
// Name and parent are immutable and are not touched here.
func (t *Tree) SetAttr(id ID, fn func(n *Node)) error {
	n := t.get(id)
	if n == nil {
		return errf("logicaltree: unknown node %d", id)
	}
	fn(n)
	return nil
}

// Detach unlinks id from its parent's child list without freeing it from the
// arena; the node (and any subtree under it) remains reachable only via its
// ID until Remove is called, or until it is re-attached with AddChild under
// a new parent by direct manipulation.
func (t *Tree) Detach(id ID) error {
	n := t.get(id)
	if n == nil {
		return errf("logicaltree: unknown node %d", id)
	}
	if n.id == t.root {
		return errf("logicaltree: cannot detach the root")
	}
	parent := t.get(n.parent)
	if parent == nil {
		return errf("logicaltree: node %d has no resolvable parent", id)
	}
	for i, c := range parent.children {
		if c == id {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	return nil
}

// Remove detaches id from its parent (if still attached) and drops it, and
// every node in its subtree, from the arena. Removed IDs are never reused.
func (t *Tree) Remove(id ID) error {
	n := t.get(id)
	if n == nil {
		return errf("logicaltree: unknown node %d", id)
	}
	if n.id == t.root {
		return errf("logicaltree: cannot remove the root")
	}
	_ = t.Detach(id)
	t.free(id)
	return nil
}

func (t *Tree) free(id ID) {
	n := t.get(id)
	if n == nil {
		return
	}
	for _, c := range n.children {
		t.free(c)
	}
	t.nodes[id] = nil
}
