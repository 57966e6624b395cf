package logicaltree

import "github.com/bgrewell/isoforge/pkg/consts"

// InodeAssigner hands out synthetic 32-bit inode numbers to nodes that don't
// already carry one from an imported image (component A, "Inode assignment").
// Rock Ridge's PX entry needs a stable inode per node so that hard links
// reconstructed on extraction agree with each other; nodes freshly created
// by a caller have no natural inode of their own, so one is synthesized
// here.
//
// Imported nodes keep whatever inode they arrived with. To avoid handing out
// a synthetic number that collides with one of those, the assigner tracks a
// look-ahead bitmap covering the next ISO_USED_INODE_RANGE candidate values
// and skips any that are marked used.
type InodeAssigner struct {
	next   uint32
	used   map[uint32]bool
	window uint32
}

// NewInodeAssigner creates an assigner starting its search at 1 (0 is
// reserved to mean "unassigned").
func NewInodeAssigner() *InodeAssigner {
	return &InodeAssigner{next: 1, used: make(map[uint32]bool), window: consts.ISO_USED_INODE_RANGE}
}

// Reserve marks ino as already in use, e.g. because it was read from an
// imported image's PX entry. It is safe to call with 0, which is a no-op.
func (a *InodeAssigner) Reserve(ino uint32) {
	if ino == 0 {
		return
	}
	a.used[ino] = true
}

// Assign returns the next free synthetic inode number, reserving it so a
// later call never returns the same value twice. It searches at most
// ISO_USED_INODE_RANGE candidates past its last cursor position before
// giving up and wrapping the cursor back to 1, which is sufficient for any
// import whose reserved set is itself bounded by that same range.
func (a *InodeAssigner) Assign() uint32 {
	for i := uint32(0); i < a.window; i++ {
		candidate := a.next
		a.next++
		if a.next == 0 {
			a.next = 1 // skip the reserved zero value on wraparound
		}
		if !a.used[candidate] && candidate != 0 {
			a.used[candidate] = true
			return candidate
		}
	}
	// Pathological case: the whole look-ahead range is occupied. Fall back
	// to a linear scan from 1, which is still bounded because Go maps don't
	// grow unboundedly from this loop alone.
	for candidate := uint32(1); candidate != 0; candidate++ {
		if !a.used[candidate] {
			a.used[candidate] = true
			return candidate
		}
	}
	return 0
}
