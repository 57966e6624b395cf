// Package contentstream implements component B of the image-emission
// engine: a content stream is anything that can supply the bytes that end
// up inside a file's extent, whether those bytes come from a host
// filesystem, an in-memory buffer, a boot image, or the output of a filter
// wrapping another stream.
package contentstream

import (
	"errors"
	"io"
)

// Tag identifies a stream implementation's kind, matching the short
// four-character tags the source uses for its own stream classes.
type Tag string

const (
	TagFileSource Tag = "fsrc" // backed by a path on the host filesystem
	TagMemory     Tag = "mem " // backed by an in-memory buffer
	TagBoot       Tag = "boot" // backed by a boot image
	TagZisofs     Tag = "ziso" // zisofs-compressed view of another stream
	TagDeziso     Tag = "osiz" // zisofs-decompressed view of another stream
	TagExternal   Tag = "extf" // output of an external filter command
)

// DriftPolicy governs Stream.Open's behavior when a file has changed size
// since it was first measured (component B, "size-drift signaling").
type DriftPolicy int

const (
	// DriftOK means the stream's size has not changed.
	DriftOK DriftPolicy = iota + 1
	// DriftLarger means the underlying source grew; the stream truncates
	// reads at the originally recorded size.
	DriftLarger
	// DriftSmaller means the underlying source shrank; the stream
	// zero-pads reads past the new end, up to the originally recorded
	// size; FileSourceStream logs a warning through its logger when
	// Open detects the shrink.
	DriftSmaller
)

// ErrShortRead reports that an underlying source supplied fewer bytes than
// its recorded Size implied. The streams in this package do not return it:
// FileSourceStream zero-pads a shrunken source up to its recorded size.
var ErrShortRead = errors.New("contentstream: short read from underlying source")

// Identity is the (filesystem, device, inode) triple component C uses to
// deduplicate streams that refer to the same underlying content. A stream
// that has no natural identity (an in-memory buffer, most filters) reports
// an all-zero Identity, which the file-source table treats as "never
// equal to another stream" rather than "equal to every other anonymous
// stream".
type Identity struct {
	FilesystemID uint32
	DeviceID     uint64
	InodeID      uint64
}

// IsZero reports whether id carries no natural identity.
func (id Identity) IsZero() bool {
	return id.FilesystemID == 0 && id.DeviceID == 0 && id.InodeID == 0
}

// Stream is the capability every content source must provide. It composes
// io.ReadCloser so callers can use it directly with helpers that expect
// one; Open must be called before Read, and Read must not be called again
// after Close.
type Stream interface {
	io.ReadCloser

	// Tag identifies the stream's concrete kind.
	Tag() Tag

	// Open prepares the stream for reading. It is separate from
	// construction because measuring a stream's Size and opening its
	// underlying source can be expensive operations a caller may want to
	// defer or skip (e.g. a dry-run layout pass that only needs Size).
	Open() error

	// Size returns the stream's byte length as most recently measured.
	// It is valid to call before Open.
	Size() (uint32, error)

	// StreamIdentity reports the stream's dedup identity, or a zero
	// Identity if the stream has none.
	StreamIdentity() Identity

	// Identity reports the same dedup key as StreamIdentity, decomposed
	// into the three-value shape logicaltree.ContentHandle expects so a
	// Stream can be stored directly on a logical-tree file node without
	// that package importing this one.
	Identity() (fsID uint32, devID uint64, inoID uint64)

	// Repeatable reports whether a second Open/Read/Close cycle is
	// guaranteed to produce the same bytes. Filters that require a
	// repeatable input (component H, the compute-size pass) check this
	// before wrapping a stream.
	Repeatable() bool
}

// DriftReporter is implemented by streams whose Read can report a
// size-drift condition; not every Stream needs to (in-memory buffers can't
// drift).
type DriftReporter interface {
	Drift() DriftPolicy
}
