// Package session implements component I: multisession glue. It offsets
// the block counter a new session starts from, populates a caller-owned
// 64-KiB overwrite buffer with a dry-run copy of the new session's volume
// descriptors, and pads the session's block count. It does not touch the
// file-source table: entries carrying PriorExtents are skipped by
// layout.PlanFileContent and iwriter.FileContentWriter in every mode.
package session

import (
	"bytes"
	"fmt"

	"github.com/bgrewell/isoforge/pkg/consts"
)

// OverwriteBufferSize is the fixed size of the caller-owned staging region
// a rewritable medium's first 64 KiB occupies; original_source's multi.c
// reuses this same constant for its "ms_block" overwrite area.
const OverwriteBufferSize = 64 * 1024

// systemAreaBlocks is the number of logical blocks the system area (boot
// sector, partition tables, and reserved space) always occupies before
// the first volume descriptor, for every session regardless of start-LBA.
const systemAreaBlocks = 16

// minimumImageBlocks is the smallest a session's own block span may be
// once padding is applied, so the descriptor area plus pad survives an
// overwrite of the first 64 KiB on rewritable media.
const minimumImageBlocks = 32

// Config controls how a session's emission is offset and staged.
type Config struct {
	// StartLBA is the first logical block of this session on the medium.
	// Zero for a fresh, non-multisession image.
	StartLBA uint32

	// Appendable marks the image as part of a multisession chain. It does
	// not change emission: entries carrying PriorExtents keep their blocks
	// whether or not it is set.
	Appendable bool
}

// IsMultisession reports whether this session is being appended onto an
// existing image rather than starting a fresh one.
func (c Config) IsMultisession() bool { return c.StartLBA > 0 }

// StartBlock returns the first block this session's own writer chain may
// use, after reserving the system area.
func (c Config) StartBlock() uint32 { return c.StartLBA + systemAreaBlocks }

// FinalBlockCount returns the block count to record as this session's
// total size, padding up to minimumImageBlocks if the writer chain's own
// cursor would otherwise produce a shorter image.
func (c Config) FinalBlockCount(cursorAfterLastWriter uint32) uint32 {
	span := cursorAfterLastWriter - c.StartLBA
	if span < minimumImageBlocks {
		span = minimumImageBlocks
	}
	return span
}

// OverwriteBuffer is the caller-owned 64-KiB staging region populated
// during a dry run so the caller can later patch the beginning of the
// target medium to advertise the new session as the primary one.
type OverwriteBuffer struct {
	buf [OverwriteBufferSize]byte
	n   int
}

// NewOverwriteBuffer returns an empty OverwriteBuffer.
func NewOverwriteBuffer() *OverwriteBuffer { return &OverwriteBuffer{} }

// Populate runs emitDescriptors (a dry run of the writer chain's
// EmitVolumeDescriptors phase against the new session's layout) and
// captures its output, which must not exceed OverwriteBufferSize.
func (b *OverwriteBuffer) Populate(emitDescriptors func(w *bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := emitDescriptors(&buf); err != nil {
		return fmt.Errorf("session: dry-run volume descriptor emission: %w", err)
	}
	if buf.Len() > OverwriteBufferSize {
		return fmt.Errorf("session: dry-run output %d bytes exceeds overwrite buffer size %d", buf.Len(), OverwriteBufferSize)
	}
	b.n = copy(b.buf[:], buf.Bytes())
	return nil
}

// Bytes returns the populated prefix of the overwrite buffer.
func (b *OverwriteBuffer) Bytes() []byte { return b.buf[:b.n] }

// Len reports how many bytes of the 64-KiB buffer the dry run populated.
func (b *OverwriteBuffer) Len() int { return b.n }

// blocksPerOverwriteBuffer is how many 2048-byte sectors fit in the
// overwrite region, used by callers wanting to size a read-modify-write
// against the target medium in whole sectors.
func blocksPerOverwriteBuffer() int { return OverwriteBufferSize / consts.ISO9660_SECTOR_SIZE }

// BlocksPerOverwriteBuffer exposes blocksPerOverwriteBuffer for callers
// outside this package.
func BlocksPerOverwriteBuffer() int { return blocksPerOverwriteBuffer() }
