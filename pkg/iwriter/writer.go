// Package iwriter implements component E: the writer chain. Each enabled
// naming standard, plus the El Torito boot catalog and the volume
// descriptor set terminator, is written by a Writer implementation the
// engine runs in a fixed order; the engine then runs FileContentWriter
// after the chain. PaddingWriter is provided but the engine does not use it.
package iwriter

import (
	"io"

	"github.com/bgrewell/isoforge/pkg/consts"
	"github.com/bgrewell/isoforge/pkg/diag"
	"github.com/bgrewell/isoforge/pkg/filesource"
	"github.com/bgrewell/isoforge/pkg/logicaltree"
)

// Writer is the three-method contract every writer-chain stage implements:
// first every writer computes how much space it needs (so the next writer
// in the chain knows where it may start), then every writer emits its
// volume descriptor sector(s) in chain order, then every writer emits its
// actual data in the same order.
type Writer interface {
	// Name identifies the writer for diagnostics and ordering assertions.
	Name() string

	// ComputeLayout reserves this writer's blocks starting at cursor and
	// returns the first free block after everything it claimed.
	ComputeLayout(cursor uint32) (next uint32, err error)

	// EmitVolumeDescriptor writes this writer's volume descriptor
	// sector(s), if any, to w. Writers with no volume descriptor of their
	// own (e.g. the file-content writer) implement this as a no-op.
	EmitVolumeDescriptor(w io.Writer) error

	// EmitData writes this writer's actual data -- directory extents,
	// path tables, boot images, file content, or padding -- to w.
	EmitData(w io.Writer) error
}

// Chain runs a fixed, ordered sequence of Writers through all three
// phases, matching original_source/libisofs/ecma119.c's
// ecma119_writer_create ordering: primary ECMA-119, then (if enabled) El
// Torito, Joliet, ISO 9660:1999, then the volume descriptor set
// terminator. The order is whatever the caller passes to NewChain.
type Chain struct {
	writers []Writer
}

// NewChain builds a Chain from writers, in the order they must run.
func NewChain(writers ...Writer) *Chain {
	return &Chain{writers: writers}
}

// ComputeLayout runs every writer's layout pass in order, threading the
// block cursor through the chain.
func (c *Chain) ComputeLayout(startBlock uint32) (uint32, error) {
	cursor := startBlock
	for _, w := range c.writers {
		next, err := w.ComputeLayout(cursor)
		if err != nil {
			return 0, err
		}
		cursor = next
	}
	return cursor, nil
}

// EmitVolumeDescriptors runs every writer's volume-descriptor phase in
// order.
func (c *Chain) EmitVolumeDescriptors(w io.Writer) error {
	for _, wr := range c.writers {
		if err := wr.EmitVolumeDescriptor(w); err != nil {
			return err
		}
	}
	return nil
}

// EmitData runs every writer's data phase in order.
func (c *Chain) EmitData(w io.Writer) error {
	for _, wr := range c.writers {
		if err := wr.EmitData(w); err != nil {
			return err
		}
	}
	return nil
}

// writeBlocks pads p with zero bytes up to the next whole block boundary
// and writes it, returning the number of blocks written.
func writeBlocks(w io.Writer, p []byte) (uint32, error) {
	pad := (consts.ISO9660_SECTOR_SIZE - len(p)%consts.ISO9660_SECTOR_SIZE) % consts.ISO9660_SECTOR_SIZE
	if pad > 0 {
		p = append(p, make([]byte, pad)...)
	}
	_, err := w.Write(p)
	return uint32(len(p) / consts.ISO9660_SECTOR_SIZE), err
}

// Resources bundles the shared, read-only inputs every concrete writer in
// the chain needs: the logical tree, the deduplicated file-source table, a
// diagnostic sink, the volume ID and the application name. Each writer
// receives its projected tree separately.
type Resources struct {
	LogicalTree *logicaltree.Tree
	FileSources *filesource.Table
	Sink        *diag.Sink
	VolumeID    string
	AppName     string

	// ImageID is a per-run identity string (the engine mints a uuid.New()
	// when the request carries none) stamped into the primary volume descriptor's
	// application-use area.
	ImageID string
}
