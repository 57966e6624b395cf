package iwriter

import (
	"io"

	"github.com/bgrewell/isoforge/pkg/consts"
)

// PaddingWriter reserves and emits the zero-filled pad area original_source
// always leaves between the volume descriptor set and the first real
// directory/file extent (16 blocks of system area plus this pad absorb
// boot-loader and vendor-specific prepends without disturbing the
// carefully laid-out extents that follow).
type PaddingWriter struct {
	blocks uint32
}

// NewPaddingWriter reserves the given number of whole blocks.
func NewPaddingWriter(blocks uint32) *PaddingWriter {
	return &PaddingWriter{blocks: blocks}
}

func (w *PaddingWriter) Name() string { return "padding" }

func (w *PaddingWriter) ComputeLayout(cursor uint32) (uint32, error) {
	return cursor + w.blocks, nil
}

func (w *PaddingWriter) EmitVolumeDescriptor(out io.Writer) error { return nil }

func (w *PaddingWriter) EmitData(out io.Writer) error {
	if w.blocks == 0 {
		return nil
	}
	zero := make([]byte, consts.ISO9660_SECTOR_SIZE)
	for i := uint32(0); i < w.blocks; i++ {
		if _, err := out.Write(zero); err != nil {
			return err
		}
	}
	return nil
}
