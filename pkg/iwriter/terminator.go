package iwriter

import (
	"io"

	"github.com/bgrewell/isoforge/pkg/iso9660/descriptor"
)

// TerminatorWriter emits the single Volume Descriptor Set Terminator
// sector, always the last volume descriptor in the set regardless of how
// many naming standards are enabled.
type TerminatorWriter struct{}

func NewTerminatorWriter() *TerminatorWriter { return &TerminatorWriter{} }

func (w *TerminatorWriter) Name() string { return "terminator" }

func (w *TerminatorWriter) ComputeLayout(cursor uint32) (uint32, error) { return cursor, nil }

func (w *TerminatorWriter) EmitVolumeDescriptor(out io.Writer) error {
	term := descriptor.NewVolumeDescriptorSetTerminator()
	buf, err := term.Marshal()
	if err != nil {
		return err
	}
	_, err = out.Write(buf[:])
	return err
}

func (w *TerminatorWriter) EmitData(out io.Writer) error { return nil }
