package iwriter

import (
	"fmt"
	"io"

	"github.com/bgrewell/isoforge/pkg/consts"
	"github.com/bgrewell/isoforge/pkg/filesource"
)

// FileContentWriter streams every unique file-source entry's bytes in
// file-source table order, padding each entry's final section up to a
// whole block so the next entry starts block-aligned. The engine runs it
// after every writer in the chain, matching original_source's convention of writing
// every directory/path-table/boot structure before any file data so a
// streaming writer never has to seek backwards.
type FileContentWriter struct {
	Sources *filesource.Table
}

func NewFileContentWriter(sources *filesource.Table) *FileContentWriter {
	return &FileContentWriter{Sources: sources}
}

func (w *FileContentWriter) Name() string { return "filecontent" }

// ComputeLayout assigns no blocks; block assignment for file content already
// happened in layout.PlanFileContent, driven directly by the engine since
// it needs the combined cursor from every directory/path-table/boot
// writer that ran before it. It returns the block after the last
// file-content section, or cursor if that is larger.
func (w *FileContentWriter) ComputeLayout(cursor uint32) (uint32, error) {
	var next uint32
	for _, e := range w.Sources.Entries() {
		for _, s := range e.Sections {
			end := s.StartBlock + blocksForSize(s.ByteLength)
			if end > next {
				next = end
			}
		}
	}
	if next < cursor {
		next = cursor
	}
	return next, nil
}

func blocksForSize(n uint32) uint32 {
	b := (n + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE
	if b == 0 {
		b = 1
	}
	return b
}

func (w *FileContentWriter) EmitVolumeDescriptor(out io.Writer) error { return nil }

func (w *FileContentWriter) EmitData(out io.Writer) error {
	for _, e := range w.Sources.Entries() {
		if len(e.PriorExtents) > 0 {
			continue
		}
		if err := w.emitEntry(out, e); err != nil {
			return err
		}
	}
	return nil
}

func (w *FileContentWriter) emitEntry(out io.Writer, e *filesource.Entry) error {
	if e.Stream == nil {
		// An imported entry with no prior extents has no bytes to copy; its
		// planned blocks are written as zeros so later entries stay where
		// layout.PlanFileContent placed them.
		var blocks uint32
		for _, s := range e.Sections {
			blocks += blocksForSize(s.ByteLength)
		}
		_, err := out.Write(make([]byte, int(blocks)*consts.ISO9660_SECTOR_SIZE))
		return err
	}
	if err := e.Stream.Open(); err != nil {
		return fmt.Errorf("iwriter: open content stream: %w", err)
	}
	pw := &blockPadWriter{w: out}
	_, copyErr := io.Copy(pw, e.Stream)
	closeErr := e.Stream.Close()
	if copyErr != nil {
		return fmt.Errorf("iwriter: stream file content: %w", copyErr)
	}
	if closeErr != nil {
		return closeErr
	}
	return pw.Flush()
}
