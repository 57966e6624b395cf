package iwriter

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bgrewell/isoforge/pkg/consts"
	"github.com/bgrewell/isoforge/pkg/contentstream"
	"github.com/bgrewell/isoforge/pkg/eltorito"
	"github.com/bgrewell/isoforge/pkg/iso9660/descriptor"
)

// bootImageCatalogLBAOffset is the offset within the Boot Record's
// BootSystemUse field at which El Torito stores the boot catalog's LBA,
// per the El Torito specification's Boot Record layout (catalog pointer
// at byte 0x47 of the sector, i.e. the first byte of BootSystemUse once
// the 7-byte descriptor header and the two 32-byte identifiers are
// accounted for).
const bootImageCatalogLBAOffset = 0x47 - 7 - 64

// BootImage pairs an El Torito entry with the content stream backing its
// boot image, so the writer can place and stream the image itself in
// addition to the catalog metadata.
type BootImage struct {
	Entry  *eltorito.ElToritoEntry
	Stream contentstream.Stream
}

// ElToritoWriter emits the Boot Record volume descriptor, the boot
// catalog sector, and every boot image's raw content, grounded on the
// teacher's pkg/eltorito package (extended in marshal.go for write-side
// use) and original_source/libisofs/eltorito.c's convention of placing
// the catalog immediately before the first boot image.
type ElToritoWriter struct {
	Cat    *eltorito.ElTorito
	Images []*BootImage

	catBlock   uint32
	imageStart uint32
}

func NewElToritoWriter(cat *eltorito.ElTorito, images []*BootImage) *ElToritoWriter {
	return &ElToritoWriter{Cat: cat, Images: images}
}

func (w *ElToritoWriter) Name() string { return "eltorito" }

func (w *ElToritoWriter) ComputeLayout(cursor uint32) (uint32, error) {
	w.catBlock = cursor
	cursor++
	w.imageStart = cursor

	for _, img := range w.Images {
		size, err := img.Stream.Size()
		if err != nil {
			return 0, fmt.Errorf("iwriter: el torito boot image size: %w", err)
		}
		img.Entry.SetPlacement(cursor, size)
		blocks := (size + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE
		if blocks == 0 {
			blocks = 1
		}
		cursor += blocks
	}
	return cursor, nil
}

func (w *ElToritoWriter) EmitVolumeDescriptor(out io.Writer) error {
	br := &descriptor.BootRecordDescriptor{
		VolumeDescriptorHeader: descriptor.VolumeDescriptorHeader{
			VolumeDescriptorType:    descriptor.TYPE_BOOT_RECORD,
			StandardIdentifier:      consts.ISO9660_STD_IDENTIFIER,
			VolumeDescriptorVersion: consts.ISO9660_VOLUME_DESC_VERSION,
		},
		BootRecordBody: descriptor.BootRecordBody{
			BootSystemIdentifier: consts.EL_TORITO_BOOT_SYSTEM_ID,
		},
	}
	binary.LittleEndian.PutUint32(br.BootRecordBody.BootSystemUse[bootImageCatalogLBAOffset:], w.catBlock)

	buf, err := br.Marshal()
	if err != nil {
		return fmt.Errorf("iwriter: marshal el torito boot record: %w", err)
	}
	_, err = out.Write(buf[:])
	return err
}

func (w *ElToritoWriter) EmitData(out io.Writer) error {
	catalog := w.Cat.MarshalBootCatalog()
	if _, err := writeBlocks(out, catalog); err != nil {
		return err
	}

	for _, img := range w.Images {
		if err := img.Stream.Open(); err != nil {
			return fmt.Errorf("iwriter: open boot image stream: %w", err)
		}
		pw := &blockPadWriter{w: out}
		_, copyErr := io.Copy(pw, img.Stream)
		closeErr := img.Stream.Close()
		if copyErr != nil {
			return fmt.Errorf("iwriter: stream boot image: %w", copyErr)
		}
		if closeErr != nil {
			return closeErr
		}
		if err := pw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// blockPadWriter pads the final short write of a copy up to a whole
// 2048-byte block boundary so the next writer in the chain starts at a
// correct block-aligned offset. A copy that wrote nothing is padded to one
// zero block, matching the one block the layout gives an empty stream.
type blockPadWriter struct {
	w       io.Writer
	written int
}

func (b *blockPadWriter) Write(p []byte) (int, error) {
	n, err := b.w.Write(p)
	b.written += n
	return n, err
}

func (b *blockPadWriter) Flush() error {
	pad := (consts.ISO9660_SECTOR_SIZE - b.written%consts.ISO9660_SECTOR_SIZE) % consts.ISO9660_SECTOR_SIZE
	if b.written == 0 {
		pad = consts.ISO9660_SECTOR_SIZE
	}
	if pad == 0 {
		return nil
	}
	_, err := b.w.Write(make([]byte, pad))
	return err
}
