package filter

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/bgrewell/isoforge/pkg/contentstream"
)

// zisofs block size is fixed at 32 KiB (log2 == 15), matching
// original_source/libisofs/filters/zisofs.c's Libisofs_zisofs_block_log2.
const (
	zisofsBlockLog2 = 15
	zisofsBlockSize = 1 << zisofsBlockLog2
	zisofsMagic     = "\x37\xE4\x53\x96\xC9\xDB\xD6\x07"
	zisofsHeaderLen = 16
)

// Zisofs compresses a stream using the zisofs per-block deflate container:
// a 16-byte header, a little-endian block-pointer array (one entry per
// block plus a trailing pointer marking the end of the last block), then
// the deflate-compressed blocks themselves. A zero-length block is encoded
// as two identical pointers rather than emitting an empty deflate stream,
// matching the format's own zero-block convention.
type Zisofs struct{}

func (Zisofs) Name() string { return "zisofs" }

func (Zisofs) Apply(input contentstream.Stream) (contentstream.Stream, error) {
	if !input.Repeatable() {
		return nil, ErrNotRepeatable
	}

	size, err := input.Size()
	if err != nil {
		return nil, err
	}
	if err := input.Open(); err != nil {
		return nil, err
	}
	defer input.Close()

	numBlocks := (int(size) + zisofsBlockSize - 1) / zisofsBlockSize
	if size == 0 {
		numBlocks = 0
	}

	pointers := make([]uint32, numBlocks+1)
	var body bytes.Buffer

	buf := make([]byte, zisofsBlockSize)
	for i := 0; i < numBlocks; i++ {
		pointers[i] = uint32(body.Len()) + zisofsHeaderLen + uint32(len(pointers))*4

		n, rerr := io.ReadFull(input, buf)
		if rerr != nil && rerr != io.ErrUnexpectedEOF && rerr != io.EOF {
			return nil, rerr
		}
		chunk := buf[:n]

		if isAllZero(chunk) {
			continue // zero block: leave this pointer equal to the next one
		}

		zw, zerr := zlib.NewWriter(&body)
		if zerr != nil {
			return nil, zerr
		}
		if _, zerr = zw.Write(chunk); zerr != nil {
			return nil, zerr
		}
		if zerr = zw.Close(); zerr != nil {
			return nil, zerr
		}
	}
	pointers[numBlocks] = uint32(body.Len()) + zisofsHeaderLen + uint32(len(pointers))*4

	var out bytes.Buffer
	out.WriteString(zisofsMagic)
	binary.Write(&out, binary.LittleEndian, size)
	out.WriteByte(zisofsHeaderLen / 4)
	out.WriteByte(zisofsBlockLog2)
	out.Write([]byte{0, 0}) // reserved

	for _, p := range pointers {
		binary.Write(&out, binary.LittleEndian, p)
	}
	out.Write(body.Bytes())

	return contentstream.NewMemoryStream(out.Bytes()), nil
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
