package eltorito

import (
	"encoding/binary"

	"github.com/bgrewell/isoforge/pkg/consts"
)

// SetPlacement records where an entry's boot image ended up once the
// layout planner has assigned it blocks; size is in 512-byte blocks per
// the catalog format, not 2048-byte sectors.
func (e *ElToritoEntry) SetPlacement(startBlock uint32, byteLength uint32) {
	e.location = SectorOffset(startBlock)
	blocks512 := (byteLength + 511) / 512
	if blocks512 == 0 {
		blocks512 = 1
	}
	e.size = BlockCount(blocks512)
}

// Location reports the boot image's assigned 2048-byte sector.
func (e *ElToritoEntry) Location() SectorOffset { return e.location }

// MarshalBootCatalog produces the boot catalog's on-disc sector: a
// validation entry, followed by a default/initial entry for each of et's
// Entries, followed by zero-fill padding to a full sector. Multiple
// platforms would use section headers (0x90/0x91); this engine supports a
// single initial entry per platform, matching the common case the source's
// demo/ El Torito tooling exercises.
func (et *ElTorito) MarshalBootCatalog() []byte {
	buf := make([]byte, consts.ISO9660_SECTOR_SIZE)

	ve := ValidationEntry{Platform: et.Platform, Identifier: consts.EL_TORITO_BOOT_SYSTEM_ID}
	copy(buf[0:32], ve.marshal())

	offset := 32
	for _, entry := range et.Entries {
		if offset+32 > len(buf) {
			break
		}
		copy(buf[offset:offset+32], entry.marshalInitial())
		offset += 32
	}

	return buf
}

func (ve ValidationEntry) marshal() []byte {
	b := make([]byte, 32)
	b[0] = 0x01 // header ID
	b[1] = byte(ve.Platform)
	idBytes := []byte(ve.Identifier)
	if len(idBytes) > 24 {
		idBytes = idBytes[:24]
	}
	copy(b[4:28], idBytes)
	b[30] = 0x55
	b[31] = 0xAA

	// Checksum field left zero while computing; filled in so the whole
	// 16-bit-word sum of the record is zero, per the format's own
	// self-checking convention.
	var sum uint16
	for i := 0; i < 32; i += 2 {
		if i == 28 {
			continue // skip checksum field itself
		}
		sum += binary.LittleEndian.Uint16(b[i : i+2])
	}
	binary.LittleEndian.PutUint16(b[28:30], uint16(0)-sum)
	return b
}

func (e *ElToritoEntry) marshalInitial() []byte {
	b := make([]byte, 32)
	b[0] = 0x88 // bootable
	b[1] = byte(e.Emulation)
	binary.LittleEndian.PutUint16(b[2:4], e.LoadSegment)
	b[4] = byte(e.PartitionType)
	binary.LittleEndian.PutUint16(b[6:8], uint16(e.size))
	binary.LittleEndian.PutUint32(b[8:12], uint32(e.location))
	return b
}
