package systemarea

import (
	"encoding/binary"
	"fmt"

	"github.com/bgrewell/isoforge/pkg/consts"
)

type SystemArea struct {
	// System Area's use isn't defined in the ISO 9660 standard. It is reserved for system use.
	Contents [consts.ISO9660_SECTOR_SIZE * consts.ISO9660_SYSTEM_AREA_SECTORS]byte
}

// BootLBAOffset is the byte offset within the system area of the
// four-byte little-endian boot-image start LBA field in the first
// partition entry of a preloaded hybrid MBR payload, per
// original_source/libisofs/system_area.c's make_isolinux_mbr layout
// (partition entry at byte 446/0x1BE, LBA-start field 8 bytes into it).
const BootLBAOffset = 0x1BE + 8

// PatchBootLBA overwrites the boot-image start LBA field of a preloaded
// hybrid MBR payload once the boot image's placement is known from the
// layout pass. Safe to call on a zeroed system area (no preloaded MBR):
// it still patches the field, which a non-hybrid image simply never reads.
func (sa *SystemArea) PatchBootLBA(lba uint32) error {
	if BootLBAOffset+4 > len(sa.Contents) {
		return fmt.Errorf("systemarea: boot LBA patch offset %d out of range", BootLBAOffset)
	}
	binary.LittleEndian.PutUint32(sa.Contents[BootLBAOffset:BootLBAOffset+4], lba)
	return nil
}
