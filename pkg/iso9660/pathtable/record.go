package pathtable

import (
	"encoding/binary"
)

// NewPathTableForWrite builds an empty PathTable ready to have Records
// appended for emission, in the given byte order.
func NewPathTableForWrite(source string, littleEndian bool) *PathTable {
	return &PathTable{source: source, littleEndian: littleEndian}
}

// NewPathTableRecordForWrite builds an empty PathTableRecord in the given
// byte order, for a writer assembling path table records fresh.
func NewPathTableRecordForWrite(littleEndian bool) *PathTableRecord {
	return &PathTableRecord{littleEndian: littleEndian}
}

// PathTable represents a full path table, containing multiple records.
type PathTable struct {
	Records      []*PathTableRecord
	source       string
	littleEndian bool
}

// Marshal converts a PathTable into a contiguous byte array.
func (pt *PathTable) Marshal() ([]byte, error) {
	var buf []byte

	for _, record := range pt.Records {
		recBytes, err := record.Marshal()
		if err != nil {
			return nil, err
		}
		buf = append(buf, recBytes...)
	}

	return buf, nil
}

type PathTableRecord struct {
	// Length of Directory Identifier specifies the length in bytes of the Directory Identifier field of the Path Table
	// Record.
	LengthOfDirectoryIdentifier uint8 `json:"length_of_directory_identifier"`
	// Extended Attribute Record Length specifies the Extended Attribute Record length if an Extended Attribute Record
	// is recorded. Otherwise, this number will be zero.
	ExtendedAttributeRecordLength uint8 `json:"extended_atrribute_record_length"`
	// Location of Extent specifies the Logical Block Number of the first Logical Block allocated to the Extent in which
	// the directory is recorded.
	LocationOfExtent uint32 `json:"location_of_extent"`
	// Parent Directory Number specifies the record number in the Path Table for the parent directory of the directory.
	ParentDirectoryNumber uint16 `json:"parent_directory_number"`
	// Directory Identifier specifies the identification for the directory. The characters in this field shall be
	// d-characters or d1-characters or only a null byte 0x00.
	DirectoryIdentifier string `json:"directory_identifier"`
	littleEndian        bool
}

// Marshal converts a single PathTableRecord into a byte slice.
func (ptr *PathTableRecord) Marshal() ([]byte, error) {
	dirIDBytes := []byte(ptr.DirectoryIdentifier)
	ptr.LengthOfDirectoryIdentifier = uint8(len(dirIDBytes))

	recordLen := 8 + len(dirIDBytes)
	if len(dirIDBytes)%2 != 0 {
		recordLen++
	}

	buf := make([]byte, recordLen)
	offset := 0

	buf[offset] = ptr.LengthOfDirectoryIdentifier
	offset++
	buf[offset] = ptr.ExtendedAttributeRecordLength
	offset++

	if ptr.littleEndian {
		binary.LittleEndian.PutUint32(buf[offset:], ptr.LocationOfExtent)
	} else {
		binary.BigEndian.PutUint32(buf[offset:], ptr.LocationOfExtent)
	}
	offset += 4

	if ptr.littleEndian {
		binary.LittleEndian.PutUint16(buf[offset:], ptr.ParentDirectoryNumber)
	} else {
		binary.BigEndian.PutUint16(buf[offset:], ptr.ParentDirectoryNumber)
	}
	offset += 2

	copy(buf[offset:], dirIDBytes)
	offset += len(dirIDBytes)

	if len(dirIDBytes)%2 != 0 {
		buf[offset] = 0x00 // Padding byte
	}

	return buf, nil
}
