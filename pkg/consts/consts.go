package consts

const (
	// Number of system area sectors.
	ISO9660_SYSTEM_AREA_SECTORS = 16

	// Standard ISO9660 identifier.
	ISO9660_STD_IDENTIFIER = "CD001"

	// ISO9660 volume descriptor version (always 1).
	ISO9660_VOLUME_DESC_VERSION = 1

	// ISO9660 default sector size.
	ISO9660_SECTOR_SIZE = 2048

	// ISO9660 volume descriptor header size
	ISO9660_VOLUME_DESC_HEADER_SIZE = 7

	// ISO9660 application use area size
	ISO9660_APPLICATION_USE_SIZE = 512

	// JOLIET level 1, 2, and 3 escape sequences.
	JOLIET_LEVEL_1_ESCAPE = "%/@"
	JOLIET_LEVEL_2_ESCAPE = "%/C"
	JOLIET_LEVEL_3_ESCAPE = "%/E"

	// El Torito bootable cdrom system identifier.
	EL_TORITO_BOOT_SYSTEM_ID = "EL TORITO SPECIFICATION"

	// a-characters set which are specified in the International Reference Version at the following positions.
	//   | 2/0 - 2/2
	//   | 2/5 - 2/15
	//   | 3/0 - 3/15
	//   | 4/1 - 4/15
	//   | 5/0 - 5/10
	//   | 5/15
	A_CHARACTERS = " !\"%&'()*+,-./0123456789:;<=>?ABCDEFGHIJKLMNOPQRSTUVWXYZ_"

	// c-characters set which are the coded graphic character sets identified by the escape sequences in a Joliet SVD.
	// | All code points between (00)(00) and (00)(1F), inclusive. (Control Characters)
	// | (00)(2A) '*'(Asterisk)
	// | (00)(2F) '/' (Forward Slash)
	// | (00)(3A) ':' (Colon)
	// | (00)(3B) ';' (Semicolon)
	// | (00)(3F) '?' (Question Mark)
	// | (00)(5C) '\' (Backslash)

	// a1-characters set which are a subset of the c-characters. This subset shall be subject to agreement between the
	// originator and the recipient of the volume.

	// d-characters: 37 characters in the following positions of the International Reference Version
	// | 3/0 - 3/9
	// | 4/1 - 5/10
	// | 5/15
	D_CHARACTERS = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_"

	// Separators allowed by ISO9660 0x2E and 0x3B.
	ISO9660_SEPARATOR_1 = "."
	ISO9660_SEPARATOR_2 = ";"

	// ISO9660 Filler 0x20 (space)
	ISO9660_FILLER = " "

	// Standard UDF Identifier
	UDF_STD_IDENTIFIER = "BEA01"

	// UDF default sector size.
	UDF_SECTOR_SIZE = 2048

	// D1_CHARACTERS relaxes D_CHARACTERS to also allow lowercase letters, used
	// when the allow-lowercase emission option is set.
	D1_CHARACTERS = D_CHARACTERS + "abcdefghijklmnopqrstuvwxyz"

	// MAX_EXTENT_SIZE is the largest byte length a single ECMA-119 file
	// section may declare (just under the 32-bit DataLength field ceiling,
	// rounded down to a sector boundary).
	MAX_EXTENT_SIZE = 0xFFFFF800 // (1<<32 - 1) rounded down to a 2048 boundary

	// EXTENT_SIZE is the section size used for every non-final section of a
	// file that has been split across multiple extents.
	EXTENT_SIZE = MAX_EXTENT_SIZE

	// ISO_USED_INODE_RANGE bounds the look-ahead bitmap used by inode
	// reassignment on import (component A, §4.A "Inode assignment").
	ISO_USED_INODE_RANGE = 1 << 20

	// Minimum image size, in blocks, so that an overwrite of the first
	// 64 KiB on rewritable media cannot run past the end of the image.
	MIN_IMAGE_BLOCKS = 32

	// PRIMARY_MAX_PATH_DEPTH is the maximum directory nesting depth allowed
	// by the primary ECMA-119 tree before relocation/relaxation kicks in.
	PRIMARY_MAX_PATH_DEPTH = 8

	// PRIMARY_MAX_PATH_LENGTH is the maximum total path length (in bytes)
	// allowed by the primary ECMA-119 tree before relocation/relaxation.
	PRIMARY_MAX_PATH_LENGTH = 255

	// JOLIET_MAX_PATH_LENGTH is the maximum total path length (in UCS-2
	// characters) allowed by the Joliet tree before the joliet-longer-paths
	// relaxation is required.
	JOLIET_MAX_PATH_LENGTH = 240

	// MAX_DIRECTORY_RECORD_SIZE is the hard ECMA-119 ceiling on a single
	// directory record, extension suffixes included.
	MAX_DIRECTORY_RECORD_SIZE = 255

	// MAX_MANGLE_DIGITS bounds how many decimal digits the projection
	// builder's collision-mangling counter may grow to before giving up.
	MAX_MANGLE_DIGITS = 8

	// MAX_BOOT_IMAGES is the number of boot images that fit a single
	// El Torito boot catalog sector.
	MAX_BOOT_IMAGES = 32
)
