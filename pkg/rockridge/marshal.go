package rockridge

import (
	"os"
	"strings"
	"time"

	"github.com/bgrewell/isoforge/pkg/encoding"
)

// entryHeader lays out a system use entry's four-byte SUSP header; kept
// local to this package rather than imported from pkg/susp to avoid a
// dependency cycle (pkg/susp already imports pkg/rockridge for its own
// read-side recognition of the RRIP entry tags).
func entryHeader(sig RockRidgeEntryType, length uint8, version uint8) []byte {
	return []byte{sig[0], sig[1], length, version}
}

func posixModeBits(mode os.FileMode) uint32 {
	var m uint32
	switch {
	case mode&os.ModeSymlink != 0:
		m |= 0xA000
	case mode&os.ModeDir != 0:
		m |= 0x4000
	case mode&os.ModeDevice != 0 && mode&os.ModeCharDevice != 0:
		m |= 0x2000
	case mode&os.ModeDevice != 0:
		m |= 0x6000
	case mode&os.ModeNamedPipe != 0:
		m |= 0x1000
	case mode&os.ModeSocket != 0:
		m |= 0xC000
	default:
		m |= 0x8000
	}
	m |= uint32(mode.Perm())
	if mode&os.ModeSetuid != 0 {
		m |= 0x0800
	}
	if mode&os.ModeSetgid != 0 {
		m |= 0x0400
	}
	if mode&os.ModeSticky != 0 {
		m |= 0x0200
	}
	return m
}

// MarshalPX builds a "PX" POSIX file attributes entry: file mode, link
// count, owner and group IDs, and the file serial number, each written in
// both byte orders per ECMA-119 7.3.3. RRIP 4.1.1.
func MarshalPX(mode os.FileMode, links, uid, gid, serialNo uint32) []byte {
	data := make([]byte, 40)
	encoding.WriteUint32LSBMSB(data[0:8], posixModeBits(mode))
	encoding.WriteUint32LSBMSB(data[8:16], links)
	encoding.WriteUint32LSBMSB(data[16:24], uid)
	encoding.WriteUint32LSBMSB(data[24:32], gid)
	encoding.WriteUint32LSBMSB(data[32:40], serialNo)

	buf := make([]byte, 0, 44)
	buf = append(buf, entryHeader("PX", 44, 1)...)
	buf = append(buf, data...)
	return buf
}

// MarshalPN builds a "PN" POSIX device number entry for block/character
// special files, recording the major/minor pair in both byte orders.
// RRIP 4.1.2.
func MarshalPN(major, minor uint32) []byte {
	data := make([]byte, 16)
	encoding.WriteUint32LSBMSB(data[0:8], major)
	encoding.WriteUint32LSBMSB(data[8:16], minor)

	buf := make([]byte, 0, 20)
	buf = append(buf, entryHeader("PN", 20, 1)...)
	buf = append(buf, data...)
	return buf
}

// nmFlags, for an alternate-name entry referring to "." or "..": RRIP
// reserves the name content field entirely in that case.
const (
	nmFlagContinue = 1 << 0
	nmFlagCurrent  = 1 << 1
	nmFlagParent   = 1 << 2
)

// MarshalNM splits name into as many "NM" alternate name entries as
// needed to stay within the 8-bit entry length field (250 bytes of name
// per entry), setting the continuation bit on every entry but the last.
// RRIP 4.1.4.
func MarshalNM(name string) [][]byte {
	const maxChunk = 250
	if name == "" {
		return [][]byte{marshalNMChunk("", 0)}
	}

	var out [][]byte
	remaining := name
	for len(remaining) > 0 {
		chunk := remaining
		flags := uint8(0)
		if len(chunk) > maxChunk {
			chunk = chunk[:maxChunk]
			flags |= nmFlagContinue
		}
		out = append(out, marshalNMChunk(chunk, flags))
		remaining = remaining[len(chunk):]
	}
	return out
}

func marshalNMChunk(chunk string, flags uint8) []byte {
	buf := make([]byte, 0, 5+len(chunk))
	buf = append(buf, entryHeader("NM", uint8(5+len(chunk)), 1)...)
	buf = append(buf, flags)
	buf = append(buf, chunk...)
	return buf
}

// Timestamp flag bits for a "TF" entry, RRIP 4.1.6.
const (
	TFCreation     = 1 << 0
	TFModify       = 1 << 1
	TFAccess       = 1 << 2
	TFAttributes   = 1 << 3
	TFBackup       = 1 << 4
	TFExpiration   = 1 << 5
	TFEffective    = 1 << 6
	tfLongFormFlag = 1 << 7
)

// MarshalTF builds a "TF" timestamps entry using the short (7-byte ISO
// 9660 directory record) time format. The caller supplies times in the
// same order as the set bits in flags, low bit first; times must contain
// exactly one entry per set flag bit. RRIP 4.1.6.
func MarshalTF(flags uint8, times []time.Time) ([]byte, error) {
	data := make([]byte, 0, 1+7*len(times))
	data = append(data, flags&^tfLongFormFlag)
	for _, t := range times {
		enc, err := encoding.EncodeDirectoryTime(t)
		if err != nil {
			return nil, err
		}
		data = append(data, enc...)
	}

	buf := make([]byte, 0, 4+len(data))
	buf = append(buf, entryHeader("TF", uint8(4+len(data)), 1)...)
	buf = append(buf, data...)
	return buf, nil
}

// Component record flags for an "SL" entry, RRIP 4.1.3.1.
const (
	slCompContinue = 1 << 0
	slCompCurrent  = 1 << 1
	slCompParent   = 1 << 2
	slCompRoot     = 1 << 3
)

// slFlagContinue marks the SL entry itself (not a component within it) as
// continued in the next SL entry.
const slFlagContinue = 1 << 0

// MarshalSL encodes target, a POSIX symlink target, as one or more "SL"
// entries. Each path component becomes its own component record; "." and
// ".." components are encoded with their dedicated flag bits rather than
// as literal content, and a leading "/" becomes the root component flag,
// per RRIP 4.1.3. The target is split across multiple SL entries if its
// component records would not fit in a single 255-byte entry.
func MarshalSL(target string) [][]byte {
	type component struct {
		flags byte
		name  string
	}

	var comps []component
	if strings.HasPrefix(target, "/") {
		comps = append(comps, component{flags: slCompRoot})
		target = strings.TrimPrefix(target, "/")
	}
	for _, part := range strings.Split(target, "/") {
		switch part {
		case "":
			continue
		case ".":
			comps = append(comps, component{flags: slCompCurrent})
		case "..":
			comps = append(comps, component{flags: slCompParent})
		default:
			comps = append(comps, component{name: part})
		}
	}

	var entries [][]byte
	var data []byte
	const maxData = 250 // leaves room for the 5-byte SL header within 255

	flush := func(continued bool) {
		flags := byte(0)
		if continued {
			flags = slFlagContinue
		}
		buf := make([]byte, 0, 5+len(data))
		buf = append(buf, entryHeader("SL", uint8(5+len(data)), 1)...)
		buf = append(buf, flags)
		buf = append(buf, data...)
		entries = append(entries, buf)
		data = nil
	}

	for _, c := range comps {
		rec := make([]byte, 0, 2+len(c.name))
		rec = append(rec, c.flags, uint8(len(c.name)))
		rec = append(rec, c.name...)
		if len(data)+len(rec) > maxData {
			flush(true)
		}
		data = append(data, rec...)
	}
	flush(false)
	return entries
}

// MarshalCL builds a "CL" child link entry recorded in a relocated
// directory's placeholder, pointing at the real directory's extent.
// RRIP 4.1.5.1.
func MarshalCL(childExtent uint32) []byte {
	data := make([]byte, 8)
	encoding.WriteUint32LSBMSB(data, childExtent)
	buf := make([]byte, 0, 12)
	buf = append(buf, entryHeader("CL", 12, 1)...)
	buf = append(buf, data...)
	return buf
}

// MarshalPL builds a "PL" parent link entry recorded on the relocated
// directory's own "." record, pointing back at its placeholder's parent
// extent. RRIP 4.1.5.2.
func MarshalPL(parentExtent uint32) []byte {
	data := make([]byte, 8)
	encoding.WriteUint32LSBMSB(data, parentExtent)
	buf := make([]byte, 0, 12)
	buf = append(buf, entryHeader("PL", 12, 1)...)
	buf = append(buf, data...)
	return buf
}

// MarshalRE builds an "RE" relocated directory marker, recorded on a
// directory record that has been moved to satisfy the depth limit. It
// carries no data of its own; CL/PL supply the actual linkage. RRIP 4.1.5.3.
func MarshalRE() []byte {
	return entryHeader("RE", 4, 1)
}
