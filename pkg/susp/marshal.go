package susp

import "fmt"

// BuildEntry assembles a SUSP system use entry: a two-byte signature, an
// 8-bit length covering the whole entry, an 8-bit version, then the
// entry's own payload, per SUSP-112 4.1. The SP, ER and ST entries are
// built here; the Rock Ridge entries (PX, NM, TF, SL, CL, PL, RE) are built
// by pkg/rockridge with its own copy of the same four-byte header layout.
func BuildEntry(sig SystemUseEntryType, version uint8, payload []byte) ([]byte, error) {
	if len(sig) != 2 {
		return nil, fmt.Errorf("susp: signature %q must be exactly 2 bytes", sig)
	}
	total := 4 + len(payload)
	if total > 255 {
		return nil, fmt.Errorf("susp: entry %q payload too large (%d bytes) for an 8-bit length field", sig, len(payload))
	}
	buf := make([]byte, 0, total)
	buf = append(buf, sig[0], sig[1], byte(total), version)
	buf = append(buf, payload...)
	return buf, nil
}

// BuildSP builds the "SP" sharing protocol indicator SUSP requires as the
// very first entry in the root directory's "." record, identifying the
// system use area as SUSP-conformant. SUSP-112 5.3.
func BuildSP() []byte {
	entry, _ := BuildEntry(SHARING_PROTOCOL_INDICATOR, 1, []byte{0xBE, 0xEF, 0x00})
	return entry
}

// BuildST builds the "ST" system use area terminator, signaling no further
// entries follow in this system use field. SUSP-112 5.4.
func BuildST() []byte {
	entry, _ := BuildEntry(AREA_TERMINATOR, 1, nil)
	return entry
}

// BuildER builds an "ER" extension reference entry, registering one
// extension's identifier/descriptor/source strings as present in the
// volume, per SUSP-112 5.5. Rock Ridge's writer emits exactly one of
// these, on the root directory's "." record, naming RRIP_1991A.
func BuildER(id, descriptor, source string, extVersion uint8) ([]byte, error) {
	if len(id) > 255 || len(descriptor) > 255 || len(source) > 255 {
		return nil, fmt.Errorf("susp: ER component string too long")
	}
	payload := make([]byte, 0, 4+len(id)+len(descriptor)+len(source))
	payload = append(payload, byte(len(id)), byte(len(descriptor)), byte(len(source)), extVersion)
	payload = append(payload, id...)
	payload = append(payload, descriptor...)
	payload = append(payload, source...)
	return BuildEntry(EXTENSION_REFERENCE, 1, payload)
}
