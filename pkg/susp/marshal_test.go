package susp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, raw []byte) *SystemUseEntry {
	t.Helper()
	entries, err := GetSystemUseEntries(raw, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return entries[0]
}

func TestBuildEntry_RejectsOversizedPayload(t *testing.T) {
	_, err := BuildEntry(SHARING_PROTOCOL_INDICATOR, 1, make([]byte, 300))
	require.Error(t, err)
}

func TestBuildEntry_RejectsBadSignatureLength(t *testing.T) {
	_, err := BuildEntry(SystemUseEntryType("X"), 1, nil)
	require.Error(t, err)
}

func TestBuildSP(t *testing.T) {
	entry := parseOne(t, BuildSP())
	require.Equal(t, SHARING_PROTOCOL_INDICATOR, entry.Type())
	require.Equal(t, uint8(7), entry.Length())
	require.Equal(t, []byte{0xBE, 0xEF, 0x00}, entry.Data())
}

func TestBuildST(t *testing.T) {
	entry := parseOne(t, BuildST())
	require.Equal(t, AREA_TERMINATOR, entry.Type())
	require.Equal(t, uint8(4), entry.Length())
	require.Empty(t, entry.Data())
}

func TestBuildER(t *testing.T) {
	raw, err := BuildER("RRIP_1991A", "THE ROCK RIDGE INTERCHANGE PROTOCOL", "ISO-KIT", 1)
	require.NoError(t, err)

	entry := parseOne(t, raw)
	require.Equal(t, EXTENSION_REFERENCE, entry.Type())

	record, err := UnmarshalExtensionRecord(entry)
	require.NoError(t, err)
	require.Equal(t, "RRIP_1991A", record.Identifier)
	require.Equal(t, "THE ROCK RIDGE INTERCHANGE PROTOCOL", record.Descriptor)
	require.Equal(t, "ISO-KIT", record.Source)
	require.Equal(t, 1, record.Version)
}

func TestBuildER_RejectsOversizedComponent(t *testing.T) {
	tooLong := make([]byte, 300)
	for i := range tooLong {
		tooLong[i] = 'x'
	}
	_, err := BuildER(string(tooLong), "d", "s", 1)
	require.Error(t, err)
}
