package systemarea

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPatchBootLBA_WritesLittleEndianField(t *testing.T) {
	var sa SystemArea
	require.NoError(t, sa.PatchBootLBA(0x01020304))

	got := binary.LittleEndian.Uint32(sa.Contents[BootLBAOffset : BootLBAOffset+4])
	require.Equal(t, uint32(0x01020304), got)
}

func TestPatchBootLBA_LeavesRestOfAreaUntouched(t *testing.T) {
	var sa SystemArea
	sa.Contents[0] = 0xAB
	require.NoError(t, sa.PatchBootLBA(42))
	require.Equal(t, byte(0xAB), sa.Contents[0])
}
