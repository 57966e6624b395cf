package rockridge

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarshalPX_RoundTripsThroughUnmarshal(t *testing.T) {
	entry := MarshalPX(os.ModeDir|0o755, 2, 1000, 1000, 42)
	require.Equal(t, "PX", string(entry[0:2]))
	require.Equal(t, uint8(44), entry[2])

	parsed, err := UnmarshalRockRidgePosixEntry(entry[4:])
	require.NoError(t, err)
	require.True(t, parsed.Mode.IsDir())
	require.Equal(t, uint32(1000), parsed.UserId)
	require.Equal(t, uint32(1000), parsed.GroupId)
}

func TestMarshalNM_SplitsOversizedNames(t *testing.T) {
	short := MarshalNM("README.TXT")
	require.Len(t, short, 1)
	parsed := UnmarshalRockRidgeNameEntry(short[0][2], short[0][4:])
	require.Equal(t, "README.TXT", parsed.Name)
	require.False(t, parsed.Continue)

	long := MarshalNM(string(make([]byte, 400)))
	require.Greater(t, len(long), 1)
	require.True(t, long[0][4]&nmFlagContinue != 0)
}

func TestMarshalTF_EncodesEachRequestedTimestamp(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	entry, err := MarshalTF(TFCreation|TFModify, []time.Time{now, now})
	require.NoError(t, err)
	require.Equal(t, "TF", string(entry[0:2]))
	require.Equal(t, uint8(4+1+14), entry[2])
}

func TestMarshalSL_EncodesComponentsAndRootFlag(t *testing.T) {
	entries := MarshalSL("/usr/local/bin")
	require.Len(t, entries, 1)
	require.Equal(t, "SL", string(entries[0][0:2]))
}

func TestMarshalCLPLRE(t *testing.T) {
	cl := MarshalCL(100)
	require.Equal(t, "CL", string(cl[0:2]))
	require.Equal(t, uint8(12), cl[2])

	pl := MarshalPL(50)
	require.Equal(t, "PL", string(pl[0:2]))

	re := MarshalRE()
	require.Equal(t, "RE", string(re[0:2]))
	require.Equal(t, uint8(4), re[2])
}
