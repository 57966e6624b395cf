package filter

import (
	"testing"

	"github.com/bgrewell/isoforge/pkg/contentstream"
	"github.com/stretchr/testify/require"
)

func TestZisofs_OutputExceedsHeaderLength(t *testing.T) {
	data := bytesRepeat("hello world ", 1000)
	in := contentstream.NewMemoryStream(data)

	out, err := (Zisofs{}).Apply(in)
	require.NoError(t, err)

	size, err := out.Size()
	require.NoError(t, err)
	require.Greater(t, size, uint32(zisofsHeaderLen))
}

func TestZisofs_RejectsNonRepeatableInput(t *testing.T) {
	_, err := (Zisofs{}).Apply(&onceStream{})
	require.ErrorIs(t, err, ErrNotRepeatable)
}

func TestShouldInstall_Policies(t *testing.T) {
	require.True(t, ShouldInstall(InstallIfReduction, 100, 90))
	require.False(t, ShouldInstall(InstallIfReduction, 100, 100))
	require.False(t, ShouldInstall(InstallIfBlockReduction, 100, 99))
	require.True(t, ShouldInstall(InstallAlways, 100, 200))
}

type onceStream struct{ contentstream.Stream }

func (o *onceStream) Repeatable() bool { return false }

func bytesRepeat(s string, n int) []byte {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return out
}
