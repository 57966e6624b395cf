package session

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig_StartBlockReservesSystemArea(t *testing.T) {
	cfg := Config{StartLBA: 1000, Appendable: true}
	require.Equal(t, uint32(1016), cfg.StartBlock())
	require.True(t, cfg.IsMultisession())
}

func TestConfig_FinalBlockCountPadsToMinimum(t *testing.T) {
	cfg := Config{StartLBA: 0}
	require.Equal(t, uint32(32), cfg.FinalBlockCount(10))
	require.Equal(t, uint32(50), cfg.FinalBlockCount(50))
}

func TestOverwriteBuffer_PopulateCapturesDryRun(t *testing.T) {
	b := NewOverwriteBuffer()
	err := b.Populate(func(w *bytes.Buffer) error {
		w.WriteString("fake volume descriptor bytes")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "fake volume descriptor bytes", string(b.Bytes()))
}

func TestOverwriteBuffer_PopulateRejectsOversizedOutput(t *testing.T) {
	b := NewOverwriteBuffer()
	err := b.Populate(func(w *bytes.Buffer) error {
		w.Write(make([]byte, OverwriteBufferSize+1))
		return nil
	})
	require.Error(t, err)
}
