package ringbuffer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuffer_PushPullRoundTrip(t *testing.T) {
	buf := New(context.Background(), 2)
	var blk Block
	blk[0] = 0xAB

	require.NoError(t, buf.Push(blk))
	buf.EndOK()

	got, ok, err := buf.Pull()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, byte(0xAB), got[0])

	_, ok, err = buf.Pull()
	require.False(t, ok)
	require.NoError(t, err)
}

func TestBuffer_EndFailedPropagatesError(t *testing.T) {
	buf := New(context.Background(), 1)
	buf.EndFailed()

	_, ok, err := buf.Pull()
	require.False(t, ok)
	require.Error(t, err)
}

func TestRunProducer_JoinsAndPropagatesError(t *testing.T) {
	buf := New(context.Background(), 4)
	boom := errors.New("boom")

	wait := RunProducer(context.Background(), buf, func(ctx context.Context) error {
		return boom
	})

	err := wait()
	require.ErrorIs(t, err, boom)
	require.Equal(t, StateWriterFailed, buf.State())
}

func TestBuffer_CancelUnblocksPull(t *testing.T) {
	buf := New(context.Background(), 1)
	buf.Cancel()

	_, ok, err := buf.Pull()
	require.False(t, ok)
	require.Error(t, err)
	require.Equal(t, StateReaderCancelled, buf.State())
}
