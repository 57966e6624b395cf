package engine

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bgrewell/isoforge/pkg/logicaltree"
	"github.com/bgrewell/isoforge/pkg/option"
	"github.com/stretchr/testify/require"
)

func buildFixtureTree(t *testing.T) *logicaltree.Tree {
	t.Helper()
	tree, err := logicaltree.Import([]logicaltree.SourceEntry{
		{FullPath: "DOCS", IsDir: true},
		{FullPath: "DOCS/README.TXT", Size: 42},
		{FullPath: "TOP.TXT", Size: 7},
	})
	require.NoError(t, err)
	return tree
}

func TestEmit_ProducesBlockAlignedImage(t *testing.T) {
	tree := buildFixtureTree(t)
	var out bytes.Buffer

	opts := option.NewEmitOptions(option.WithIsoLevel(3), option.WithFifoBlockCount(32))
	res, err := Emit(context.Background(), &out, Request{
		Tree:     tree,
		VolumeID: "ISOFORGE",
		AppName:  "isoforge",
		Now:      time.Unix(0, 0),
	}, opts)

	require.NoError(t, err)
	require.Greater(t, res.TotalBlocks, uint32(0))
	require.Equal(t, 0, out.Len()%2048)
	require.Equal(t, int(res.TotalBlocks)*2048, out.Len())
}

func TestEmit_WithJolietAndISO1999(t *testing.T) {
	tree := buildFixtureTree(t)
	var out bytes.Buffer

	opts := option.NewEmitOptions(option.WithJoliet(true), option.WithISO1999(true))
	res, err := Emit(context.Background(), &out, Request{
		Tree:     tree,
		VolumeID: "ISOFORGE",
		AppName:  "isoforge",
		Now:      time.Unix(0, 0),
	}, opts)

	require.NoError(t, err)
	require.Greater(t, res.TotalBlocks, uint32(0))
}

func TestEmit_RejectsNilTree(t *testing.T) {
	var out bytes.Buffer
	_, err := Emit(context.Background(), &out, Request{}, option.NewEmitOptions())
	require.Error(t, err)
}

func TestEmit_ReportsProgress(t *testing.T) {
	tree := buildFixtureTree(t)
	var out bytes.Buffer

	var percents []int
	opts := option.NewEmitOptions(
		option.WithFifoBlockCount(32),
		option.WithProgress(func(message string, bytesWritten, totalBytes int64, percent int) {
			require.NotEmpty(t, message)
			require.LessOrEqual(t, bytesWritten, totalBytes)
			percents = append(percents, percent)
		}),
	)
	_, err := Emit(context.Background(), &out, Request{
		Tree:     tree,
		VolumeID: "ISOFORGE",
		AppName:  "isoforge",
		Now:      time.Unix(0, 0),
	}, opts)

	require.NoError(t, err)
	require.NotEmpty(t, percents)
	require.Equal(t, 100, percents[len(percents)-1])
	for i := 1; i < len(percents); i++ {
		require.Greater(t, percents[i], percents[i-1])
	}
}
