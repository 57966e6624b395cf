package iwriter

import (
	"bytes"
	"testing"
	"time"

	"github.com/bgrewell/isoforge/pkg/diag"
	"github.com/bgrewell/isoforge/pkg/filesource"
	"github.com/bgrewell/isoforge/pkg/logicaltree"
	"github.com/bgrewell/isoforge/pkg/projection"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

func buildFixtureTree(t *testing.T) *logicaltree.Tree {
	t.Helper()
	tree, err := logicaltree.Import([]logicaltree.SourceEntry{
		{FullPath: "SUB", IsDir: true},
		{FullPath: "SUB/A.TXT", Size: 10},
		{FullPath: "B.TXT", Size: 20},
	})
	require.NoError(t, err)
	return tree
}

func TestChain_RunsWritersInOrder(t *testing.T) {
	lt := buildFixtureTree(t)
	sink := diag.NewSink(logr.Discard(), diag.SeverityFailure)
	proj, err := projection.Build(lt, projection.Options{Standard: projection.StandardPrimary}, sink)
	require.NoError(t, err)

	res := &Resources{LogicalTree: lt, FileSources: filesource.New(), Sink: sink, VolumeID: "ISOFORGE", AppName: "isoforge"}
	pw := NewPrimaryWriter(res, proj, time.Unix(0, 0))
	term := NewTerminatorWriter()

	chain := NewChain(pw, term)
	next, err := chain.ComputeLayout(16)
	require.NoError(t, err)
	require.Greater(t, next, uint32(16))

	var vdBuf bytes.Buffer
	require.NoError(t, chain.EmitVolumeDescriptors(&vdBuf))
	require.Equal(t, 4096, vdBuf.Len()) // primary PVD + terminator, one sector each

	var dataBuf bytes.Buffer
	require.NoError(t, chain.EmitData(&dataBuf))
	require.True(t, dataBuf.Len()%2048 == 0)
	require.Greater(t, dataBuf.Len(), 0)
}

func TestPaddingWriter_ReservesWholeBlocks(t *testing.T) {
	p := NewPaddingWriter(3)
	next, err := p.ComputeLayout(10)
	require.NoError(t, err)
	require.Equal(t, uint32(13), next)

	var buf bytes.Buffer
	require.NoError(t, p.EmitData(&buf))
	require.Equal(t, 3*2048, buf.Len())
}
