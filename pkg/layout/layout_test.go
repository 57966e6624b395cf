package layout

import (
	"testing"

	"github.com/bgrewell/isoforge/pkg/contentstream"
	"github.com/bgrewell/isoforge/pkg/filesource"
	"github.com/bgrewell/isoforge/pkg/projection"
	"github.com/stretchr/testify/require"
)

func buildSampleTree() *projection.PNode {
	root := &projection.PNode{Name: ""}
	sub := &projection.PNode{Name: "SUB", Parent: root}
	file := &projection.PNode{Name: "A.TXT;1", Parent: root}
	root.Children = []*projection.PNode{sub, file}
	return root
}

func TestPlanDirectories_AssignsMonotoneBlocks(t *testing.T) {
	root := buildSampleTree()
	isDir := func(pn *projection.PNode) bool { return pn.Name == "SUB" || pn == root }
	sizeFn := func(pn *projection.PNode) uint32 { return 34 }

	plan := PlanDirectories(root, 20, isDir, sizeFn)

	require.Len(t, plan.Order, 2) // root + SUB
	require.Equal(t, uint32(20), plan.Order[0].StartBlock)
	require.Greater(t, plan.Order[1].StartBlock, plan.Order[0].StartBlock)
	require.Equal(t, plan.Order[1].StartBlock+plan.Order[1].Blocks, plan.NextBlock)
}

func TestPlanDirectories_EmptyDirectoryStillGetsAnExtent(t *testing.T) {
	root := &projection.PNode{Name: ""}
	empty := &projection.PNode{Name: "EMPTY", Parent: root}
	root.Children = []*projection.PNode{empty}

	isDir := func(pn *projection.PNode) bool { return pn == root || pn.Name == "EMPTY" }
	sizeFn := func(pn *projection.PNode) uint32 { return 34 }

	plan := PlanDirectories(root, 0, isDir, sizeFn)
	require.Len(t, plan.Order, 2)
	require.Equal(t, uint32(1), plan.Order[1].Blocks)
}

func TestPlanFileContent_SkipsPriorSessionEntries(t *testing.T) {
	tbl := filesource.New()
	fresh := tbl.Add(1, fakeStream{}, 0, 10)
	imported := tbl.AddImported(2, 10, nil)

	assigned, next := PlanFileContent(100, []*filesource.Entry{fresh, imported})
	require.Contains(t, assigned, fresh)
	require.NotContains(t, assigned, imported)
	require.Equal(t, uint32(101), next)
}

type fakeStream struct{ contentstream.Stream }

func (f fakeStream) StreamIdentity() contentstream.Identity {
	return contentstream.Identity{InodeID: 42}
}
