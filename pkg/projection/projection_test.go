package projection

import (
	"os"
	"testing"

	"github.com/bgrewell/isoforge/pkg/diag"
	"github.com/bgrewell/isoforge/pkg/logicaltree"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

func newSink() *diag.Sink {
	return diag.NewSink(logr.Discard(), diag.SeverityAbort)
}

func TestBuild_TranslatesAndUppercases(t *testing.T) {
	lt := logicaltree.New()
	_, err := lt.AddChild(lt.Root().ID(), logicaltree.KindFile, logicaltree.NewNodeAttrs{Name: "readme.txt"}, logicaltree.ReplaceNever)
	require.NoError(t, err)

	tree, err := Build(lt, Options{Standard: StandardPrimary}, newSink())
	require.NoError(t, err)
	require.Len(t, tree.Root.Children, 1)
	require.Equal(t, "README.TXT;1", tree.Root.Children[0].Name)
}

func TestBuild_ManglesCollidingNames(t *testing.T) {
	lt := logicaltree.New()
	_, err := lt.AddChild(lt.Root().ID(), logicaltree.KindFile, logicaltree.NewNodeAttrs{Name: "report.v1.txt"}, logicaltree.ReplaceNever)
	require.NoError(t, err)
	_, err = lt.AddChild(lt.Root().ID(), logicaltree.KindFile, logicaltree.NewNodeAttrs{Name: "report.v2.txt"}, logicaltree.ReplaceNever)
	require.NoError(t, err)

	tree, err := Build(lt, Options{Standard: StandardPrimary}, newSink())
	require.NoError(t, err)
	require.Len(t, tree.Root.Children, 2)
	names := map[string]bool{}
	for _, c := range tree.Root.Children {
		names[c.Name] = true
	}
	require.Len(t, names, 2, "mangled names must remain unique")
}

func TestBuild_OmitsVersionNumber(t *testing.T) {
	lt := logicaltree.New()
	_, err := lt.AddChild(lt.Root().ID(), logicaltree.KindFile, logicaltree.NewNodeAttrs{Name: "a.txt"}, logicaltree.ReplaceNever)
	require.NoError(t, err)

	tree, err := Build(lt, Options{Standard: StandardPrimary, OmitVersionNumbers: true}, newSink())
	require.NoError(t, err)
	require.Equal(t, "A.TXT", tree.Root.Children[0].Name)
}

func TestBuild_HiddenNodeOmittedFromStandard(t *testing.T) {
	lt := logicaltree.New()
	id, err := lt.AddChild(lt.Root().ID(), logicaltree.KindFile, logicaltree.NewNodeAttrs{Name: "secret.txt"}, logicaltree.ReplaceNever)
	require.NoError(t, err)
	require.NoError(t, lt.SetAttr(id, func(n *logicaltree.Node) { n.Hidden = logicaltree.HideFromJoliet }))

	primary, err := Build(lt, Options{Standard: StandardPrimary}, newSink())
	require.NoError(t, err)
	require.Len(t, primary.Root.Children, 1)

	joliet, err := Build(lt, Options{Standard: StandardJoliet}, newSink())
	require.NoError(t, err)
	require.Len(t, joliet.Root.Children, 0)
}

func TestBuild_DirectoriesSortedAscending(t *testing.T) {
	lt := logicaltree.New()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := lt.AddChild(lt.Root().ID(), logicaltree.KindDirectory, logicaltree.NewNodeAttrs{Name: name, Mode: os.ModeDir | 0o755}, logicaltree.ReplaceNever)
		require.NoError(t, err)
	}

	tree, err := Build(lt, Options{Standard: StandardPrimary}, newSink())
	require.NoError(t, err)
	require.Equal(t, []string{"ALPHA", "MID", "ZETA"}, []string{
		tree.Root.Children[0].Name, tree.Root.Children[1].Name, tree.Root.Children[2].Name,
	})
}
