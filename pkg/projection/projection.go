// Package projection implements component D: building one name-translated,
// collision-resolved tree per enabled naming standard (primary ECMA-119,
// Joliet, ISO 9660:1999) out of the single logical tree (component A).
package projection

import (
	"sort"
	"strings"

	"github.com/bgrewell/isoforge/pkg/consts"
	"github.com/bgrewell/isoforge/pkg/diag"
	iso9660validation "github.com/bgrewell/isoforge/pkg/iso9660/validation"
	"github.com/bgrewell/isoforge/pkg/logicaltree"
)

// Standard identifies which naming standard a projection targets.
type Standard int

const (
	StandardPrimary Standard = iota
	StandardJoliet
	StandardISO1999
)

func (s Standard) String() string {
	switch s {
	case StandardPrimary:
		return "primary"
	case StandardJoliet:
		return "joliet"
	case StandardISO1999:
		return "iso1999"
	default:
		return "unknown"
	}
}

// Options controls how names are translated and policed for a given
// standard, mirroring the emission option surface in
// original_source/libisofs/ecma119.c's iso_write_opts_set_* functions.
type Options struct {
	Standard Standard

	OmitVersionNumbers bool
	AllowDeepPaths     bool
	AllowLongerPaths   bool
	Max37CharFilenames bool
	NoForceDots        bool
	AllowLowercase     bool
	AllowFullASCII     bool
	JolietLongerPaths  bool
}

// PNode is one node of a projected tree: a logical-tree node paired with
// the name it will actually be written under for this standard, plus the
// Rock Ridge relocation bookkeeping component D performs when a path grows
// too deep or too long for the standard's own limits.
type PNode struct {
	Source   logicaltree.ID
	Name     string // includes ";1" version suffix for the primary tree, where applicable
	Parent   *PNode
	Children []*PNode

	// Relocated is set when this directory lies deeper than the standard's
	// depth limit, and RelocatedParent records its projected parent. No
	// writer reads either field: the node stays where it is in the tree and
	// no CL/PL/RE entries are written for it.
	Relocated       bool
	RelocatedParent *PNode
}

// Tree is one standard's fully-built, name-resolved projection.
type Tree struct {
	Standard Standard
	Root     *PNode
}

// Build projects logical tree lt into a standard-specific tree, translating
// names, enforcing uniqueness via mangling, sorting siblings, flagging
// directories deeper than the standard's depth limit and checking path
// lengths. Mangle exhaustion, depth-limit notes and path-length warnings
// are reported through sink (invalid characters are replaced silently); Build only returns an error for conditions the
// sink's configured threshold marks as abort-worthy.
func Build(lt *logicaltree.Tree, opts Options, sink *diag.Sink) (*Tree, error) {
	b := &builder{lt: lt, opts: opts, sink: sink}
	root := &PNode{Source: lt.Root().ID(), Name: ""}
	if err := b.buildChildren(lt.Root(), root, 1); err != nil {
		return nil, err
	}
	return &Tree{Standard: opts.Standard, Root: root}, nil
}

type builder struct {
	lt   *logicaltree.Tree
	opts Options
	sink *diag.Sink
}

func (b *builder) hideFlag() logicaltree.HideFlag {
	switch b.opts.Standard {
	case StandardJoliet:
		return logicaltree.HideFromJoliet
	case StandardISO1999:
		return logicaltree.HideFromISO1999
	default:
		return logicaltree.HideFromPrimary
	}
}

func (b *builder) maxDepth() int {
	if b.opts.Standard == StandardPrimary && !b.opts.AllowDeepPaths {
		return consts.PRIMARY_MAX_PATH_DEPTH
	}
	return 1 << 30
}

func (b *builder) maxPathLen() int {
	switch b.opts.Standard {
	case StandardPrimary:
		if b.opts.AllowLongerPaths {
			return 1 << 30
		}
		return consts.PRIMARY_MAX_PATH_LENGTH
	case StandardJoliet:
		if b.opts.JolietLongerPaths {
			return 1 << 30
		}
		return consts.JOLIET_MAX_PATH_LENGTH
	default:
		return 1 << 30
	}
}

// buildChildren populates parent's Children from dir's logical children,
// translating and mangling names, then recurses.
func (b *builder) buildChildren(dir *logicaltree.Node, parent *PNode, depth int) error {
	type candidate struct {
		node *logicaltree.Node
		name string
	}
	var cands []candidate

	err := b.lt.Iterate(dir.ID(), func(n *logicaltree.Node) bool {
		if n.IsHiddenFrom(b.hideFlag()) {
			return true
		}
		cands = append(cands, candidate{node: n, name: b.translate(n)})
		return true
	})
	if err != nil {
		return err
	}

	used := make(map[string]bool, len(cands))
	for _, c := range cands {
		name, ok := b.mangle(c.name, used)
		if !ok {
			if b.sink.Report(diag.New(diag.KindNameSpaceExhaustion, diag.SeverityFailure, diag.PriorityHigh,
				"too many files named %q under the same directory to mangle uniquely", c.name)) {
				return errProjection("namespace exhausted for %q", c.name)
			}
			continue
		}
		used[name] = true

		pn := &PNode{Source: c.node.ID(), Name: name, Parent: parent}
		parent.Children = append(parent.Children, pn)

		if c.node.HasChildren() {
			if depth+1 > b.maxDepth() {
				b.relocate(pn, parent)
			}
			if err := b.buildChildren(c.node, pn, depth+1); err != nil {
				return err
			}
		}
	}

	b.sortSiblings(parent)
	b.policeLength(parent)
	return nil
}

// relocate marks pn as deeper than the depth limit and reports a note. The
// node is not moved, and no writer emits a CL/PL/RE placeholder chain for
// it.
func (b *builder) relocate(pn, logicalParent *PNode) {
	pn.Relocated = true
	pn.RelocatedParent = logicalParent
	b.sink.Report(diag.New(diag.KindExtensionViolation, diag.SeverityNote, diag.PriorityLow,
		"path %q exceeds the maximum directory depth", pn.Name))
}

func (b *builder) policeLength(parent *PNode) {
	limit := b.maxPathLen()
	total := 0
	for p := parent; p != nil; p = p.Parent {
		total += len(p.Name) + 1
	}
	if total > limit {
		b.sink.Report(diag.New(diag.KindExtensionViolation, diag.SeverityWarning, diag.PriorityMedium,
			"path under %q exceeds the %d-character limit for the %s standard", parent.Name, limit, b.opts.Standard))
	}
}

// sortSiblings orders a directory's children for on-disc layout: ECMA-119
// mandates directories be written in ascending identifier order so a
// binary search over a directory's records is possible.
func (b *builder) sortSiblings(parent *PNode) {
	sort.SliceStable(parent.Children, func(i, j int) bool {
		return parent.Children[i].Name < parent.Children[j].Name
	})
}

// translate converts a logical node's raw name into the standard's
// permitted character set, enforcing dot rules and the 8.3 / 37-char
// limits for the primary tree.
func (b *builder) translate(n *logicaltree.Node) string {
	name := n.Name()

	switch b.opts.Standard {
	case StandardJoliet:
		return translateUCS2(name)
	case StandardISO1999:
		return translateRelaxed(name)
	default:
		return b.translatePrimary(name, n.HasChildren())
	}
}

func (b *builder) translatePrimary(name string, isDir bool) string {
	allowed := consts.D_CHARACTERS
	if b.opts.AllowLowercase {
		allowed = consts.D1_CHARACTERS
	}

	stem, ext := splitExt(name)
	stem = coerce(stem, allowed, b.opts.AllowFullASCII)
	ext = coerce(ext, allowed, b.opts.AllowFullASCII)

	maxStem := 8
	if b.opts.Max37CharFilenames && !isDir {
		maxStem = 30 // leaves room for ".ext;1" inside the 37-char ceiling
	}
	if len(stem) > maxStem {
		stem = stem[:maxStem]
	}
	if len(ext) > 3 {
		ext = ext[:3]
	}

	out := stem
	if !isDir {
		if ext != "" || !b.opts.NoForceDots {
			out += "." + ext
		}
		if !b.opts.OmitVersionNumbers {
			out += ";1"
		}
	}
	if out == "" {
		out = "_"
	}
	return out
}

func splitExt(name string) (stem, ext string) {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx+1:]
}

func coerce(s, allowed string, fullASCII bool) string {
	if fullASCII {
		return strings.ToUpper(s)
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if strings.ContainsRune(allowed, r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func translateUCS2(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r > 0xFFFF || !iso9660validation.IsValidCCharacterRune(r) {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func translateRelaxed(name string) string {
	return name
}

// mangle finds a collision-free variant of name among the names already in
// used by appending a number of up to consts.MAX_MANGLE_DIGITS digits to
// the stem, truncating the stem so the two fit in 8 characters; the
// extension is kept. It gives up when no such number is free.
func (b *builder) mangle(name string, used map[string]bool) (string, bool) {
	if !used[name] {
		return name, true
	}

	stem, ext := splitExt(strings.TrimSuffix(name, ";1"))
	suffix := ""
	if strings.HasSuffix(name, ";1") {
		suffix = ";1"
	}

	for digits := 1; digits <= consts.MAX_MANGLE_DIGITS; digits++ {
		max := 1
		for i := 0; i < digits; i++ {
			max *= 10
		}
		for n := 1; n < max; n++ {
			numStr := padNumber(n, digits)
			candidateStem := stem
			if len(candidateStem)+len(numStr) > 8 {
				candidateStem = candidateStem[:8-len(numStr)]
			}
			candidate := candidateStem + numStr
			if ext != "" {
				candidate += "." + ext
			}
			candidate += suffix
			if !used[candidate] {
				return candidate, true
			}
		}
	}
	return "", false
}

func padNumber(n, digits int) string {
	s := itoa(n)
	for len(s) < digits {
		s = "0" + s
	}
	return s
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func errProjection(format string, args ...interface{}) error {
	return diag.New(diag.KindNameSpaceExhaustion, diag.SeverityFailure, diag.PriorityHigh, format, args...)
}
