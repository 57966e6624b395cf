package iwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/bgrewell/isoforge/pkg/consts"
	"github.com/bgrewell/isoforge/pkg/helpers"
	"github.com/bgrewell/isoforge/pkg/iso9660/descriptor"
	"github.com/bgrewell/isoforge/pkg/iso9660/directory"
	"github.com/bgrewell/isoforge/pkg/iso9660/pathtable"
	"github.com/bgrewell/isoforge/pkg/layout"
	"github.com/bgrewell/isoforge/pkg/logicaltree"
	"github.com/bgrewell/isoforge/pkg/projection"
	"github.com/bgrewell/isoforge/pkg/rockridge"
	"github.com/bgrewell/isoforge/pkg/susp"
)

// PrimaryWriter emits the primary ECMA-119 volume descriptor, directory
// extents and path tables. It is always first in the writer chain,
// matching original_source's ecma119_writer_create, which creates the
// primary ("ecma119") writer before any extension writer.
type PrimaryWriter struct {
	Res       *Resources
	Tree      *projection.Tree
	Now       time.Time
	RockRidge bool

	plan           *layout.Plan
	pathTableStart uint32
	pathTableSize  uint32
	dataStart      uint32
}

func NewPrimaryWriter(res *Resources, tree *projection.Tree, now time.Time) *PrimaryWriter {
	return &PrimaryWriter{Res: res, Tree: tree, Now: now}
}

// WithRockRidge enables emission of RRIP system use entries (PX, NM, TF,
// SL) on every directory record this writer produces.
func (w *PrimaryWriter) WithRockRidge(enabled bool) *PrimaryWriter {
	w.RockRidge = enabled
	return w
}

func (w *PrimaryWriter) Name() string { return "primary" }

func (w *PrimaryWriter) isDir(pn *projection.PNode) bool {
	n := w.Res.LogicalTree.Get(pn.Source)
	return n != nil && n.HasChildren()
}

func (w *PrimaryWriter) sizeOf(pn *projection.PNode) uint32 {
	size := dirRecordLen(len(pn.Name))
	if w.RockRidge {
		node := w.Res.LogicalTree.Get(pn.Source)
		size += len(w.rockRidgeSystemUse(node, pn.Name, false))
		if size%2 != 0 {
			size++
		}
	}
	return uint32(size)
}

func dirRecordLen(nameLen int) int {
	// 33 fixed bytes + name bytes, padded to even length.
	l := 33 + nameLen
	if l%2 != 0 {
		l++
	}
	return l
}

// ComputeLayout runs the directory-placement pass, then reserves space for
// both path table copies right after the directory extents, per
// original_source's convention of placing path tables immediately
// following the directory tree.
func (w *PrimaryWriter) ComputeLayout(cursor uint32) (uint32, error) {
	w.plan = layout.PlanDirectories(w.Tree.Root, cursor, w.isDir, w.sizeOf)

	size := uint32(0)
	for _, dp := range w.plan.Order {
		n := uint32(10 + len(dp.Node.Name))
		if n%2 != 0 {
			n++
		}
		size += n
	}
	w.pathTableSize = size
	blocks := (size + consts.ISO9660_SECTOR_SIZE - 1) / consts.ISO9660_SECTOR_SIZE
	if blocks == 0 {
		blocks = 1
	}
	w.pathTableStart = w.plan.NextBlock
	w.dataStart = w.pathTableStart + blocks*2 // L and M copies

	return w.dataStart, nil
}

func (w *PrimaryWriter) buildPathTables() (little, big []byte) {
	ptL := pathtable.NewPathTableForWrite("primary", true)
	ptM := pathtable.NewPathTableForWrite("primary", false)

	for _, dp := range w.plan.Order {
		name := dp.Node.Name
		if dp == w.plan.Order[0] {
			name = "\x00"
		}
		recL := pathtable.NewPathTableRecordForWrite(true)
		recL.LocationOfExtent = dp.StartBlock
		recL.ParentDirectoryNumber = uint16(dp.ParentIndex)
		recL.DirectoryIdentifier = name
		ptL.Records = append(ptL.Records, recL)

		recM := pathtable.NewPathTableRecordForWrite(false)
		recM.LocationOfExtent = dp.StartBlock
		recM.ParentDirectoryNumber = uint16(dp.ParentIndex)
		recM.DirectoryIdentifier = name
		ptM.Records = append(ptM.Records, recM)
	}

	lb, _ := ptL.Marshal()
	bb, _ := ptM.Marshal()
	return lb, bb
}

func (w *PrimaryWriter) buildDirectoryRecord(dp *layout.DirPlacement, selfName string, forParent bool) *directory.DirectoryRecord {
	node := w.Res.LogicalTree.Get(dp.Node.Source)
	isDir := forParent || w.isDir(dp.Node)
	isRoot := dp == w.plan.Order[0]

	return &directory.DirectoryRecord{
		LocationOfExtent:     dp.StartBlock,
		DataLength:           dp.Blocks * consts.ISO9660_SECTOR_SIZE,
		RecordingDateAndTime: w.nodeTime(node),
		FileFlags:            directory.FileFlags{Directory: isDir},
		FileIdentifier:       selfName,
		SystemUse:            w.rockRidgeSystemUse(node, selfName, isRoot && selfName == "\x00"),
	}
}

// rockRidgeSystemUse builds the RRIP system use bytes for one directory
// record: PX attributes, a TF modify timestamp, an NM alternate name
// (skipped for the "." and ".." special entries), and an SL symlink
// target when node is a symlink. The volume root's own "." record also
// carries the SP indicator and ER extension reference SUSP requires.
func (w *PrimaryWriter) rockRidgeSystemUse(node *logicaltree.Node, visibleName string, isVolumeRootSelf bool) []byte {
	if !w.RockRidge || node == nil {
		return nil
	}
	isSpecial := visibleName == "\x00" || visibleName == "\x01"

	var su []byte
	if isVolumeRootSelf {
		su = append(su, susp.BuildSP()...)
	}

	su = append(su, rockridge.MarshalPX(node.Mode, 1, node.UID, node.GID, uint32(node.ID()))...)
	if tf, err := rockridge.MarshalTF(rockridge.TFModify, []time.Time{w.nodeTime(node)}); err == nil {
		su = append(su, tf...)
	}
	if node.Kind() == logicaltree.KindSymlink {
		for _, sl := range rockridge.MarshalSL(node.LinkTarget) {
			su = append(su, sl...)
		}
	}
	if !isSpecial {
		for _, nm := range rockridge.MarshalNM(node.Name()) {
			su = append(su, nm...)
		}
	}

	if isVolumeRootSelf {
		if er, err := susp.BuildER(rockridge.ROCK_RIDGE_IDENTIFIER,
			"THE ROCK RIDGE INTERCHANGE PROTOCOL PROVIDES SUPPORT FOR POSIX FILE SYSTEM SEMANTICS",
			"PLEASE CONTACT DISC PUBLISHER FOR SPECIFICATION SOURCE", rockridge.ROCK_RIDGE_VERSION); err == nil {
			su = append(su, er...)
		}
		su = append(su, susp.BuildST()...)
	}
	return su
}

func (w *PrimaryWriter) nodeTime(n *logicaltree.Node) time.Time {
	if n == nil || n.Mtime.IsZero() {
		return w.Now
	}
	return n.Mtime
}

// EmitVolumeDescriptor builds and writes the single primary volume
// descriptor sector.
func (w *PrimaryWriter) EmitVolumeDescriptor(out io.Writer) error {
	root := w.plan.Order[0]

	pvd := &descriptor.PrimaryVolumeDescriptor{
		VolumeDescriptorHeader: descriptor.VolumeDescriptorHeader{
			VolumeDescriptorType:    descriptor.TYPE_PRIMARY_DESCRIPTOR,
			StandardIdentifier:      consts.ISO9660_STD_IDENTIFIER,
			VolumeDescriptorVersion: consts.ISO9660_VOLUME_DESC_VERSION,
		},
		PrimaryVolumeDescriptorBody: descriptor.PrimaryVolumeDescriptorBody{
			SystemIdentifier:                 "",
			VolumeIdentifier:                 w.Res.VolumeID,
			VolumeSpaceSize:                  0, // filled in by the engine once the whole image's extent is known
			VolumeSetSize:                    1,
			VolumeSequenceNumber:             1,
			LogicalBlockSize:                 consts.ISO9660_SECTOR_SIZE,
			PathTableSize:                    w.pathTableSize,
			LocationOfTypeLPathTable:         w.pathTableStart,
			LocationOfTypeMPathTable:         w.pathTableStart + (w.pathTableSize+consts.ISO9660_SECTOR_SIZE-1)/consts.ISO9660_SECTOR_SIZE,
			RootDirectoryRecord:              w.buildDirectoryRecord(root, "\x00", true),
			VolumeSetIdentifier:              consts.ISO9660_FILLER,
			PublisherIdentifier:              consts.ISO9660_FILLER,
			DataPreparerIdentifier:           consts.ISO9660_FILLER,
			ApplicationIdentifier:            w.Res.AppName,
			CopyrightFileIdentifier:          consts.ISO9660_FILLER,
			AbstractFileIdentifier:           consts.ISO9660_FILLER,
			BibliographicFileIdentifier:      consts.ISO9660_FILLER,
			VolumeCreationDateAndTime:        w.Now,
			VolumeModificationDateAndTime:    w.Now,
			VolumeExpirationDateAndTime:      time.Time{},
			VolumeEffectiveDateAndTime:       w.Now,
			FileStructureVersion:             1,
		},
	}
	copy(pvd.ApplicationUse[:], helpers.PadString(w.Res.ImageID, consts.ISO9660_APPLICATION_USE_SIZE))

	buf, err := pvd.Marshal()
	if err != nil {
		return fmt.Errorf("iwriter: marshal primary volume descriptor: %w", err)
	}
	_, err = out.Write(buf[:])
	return err
}

// EmitData writes every directory's extent (its "." and ".." records plus
// one record per child, in the sorted order projection.Build already
// established) followed immediately by both path table copies.
func (w *PrimaryWriter) EmitData(out io.Writer) error {
	for _, dp := range w.plan.Order {
		buf := make([]byte, 0, dp.Blocks*consts.ISO9660_SECTOR_SIZE)

		self := w.buildDirectoryRecord(dp, "\x00", true)
		selfBytes, err := self.Marshal()
		if err != nil {
			return err
		}
		buf = append(buf, selfBytes...)

		parent := w.buildDirectoryRecord(dp, "\x01", true)
		parent.LocationOfExtent = w.parentStartBlock(dp)
		parentBytes, err := parent.Marshal()
		if err != nil {
			return err
		}
		buf = append(buf, parentBytes...)

		for _, child := range dp.Node.Children {
			childPlacement, isChildDir := w.plan.DirByNode[child]
			var rec *directory.DirectoryRecord
			if isChildDir {
				rec = w.buildDirectoryRecord(childPlacement, child.Name, false)
			} else {
				rec = w.fileDirectoryRecord(child)
			}
			recBytes, err := rec.Marshal()
			if err != nil {
				return err
			}
			buf = append(buf, recBytes...)
		}

		if _, err := writeBlocks(out, buf); err != nil {
			return err
		}
	}

	l, m := w.buildPathTables()
	if _, err := writeBlocks(out, l); err != nil {
		return err
	}
	if _, err := writeBlocks(out, m); err != nil {
		return err
	}
	return nil
}

func (w *PrimaryWriter) parentStartBlock(dp *layout.DirPlacement) uint32 {
	if dp.Node.Parent == nil {
		return dp.StartBlock
	}
	if parentDP, ok := w.plan.DirByNode[dp.Node.Parent]; ok {
		return parentDP.StartBlock
	}
	return dp.StartBlock
}

func (w *PrimaryWriter) fileDirectoryRecord(pn *projection.PNode) *directory.DirectoryRecord {
	node := w.Res.LogicalTree.Get(pn.Source)
	var size uint32
	var startBlock uint32
	if node != nil {
		entries := w.Res.FileSources.Entries()
		for _, e := range entries {
			for _, id := range e.Nodes() {
				if id == pn.Source {
					size = e.Size
					if len(e.Sections) > 0 {
						startBlock = e.Sections[0].StartBlock
					}
				}
			}
		}
	}
	return &directory.DirectoryRecord{
		LocationOfExtent:     startBlock,
		DataLength:           size,
		RecordingDateAndTime: w.nodeTime(node),
		FileFlags:            directory.FileFlags{},
		FileIdentifier:       pn.Name,
		SystemUse:            w.rockRidgeSystemUse(node, pn.Name, false),
	}
}
