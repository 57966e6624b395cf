package iwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/bgrewell/isoforge/pkg/consts"
	"github.com/bgrewell/isoforge/pkg/iso9660/descriptor"
	"github.com/bgrewell/isoforge/pkg/iso9660/directory"
	"github.com/bgrewell/isoforge/pkg/iso9660/pathtable"
	"github.com/bgrewell/isoforge/pkg/layout"
	"github.com/bgrewell/isoforge/pkg/logicaltree"
	"github.com/bgrewell/isoforge/pkg/projection"
)

// jolietEscapeUCS2Level3 is the escape sequence Joliet images conventionally
// carry to declare the UCS-2 Level 3 repertoire.
var jolietEscapeUCS2Level3 = [3]byte{0x25, 0x2F, 0x45}

// SecondaryWriter emits a Supplementary Volume Descriptor (Joliet or ISO
// 9660:1999, distinguished by Enhanced) plus its own directory tree and
// path tables, laid out in extents of its own by re-walking this
// standard's projected tree.
// Grounded on original_source/libisofs/ecma119.c's joliet.c/iso1999.c
// writers, which are thin variants of the primary ecma119 writer sharing
// its directory-record and path-table assembly but sourcing names from a
// different projected tree.
type SecondaryWriter struct {
	Res      *Resources
	Tree     *projection.Tree
	Now      time.Time
	Enhanced bool // true for ISO 9660:1999, false for Joliet

	plan           *layout.Plan
	pathTableStart uint32
	pathTableSize  uint32
}

func NewSecondaryWriter(res *Resources, tree *projection.Tree, now time.Time, enhanced bool) *SecondaryWriter {
	return &SecondaryWriter{Res: res, Tree: tree, Now: now, Enhanced: enhanced}
}

func (w *SecondaryWriter) Name() string {
	if w.Enhanced {
		return "iso1999"
	}
	return "joliet"
}

func (w *SecondaryWriter) isDir(pn *projection.PNode) bool {
	n := w.Res.LogicalTree.Get(pn.Source)
	return n != nil && n.HasChildren()
}

func (w *SecondaryWriter) sizeOf(pn *projection.PNode) uint32 {
	return uint32(dirRecordLen(len(pn.Name)))
}

// ComputeLayout gives this standard's directory tree and both path tables
// their own extents, entirely separate from the primary tree's, since each
// naming standard's directory records differ in content and therefore in
// size even when the underlying file identity is shared.
func (w *SecondaryWriter) ComputeLayout(cursor uint32) (uint32, error) {
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
	return w.pathTableStart + blocks*2, nil
}

func (w *SecondaryWriter) nodeTime(n *logicaltree.Node) time.Time {
	if n == nil || n.Mtime.IsZero() {
		return w.Now
	}
	return n.Mtime
}

func (w *SecondaryWriter) buildDirectoryRecord(dp *layout.DirPlacement, selfName string, forParent bool) *directory.DirectoryRecord {
	node := w.Res.LogicalTree.Get(dp.Node.Source)
	isDir := forParent || w.isDir(dp.Node)
	return &directory.DirectoryRecord{
		LocationOfExtent:     dp.StartBlock,
		DataLength:           dp.Blocks * consts.ISO9660_SECTOR_SIZE,
		RecordingDateAndTime: w.nodeTime(node),
		FileFlags:            directory.FileFlags{Directory: isDir},
		FileIdentifier:       selfName,
	}
}

func (w *SecondaryWriter) fileDirectoryRecord(pn *projection.PNode) *directory.DirectoryRecord {
	node := w.Res.LogicalTree.Get(pn.Source)
	var size, startBlock uint32
	if node != nil {
		for _, e := range w.Res.FileSources.Entries() {
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
	}
}

func (w *SecondaryWriter) EmitVolumeDescriptor(out io.Writer) error {
	root := w.plan.Order[0]

	vdType := descriptor.TYPE_SUPPLEMENTARY_DESCRIPTOR
	fsVersion := uint8(1)
	if w.Enhanced {
		fsVersion = 2
	}

	svd := &descriptor.SupplementaryVolumeDescriptor{
		VolumeDescriptorHeader: descriptor.VolumeDescriptorHeader{
			VolumeDescriptorType:    vdType,
			StandardIdentifier:      consts.ISO9660_STD_IDENTIFIER,
			VolumeDescriptorVersion: consts.ISO9660_VOLUME_DESC_VERSION,
		},
		SupplementaryVolumeDescriptorBody: descriptor.SupplementaryVolumeDescriptorBody{
			VolumeIdentifier:              w.Res.VolumeID,
			PathTableSize:                 w.pathTableSize,
			LocationOfTypeLPathTable:      w.pathTableStart,
			LocationOfTypeMPathTable:      w.pathTableStart + (w.pathTableSize+consts.ISO9660_SECTOR_SIZE-1)/consts.ISO9660_SECTOR_SIZE,
			RootDirectoryRecord:           w.buildDirectoryRecord(root, "\x00", true),
			VolumeSetIdentifier:           consts.ISO9660_FILLER,
			PublisherIdentifier:           consts.ISO9660_FILLER,
			DataPreparerIdentifier:        consts.ISO9660_FILLER,
			ApplicationIdentifier:         w.Res.AppName,
			CopyrightFileIdentifier:       consts.ISO9660_FILLER,
			AbstractFileIdentifier:        consts.ISO9660_FILLER,
			BibliographicFileIdentifier:  consts.ISO9660_FILLER,
			VolumeCreationDateAndTime:     w.Now,
			VolumeModificationDateAndTime: w.Now,
			VolumeEffectiveDateAndTime:    w.Now,
			FileStructureVersion:          fsVersion,
		},
	}
	if !w.Enhanced {
		copy(svd.SupplementaryVolumeDescriptorBody.EscapeSequences[0:3], jolietEscapeUCS2Level3[:])
	}

	buf, err := svd.Marshal()
	if err != nil {
		return fmt.Errorf("iwriter: marshal %s volume descriptor: %w", w.Name(), err)
	}
	_, err = out.Write(buf[:])
	return err
}

func (w *SecondaryWriter) buildPathTables() (little, big []byte) {
	ptL := pathtable.NewPathTableForWrite(w.Name(), true)
	ptM := pathtable.NewPathTableForWrite(w.Name(), false)

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

func (w *SecondaryWriter) parentStartBlock(dp *layout.DirPlacement) uint32 {
	if dp.Node.Parent == nil {
		return dp.StartBlock
	}
	if parentDP, ok := w.plan.DirByNode[dp.Node.Parent]; ok {
		return parentDP.StartBlock
	}
	return dp.StartBlock
}

func (w *SecondaryWriter) EmitData(out io.Writer) error {
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
