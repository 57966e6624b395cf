// Package engine ties every other component together into the single
// operation the rest of this module exists to support: given a logical
// tree and an emission option set, lay out every enabled naming standard,
// run the writer chain, and stream the finished image to a caller-supplied
// io.Writer through the ring buffer.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bgrewell/isoforge/pkg/consts"
	"github.com/bgrewell/isoforge/pkg/contentstream"
	"github.com/bgrewell/isoforge/pkg/diag"
	"github.com/bgrewell/isoforge/pkg/eltorito"
	"github.com/bgrewell/isoforge/pkg/filesource"
	"github.com/bgrewell/isoforge/pkg/iso9660/systemarea"
	"github.com/bgrewell/isoforge/pkg/iwriter"
	"github.com/bgrewell/isoforge/pkg/layout"
	"github.com/bgrewell/isoforge/pkg/logicaltree"
	"github.com/bgrewell/isoforge/pkg/option"
	"github.com/bgrewell/isoforge/pkg/projection"
	"github.com/bgrewell/isoforge/pkg/ringbuffer"
	"github.com/bgrewell/isoforge/pkg/session"
	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BootImageSource pairs a host-side boot image stream with the catalog
// entry it fills in once its placement is known.
type BootImageSource struct {
	Entry  *eltorito.ElToritoEntry
	Stream contentstream.Stream
}

// Request bundles everything one Emit call needs beyond the option set:
// the tree to project, identifying metadata for the volume descriptors,
// and an optional El Torito boot catalog.
type Request struct {
	Tree       *logicaltree.Tree
	VolumeID   string
	AppName    string
	Publisher  string
	DataPrep   string
	BootImages []*BootImageSource
	Now        time.Time
	Log        logr.Logger

	// ImageID is stamped into the primary volume descriptor's
	// application-use area as a disc identity a mastering caller can use
	// to recognize this exact emission run later. A zero uuid.UUID means
	// Emit mints one itself.
	ImageID uuid.UUID

	// SystemArea, if non-nil, is emitted verbatim in place of the 16
	// reserved system-area blocks instead of zeros (for a caller-supplied
	// hybrid MBR), with its boot-image LBA field patched once the first
	// boot image's placement is known.
	SystemArea *systemarea.SystemArea
}

// Result reports what Emit produced: the final block count (useful for a
// caller patching a multisession table of contents) and every diagnostic
// collected along the way.
type Result struct {
	TotalBlocks uint32
	Diagnostics []*diag.Code
}

// Emit projects req.Tree per opts, lays out every enabled standard and the
// El Torito catalog if requested, and streams the finished image to out.
// The writer chain runs in its own goroutine, feeding a bounded ring
// buffer (component G) that this call drains into out; the two sides join
// through golang.org/x/sync/errgroup so a failure on either end cancels
// the other.
func Emit(ctx context.Context, out io.Writer, req Request, opts option.EmitOptions) (*Result, error) {
	if req.Tree == nil {
		return nil, fmt.Errorf("engine: request carries no logical tree")
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	log := req.Log
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	imageID := req.ImageID
	if imageID == uuid.Nil {
		imageID = uuid.New()
	}

	sink := diag.NewSink(log, diag.SeverityFailure)
	sources := filesource.New()

	fileSourcesFromTree(req.Tree, sources)
	if opts.SortFiles {
		sources.SortBySortWeight()
	}

	sessionCfg := session.Config{StartLBA: opts.StartLBA, Appendable: opts.Appendable}

	res := &iwriter.Resources{
		LogicalTree: req.Tree,
		FileSources: sources,
		Sink:        sink,
		VolumeID:    req.VolumeID,
		AppName:     req.AppName,
		ImageID:     imageID.String(),
	}

	chain, err := buildChain(res, req, opts, now, sink)
	if err != nil {
		return nil, err
	}

	startBlock := sessionCfg.StartBlock()
	cursor, err := chain.ComputeLayout(startBlock)
	if err != nil {
		return nil, fmt.Errorf("engine: layout pass: %w", err)
	}

	if req.SystemArea != nil && len(req.BootImages) > 0 {
		bootLBA := uint32(req.BootImages[0].Entry.Location())
		if err := req.SystemArea.PatchBootLBA(bootLBA); err != nil {
			return nil, fmt.Errorf("engine: patch boot LBA: %w", err)
		}
	}

	_, nextBlock := layout.PlanFileContent(cursor, sources.Entries())
	cursor = nextBlock
	contentWriter := iwriter.NewFileContentWriter(sources)

	final := sessionCfg.FinalBlockCount(cursor)

	if sink.Aborted() {
		return &Result{TotalBlocks: final, Diagnostics: sink.Messages()}, fmt.Errorf("engine: aborted by diagnostic threshold")
	}

	fifoSize := opts.FifoBlockCount
	if fifoSize < 32 {
		fifoSize = 32
	}
	buf := ringbuffer.New(ctx, fifoSize)

	totalBytes := int64(final) * consts.ISO9660_SECTOR_SIZE
	progress := newProgressReporter(opts.OnProgress, totalBytes)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := produceImage(gctx, buf, chain, contentWriter, sessionCfg, startBlock, final, req.SystemArea, progress)
		if err != nil {
			buf.EndFailed()
			return err
		}
		buf.EndOK()
		return nil
	})
	g.Go(func() error {
		err := drainImage(gctx, buf, out)
		if err != nil {
			buf.Cancel()
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return &Result{TotalBlocks: final, Diagnostics: sink.Messages()}, err
	}

	return &Result{TotalBlocks: final, Diagnostics: sink.Messages()}, nil
}

// buildChain assembles the enabled writers in original_source's
// ecma119_writer_create order: primary, El Torito, Joliet, ISO 9660:1999,
// terminator.
func buildChain(res *iwriter.Resources, req Request, opts option.EmitOptions, now time.Time, sink *diag.Sink) (*iwriter.Chain, error) {
	var writers []iwriter.Writer

	primaryProj, err := projection.Build(req.Tree, projection.Options{
		Standard:           projection.StandardPrimary,
		OmitVersionNumbers: opts.OmitVersionNumbers,
		AllowDeepPaths:     opts.AllowDeepPaths,
		AllowLongerPaths:   opts.AllowLongerPaths,
		Max37CharFilenames: opts.Max37CharFilenames,
		NoForceDots:        opts.NoForceDots,
		AllowLowercase:     opts.AllowLowercase,
		AllowFullASCII:     opts.AllowFullASCII,
	}, sink)
	if err != nil {
		return nil, fmt.Errorf("engine: primary projection: %w", err)
	}
	writers = append(writers, iwriter.NewPrimaryWriter(res, primaryProj, now).WithRockRidge(opts.RockRidge))

	if len(req.BootImages) > 0 {
		cat := &eltorito.ElTorito{}
		var images []*iwriter.BootImage
		for _, b := range req.BootImages {
			images = append(images, &iwriter.BootImage{Entry: b.Entry, Stream: b.Stream})
		}
		writers = append(writers, iwriter.NewElToritoWriter(cat, images))
	}

	if opts.Joliet {
		jolietProj, err := projection.Build(req.Tree, projection.Options{
			Standard:          projection.StandardJoliet,
			JolietLongerPaths: opts.JolietLongerPaths,
		}, sink)
		if err != nil {
			return nil, fmt.Errorf("engine: joliet projection: %w", err)
		}
		writers = append(writers, iwriter.NewSecondaryWriter(res, jolietProj, now, false))
	}

	if opts.ISO1999 {
		enhancedProj, err := projection.Build(req.Tree, projection.Options{
			Standard:           projection.StandardISO1999,
			OmitVersionNumbers: opts.OmitVersionNumbers,
			AllowFullASCII:     true,
		}, sink)
		if err != nil {
			return nil, fmt.Errorf("engine: iso9660:1999 projection: %w", err)
		}
		writers = append(writers, iwriter.NewSecondaryWriter(res, enhancedProj, now, true))
	}

	writers = append(writers, iwriter.NewTerminatorWriter())

	return iwriter.NewChain(writers...), nil
}

// produceImage runs the writer chain's emission phases, streaming every
// resulting block into buf as the chain produces it rather than
// materializing the volume descriptors or file content in memory first, so
// the bounded ring buffer's backpressure actually bounds this producer's
// memory use regardless of image size. Order is system-area, then
// descriptors, then data, matching original_source's own image layout; the
// system area is padded with zero blocks since this module never writes a
// boot loader of its own into it.
func produceImage(ctx context.Context, buf *ringbuffer.Buffer, chain *iwriter.Chain, content *iwriter.FileContentWriter, cfg session.Config, startBlock, finalBlocks uint32, sa *systemarea.SystemArea, progress *progressReporter) error {
	rw := newRingBufferWriter(ctx, buf, progress)

	if sa != nil {
		if err := pushBuffer(ctx, buf, sa.Contents[:]); err != nil {
			return err
		}
		progress.report(int64(len(sa.Contents)))
	} else if err := pushZeroBlocks(ctx, buf, int(startBlock-cfg.StartLBA), progress); err != nil {
		return err
	}

	if err := chain.EmitVolumeDescriptors(rw); err != nil {
		return fmt.Errorf("engine: emit volume descriptors: %w", err)
	}
	if err := chain.EmitData(rw); err != nil {
		return fmt.Errorf("engine: emit data: %w", err)
	}
	if err := content.EmitData(rw); err != nil {
		return fmt.Errorf("engine: emit file content: %w", err)
	}
	written, err := rw.Flush()
	if err != nil {
		return err
	}

	total := startBlock - cfg.StartLBA + written
	if total < finalBlocks {
		return pushZeroBlocks(ctx, buf, int(finalBlocks-total), progress)
	}
	return nil
}

// ringBufferWriter adapts the io.Writer the writer chain expects onto buf,
// pushing each completed block as soon as it fills rather than buffering an
// entire phase's output first. It never holds more than one partial block
// of backlog, so the ring buffer's bounded capacity is the only thing that
// bounds this producer's memory use.
type ringBufferWriter struct {
	ctx      context.Context
	buf      *ringbuffer.Buffer
	progress *progressReporter
	partial  []byte
	blocks   uint32
}

func newRingBufferWriter(ctx context.Context, buf *ringbuffer.Buffer, progress *progressReporter) *ringBufferWriter {
	return &ringBufferWriter{ctx: ctx, buf: buf, progress: progress}
}

func (rw *ringBufferWriter) Write(p []byte) (int, error) {
	n := len(p)
	rw.partial = append(rw.partial, p...)
	for len(rw.partial) >= consts.ISO9660_SECTOR_SIZE {
		var blk ringbuffer.Block
		copy(blk[:], rw.partial[:consts.ISO9660_SECTOR_SIZE])
		if err := rw.buf.Push(blk); err != nil {
			return 0, err
		}
		if err := rw.ctx.Err(); err != nil {
			return 0, err
		}
		rw.partial = rw.partial[consts.ISO9660_SECTOR_SIZE:]
		rw.blocks++
		rw.progress.report(consts.ISO9660_SECTOR_SIZE)
	}
	return n, nil
}

// Flush pushes any trailing partial block, zero-padded, and reports the
// total whole blocks this writer has pushed, including the padded final
// one.
func (rw *ringBufferWriter) Flush() (uint32, error) {
	if len(rw.partial) > 0 {
		var blk ringbuffer.Block
		copy(blk[:], rw.partial)
		if err := rw.buf.Push(blk); err != nil {
			return rw.blocks, err
		}
		rw.blocks++
		rw.progress.report(consts.ISO9660_SECTOR_SIZE)
		rw.partial = nil
	}
	return rw.blocks, nil
}

func pushBuffer(ctx context.Context, buf *ringbuffer.Buffer, data []byte) error {
	for off := 0; off < len(data); off += consts.ISO9660_SECTOR_SIZE {
		var blk ringbuffer.Block
		copy(blk[:], data[off:])
		if err := buf.Push(blk); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func pushZeroBlocks(ctx context.Context, buf *ringbuffer.Buffer, n int, progress *progressReporter) error {
	var blk ringbuffer.Block
	for i := 0; i < n; i++ {
		if err := buf.Push(blk); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		progress.report(consts.ISO9660_SECTOR_SIZE)
	}
	return nil
}

// progressReporter fires cb every time the running byte total crosses
// another 5% of total. A nil cb (the common case) makes report a no-op.
type progressReporter struct {
	cb       option.EmissionProgressCallback
	total    int64
	written  int64
	nextStep int
}

func newProgressReporter(cb option.EmissionProgressCallback, total int64) *progressReporter {
	return &progressReporter{cb: cb, total: total, nextStep: 5}
}

func (p *progressReporter) report(n int64) {
	if p == nil || p.cb == nil || p.total <= 0 {
		return
	}
	p.written += n
	percent := int(p.written * 100 / p.total)
	for percent >= p.nextStep && p.nextStep <= 100 {
		msg := fmt.Sprintf("%s / %s written (%d%%)", humanize.Bytes(uint64(p.written)), humanize.Bytes(uint64(p.total)), p.nextStep)
		p.cb(msg, p.written, p.total, p.nextStep)
		p.nextStep += 5
	}
}

// drainImage pulls every block produceImage pushes and writes it to out,
// stopping cleanly once the producer signals it is done.
func drainImage(ctx context.Context, buf *ringbuffer.Buffer, out io.Writer) error {
	for {
		blk, ok, err := buf.Pull()
		if !ok {
			return err
		}
		if _, werr := out.Write(blk[:]); werr != nil {
			return fmt.Errorf("engine: write image: %w", werr)
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
	}
}

// importedContent is the subset of logicaltree's unexported importedStream
// type this package can still observe through its public methods, used to
// recognize a node carried forward from a prior session.
type importedContent interface {
	Extents() []logicaltree.Extent
	Size() uint32
}

// fileSourcesFromTree walks every file node in lt, registering its content
// stream with sources so the layout planner has a deduplicated, ordered
// list of unique extents to place.
func fileSourcesFromTree(lt *logicaltree.Tree, sources *filesource.Table) {
	root := lt.Root()
	var walk func(n *logicaltree.Node)
	walk = func(n *logicaltree.Node) {
		_ = lt.Iterate(n.ID(), func(child *logicaltree.Node) bool {
			if child.HasChildren() {
				walk(child)
				return true
			}
			registerFileSource(child, sources)
			return true
		})
	}
	walk(root)
}

func registerFileSource(n *logicaltree.Node, sources *filesource.Table) {
	if !n.HasContent() || n.Stream == nil {
		return
	}
	if imported, ok := n.Stream.(importedContent); ok {
		sources.AddImported(n.ID(), imported.Size(), imported.Extents())
		return
	}
	stream, ok := n.Stream.(contentstream.Stream)
	if !ok {
		return
	}
	size, err := stream.Size()
	if err != nil {
		size = 0
	}
	sources.Add(n.ID(), stream, n.SortWeight, size)
}
