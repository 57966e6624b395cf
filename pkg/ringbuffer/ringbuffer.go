// Package ringbuffer implements component G: the bounded, single-producer/
// single-consumer byte buffer that decouples the writer chain (producing
// blocks) from the caller reading the finished image. The source backs this
// with a hand-rolled ring of malloc'd pages guarded by a pthread condition
// variable; the redesign note replaces it with a Go bounded channel of
// fixed-size blocks, joined to its producer with golang.org/x/sync/errgroup
// so the producer's error return value and the consumer's cancellation are
// both ordinary Go control flow.
package ringbuffer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/bgrewell/isoforge/pkg/consts"
)

// State is the ring buffer's lifecycle state, advancing monotonically.
type State int32

const (
	StateActive State = iota
	StateWriterEndedOK
	StateWriterFailed
	StateReaderCancelled
	StateBothEnded
)

// ErrCancelled is returned to a producer's Push once the consumer has
// cancelled the buffer's context.
var ErrCancelled = errors.New("ringbuffer: reader cancelled")

// Block is one fixed-size unit moving through the buffer; writers always
// push whole blocks (zero-padding a short final block themselves) so the
// consumer never has to reassemble partial sectors.
type Block [consts.ISO9660_SECTOR_SIZE]byte

// Buffer is a bounded FIFO of Blocks with backpressure: Push blocks once the
// channel is full, Pull blocks once it is empty, and both respect ctx
// cancellation.
type Buffer struct {
	ch     chan Block
	state  atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	timesFull  uint64
	timesEmpty uint64
	totalBytes uint64
	closeOnce  sync.Once
}

// New creates a Buffer holding up to capacityBlocks blocks before Push
// blocks. The buffer cancels when ctx is cancelled or when Cancel is
// called.
func New(ctx context.Context, capacityBlocks int) *Buffer {
	cctx, cancel := context.WithCancel(ctx)
	b := &Buffer{ch: make(chan Block, capacityBlocks), ctx: cctx, cancel: cancel}
	b.state.Store(int32(StateActive))
	return b
}

// State reports the buffer's current lifecycle state.
func (b *Buffer) State() State { return State(b.state.Load()) }

// Push enqueues a block, blocking if the buffer is full. It returns
// ErrCancelled if the consumer cancelled before room became available, and
// is a no-op error-wise if the buffer was already marked ended.
func (b *Buffer) Push(blk Block) error {
	switch b.State() {
	case StateWriterEndedOK, StateWriterFailed:
		return nil
	}
	select {
	case b.ch <- blk:
		b.mu.Lock()
		b.totalBytes += uint64(len(blk))
		b.mu.Unlock()
		return nil
	case <-b.ctx.Done():
		b.noteFull()
		return ErrCancelled
	default:
	}
	// The fast path above didn't have room; record contention and retry
	// blocking, so timesFull reflects genuine backpressure events rather
	// than every call.
	b.noteFull()
	select {
	case b.ch <- blk:
		b.mu.Lock()
		b.totalBytes += uint64(len(blk))
		b.mu.Unlock()
		return nil
	case <-b.ctx.Done():
		return ErrCancelled
	}
}

func (b *Buffer) noteFull() {
	b.mu.Lock()
	b.timesFull++
	b.mu.Unlock()
}

// Pull dequeues a block, blocking if the buffer is empty, until the
// producer signals it is done (ok==false, err from EndOK/EndFailed) or ctx
// is cancelled.
func (b *Buffer) Pull() (blk Block, ok bool, err error) {
	select {
	case blk, open := <-b.ch:
		if !open {
			return Block{}, false, b.terminalError()
		}
		return blk, true, nil
	case <-b.ctx.Done():
		b.state.CompareAndSwap(int32(StateActive), int32(StateReaderCancelled))
		return Block{}, false, b.ctx.Err()
	default:
	}
	b.mu.Lock()
	b.timesEmpty++
	b.mu.Unlock()
	select {
	case blk, open := <-b.ch:
		if !open {
			return Block{}, false, b.terminalError()
		}
		return blk, true, nil
	case <-b.ctx.Done():
		b.state.CompareAndSwap(int32(StateActive), int32(StateReaderCancelled))
		return Block{}, false, b.ctx.Err()
	}
}

func (b *Buffer) terminalError() error {
	if State(b.state.Load()) == StateWriterFailed {
		return errWriterFailed
	}
	return nil
}

var errWriterFailed = errors.New("ringbuffer: producer ended with an error")

// EndOK is called by the producer exactly once, after its final Push, to
// signal a clean end of stream.
func (b *Buffer) EndOK() {
	b.closeOnce.Do(func() {
		b.state.Store(int32(StateWriterEndedOK))
		close(b.ch)
	})
}

// EndFailed is called by the producer exactly once in place of EndOK when
// it cannot continue; Pull returns the recorded failure once the channel
// drains.
func (b *Buffer) EndFailed() {
	b.closeOnce.Do(func() {
		b.state.Store(int32(StateWriterFailed))
		close(b.ch)
	})
}

// Cancel signals the consumer's intent to stop early; a producer blocked in
// Push sees ErrCancelled.
func (b *Buffer) Cancel() { b.cancel() }

// Stats reports the buffer's odometers: total bytes ever pushed, and how
// many times Push found no room or Pull found nothing waiting.
type Stats struct {
	TimesFull  uint64
	TimesEmpty uint64
	TotalBytes uint64
}

// Stats returns a snapshot of the buffer's counters.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{TimesFull: b.timesFull, TimesEmpty: b.timesEmpty, TotalBytes: b.totalBytes}
}
