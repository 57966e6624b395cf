package ringbuffer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunProducer starts produce in its own goroutine via an errgroup, calling
// buf.EndOK or buf.EndFailed automatically depending on whether produce
// returns an error, and returns a function the caller waits on to join the
// goroutine and collect produce's error. This is the Go-native replacement
// for the source's pthread_create/pthread_join pairing around its writer
// thread.
func RunProducer(ctx context.Context, buf *Buffer, produce func(ctx context.Context) error) func() error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := produce(gctx)
		if err != nil {
			buf.EndFailed()
		} else {
			buf.EndOK()
		}
		return err
	})
	return g.Wait
}
