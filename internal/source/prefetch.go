package source

import (
	"context"
	"sync"

	"scrollcap.dev/scrollcap/internal/capture"
	"scrollcap.dev/scrollcap/internal/frame"
)

type fetched struct {
	frame *frame.Frame
	err   error
}

// Prefetch runs frame acquisition on its own goroutine so the session
// can align and stitch while the next decode is in flight. The handoff
// is a single slot: at most one pending frame exists at a time and
// frames are delivered strictly in source order.
//
// Only wrap sources whose content is already fixed (frame directories,
// extracted recordings). The worker fetches the next frame as soon as
// the slot is free, so a live scroll-driven capture wrapped here would
// grab frames before the scroll step that should precede them.
type Prefetch struct {
	slot   chan fetched
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPrefetch wraps src. Close must be called to stop the worker.
func NewPrefetch(src capture.FrameSource) *Prefetch {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Prefetch{
		slot:   make(chan fetched, 1),
		cancel: cancel,
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer close(p.slot)
		for {
			f, err := src.NextFrame(ctx)
			select {
			case p.slot <- fetched{frame: f, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				// Terminal for the source; deliver once and stop.
				return
			}
		}
	}()

	return p
}

// NextFrame returns the pending frame, blocking until the worker has
// produced one.
func (p *Prefetch) NextFrame(ctx context.Context) (*frame.Frame, error) {
	select {
	case f, ok := <-p.slot:
		if !ok {
			return nil, capture.ErrEndOfInput
		}
		return f.frame, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the acquisition worker.
func (p *Prefetch) Close() {
	p.cancel()
	p.wg.Wait()
}
