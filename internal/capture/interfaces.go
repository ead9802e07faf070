package capture

import (
	"context"
	"errors"

	"scrollcap.dev/scrollcap/internal/frame"
)

// ErrEndOfInput is returned by a FrameSource once no further frames can
// be produced. It is a normal termination condition, not a failure.
var ErrEndOfInput = errors.New("frame source exhausted")

// FrameSource produces raw frames, either live or from pre-extracted
// video samples; the session treats both identically.
type FrameSource interface {
	// NextFrame blocks until the next frame is available. Returns
	// ErrEndOfInput when the source is exhausted.
	NextFrame(ctx context.Context) (*frame.Frame, error)
}

// ScrollDriver advances the captured view by one scroll unit.
type ScrollDriver interface {
	Step(ctx context.Context, key string) error
}

// NopScrollDriver is a ScrollDriver for sources whose content already
// scrolls on its own (video recordings, frame directories).
type NopScrollDriver struct{}

func (NopScrollDriver) Step(ctx context.Context, key string) error { return nil }
