package source

import (
	"context"
	"fmt"

	"github.com/kbinani/screenshot"
	"scrollcap.dev/scrollcap/internal/frame"
)

// ScreenSource captures live frames from one display.
type ScreenSource struct {
	display int
	index   int
}

// NewScreenSource creates a source for the given display index.
func NewScreenSource(display int) (*ScreenSource, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	if display < 0 || display >= n {
		return nil, fmt.Errorf("display %d out of range (have %d)", display, n)
	}
	return &ScreenSource{display: display}, nil
}

// Bounds returns the display dimensions in pixels.
func (s *ScreenSource) Bounds() (width, height int) {
	b := screenshot.GetDisplayBounds(s.display)
	return b.Dx(), b.Dy()
}

// NextFrame grabs one screenshot of the display.
func (s *ScreenSource) NextFrame(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureDisplay(s.display)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", s.display, err)
	}
	f := frame.New(img, s.index)
	s.index++
	return f, nil
}
