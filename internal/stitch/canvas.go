package stitch

import (
	"errors"
	"fmt"
	"image"

	"scrollcap.dev/scrollcap/internal/frame"
)

var (
	// ErrFinalized reports an append after Finalize.
	ErrFinalized = errors.New("canvas already finalized")
	// ErrWidthMismatch reports a frame whose width differs from the canvas.
	ErrWidthMismatch = errors.New("frame width does not match canvas")
	// ErrBadOffset reports an offset outside the frame height.
	ErrBadOffset = errors.New("offset outside frame bounds")
)

// Canvas accumulates the growing output image. It is seeded with the
// full first cropped frame; each accepted advance appends the bottom
// offset rows of the new frame. Height is monotonically non-decreasing
// and no row is ever written twice. Owned by a single capture session;
// not safe for concurrent use.
type Canvas struct {
	width     int
	rows      [][]byte // packed RGBA, one slice per appended row
	finalized bool
}

// NewCanvas seeds a canvas from the first cropped frame.
func NewCanvas(first *frame.Frame) *Canvas {
	c := &Canvas{width: first.Width()}
	c.appendRows(first, first.Height())
	return c
}

// Width returns the canvas width, which always equals the crop width.
func (c *Canvas) Width() int { return c.width }

// Height returns the current accumulated height.
func (c *Canvas) Height() int { return len(c.rows) }

// Append adds the bottom offset rows of f to the canvas. The canvas
// grows by exactly offset rows.
func (c *Canvas) Append(f *frame.Frame, offset int) error {
	if c.finalized {
		return ErrFinalized
	}
	if f.Width() != c.width {
		return fmt.Errorf("%w: %d != %d", ErrWidthMismatch, f.Width(), c.width)
	}
	if offset < 0 || offset > f.Height() {
		return fmt.Errorf("%w: offset %d, frame height %d", ErrBadOffset, offset, f.Height())
	}
	c.appendRows(f, offset)
	return nil
}

// appendRows copies the bottom n rows of f onto the canvas.
func (c *Canvas) appendRows(f *frame.Frame, n int) {
	top := f.Height() - n
	for y := 0; y < n; y++ {
		src := f.Row(top + y)
		row := make([]byte, len(src))
		copy(row, src)
		c.rows = append(c.rows, row)
	}
}

// Finalize returns the accumulated image and seals the canvas. Further
// appends fail with ErrFinalized.
func (c *Canvas) Finalize() *image.RGBA {
	c.finalized = true
	out := image.NewRGBA(image.Rect(0, 0, c.width, len(c.rows)))
	for y, row := range c.rows {
		copy(out.Pix[y*out.Stride:y*out.Stride+c.width*4], row)
	}
	return out
}
