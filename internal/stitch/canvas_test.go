package stitch

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"scrollcap.dev/scrollcap/internal/frame"
)

// contentFrame builds a frame slicing rows [top, top+height) out of a
// virtual tall document whose row bytes are a function of the absolute
// row number.
func contentFrame(t *testing.T, width, top, height, index int) *frame.Frame {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		fillRow(img, y, top+y)
	}
	return frame.New(img, index)
}

func fillRow(img *image.RGBA, y, absolute int) {
	width := img.Bounds().Dx()
	for x := 0; x < width; x++ {
		idx := y*img.Stride + x*4
		img.Pix[idx] = uint8((absolute*3 + x) % 256)
		img.Pix[idx+1] = uint8((absolute * 7) % 256)
		img.Pix[idx+2] = uint8((absolute*11 + x*5) % 256)
		img.Pix[idx+3] = 255
	}
}

// expectedRow returns the bytes row absolute of the virtual document
// would have at the given width.
func expectedRow(width, absolute int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, 1))
	fillRow(img, 0, absolute)
	return img.Pix[:width*4]
}

func TestSingleFrameIdempotence(t *testing.T) {
	f := contentFrame(t, 50, 0, 80, 0)
	c := NewCanvas(f)

	if c.Width() != 50 || c.Height() != 80 {
		t.Fatalf("canvas = %dx%d, want 50x80", c.Width(), c.Height())
	}

	out := c.Finalize()
	if !bytes.Equal(out.Pix, f.RGBA().Pix) {
		t.Errorf("finalized single-frame canvas differs from the frame")
	}
}

func TestAppendGrowsByExactlyOffset(t *testing.T) {
	width := 40
	c := NewCanvas(contentFrame(t, width, 0, 100, 0))

	offsets := []int{12, 1, 33, 7}
	top := 0
	wantHeight := 100
	for i, offset := range offsets {
		top += offset
		f := contentFrame(t, width, top, 100, i+1)
		before := c.Height()
		if err := c.Append(f, offset); err != nil {
			t.Fatalf("Append(%d) error: %v", offset, err)
		}
		wantHeight += offset
		if c.Height() != wantHeight {
			t.Fatalf("height after append %d = %d, want %d", i, c.Height(), wantHeight)
		}
		if c.Height() < before {
			t.Fatalf("height decreased from %d to %d", before, c.Height())
		}
	}

	// The final image must be the contiguous document with no
	// duplicated or missing rows.
	out := c.Finalize()
	if out.Bounds().Dy() != wantHeight {
		t.Fatalf("final height = %d, want %d", out.Bounds().Dy(), wantHeight)
	}
	for y := 0; y < wantHeight; y++ {
		got := out.Pix[y*out.Stride : y*out.Stride+width*4]
		if !bytes.Equal(got, expectedRow(width, y)) {
			t.Fatalf("row %d does not match document content", y)
		}
	}
}

func TestAppendZeroOffsetIsNoop(t *testing.T) {
	c := NewCanvas(contentFrame(t, 20, 0, 50, 0))
	if err := c.Append(contentFrame(t, 20, 0, 50, 1), 0); err != nil {
		t.Fatalf("Append(0) error: %v", err)
	}
	if c.Height() != 50 {
		t.Errorf("height = %d, want 50", c.Height())
	}
}

func TestAppendWidthMismatch(t *testing.T) {
	c := NewCanvas(contentFrame(t, 20, 0, 50, 0))
	err := c.Append(contentFrame(t, 30, 0, 50, 1), 5)
	if !errors.Is(err, ErrWidthMismatch) {
		t.Errorf("error = %v, want ErrWidthMismatch", err)
	}
}

func TestAppendBadOffset(t *testing.T) {
	c := NewCanvas(contentFrame(t, 20, 0, 50, 0))
	if err := c.Append(contentFrame(t, 20, 0, 50, 1), 51); !errors.Is(err, ErrBadOffset) {
		t.Errorf("error = %v, want ErrBadOffset", err)
	}
	if err := c.Append(contentFrame(t, 20, 0, 50, 1), -1); !errors.Is(err, ErrBadOffset) {
		t.Errorf("error = %v, want ErrBadOffset", err)
	}
}

func TestAppendAfterFinalize(t *testing.T) {
	c := NewCanvas(contentFrame(t, 20, 0, 50, 0))
	c.Finalize()
	if err := c.Append(contentFrame(t, 20, 0, 50, 1), 5); !errors.Is(err, ErrFinalized) {
		t.Errorf("error = %v, want ErrFinalized", err)
	}
}
