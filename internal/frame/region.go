package frame

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// ErrInvalidRegion reports crop geometry that does not fit the frame it
// is applied to. Signals misconfiguration upstream; callers abort the
// session rather than clamp silently.
var ErrInvalidRegion = errors.New("invalid crop region")

// CropRegion is a rectangle in source-frame coordinates. Set once per
// capture session, immutable thereafter.
type CropRegion struct {
	X      int
	Y      int
	Width  int
	Height int
}

// ParseCropRegion parses "x,y,width,height". Colons and spaces are
// accepted as separators as well.
func ParseCropRegion(s string) (CropRegion, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ':' || r == ' '
	})
	if len(fields) != 4 {
		return CropRegion{}, fmt.Errorf("%w: want x,y,width,height, got %q", ErrInvalidRegion, s)
	}

	vals := make([]int, 4)
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return CropRegion{}, fmt.Errorf("%w: %q is not a number", ErrInvalidRegion, f)
		}
		vals[i] = n
	}

	r := CropRegion{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if r.Width <= 0 || r.Height <= 0 {
		return CropRegion{}, fmt.Errorf("%w: width and height must be positive", ErrInvalidRegion)
	}
	return r, nil
}

// String formats the region in the same shape ParseCropRegion accepts.
func (r CropRegion) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)
}

// Rect returns the region as an image.Rectangle.
func (r CropRegion) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Validate checks the region against a frame of the given dimensions.
func (r CropRegion) Validate(width, height int) error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: width and height must be positive", ErrInvalidRegion)
	}
	if r.X < 0 || r.Y < 0 || r.X+r.Width > width || r.Y+r.Height > height {
		return fmt.Errorf("%w: %s exceeds frame bounds %dx%d", ErrInvalidRegion, r, width, height)
	}
	return nil
}

// Crop applies the region to a frame and returns a new frame containing
// only the selected pixels. Fails with ErrInvalidRegion if the region
// exceeds the frame bounds. Pure and deterministic.
func Crop(f *Frame, r CropRegion) (*Frame, error) {
	if err := r.Validate(f.Width(), f.Height()); err != nil {
		return nil, err
	}

	src := f.RGBA()
	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	for y := 0; y < r.Height; y++ {
		srcStart := (r.Y+y)*src.Stride + r.X*4
		dstStart := y * dst.Stride
		copy(dst.Pix[dstStart:dstStart+r.Width*4], src.Pix[srcStart:srcStart+r.Width*4])
	}

	out := New(dst, f.Index())
	out.captured = f.captured
	return out, nil
}
