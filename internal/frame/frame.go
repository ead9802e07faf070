package frame

import (
	"image"
	"image/draw"
	"time"
)

// Frame is a single captured raster snapshot. Pixels are packed RGBA
// rows; a Frame is never mutated after creation, cropping produces a
// new Frame.
type Frame struct {
	img      *image.RGBA
	index    int
	captured time.Time
}

// New wraps an RGBA image as a frame. The image is normalized so that
// bounds start at (0,0).
func New(img *image.RGBA, index int) *Frame {
	b := img.Bounds()
	if b.Min.X != 0 || b.Min.Y != 0 {
		norm := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(norm, norm.Bounds(), img, b.Min, draw.Src)
		img = norm
	}
	return &Frame{img: img, index: index, captured: time.Now()}
}

// FromImage converts any image into a frame, copying pixels into a
// packed RGBA buffer. Conversion boundary for all inputs regardless of
// origin (live screenshot or extracted video frame).
func FromImage(src image.Image, index int) *Frame {
	b := src.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)
	return &Frame{img: img, index: index, captured: time.Now()}
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.img.Bounds().Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.img.Bounds().Dy() }

// Index returns the capture sequence index.
func (f *Frame) Index() int { return f.index }

// CapturedAt returns the capture timestamp.
func (f *Frame) CapturedAt() time.Time { return f.captured }

// RGBA returns the backing image. Callers must not mutate it.
func (f *Frame) RGBA() *image.RGBA { return f.img }

// Row returns the packed RGBA bytes for row y.
func (f *Frame) Row(y int) []byte {
	start := y * f.img.Stride
	return f.img.Pix[start : start+f.Width()*4]
}
