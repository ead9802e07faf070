package align

import (
	"errors"
	"fmt"

	"scrollcap.dev/scrollcap/internal/frame"
)

// Classification describes how a frame pair relates.
type Classification int

const (
	// Advance - curr scrolled down by Offset pixels of new content
	Advance Classification = iota
	// Duplicate - no new content scrolled into view
	Duplicate
	// NoOverlap - no candidate offset matched; end of content or a
	// non-monotonic content change
	NoOverlap
)

func (c Classification) String() string {
	switch c {
	case Advance:
		return "advance"
	case Duplicate:
		return "duplicate"
	case NoOverlap:
		return "no-overlap"
	default:
		return "unknown"
	}
}

// Result is the outcome of aligning one consecutive frame pair.
type Result struct {
	Classification Classification
	Offset         int     // vertical scroll distance, 0 unless Advance
	Confidence     float64 // 1 - normalized dissimilarity of the winning offset
}

// Config holds the aligner tunables. Thresholds are normalized mean
// absolute pixel differences in 0..1.
type Config struct {
	OverlapPixels      int     // search band height
	MinOffset          int     // smallest offset reported as Advance
	SampleStride       int     // horizontal pixel sampling step
	DuplicateThreshold float64 // strict similarity bound for Duplicate
	MaxDissimilarity   float64 // above this for every candidate -> NoOverlap
}

// DefaultConfig returns the recommended aligner settings.
func DefaultConfig() Config {
	return Config{
		OverlapPixels:      125,
		MinOffset:          1,
		SampleStride:       4,
		DuplicateThreshold: 0.02,
		MaxDissimilarity:   0.25,
	}
}

// ErrWidthChanged reports a width mismatch between consecutive frames,
// e.g. a window resize mid-capture. Treated as fatal rather than
// guessing a resample strategy.
var ErrWidthChanged = errors.New("frame width changed between captures")

// Aligner computes vertical offsets between consecutive cropped frames.
// Not safe for concurrent use; one aligner per capture session.
type Aligner struct {
	cfg    Config
	warned bool

	// WarnFunc, if set, receives one-shot configuration warnings.
	WarnFunc func(msg string)
}

// New creates an aligner. Zero or negative config fields fall back to
// defaults.
func New(cfg Config) *Aligner {
	def := DefaultConfig()
	if cfg.OverlapPixels <= 0 {
		cfg.OverlapPixels = def.OverlapPixels
	}
	if cfg.MinOffset <= 0 {
		cfg.MinOffset = def.MinOffset
	}
	if cfg.SampleStride <= 0 {
		cfg.SampleStride = def.SampleStride
	}
	if cfg.DuplicateThreshold <= 0 {
		cfg.DuplicateThreshold = def.DuplicateThreshold
	}
	if cfg.MaxDissimilarity <= 0 {
		cfg.MaxDissimilarity = def.MaxDissimilarity
	}
	return &Aligner{cfg: cfg}
}

// Config returns the effective aligner configuration.
func (a *Aligner) Config() Config { return a.cfg }

// Align determines how far curr has scrolled relative to prev.
//
// The search band is the bottom OverlapPixels rows of each frame. For a
// candidate offset d, the bottom (OverlapPixels-d) rows of prev are
// scored row-for-row against the band of curr ending d rows above its
// bottom edge; a true scroll of d pixels makes those regions identical.
// The offset minimizing the score wins, smaller offset on exact ties.
func (a *Aligner) Align(prev, curr *frame.Frame) (Result, error) {
	if prev.Width() != curr.Width() {
		return Result{}, fmt.Errorf("%w: %d -> %d", ErrWidthChanged, prev.Width(), curr.Width())
	}

	overlap := a.cfg.OverlapPixels
	minH := prev.Height()
	if curr.Height() < minH {
		minH = curr.Height()
	}
	if overlap >= minH {
		overlap = minH - 1
		if overlap < 1 {
			overlap = 1
		}
		if !a.warned {
			a.warned = true
			if a.WarnFunc != nil {
				a.WarnFunc(fmt.Sprintf("overlap window %d exceeds frame height %d, clamped to %d",
					a.cfg.OverlapPixels, minH, overlap))
			}
		}
	}

	bestScore := 2.0 // above any normalized score
	bestOffset := 0
	for d := 0; d < overlap; d++ {
		score := a.bandScore(prev, curr, overlap, d)
		if score < bestScore {
			bestScore = score
			bestOffset = d
		}
	}

	res := Result{Offset: bestOffset, Confidence: 1 - bestScore}
	switch {
	case bestScore > a.cfg.MaxDissimilarity:
		res.Classification = NoOverlap
		res.Offset = 0
	case bestOffset >= a.cfg.MinOffset:
		res.Classification = Advance
	case bestScore < a.cfg.DuplicateThreshold:
		// Near-zero motion and strictly similar content: nothing new
		// scrolled into view.
		res.Classification = Duplicate
		res.Offset = 0
	default:
		// Near-zero motion without strict similarity: the view changed
		// in place, which breaks the monotonic-scroll assumption.
		res.Classification = NoOverlap
		res.Offset = 0
	}
	return res, nil
}

// bandScore computes the normalized mean absolute RGB difference between
// the bottom (overlap-d) rows of prev and the rows of curr ending d rows
// above its bottom edge, sampled every SampleStride pixels.
func (a *Aligner) bandScore(prev, curr *frame.Frame, overlap, d int) float64 {
	rows := overlap - d
	width := prev.Width()
	prevImg := prev.RGBA()
	currImg := curr.RGBA()
	prevTop := prev.Height() - rows
	currTop := curr.Height() - overlap

	var sad uint64
	var samples int
	for y := 0; y < rows; y++ {
		pIdx := (prevTop + y) * prevImg.Stride
		cIdx := (currTop + y) * currImg.Stride
		for x := 0; x < width; x += a.cfg.SampleStride {
			p := pIdx + x*4
			c := cIdx + x*4
			sad += uint64(absDiff(prevImg.Pix[p], currImg.Pix[c]))
			sad += uint64(absDiff(prevImg.Pix[p+1], currImg.Pix[c+1]))
			sad += uint64(absDiff(prevImg.Pix[p+2], currImg.Pix[c+2]))
			samples++
		}
	}
	if samples == 0 {
		return 1.0
	}
	return float64(sad) / (float64(samples) * 3 * 255)
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
