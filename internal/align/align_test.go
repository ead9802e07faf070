package align

import (
	"errors"
	"image"
	"testing"

	"scrollcap.dev/scrollcap/internal/frame"
)

// tallContent builds a tall deterministic test image where every row is
// distinct.
func tallContent(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*img.Stride + x*4
			img.Pix[idx] = uint8((x*31 + y*17) % 256)
			img.Pix[idx+1] = uint8((x*13 + y*101) % 256)
			img.Pix[idx+2] = uint8((x*5 + y*59) % 256)
			img.Pix[idx+3] = 255
		}
	}
	return img
}

// viewAt extracts a viewport of the content starting at row top, like a
// screen showing scrolled content.
func viewAt(t *testing.T, content *image.RGBA, top, height, index int) *frame.Frame {
	t.Helper()
	width := content.Bounds().Dx()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		srcStart := (top + y) * content.Stride
		copy(img.Pix[y*img.Stride:y*img.Stride+width*4], content.Pix[srcStart:srcStart+width*4])
	}
	return frame.New(img, index)
}

func uniformFrame(width, height int, value uint8, index int) *frame.Frame {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = value
		img.Pix[i+1] = value
		img.Pix[i+2] = value
		img.Pix[i+3] = 255
	}
	return frame.New(img, index)
}

func TestAlignIdenticalFramesDuplicate(t *testing.T) {
	content := tallContent(120, 300)
	a := New(DefaultConfig())

	prev := viewAt(t, content, 0, 200, 0)
	curr := viewAt(t, content, 0, 200, 1)

	res, err := a.Align(prev, curr)
	if err != nil {
		t.Fatalf("Align error: %v", err)
	}
	if res.Classification != Duplicate {
		t.Errorf("classification = %v, want Duplicate", res.Classification)
	}
	if res.Offset != 0 {
		t.Errorf("offset = %d, want 0", res.Offset)
	}
	if res.Confidence < 0.99 {
		t.Errorf("confidence = %f, want ~1", res.Confidence)
	}
}

func TestAlignShiftedCopyExactOffset(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		overlap int
		shift   int
	}{
		{"small shift", 200, 250, 100, 5},
		{"typical shift", 800, 600, 125, 40},
		{"large shift", 300, 400, 100, 99},
		{"single pixel shift", 200, 250, 100, 1},
		{"width one", 1, 250, 100, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := tallContent(tt.width, tt.height+tt.shift)
			a := New(Config{OverlapPixels: tt.overlap})

			prev := viewAt(t, content, 0, tt.height, 0)
			curr := viewAt(t, content, tt.shift, tt.height, 1)

			res, err := a.Align(prev, curr)
			if err != nil {
				t.Fatalf("Align error: %v", err)
			}
			if res.Classification != Advance {
				t.Fatalf("classification = %v, want Advance", res.Classification)
			}
			if res.Offset != tt.shift {
				t.Errorf("offset = %d, want %d", res.Offset, tt.shift)
			}
			if res.Confidence < 0.99 {
				t.Errorf("confidence = %f, want ~1", res.Confidence)
			}
		})
	}
}

func TestAlignDisjointFramesNoOverlap(t *testing.T) {
	a := New(DefaultConfig())

	prev := uniformFrame(200, 300, 0, 0)
	curr := uniformFrame(200, 300, 255, 1)

	res, err := a.Align(prev, curr)
	if err != nil {
		t.Fatalf("Align error: %v", err)
	}
	if res.Classification != NoOverlap {
		t.Errorf("classification = %v, want NoOverlap", res.Classification)
	}
}

func TestAlignBlankFramesDegenerateDuplicate(t *testing.T) {
	// Uniform content has zero dissimilarity at every offset; the
	// smallest candidate wins, which lands on zero motion.
	a := New(DefaultConfig())

	prev := uniformFrame(200, 300, 128, 0)
	curr := uniformFrame(200, 300, 128, 1)

	res, err := a.Align(prev, curr)
	if err != nil {
		t.Fatalf("Align error: %v", err)
	}
	if res.Classification != Duplicate {
		t.Errorf("classification = %v, want Duplicate", res.Classification)
	}
}

func TestAlignDuplicateRequiresStrictSimilarity(t *testing.T) {
	// Uniform frames 13 levels apart score ~0.051 at every offset, so
	// the best candidate is zero motion without strict similarity.
	prev := uniformFrame(200, 300, 100, 0)
	curr := uniformFrame(200, 300, 113, 1)

	strict := New(DefaultConfig())
	res, err := strict.Align(prev, curr)
	if err != nil {
		t.Fatalf("Align error: %v", err)
	}
	if res.Classification != NoOverlap {
		t.Errorf("classification = %v, want NoOverlap (in-place change is not a duplicate)",
			res.Classification)
	}

	relaxed := New(Config{DuplicateThreshold: 0.1})
	res, err = relaxed.Align(prev, curr)
	if err != nil {
		t.Fatalf("Align error: %v", err)
	}
	if res.Classification != Duplicate {
		t.Errorf("classification = %v, want Duplicate under the relaxed threshold",
			res.Classification)
	}
	if res.Offset != 0 {
		t.Errorf("offset = %d, want 0", res.Offset)
	}
}

func TestAlignTieBreaksTowardSmallerOffset(t *testing.T) {
	// A vertically periodic pattern matches at shift and shift+period;
	// the smaller offset must win.
	const period = 10
	width, height := 100, 200
	img := image.NewRGBA(image.Rect(0, 0, width, height+period*3))
	for y := 0; y < height+period*3; y++ {
		v := uint8((y % period) * 25)
		for x := 0; x < width; x++ {
			idx := y*img.Stride + x*4
			img.Pix[idx] = v
			img.Pix[idx+1] = v
			img.Pix[idx+2] = v
			img.Pix[idx+3] = 255
		}
	}

	const shift = 3
	prev := viewAt(t, img, 0, height, 0)
	curr := viewAt(t, img, shift, height, 1)

	a := New(Config{OverlapPixels: 50})
	res, err := a.Align(prev, curr)
	if err != nil {
		t.Fatalf("Align error: %v", err)
	}
	if res.Classification != Advance {
		t.Fatalf("classification = %v, want Advance", res.Classification)
	}
	if res.Offset != shift {
		t.Errorf("offset = %d, want %d (smaller offset should win ties)", res.Offset, shift)
	}
}

func TestAlignOverlapClampWarnsOnce(t *testing.T) {
	content := tallContent(100, 80)
	a := New(Config{OverlapPixels: 125})

	var warnings []string
	a.WarnFunc = func(msg string) { warnings = append(warnings, msg) }

	prev := viewAt(t, content, 0, 50, 0)
	curr := viewAt(t, content, 10, 50, 1)

	res, err := a.Align(prev, curr)
	if err != nil {
		t.Fatalf("Align error: %v", err)
	}
	if res.Classification != Advance || res.Offset != 10 {
		t.Errorf("result = %v offset %d, want Advance(10)", res.Classification, res.Offset)
	}
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}

	// A second alignment must not warn again.
	if _, err := a.Align(prev, curr); err != nil {
		t.Fatalf("second Align error: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("got %d warnings after second align, want 1", len(warnings))
	}
}

func TestAlignWidthChangeFatal(t *testing.T) {
	content := tallContent(100, 300)
	narrow := tallContent(80, 300)
	a := New(DefaultConfig())

	prev := viewAt(t, content, 0, 200, 0)
	curr := viewAt(t, narrow, 0, 200, 1)

	if _, err := a.Align(prev, curr); !errors.Is(err, ErrWidthChanged) {
		t.Errorf("error = %v, want ErrWidthChanged", err)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	a := New(Config{})
	cfg := a.Config()
	def := DefaultConfig()
	if cfg != def {
		t.Errorf("config = %+v, want defaults %+v", cfg, def)
	}
}
