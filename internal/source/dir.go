package source

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scrollcap.dev/scrollcap/internal/capture"
	"scrollcap.dev/scrollcap/internal/frame"
)

// DirSource replays pre-extracted frames from a directory, in filename
// order. Used for video mode and for offline stitching.
type DirSource struct {
	paths []string
	index int
}

// NewDirSource lists the png/jpeg files under dir.
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames found in %s", dir)
	}
	return &DirSource{paths: paths}, nil
}

// Len returns the number of frames the source will produce.
func (s *DirSource) Len() int { return len(s.paths) }

// NextFrame decodes the next frame file, ErrEndOfInput once exhausted.
func (s *DirSource) NextFrame(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.index >= len(s.paths) {
		return nil, capture.ErrEndOfInput
	}

	path := s.paths[s.index]
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}

	f := frame.FromImage(img, s.index)
	s.index++
	return f, nil
}
