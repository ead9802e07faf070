// Package imgio encodes finalized capture images. The stitching core
// itself performs no file I/O; callers hand it the output path.
package imgio

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Formats lists the supported output formats.
var Formats = []string{"png", "jpg", "jpeg", "gif", "bmp", "tiff", "tif"}

// ValidateFormat checks an output format name.
func ValidateFormat(format string) error {
	f := strings.ToLower(format)
	for _, known := range Formats {
		if f == known {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

// BuildOutputPath joins a base name and format into a file path. A name
// that already carries the extension is kept as-is.
func BuildOutputPath(name, format string) string {
	ext := "." + strings.ToLower(format)
	if strings.HasSuffix(strings.ToLower(name), ext) {
		return name
	}
	return name + ext
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case "gif":
		return gif.Encode(w, img, nil)
	case "bmp":
		return bmp.Encode(w, img)
	case "tiff", "tif":
		return tiff.Encode(w, img, nil)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// Save encodes img to path, deriving the format from the extension of
// path.
func Save(path string, img image.Image) error {
	dot := strings.LastIndex(path, ".")
	if dot < 0 || dot == len(path)-1 {
		return fmt.Errorf("output path %q has no format extension", path)
	}
	format := path[dot+1:]
	if err := ValidateFormat(format); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := Encode(file, img, format); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}
