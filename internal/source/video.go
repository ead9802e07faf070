package source

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"scrollcap.dev/scrollcap/internal/frame"
	"scrollcap.dev/scrollcap/internal/logging"
)

// VideoRecorder records the screen with ffmpeg for a fixed duration and
// extracts frames afterwards, yielding the same pipeline input as live
// capture.
type VideoRecorder struct {
	ffmpegPath string
	workDir    string
	region     *frame.CropRegion
	logger     *logging.Logger
}

// NewVideoRecorder creates a recorder working under a temp directory.
// region, when set, is applied by ffmpeg at record time; the cropped
// frames then pass through the pipeline uncropped.
func NewVideoRecorder(region *frame.CropRegion) (*VideoRecorder, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	workDir, err := os.MkdirTemp("", "scrollcap-video-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	return &VideoRecorder{
		ffmpegPath: ffmpegPath,
		workDir:    workDir,
		region:     region,
		logger:     logging.NewLogger("VideoRecorder"),
	}, nil
}

func (r *VideoRecorder) videoFile() string {
	return filepath.Join(r.workDir, "recording.mp4")
}

// Record captures the screen for the given duration. Cancelling ctx
// stops the recording early; frames captured up to that point remain
// usable.
func (r *VideoRecorder) Record(ctx context.Context, duration time.Duration) error {
	args := r.grabArgs()
	args = append(args,
		"-t", strconv.Itoa(int(duration.Seconds())),
		"-y", r.videoFile(),
	)

	r.logger.InfoWithContext("recording screen", map[string]interface{}{
		"duration": duration.String(),
		"file":     r.videoFile(),
	})

	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)
	if err := cmd.Run(); err != nil {
		// A cancelled recording still produced usable footage.
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("ffmpeg recording failed: %w", err)
	}
	return nil
}

// grabArgs builds the platform screen-grab input arguments.
func (r *VideoRecorder) grabArgs() []string {
	switch runtime.GOOS {
	case "darwin":
		args := []string{"-f", "avfoundation", "-framerate", "30", "-i", "1:none"}
		if r.region != nil {
			args = append(args, "-vf", fmt.Sprintf("crop=%d:%d:%d:%d",
				r.region.Width, r.region.Height, r.region.X, r.region.Y))
		}
		return args
	case "windows":
		args := []string{"-f", "gdigrab", "-framerate", "30"}
		if r.region != nil {
			args = append(args,
				"-offset_x", strconv.Itoa(r.region.X),
				"-offset_y", strconv.Itoa(r.region.Y),
				"-video_size", fmt.Sprintf("%dx%d", r.region.Width, r.region.Height))
		}
		return append(args, "-i", "desktop")
	default:
		display := os.Getenv("DISPLAY")
		if display == "" {
			display = ":0"
		}
		args := []string{"-f", "x11grab", "-framerate", "30"}
		if r.region != nil {
			args = append(args,
				"-video_size", fmt.Sprintf("%dx%d", r.region.Width, r.region.Height))
			display = fmt.Sprintf("%s+%d,%d", display, r.region.X, r.region.Y)
		}
		return append(args, "-i", display)
	}
}

// ExtractFrames samples the recording at the given fps and returns a
// DirSource over the extracted frames.
func (r *VideoRecorder) ExtractFrames(ctx context.Context, fps int) (*DirSource, error) {
	framesDir := filepath.Join(r.workDir, "frames")
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frames directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, r.ffmpegPath,
		"-i", r.videoFile(),
		"-vf", fmt.Sprintf("fps=%d", fps),
		filepath.Join(framesDir, "frame_%04d.png"),
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("frame extraction failed: %w, output: %s", err, output)
	}

	src, err := NewDirSource(framesDir)
	if err != nil {
		return nil, err
	}
	r.logger.InfoWithContext("frames extracted", map[string]interface{}{
		"count": src.Len(),
		"fps":   fps,
	})
	return src, nil
}

// Cleanup removes the recording and extracted frames.
func (r *VideoRecorder) Cleanup() error {
	return os.RemoveAll(r.workDir)
}
