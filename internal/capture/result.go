package capture

import (
	"image"
	"time"
)

// Outcome annotates how a session ended. It travels as returned
// metadata, never embedded in pixels.
type Outcome string

const (
	// OutcomeCompleted - the configured scroll or duration budget was
	// reached
	OutcomeCompleted Outcome = "completed"
	// OutcomeEndOfContent - scrolling produced no further overlapping
	// content, or the source ran out of frames
	OutcomeEndOfContent Outcome = "end_of_content"
	// OutcomeStalled - repeated duplicate frames past the retry limit
	OutcomeStalled Outcome = "stalled"
	// OutcomeStopped - the session was cancelled externally
	OutcomeStopped Outcome = "stopped"
	// OutcomeAborted - an unrecoverable error; Image holds the partial
	// canvas
	OutcomeAborted Outcome = "aborted"
)

// Result is the finalized output of one capture session.
type Result struct {
	SessionID      string
	Image          *image.RGBA
	Outcome        Outcome
	FramesCaptured int
	FramesAccepted int
	Offsets        []int // accepted advance offsets, in order
	Duration       time.Duration
	Err            error // set only for OutcomeAborted
}
