package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"scrollcap.dev/scrollcap/internal/align"
	"scrollcap.dev/scrollcap/internal/events"
	"scrollcap.dev/scrollcap/internal/frame"
	"scrollcap.dev/scrollcap/internal/logging"
	"scrollcap.dev/scrollcap/internal/stitch"
)

// State represents the current phase of a capture session
type State string

const (
	StateIdle       State = "idle"
	StatePriming    State = "priming"
	StateCapturing  State = "capturing"
	StateFinalizing State = "finalizing"
	StateDone       State = "done"
	StateAborted    State = "aborted"
)

// Config holds all session settings, validated once at creation.
type Config struct {
	// Region crops every incoming frame; nil keeps full frames.
	Region *frame.CropRegion

	// Align holds the overlap search tunables.
	Align align.Config

	// ScrollKey names the key issued per scroll step (space, down,
	// pagedown).
	ScrollKey string

	// StartDelay runs once before the first frame, giving the user
	// time to focus the target window.
	StartDelay time.Duration

	// SettleDelay runs after each scroll step, before the next
	// capture, so the content has finished moving.
	SettleDelay time.Duration

	// MaxScrolls bounds the number of scroll steps; 0 is unlimited.
	MaxScrolls int

	// MaxDuration bounds the whole capturing phase; 0 is unlimited.
	MaxDuration time.Duration

	// StallRetryLimit is the number of consecutive duplicate frames
	// tolerated before the session is considered stalled.
	StallRetryLimit int
}

// DefaultConfig mirrors the defaults of the original tool: 125px
// overlap window, space key, 3s start delay, 200ms settle delay.
func DefaultConfig() Config {
	return Config{
		Align:           align.DefaultConfig(),
		ScrollKey:       "space",
		StartDelay:      3 * time.Second,
		SettleDelay:     200 * time.Millisecond,
		StallRetryLimit: 3,
	}
}

// Session drives one capture: it pulls frames from the source, issues
// scroll steps, aligns consecutive frames and accumulates the output
// canvas. One session per invocation; the session is the sole writer of
// its own state.
type Session struct {
	id     string
	cfg    Config
	source FrameSource
	driver ScrollDriver

	bus    events.EventBus
	logger *logging.Logger

	aligner *align.Aligner
	canvas  *stitch.Canvas
	prev    *frame.Frame

	state   State
	stateMu sync.RWMutex

	framesCaptured int
	framesAccepted int
	offsets        []int
}

// NewSession creates a capture session over the given source and driver.
func NewSession(cfg Config, source FrameSource, driver ScrollDriver) *Session {
	if cfg.ScrollKey == "" {
		cfg.ScrollKey = "space"
	}
	if cfg.StallRetryLimit <= 0 {
		cfg.StallRetryLimit = 3
	}
	if driver == nil {
		driver = NopScrollDriver{}
	}

	s := &Session{
		id:      uuid.New().String(),
		cfg:     cfg,
		source:  source,
		driver:  driver,
		logger:  logging.NewLogger("Session"),
		aligner: align.New(cfg.Align),
		state:   StateIdle,
	}
	s.aligner.WarnFunc = s.configWarning
	return s
}

// WithEventBus attaches an event bus the session publishes to.
func (s *Session) WithEventBus(bus events.EventBus) *Session {
	s.bus = bus
	return s
}

// WithLogger replaces the session logger.
func (s *Session) WithLogger(logger *logging.Logger) *Session {
	s.logger = logger
	return s
}

// ID returns the session UUID.
func (s *Session) ID() string { return s.id }

// State returns the current session state.
func (s *Session) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

// Run executes the capture loop until a termination condition is met.
// Cancelling ctx inside the capturing phase finalizes with whatever has
// been accumulated; partial output is always preferable to none. A
// non-nil Result is returned alongside the error whenever at least one
// frame was accepted.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	if s.cfg.Region != nil {
		if s.cfg.Region.Width <= 0 || s.cfg.Region.Height <= 0 {
			return nil, fmt.Errorf("%w: width and height must be positive", frame.ErrInvalidRegion)
		}
	}

	s.setState(StatePriming)
	s.publish(events.NewSessionStartedEvent(s.id, s.regionString(), s.aligner.Config().OverlapPixels))
	s.logger.InfoWithContext("capture session starting", map[string]interface{}{
		"session_id": s.id,
		"region":     s.regionString(),
	})

	if !sleepCtx(ctx, s.cfg.StartDelay) {
		return nil, ctx.Err()
	}

	first, err := s.source.NextFrame(ctx)
	if err != nil {
		return s.abort(start, fmt.Errorf("capturing first frame: %w", err))
	}
	s.framesCaptured++

	cropped, err := s.applyRegion(first)
	if err != nil {
		// Bad geometry before anything was accepted is fatal.
		return s.abort(start, err)
	}
	s.canvas = stitch.NewCanvas(cropped)
	s.prev = cropped
	s.framesAccepted = 1
	s.publish(events.NewFrameCapturedEvent(s.id, cropped.Index(), cropped.Width(), cropped.Height()))

	s.setState(StateCapturing)

	var deadline time.Time
	if s.cfg.MaxDuration > 0 {
		deadline = start.Add(s.cfg.MaxDuration)
	}

	scrolls := 0
	duplicateRun := 0
	for {
		if ctx.Err() != nil {
			return s.finalize(start, OutcomeStopped), nil
		}
		if s.cfg.MaxScrolls > 0 && scrolls >= s.cfg.MaxScrolls {
			return s.finalize(start, OutcomeCompleted), nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return s.finalize(start, OutcomeCompleted), nil
		}

		if err := s.driver.Step(ctx, s.cfg.ScrollKey); err != nil {
			return s.abort(start, fmt.Errorf("scroll step: %w", err))
		}
		scrolls++

		// The settle delay is what orders the scroll before the next
		// capture; there is no other synchronization with the driver.
		if !sleepCtx(ctx, s.cfg.SettleDelay) {
			return s.finalize(start, OutcomeStopped), nil
		}

		next, err := s.source.NextFrame(ctx)
		if errors.Is(err, ErrEndOfInput) {
			return s.finalize(start, OutcomeEndOfContent), nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return s.finalize(start, OutcomeStopped), nil
			}
			return s.abort(start, fmt.Errorf("capturing frame %d: %w", s.framesCaptured, err))
		}
		s.framesCaptured++

		cropped, err := s.applyRegion(next)
		if err != nil {
			return s.abort(start, err)
		}
		s.publish(events.NewFrameCapturedEvent(s.id, cropped.Index(), cropped.Width(), cropped.Height()))

		res, err := s.aligner.Align(s.prev, cropped)
		if err != nil {
			return s.abort(start, err)
		}

		switch res.Classification {
		case align.Advance:
			if err := s.canvas.Append(cropped, res.Offset); err != nil {
				return s.abort(start, err)
			}
			s.prev = cropped
			s.framesAccepted++
			s.offsets = append(s.offsets, res.Offset)
			duplicateRun = 0
			s.publish(events.NewFrameAlignedEvent(events.EventTypeFrameAdvanced,
				s.id, cropped.Index(), res.Offset, res.Confidence))
			s.logger.DebugWithContext("frame advanced", map[string]interface{}{
				"offset":     res.Offset,
				"confidence": res.Confidence,
			})

		case align.Duplicate:
			duplicateRun++
			s.publish(events.NewFrameAlignedEvent(events.EventTypeFrameDuplicate,
				s.id, cropped.Index(), 0, res.Confidence))
			if duplicateRun > s.cfg.StallRetryLimit {
				s.publish(events.NewSessionStalledEvent(s.id, duplicateRun))
				s.logger.Warn(fmt.Sprintf("stalled after %d duplicate frames", duplicateRun))
				return s.finalize(start, OutcomeStalled), nil
			}

		case align.NoOverlap:
			s.publish(events.NewFrameAlignedEvent(events.EventTypeFrameNoOverlap,
				s.id, cropped.Index(), 0, res.Confidence))
			return s.finalize(start, OutcomeEndOfContent), nil
		}
	}
}

// applyRegion crops a frame to the configured region, or normalizes it
// untouched when no region is set.
func (s *Session) applyRegion(f *frame.Frame) (*frame.Frame, error) {
	if s.cfg.Region == nil {
		return f, nil
	}
	return frame.Crop(f, *s.cfg.Region)
}

func (s *Session) finalize(start time.Time, outcome Outcome) *Result {
	s.setState(StateFinalizing)
	img := s.canvas.Finalize()
	s.setState(StateDone)

	s.publish(events.NewSessionFinalizedEvent(s.id, string(outcome),
		img.Bounds().Dx(), img.Bounds().Dy(), s.framesAccepted))
	s.logger.InfoWithContext("capture session finalized", map[string]interface{}{
		"outcome": string(outcome),
		"width":   img.Bounds().Dx(),
		"height":  img.Bounds().Dy(),
	})

	return &Result{
		SessionID:      s.id,
		Image:          img,
		Outcome:        outcome,
		FramesCaptured: s.framesCaptured,
		FramesAccepted: s.framesAccepted,
		Offsets:        s.offsets,
		Duration:       time.Since(start),
	}
}

// abort handles unrecoverable failures. The partial canvas is preserved
// whenever at least one frame was accepted.
func (s *Session) abort(start time.Time, err error) (*Result, error) {
	s.setState(StateAborted)
	s.publish(events.NewErrorEvent("session", s.id, err))
	s.publish(events.NewSessionAbortedEvent(s.id, err, s.framesAccepted))
	s.logger.Error("capture session aborted", err)

	if s.canvas == nil || s.framesAccepted == 0 {
		return nil, err
	}

	img := s.canvas.Finalize()
	return &Result{
		SessionID:      s.id,
		Image:          img,
		Outcome:        OutcomeAborted,
		FramesCaptured: s.framesCaptured,
		FramesAccepted: s.framesAccepted,
		Offsets:        s.offsets,
		Duration:       time.Since(start),
		Err:            err,
	}, err
}

func (s *Session) configWarning(msg string) {
	s.publish(events.NewConfigWarningEvent(s.id, msg))
	s.logger.Warn(msg)
}

func (s *Session) publish(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}

func (s *Session) regionString() string {
	if s.cfg.Region == nil {
		return "full"
	}
	return s.cfg.Region.String()
}

// sleepCtx sleeps for d unless ctx is cancelled first. Reports whether
// the full delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
