package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Session lifecycle events
	EventTypeSessionStarted   EventType = "session.started"
	EventTypeSessionFinalized EventType = "session.finalized"
	EventTypeSessionAborted   EventType = "session.aborted"
	EventTypeSessionStalled   EventType = "session.stalled"

	// Frame pipeline events
	EventTypeFrameCaptured  EventType = "frame.captured"
	EventTypeFrameAdvanced  EventType = "frame.advanced"
	EventTypeFrameDuplicate EventType = "frame.duplicate"
	EventTypeFrameNoOverlap EventType = "frame.no_overlap"

	// Warning and error events
	EventTypeConfigWarning EventType = "config.warning"
	EventTypeError         EventType = "error"
)

// AllEventTypes lists every event type the bus can carry, for
// subscribers that want the full stream.
var AllEventTypes = []EventType{
	EventTypeSessionStarted,
	EventTypeSessionFinalized,
	EventTypeSessionAborted,
	EventTypeSessionStalled,
	EventTypeFrameCaptured,
	EventTypeFrameAdvanced,
	EventTypeFrameDuplicate,
	EventTypeFrameNoOverlap,
	EventTypeConfigWarning,
	EventTypeError,
}

// Event represents a system event with metadata
type Event struct {
	Type      EventType
	Source    string // component that emitted the event
	Timestamp time.Time
	Data      map[string]interface{}
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID
	SubscribeAll(handler EventHandler) []SubscriptionID
	Unsubscribe(id SubscriptionID)
	Publish(event Event)
	Stop()
}

// Helper constructors for common events

// NewSessionStartedEvent creates a session started event
func NewSessionStartedEvent(sessionID string, region string, overlap int) Event {
	return Event{
		Type:      EventTypeSessionStarted,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"region":     region,
			"overlap":    overlap,
		},
	}
}

// NewSessionFinalizedEvent creates a session finalized event
func NewSessionFinalizedEvent(sessionID, outcome string, width, height, accepted int) Event {
	return Event{
		Type:      EventTypeSessionFinalized,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id":      sessionID,
			"outcome":         outcome,
			"width":           width,
			"height":          height,
			"frames_accepted": accepted,
		},
	}
}

// NewFrameCapturedEvent creates a frame captured event
func NewFrameCapturedEvent(sessionID string, index, width, height int) Event {
	return Event{
		Type:      EventTypeFrameCaptured,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"index":      index,
			"width":      width,
			"height":     height,
		},
	}
}

// NewFrameAlignedEvent creates an advance, duplicate or no-overlap
// event for one aligned frame pair.
func NewFrameAlignedEvent(eventType EventType, sessionID string, index, offset int, confidence float64) Event {
	return Event{
		Type:      eventType,
		Source:    "aligner",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"index":      index,
			"offset":     offset,
			"confidence": confidence,
		},
	}
}

// NewSessionAbortedEvent creates a session aborted event
func NewSessionAbortedEvent(sessionID string, err error, framesAccepted int) Event {
	return Event{
		Type:      EventTypeSessionAborted,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id":      sessionID,
			"error":           err.Error(),
			"frames_accepted": framesAccepted,
		},
	}
}

// NewSessionStalledEvent creates a stall event
func NewSessionStalledEvent(sessionID string, duplicates int) Event {
	return Event{
		Type:      EventTypeSessionStalled,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"duplicates": duplicates,
		},
	}
}

// NewConfigWarningEvent creates a configuration warning event
func NewConfigWarningEvent(sessionID, message string) Event {
	return Event{
		Type:      EventTypeConfigWarning,
		Source:    "session",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"message":    message,
		},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source, sessionID string, err error) Event {
	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		},
	}
}
