package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"scrollcap.dev/scrollcap/internal/events"
)

// EventLogger subscribes to the event bus and writes every event to a
// per-run log file.
type EventLogger struct {
	logger   *Logger
	eventBus events.EventBus
	subIDs   []events.SubscriptionID
	logFile  *os.File
}

// NewEventLogger creates an event logger writing under logDir.
func NewEventLogger(eventBus events.EventBus, logDir string) (*EventLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("capture_%s.log", timestamp))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := NewLogger("EventLogger").SetOutput(logFile)

	el := &EventLogger{
		logger:   logger,
		eventBus: eventBus,
		logFile:  logFile,
	}
	el.subIDs = eventBus.SubscribeAll(el.handleEvent)

	return el, nil
}

// Path returns the log file path.
func (el *EventLogger) Path() string {
	return el.logFile.Name()
}

// Close unsubscribes and closes the log file.
func (el *EventLogger) Close() error {
	for _, id := range el.subIDs {
		el.eventBus.Unsubscribe(id)
	}
	return el.logFile.Close()
}

func (el *EventLogger) handleEvent(event events.Event) {
	msg := string(event.Type)
	if len(event.Data) > 0 {
		keys := make([]string, 0, len(event.Data))
		for k := range event.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg += fmt.Sprintf(" %s=%v", k, event.Data[k])
		}
	}

	switch event.Type {
	case events.EventTypeError, events.EventTypeSessionAborted:
		el.logger.Error(msg, nil)
	case events.EventTypeConfigWarning, events.EventTypeSessionStalled:
		el.logger.Warn(msg)
	default:
		el.logger.Info(msg)
	}
}
