// Package events provides the fire-and-forget telemetry sink. Emission
// failures are logged and swallowed; nothing in this package is allowed to
// surface an error into a coaching turn.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one telemetry emission: a name plus an arbitrary property bag.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Props     map[string]any `json:"props,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(name string, props map[string]any) Event {
	return Event{
		ID:        uuid.New().String(),
		Name:      name,
		Props:     props,
		Timestamp: time.Now(),
	}
}

// Sink accepts telemetry events. Implementations may fail; callers go
// through Emit, which guarantees failures never propagate.
type Sink interface {
	Track(event Event) error
}

// Emit sends an event to the sink, logging and swallowing any failure. A nil
// sink is a no-op.
func Emit(sink Sink, logger *slog.Logger, event Event) {
	if sink == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := sink.Track(event); err != nil {
		logger.Warn("telemetry emission failed",
			"event", event.Name, "error", err)
	}
}

// LoggingSink writes events to a structured logger. Useful as the default
// sink in development and as the fallback when no external sink is wired.
type LoggingSink struct {
	Logger *slog.Logger
}

// Track logs the event at debug level.
func (s *LoggingSink) Track(event Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("telemetry", "event", event.Name, "props", event.Props)
	return nil
}

// NopSink drops every event.
type NopSink struct{}

// Track discards the event.
func (NopSink) Track(Event) error { return nil }

// MemorySink records events for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event

	// Err, when set, is returned by every Track call.
	Err error
}

// Track records the event, or fails when Err is set.
func (s *MemorySink) Track(event Event) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
