// Package analytics records pipeline events as structured log records.
package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Logger is a domain.EventLogger writing one slog record per event.
type Logger struct {
	log *slog.Logger
}

// NewLogger creates an event logger on top of base.
func NewLogger(base *slog.Logger) *Logger {
	if base == nil {
		base = slog.Default()
	}
	return &Logger{log: base.With("component", "analytics")}
}

// LogEvent implements domain.EventLogger.
func (l *Logger) LogEvent(ctx context.Context, name string, fields map[string]any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys)+1)
	attrs = append(attrs, slog.String("event", name))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	l.log.LogAttrs(ctx, slog.LevelInfo, "analytics event", attrs...)
}

// Event is one recorded analytics event.
type Event struct {
	Name   string
	Fields map[string]any
}

// Recorder keeps events in memory. The CLI uses it to report what the
// pipeline did; tests use it to assert on emitted events.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	next   *Logger
}

// NewRecorder creates a recorder that also forwards to next when set.
func NewRecorder(next *Logger) *Recorder {
	return &Recorder{next: next}
}

// LogEvent implements domain.EventLogger.
func (r *Recorder) LogEvent(ctx context.Context, name string, fields map[string]any) {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	r.mu.Lock()
	r.events = append(r.events, Event{Name: name, Fields: copied})
	r.mu.Unlock()

	if r.next != nil {
		r.next.LogEvent(ctx, name, fields)
	}
}

// Events returns a snapshot of recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events named name were recorded.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}
