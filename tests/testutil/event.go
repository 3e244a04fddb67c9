package testutil

import (
	"context"
	"sync"

	"github.com/shopsync/backend/internal/domain/integration"
)

// RecordingPublisher is an integration.EventPublisher that keeps every event
// it receives.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []integration.SyncEvent
	err    error
	closed bool
}

var _ integration.EventPublisher = (*RecordingPublisher)(nil)

// NewRecordingPublisher creates an empty publisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{events: make([]integration.SyncEvent, 0)}
}

// Publish records the events and returns the configured error.
func (p *RecordingPublisher) Publish(_ context.Context, events ...integration.SyncEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

// Close marks the publisher closed.
func (p *RecordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *RecordingPublisher) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Events returns a copy of the recorded events.
func (p *RecordingPublisher) Events() []integration.SyncEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]integration.SyncEvent, len(p.events))
	copy(out, p.events)
	return out
}

// EventsOfType returns the recorded events of one type.
func (p *RecordingPublisher) EventsOfType(t integration.SyncEventType) []integration.SyncEvent {
	var out []integration.SyncEvent
	for _, e := range p.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of recorded events.
func (p *RecordingPublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// SetError sets the error returned from Publish.
func (p *RecordingPublisher) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Reset clears recorded events and the configured error.
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = make([]integration.SyncEvent, 0)
	p.err = nil
}
