// Package event ships sync outcome events to downstream consumers.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
)

type subscription struct {
	publisher integration.EventPublisher
	types     map[integration.SyncEventType]bool
}

func (s subscription) wants(t integration.SyncEventType) bool {
	return len(s.types) == 0 || s.types[t]
}

// Bus fans events out to every subscribed publisher
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *zap.Logger
}

// NewBus creates an empty bus
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe routes the given event types to p. No types means every event.
func (b *Bus) Subscribe(p integration.EventPublisher, types ...integration.SyncEventType) {
	sub := subscription{publisher: p, types: make(map[integration.SyncEventType]bool, len(types))}
	for _, t := range types {
		sub.types[t] = true
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
}

// Publish hands each publisher the events it subscribed to.
// A failing or panicking publisher does not stop the others.
func (b *Bus) Publish(ctx context.Context, events ...integration.SyncEvent) error {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		batch := make([]integration.SyncEvent, 0, len(events))
		for _, e := range events {
			if sub.wants(e.Type) {
				batch = append(batch, e)
			}
		}
		if len(batch) == 0 {
			continue
		}
		if err := b.dispatch(ctx, sub.publisher, batch); err != nil {
			b.logger.Warn("Sync event publish failed",
				zap.Int("events", len(batch)),
				zap.String("first_type", string(batch[0].Type)),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) dispatch(ctx context.Context, p integration.EventPublisher, events []integration.SyncEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event: publisher panicked: %v", r)
		}
	}()
	return p.Publish(ctx, events...)
}

// Close closes every subscribed publisher
func (b *Bus) Close() error {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ integration.EventPublisher = (*Bus)(nil)
