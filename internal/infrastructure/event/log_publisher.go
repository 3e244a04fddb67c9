package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/shopsync/backend/internal/domain/integration"
)

// LogPublisher writes a one-line summary of every event to the log.
// It is the only publisher when kafka is disabled.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a log publisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

// Publish logs each event
func (p *LogPublisher) Publish(_ context.Context, events ...integration.SyncEvent) error {
	for _, e := range events {
		failed := 0
		for _, r := range e.Results {
			if !r.Success() {
				failed++
			}
		}
		p.logger.Info("Sync event",
			zap.String("type", string(e.Type)),
			zap.String("sku", e.SKU),
			zap.String("site", e.Site.String()),
			zap.Int("sites", len(e.Results)),
			zap.Int("failed_sites", failed),
			zap.Any("attributes", e.Attributes),
		)
	}
	return nil
}

// Close is a no-op
func (p *LogPublisher) Close() error { return nil }

var _ integration.EventPublisher = (*LogPublisher)(nil)
