package integration

import (
	"context"
	"time"

	"github.com/shopsync/backend/internal/domain/shared"
)

// SyncEventType names a sync outcome event
type SyncEventType string

const (
	EventProductSynced   SyncEventType = "product.synced"
	EventProductPulled   SyncEventType = "product.pulled"
	EventProductDeleted  SyncEventType = "product.deleted"
	EventProductCreated  SyncEventType = "product.published"
	EventOrdersIngested  SyncEventType = "orders.ingested"
	EventFullPullDone    SyncEventType = "catalog.full_pull_finished"
	EventVariantsRebuilt SyncEventType = "product.variants_rebuilt"
)

// SyncEvent reports the outcome of one operation
type SyncEvent struct {
	Type       SyncEventType       `json:"type"`
	SKU        string              `json:"sku,omitempty"`
	Site       shared.SiteCode     `json:"site,omitempty"`
	Results    []shared.SiteResult `json:"results,omitempty"`
	Attributes map[string]any      `json:"attributes,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// NewSyncEvent stamps an event with the current time
func NewSyncEvent(t SyncEventType, sku string, site shared.SiteCode) SyncEvent {
	return SyncEvent{Type: t, SKU: sku, Site: site, OccurredAt: time.Now().UTC()}
}

// Key returns the partition key: the sku, else the site
func (e SyncEvent) Key() string {
	if e.SKU != "" {
		return e.SKU
	}
	return string(e.Site)
}

// EventPublisher ships sync events to downstream consumers.
// Publishing is best effort; callers log and continue on error.
type EventPublisher interface {
	Publish(ctx context.Context, events ...SyncEvent) error
	Close() error
}
