package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
)

// SyncOutcome is the result of pushing one sku to its sites
type SyncOutcome struct {
	SKU            string              `json:"sku"`
	Results        []shared.SiteResult `json:"results"`
	FullySucceeded bool                `json:"fully_succeeded"`
}

func newSyncOutcome(sku string, results []shared.SiteResult) SyncOutcome {
	return SyncOutcome{SKU: sku, Results: results, FullySucceeded: shared.AllSucceeded(results)}
}

// PulledProduct describes what a pull read from the site
type PulledProduct struct {
	RemoteID   int64  `json:"remote_id"`
	Type       string `json:"type,omitempty"`
	Variations int    `json:"variations"`
}

// PullOutcome is the result of pulling one sku from one site
type PullOutcome struct {
	SKU    string                       `json:"sku"`
	Result shared.Result[PulledProduct] `json:"result"`
}

// PullMode selects what a batch pull refreshes
type PullMode string

const (
	// PullModeVariants refreshes only the variation snapshots
	PullModeVariants PullMode = "variants"
	// PullModeFull refreshes every per-site field
	PullModeFull PullMode = "full"
)

// ParsePullMode defaults an empty mode to variants
func ParsePullMode(raw string) (PullMode, error) {
	switch PullMode(raw) {
	case "", PullModeVariants:
		return PullModeVariants, nil
	case PullModeFull:
		return PullModeFull, nil
	}
	return "", ErrInvalidPullMode
}

// DeleteResult is the result of deleting a product from its sites
type DeleteResult struct {
	SKU          string              `json:"sku"`
	Results      []shared.SiteResult `json:"results"`
	LocalDeleted bool                `json:"local_deleted"`
}

// ProductDraft describes a new product to publish.
// Per-site maps override the shared values for that site.
type ProductDraft struct {
	Name             string
	Description      string
	ShortDescription string
	Images           []string
	Categories       []string
	Attributes       catalog.Attributes

	Price         decimal.Decimal
	RegularPrice  decimal.Decimal
	StockQuantity *int
	Status        catalog.PublishStatus

	SitePrices        map[shared.SiteCode]decimal.Decimal
	SiteRegularPrices map[shared.SiteCode]decimal.Decimal
	SiteContent       map[shared.SiteCode]catalog.Content
}

// PublishResult is the result of publishing a new product
type PublishResult struct {
	SKU       string                    `json:"sku"`
	RemoteIDs map[shared.SiteCode]int64 `json:"remote_ids"`
	Results   []shared.SiteResult       `json:"results"`
}

// RebuildResult is the result of recreating the variants of a product on one site
type RebuildResult struct {
	SKU      string          `json:"sku"`
	Site     shared.SiteCode `json:"site"`
	Deleted  int             `json:"deleted"`
	Created  int             `json:"created"`
	Warnings []string        `json:"warnings,omitempty"`
}

// PingResult is the outcome of a connection test
type PingResult struct {
	Site      shared.SiteCode  `json:"site"`
	Reachable bool             `json:"reachable"`
	LatencyMS int64            `json:"latency_ms"`
	ErrorKind shared.ErrorKind `json:"error_kind,omitempty"`
	Error     string           `json:"error,omitempty"`
	CheckedAt time.Time        `json:"checked_at"`
}

// ProgressResponse is the operator view of a full pull
type ProgressResponse struct {
	ID        string     `json:"id"`
	Site      string     `json:"site"`
	Status    string     `json:"status"`
	Total     int        `json:"total"`
	Current   int        `json:"current"`
	Success   int        `json:"success"`
	Failed    int        `json:"failed"`
	Skipped   int        `json:"skipped"`
	Message   string     `json:"message"`
	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// ToProgressResponse converts a progress row
func ToProgressResponse(p *catalog.SyncProgress) ProgressResponse {
	return ProgressResponse{
		ID:        p.ID.String(),
		Site:      p.Site.String(),
		Status:    string(p.Status),
		Total:     p.Total,
		Current:   p.Current,
		Success:   p.Success,
		Failed:    p.Failed,
		Skipped:   p.Skipped,
		Message:   p.Message,
		StartedAt: p.StartedAt,
		UpdatedAt: p.UpdatedAt,
		EndedAt:   p.EndedAt,
	}
}
