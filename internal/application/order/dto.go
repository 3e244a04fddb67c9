package order

import (
	"time"

	"github.com/shopsync/backend/internal/domain/shared"
)

// SweepOptions filters one site sweep
type SweepOptions struct {
	// Status defaults to "any"
	Status string `json:"status,omitempty"`
	// After limits the sweep to orders created after the instant
	After *time.Time `json:"after,omitempty"`
	// ModifiedAfter limits the sweep to orders modified after the instant.
	// The scheduler uses it for incremental sweeps.
	ModifiedAfter *time.Time `json:"modified_after,omitempty"`
	PerPage       int        `json:"per_page,omitempty"`
}

// SweepReport counts what one site sweep did
type SweepReport struct {
	Site          shared.SiteCode `json:"site"`
	Fetched       int             `json:"fetched"`
	Applied       int             `json:"applied"`
	Failed        int             `json:"failed"`
	Batches       int             `json:"batches"`
	FailedBatches int             `json:"failed_batches"`
	Pages         int             `json:"pages"`
	Truncated     bool            `json:"truncated"`
	// FetchError is set when the listing broke off; the orders read
	// before it were still ingested
	FetchError string `json:"fetch_error,omitempty"`
}

// SyncOrdersRequest sweeps one site, or every configured site when Site is empty
type SyncOrdersRequest struct {
	Site          shared.SiteCode `json:"site,omitempty" binding:"omitempty,sitecode"`
	Status        string          `json:"status,omitempty"`
	After         *time.Time      `json:"after,omitempty"`
	ModifiedAfter *time.Time      `json:"modified_after,omitempty"`
	PerPage       int             `json:"per_page,omitempty" binding:"omitempty,min=1,max=100"`
}

// SyncOrdersResult holds one result per swept site
type SyncOrdersResult struct {
	Results map[shared.SiteCode]shared.Result[SweepReport] `json:"results"`
}

// AllSucceeded reports whether every site sweep succeeded
func (r SyncOrdersResult) AllSucceeded() bool {
	if len(r.Results) == 0 {
		return false
	}
	for _, res := range r.Results {
		if !res.IsOk() {
			return false
		}
	}
	return true
}

// StatusUpdate is the outcome of an order status change
type StatusUpdate struct {
	Site     shared.SiteCode `json:"site"`
	RemoteID int64           `json:"order_id"`
	Status   string          `json:"status"`
	// Warning is set when the storefront accepted the change but the
	// canonical store could not record it
	Warning string `json:"warning,omitempty"`
}

// NoteAdded is the outcome of an order note append
type NoteAdded struct {
	Site     shared.SiteCode `json:"site"`
	RemoteID int64           `json:"order_id"`
	NoteID   int64           `json:"note_id"`
	Warning  string          `json:"warning,omitempty"`
}
