package order

import "github.com/shopsync/backend/internal/domain/shared"

var (
	ErrOrderNotFound        = shared.NewDomainError("NOT_FOUND", "order not found")
	ErrOrderInvalidSite     = shared.NewDomainError("INVALID_SITE", "order site is invalid")
	ErrOrderInvalidRemoteID = shared.NewDomainError("INVALID_ORDER_ID", "order remote id must be positive")
	ErrOrderInvalidStatus   = shared.NewDomainError("INVALID_STATUS", "unknown order status")
	ErrOrderEmptyNote       = shared.NewDomainError("INVALID_NOTE", "note must not be empty")
)
