package catalog

import (
	"github.com/shopsync/backend/internal/domain/shared"
)

var (
	ErrRebuildNotConfirmed = shared.NewDomainError("CONFIRMATION_REQUIRED", "variant rebuild deletes every variant of the product; resend with confirm=true")
	ErrFullPullRunning     = shared.NewDomainError("CONFLICT", "a full pull is already running for this site")
	ErrInvalidPullMode     = shared.NewDomainError("INVALID_MODE", "pull mode must be 'variants' or 'full'")
	ErrDraftNameRequired   = shared.NewDomainError("INVALID_DRAFT", "product name is required")
	ErrNoSKUs              = shared.NewDomainError("INVALID_SKUS", "at least one sku is required")
)

// storeError marks a canonical store failure that happened after the remote
// side already succeeded
type storeError struct {
	err error
}

func (e *storeError) Error() string          { return "store: " + e.err.Error() }
func (e *storeError) Unwrap() error          { return e.err }
func (e *storeError) Kind() shared.ErrorKind { return shared.ErrorKindStore }

func asStoreError(err error) error {
	if err == nil {
		return nil
	}
	return &storeError{err: err}
}
