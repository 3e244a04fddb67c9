package integration

import (
	"fmt"

	"github.com/shopsync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Storefront errors
// ---------------------------------------------------------------------------

// StoreError is a sentinel storefront error that knows its ErrorKind
type StoreError struct {
	msg  string
	kind shared.ErrorKind
}

func newStoreError(msg string, kind shared.ErrorKind) *StoreError {
	return &StoreError{msg: msg, kind: kind}
}

// Error implements the error interface
func (e *StoreError) Error() string { return e.msg }

// Kind implements shared.KindedError
func (e *StoreError) Kind() shared.ErrorKind { return e.kind }

// Retryable reports whether the request may succeed on another attempt
func (e *StoreError) Retryable() bool { return e.kind == shared.ErrorKindTransient }

var (
	ErrSiteNotConfigured     = newStoreError("integration: site not configured", shared.ErrorKindInvalidInput)
	ErrRemoteUnauthorized    = newStoreError("integration: storefront rejected credentials", shared.ErrorKindFatal)
	ErrRemoteNotFound        = newStoreError("integration: storefront resource not found", shared.ErrorKindNotFound)
	ErrRemoteUnavailable     = newStoreError("integration: storefront temporarily unavailable", shared.ErrorKindTransient)
	ErrRemoteRequestFailed   = newStoreError("integration: storefront request failed", shared.ErrorKindFatal)
	ErrRemoteInvalidResponse = newStoreError("integration: invalid storefront response", shared.ErrorKindFatal)
	ErrRequestTimeout        = newStoreError("request timed out", shared.ErrorKindTransient)
	ErrImageCleanupFailed    = newStoreError("integration: image cleanup failed", shared.ErrorKindFatal)
)

// CategoryExistsError reports a category create that collided with an
// existing term. ID is zero when the storefront did not name the term.
type CategoryExistsError struct {
	Name string
	ID   int64
}

func (e *CategoryExistsError) Error() string {
	if e.ID > 0 {
		return fmt.Sprintf("integration: category %q already exists as %d", e.Name, e.ID)
	}
	return fmt.Sprintf("integration: category %q already exists", e.Name)
}

// Kind implements shared.KindedError
func (e *CategoryExistsError) Kind() shared.ErrorKind { return shared.ErrorKindInvalidInput }
