package shared

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrorKind classifies a failed unit of work
type ErrorKind string

const (
	ErrorKindTransient    ErrorKind = "transient"
	ErrorKindFatal        ErrorKind = "fatal"
	ErrorKindNotFound     ErrorKind = "not_found"
	ErrorKindNotPublished ErrorKind = "not_published"
	ErrorKindStore        ErrorKind = "store"
	ErrorKindInvalidInput ErrorKind = "invalid_input"
	ErrorKindInternal     ErrorKind = "internal"
)

// KindedError is implemented by errors that know their ErrorKind
type KindedError interface {
	error
	Kind() ErrorKind
}

// KindOf returns the ErrorKind carried by err.
// Errors that do not carry a kind are classified as internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ke KindedError
	if errors.As(err, &ke) {
		return ke.Kind()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTransient
	}
	if de, ok := IsDomainError(err); ok {
		if de.Code == ErrNotFound.Code {
			return ErrorKindNotFound
		}
		return ErrorKindInvalidInput
	}
	return ErrorKindInternal
}

// Failure describes the error side of a Result
type Failure struct {
	Kind    ErrorKind `json:"error_kind"`
	Message string    `json:"error"`
}

// Error implements the error interface
func (f *Failure) Error() string {
	return f.Message
}

// Result is a tagged Ok(T) | Err(kind, message) value for one unit of work
type Result[T any] struct {
	value   T
	failure *Failure
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err builds a failed result
func Err[T any](kind ErrorKind, message string) Result[T] {
	return Result[T]{failure: &Failure{Kind: kind, Message: message}}
}

// FromError builds a failed result, classifying err
func FromError[T any](err error) Result[T] {
	return Err[T](KindOf(err), err.Error())
}

// IsOk reports whether the result is a success
func (r Result[T]) IsOk() bool {
	return r.failure == nil
}

// Value returns the value and whether the result is a success
func (r Result[T]) Value() (T, bool) {
	return r.value, r.failure == nil
}

// Failure returns the failure, or nil on success
func (r Result[T]) Failure() *Failure {
	return r.failure
}

// ErrorMessage returns the failure message, or "" on success
func (r Result[T]) ErrorMessage() string {
	if r.failure == nil {
		return ""
	}
	return r.failure.Message
}

type resultJSON[T any] struct {
	Success   bool      `json:"success"`
	Data      *T        `json:"data,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// MarshalJSON renders {"success":true,"data":...} or {"success":false,"error_kind":...,"error":...}
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.failure != nil {
		return json.Marshal(resultJSON[T]{Success: false, ErrorKind: r.failure.Kind, Error: r.failure.Message})
	}
	v := r.value
	return json.Marshal(resultJSON[T]{Success: true, Data: &v})
}

// Unit is the value type of results that carry no payload
type Unit struct{}

// SiteResult is the outcome of one operation on one site
type SiteResult struct {
	Site     SiteCode
	Result   Result[Unit]
	Warnings []string
}

// SiteOk returns a successful SiteResult
func SiteOk(site SiteCode, warnings ...string) SiteResult {
	return SiteResult{Site: site, Result: Ok(Unit{}), Warnings: warnings}
}

// SiteErr returns a failed SiteResult classified from err
func SiteErr(site SiteCode, err error) SiteResult {
	return SiteResult{Site: site, Result: FromError[Unit](err)}
}

// Success reports whether the site operation succeeded
func (r SiteResult) Success() bool {
	return r.Result.IsOk()
}

// MarshalJSON renders {"site":"com","success":true} style objects
func (r SiteResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Site      SiteCode  `json:"site"`
		Success   bool      `json:"success"`
		ErrorKind ErrorKind `json:"error_kind,omitempty"`
		Error     string    `json:"error,omitempty"`
		Warnings  []string  `json:"warnings,omitempty"`
	}{Site: r.Site, Success: r.Result.IsOk(), Warnings: r.Warnings}
	if f := r.Result.Failure(); f != nil {
		out.ErrorKind = f.Kind
		out.Error = f.Message
	}
	return json.Marshal(out)
}

// AllSucceeded reports whether every site result is a success.
// An empty slice is not a success.
func AllSucceeded(results []SiteResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Success() {
			return false
		}
	}
	return true
}
