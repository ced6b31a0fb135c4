package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrInvalidState = errors.New("invalid session state")
	ErrNoChanges    = errors.New("no changes")
)

// UnknownDatasetTypeError means no codec matched the dataset's file name.
type UnknownDatasetTypeError struct {
	Source string
}

func (e *UnknownDatasetTypeError) Error() string {
	return fmt.Sprintf("cannot parse file, unknown type: %s", e.Source)
}

// MalformedRowError means a row had the wrong number of fields or a typed
// field that failed to parse. It aborts the whole file so that a partially
// normalized table is never written.
type MalformedRowError struct {
	Row    []string
	Reason error
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row [%s]: %v", strings.Join(e.Row, ", "), e.Reason)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Reason
}

// FetchError means a dataset could not be retrieved: either an HTTP error
// response (StatusCode set) or a transport failure (Err set).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsSkippable reports whether an error is a per-dataset failure that should
// be logged and skipped rather than aborting the batch.
func IsSkippable(err error) bool {
	var unknownType *UnknownDatasetTypeError
	var malformed *MalformedRowError
	var fetchErr *FetchError
	return errors.As(err, &unknownType) || errors.As(err, &malformed) || errors.As(err, &fetchErr)
}
