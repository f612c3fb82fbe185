// Package source implements paginated news sources consumed by the feed controller.
// Every failure is reported as a *FetchError matching ErrFetchFailed, regardless of cause.
package source

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrFetchFailed is matched by every error returned from Fetch of sources in this package
var ErrFetchFailed = errors.New("fetch failed")

// Kind classifies the cause of a failed fetch
type Kind int

// fetch failure kinds
const (
	KindTransport Kind = iota
	KindStatus
	KindMalformed
)

// String returns kind name for logs and metrics
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// FetchError describes a failed fetch
type FetchError struct {
	Kind   Kind
	Status int // http status code, set for KindStatus only
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("fetch failed, %s error (http %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch failed, %s error: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error { return e.Err }

// Is makes every FetchError match ErrFetchFailed
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// Temporary reports whether repeating the same request may succeed
func (e *FetchError) Temporary() bool {
	switch e.Kind {
	case KindTransport:
		return true
	case KindStatus:
		return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
	default:
		return false
	}
}

// KindOf extracts the failure kind from err, ok is false if err is not a FetchError
func KindOf(err error) (Kind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}

// errNoRetry is matched by criticalError and terminates the repeater
var errNoRetry = errors.New("no retry")

// criticalError wraps an error to signal repeater to stop retrying
type criticalError struct {
	err error
}

func (e *criticalError) Error() string { return e.err.Error() }

func (e *criticalError) Unwrap() error { return e.err }

func (e *criticalError) Is(target error) bool { return target == errNoRetry }

// classify wraps fetch error for the repeater, only temporary failures are retried
func classify(err *FetchError) error {
	if err.Temporary() {
		return err
	}
	return &criticalError{err: err}
}

// unwrapCritical strips criticalError wrapper added by classify
func unwrapCritical(err error) error {
	var ce *criticalError
	if errors.As(err, &ce) {
		return ce.err
	}
	return err
}
