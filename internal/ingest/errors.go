// ABOUTME: Classified fetch failures with operator-facing hints.
// ABOUTME: The failure kind is what run records store and what the CLI reports.
package ingest

import (
	"errors"
	"fmt"
	"net/http"
)

// FailureKind classifies why a run stopped.
type FailureKind string

const (
	KindUnauthorized FailureKind = "unauthorized"
	KindRateLimited  FailureKind = "rate_limited"
	KindNotFound     FailureKind = "not_found"
	KindMalformed    FailureKind = "malformed"
	KindTransport    FailureKind = "transport"
	KindHTTP         FailureKind = "http"
	KindStorage      FailureKind = "storage"
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 512

// FetchError is returned when one endpoint could not be fetched.
type FetchError struct {
	Endpoint string
	Status   int
	Kind     FailureKind
	Body     string
	Err      error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0 && e.Status != http.StatusOK:
		return fmt.Sprintf("fetch %s: HTTP %d: %s", e.Endpoint, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.Endpoint, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Hint suggests what the operator should check, or "" when there is nothing specific.
func (e *FetchError) Hint() string {
	switch e.Kind {
	case KindUnauthorized:
		return "check your API token; it may be invalid or expired"
	case KindRateLimited:
		return "rate limit exceeded; wait a moment and try again"
	case KindNotFound:
		return "API endpoint not found; check the base URL and endpoint paths"
	default:
		return ""
	}
}

// classifyStatus maps a non-200 status code onto a failure kind.
func classifyStatus(status int) FailureKind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindHTTP
	}
}

// KindOf returns the failure kind carried by err. Errors that did not come
// from a fetch are storage failures.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindStorage
}

// HintFor returns the hint for err, if it is a FetchError with one.
func HintFor(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Hint()
	}
	return ""
}
