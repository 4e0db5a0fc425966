package client

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies the outcome of a failed fetch.
type ErrorKind string

const (
	// KindTimeout is a request that exceeded the configured deadline.
	KindTimeout ErrorKind = "timeout"

	// KindTooManyRedirects is a redirect chain beyond the allowed limit.
	KindTooManyRedirects ErrorKind = "too_many_redirects"

	// KindConnectionFailure is a DNS or connection-level transport failure.
	KindConnectionFailure ErrorKind = "connection_failure"

	// KindRequestFailure is any other transport-level failure.
	KindRequestFailure ErrorKind = "request_failure"

	// KindUnexpectedFailure is any unclassified failure during the attempt.
	KindUnexpectedFailure ErrorKind = "unexpected_failure"

	// KindClientError is an HTTP response with status in [400,500).
	KindClientError ErrorKind = "client_error"

	// KindServerError is an HTTP response with status in [500,600).
	KindServerError ErrorKind = "server_error"
)

// FetchError is the single error type surfaced by failed fetches. Kind tells
// callers what happened; the remaining fields carry enough context (address,
// status, reason, cause) for a consumer to map it to a transport response.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int           // set for client_error and server_error
	Timeout    time.Duration // set for timeout
	URL        string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("request timeout after %gs for url: %s", e.Timeout.Seconds(), e.URL)
	case KindTooManyRedirects:
		return fmt.Sprintf("too many redirects for url: %s", e.URL)
	case KindConnectionFailure:
		return fmt.Sprintf("connection failure. %s for url: %s", e.Message, e.URL)
	case KindClientError:
		return fmt.Sprintf("client error. %s for url: %s", e.Message, e.URL)
	case KindServerError:
		return fmt.Sprintf("server error. %s for url: %s", e.Message, e.URL)
	case KindRequestFailure:
		return fmt.Sprintf("request failure. %s for url: %s", e.Message, e.URL)
	default:
		return fmt.Sprintf("unexpected failure. %s for url: %s", e.Message, e.URL)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// AsFetchError extracts a *FetchError from an error chain.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// errTooManyRedirects marks a redirect chain cut off by the pool's redirect
// limit, so classification can tell it apart from other url.Error causes.
var errTooManyRedirects = errors.New("stopped after too many redirects")
