// Package scrapeerr holds the error taxonomy shared by adapters, the retry
// controller and the brand scrapers.
//
// ConfigError is fatal and surfaces at startup. NetworkError, TimeoutError and
// RenderError describe a single failed fetch attempt and are retryable unless
// marked permanent. An extraction miss is not an error at all.
package scrapeerr

import (
	"context"
	"errors"
	"fmt"
)

// ConfigError reports a malformed registry or brand configuration entry.
type ConfigError struct {
	Source string // file or section, e.g. "locations.yaml"
	Brand  string
	Index  int // position within the brand list, -1 when not applicable
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	where := e.Source
	if e.Brand != "" {
		where += ": " + e.Brand
		if e.Index >= 0 {
			where += fmt.Sprintf("[%d]", e.Index)
		}
	}
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: field %q %s", where, e.Field, e.Reason)
	}
	return fmt.Sprintf("config error in %s: %s", where, e.Reason)
}

// NetworkError is a failed HTTP exchange.
type NetworkError struct {
	URL       string
	Status    int // 0 when no response was received
	Permanent bool
	Err       error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("network error fetching %s (status %d): %v", e.URL, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("network error fetching %s: status %d", e.URL, e.Status)
	default:
		return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is a fetch, navigation or wait that exceeded its bound.
type TimeoutError struct {
	Op  string
	URL string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout during %s of %s: %v", e.Op, e.URL, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// RenderError is a browser-side failure: a missing element, a stale node, a
// crashed page.
type RenderError struct {
	Op  string
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error during %s of %s: %v", e.Op, e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Retryable reports whether err should consume retry budget.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return false
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return !netErr.Permanent
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}

	var renderErr *RenderError
	if errors.As(err, &renderErr) {
		return true
	}

	// A deadline hit by the attempt itself is a timeout; a plain cancellation
	// means the whole run is going away.
	return errors.Is(err, context.DeadlineExceeded)
}

// FromContext converts a deadline error into a TimeoutError and wraps
// anything else as a RenderError. Nil stays nil.
func FromContext(op, url string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, URL: url, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &RenderError{Op: op, URL: url, Err: err}
}
