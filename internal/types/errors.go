package types

import (
	"errors"
	"fmt"
	"time"
)

// StartupConfigError indicates the run cannot start with the given configuration.
type StartupConfigError struct {
	Field string
	Err   error
}

func (e *StartupConfigError) Error() string {
	return fmt.Sprintf("startup config: %s: %v", e.Field, e.Err)
}

func (e *StartupConfigError) Unwrap() error {
	return e.Err
}

// NavigationError indicates a failed navigation or page-count discovery.
type NavigationError struct {
	Op  string
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("navigation: %s (%s): %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("navigation: %s: %v", e.Op, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// SelectorTimeoutError indicates an expected element never rendered in time.
type SelectorTimeoutError struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e *SelectorTimeoutError) Error() string {
	return fmt.Sprintf("selector %q not ready after %v: %v", e.Selector, e.Timeout, e.Err)
}

func (e *SelectorTimeoutError) Unwrap() error {
	return e.Err
}

// ParseError indicates a field of an item could not be turned into a value.
type ParseError struct {
	Field string
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s from %q: %v", e.Field, e.Input, e.Err)
	}
	return fmt.Sprintf("parse %s from %q", e.Field, e.Input)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PartialFailureError reports how far a traversal got before it failed.
// Records collected up to that point are never published.
type PartialFailureError struct {
	PagesCompleted   int
	TotalPages       int
	RecordsCollected int
	Err              error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("traversal aborted after %d/%d pages (%d records discarded): %v",
		e.PagesCompleted, e.TotalPages, e.RecordsCollected, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// ErrorKind returns a short label for err, used in logs and metrics.
func ErrorKind(err error) string {
	if err == nil {
		return "none"
	}
	var startup *StartupConfigError
	if errors.As(err, &startup) {
		return "startup_config"
	}
	var timeout *SelectorTimeoutError
	if errors.As(err, &timeout) {
		return "selector_timeout"
	}
	var nav *NavigationError
	if errors.As(err, &nav) {
		return "navigation"
	}
	var parse *ParseError
	if errors.As(err, &parse) {
		return "parse"
	}
	return "other"
}
