// Package retry classifies failures as recoverable or fatal and runs bounded,
// fixed-delay retry loops. It is shared by avatar playback start and the
// conversation summary poller.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// ErrRecoverable indicates a temporary failure that may succeed if retried.
	// Examples: deferred media playback, conversation still processing, network timeout.
	ErrRecoverable = errors.New("recoverable error")

	// ErrFatal indicates a permanent failure that will not succeed if retried.
	// Examples: unsupported media, invalid API key, malformed response.
	ErrFatal = errors.New("fatal error")

	// ErrExhausted is returned by Do when every attempt failed with a recoverable error.
	ErrExhausted = errors.New("retries exhausted")
)

// Config configures a fixed-delay retry loop.
type Config struct {
	MaxRetries int           // Retries after the first attempt
	Delay      time.Duration // Fixed delay between attempts
}

// DefaultPlaybackConfig matches the avatar playback start policy.
var DefaultPlaybackConfig = Config{
	MaxRetries: 3,
	Delay:      100 * time.Millisecond,
}

// IsRecoverable checks if an error is recoverable and should be retried
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrRecoverable)
}

// IsFatal checks if an error is fatal and should not be retried
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// RetryableError wraps an underlying error with retry classification
type RetryableError struct {
	Underlying error
	Retryable  bool
	Message    string
}

func (e *RetryableError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Underlying == nil {
		if e.Retryable {
			return ErrRecoverable.Error()
		}
		return ErrFatal.Error()
	}
	return e.Underlying.Error()
}

// Unwrap exposes both the classification sentinel and the underlying cause.
func (e *RetryableError) Unwrap() []error {
	class := ErrFatal
	if e.Retryable {
		class = ErrRecoverable
	}
	if e.Underlying == nil {
		return []error{class}
	}
	return []error{class, e.Underlying}
}

// NewRecoverableError creates a recoverable error with context
func NewRecoverableError(underlying error, message string) error {
	return &RetryableError{
		Underlying: underlying,
		Retryable:  true,
		Message:    message,
	}
}

// NewFatalError creates a fatal error with context
func NewFatalError(underlying error, message string) error {
	return &RetryableError{
		Underlying: underlying,
		Retryable:  false,
		Message:    message,
	}
}

// Do calls fn until it succeeds, returns a non-recoverable error, or the
// retry budget runs out. Unclassified errors are treated as recoverable.
// keepGoing, when non-nil, is consulted before every retry and stops the
// loop quietly when it returns false.
func Do(ctx context.Context, clock clockwork.Clock, cfg Config, keepGoing func() bool, fn func(attempt int) error) error {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var last error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if keepGoing != nil && !keepGoing() {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-clock.After(cfg.Delay):
			}
		}

		last = fn(attempt)
		if last == nil {
			return nil
		}
		if IsFatal(last) {
			return last
		}
	}

	return errors.Join(ErrExhausted, last)
}
