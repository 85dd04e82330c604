package summary

import (
	"errors"
	"fmt"
	"time"
)

const defaultTimeoutMessage = "Timeout waiting for conversation to complete."

var (
	// ErrPollTransient drives another poll attempt. It never leaves Poll.
	ErrPollTransient = errors.New("summary: conversation not ready")

	// ErrPollTimeout matches *TimeoutError.
	ErrPollTimeout = errors.New("summary: poll timed out")

	// ErrDetailFetch means the conversation was done but its detail could not be read.
	ErrDetailFetch = errors.New("summary: conversation detail fetch failed")
)

// TimeoutError is returned when no terminal conversation was observed before
// the deadline. LastError is the last transient reason seen.
type TimeoutError struct {
	LastError string
	Waited    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("summary: poll timed out after %s: %s", e.Waited, e.Message())
}

// Message is the diagnostic shown to the user.
func (e *TimeoutError) Message() string {
	if e.LastError == "" {
		return defaultTimeoutMessage
	}
	return e.LastError
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrPollTimeout
}
