package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrDigestInProgress is returned when a digest of the same type is
// already being generated.
var ErrDigestInProgress = errors.New("digest generation already in progress")

// GenerationError carries the upstream status and body of a failed
// generation call.
type GenerationError struct {
	Status int
	Body   string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation api error: %d - %s", e.Status, e.Body)
}

// GenerationTimeoutError indicates the generation call exceeded its
// configured deadline.
type GenerationTimeoutError struct {
	Timeout time.Duration
}

func (e *GenerationTimeoutError) Error() string {
	return fmt.Sprintf("generation timed out after %s", e.Timeout)
}

// MalformedResponseError is terminal: the model response could not be
// parsed even after repair.
type MalformedResponseError struct {
	Err     error
	Preview string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed generation response: %v. Preview: %s", e.Err, e.Preview)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
