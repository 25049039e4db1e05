package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey marks a vendor client configured without credentials.
	ErrMissingAPIKey = errors.New("ai: api key is not configured")
	// ErrUnavailable is returned once every provider in a chain has failed.
	ErrUnavailable = errors.New("ai: service unavailable")
	// ErrJobFailed is returned when an asynchronous vendor job ends in error.
	ErrJobFailed = errors.New("ai: job failed")
	// ErrPollTimeout is returned when a job never reaches a terminal status.
	ErrPollTimeout = errors.New("ai: job polling timed out")
	// ErrArtifactTooLarge is returned when a vendor body exceeds the read cap.
	ErrArtifactTooLarge = errors.New("ai: artifact exceeds size limit")
)

// VendorError carries a user-facing reason next to the underlying cause.
type VendorError struct {
	Vendor string
	Reason string
	Err    error
}

func (e *VendorError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Vendor, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Vendor, e.Reason, e.Err)
}

func (e *VendorError) Unwrap() error {
	return e.Err
}

// statusError describes a non-success HTTP response from a vendor.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Status)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}
