package service

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindQuotaExceeded
	KindVendorUnavailable
	KindNotFound
	KindConflict
	KindUnauthenticated
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindVendorUnavailable:
		return "vendor_unavailable"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindBusy:
		return "busy"
	default:
		return "internal"
	}
}

// Error carries a user-facing Reason and an optional cause.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

func invalidInput(reason string) error {
	return &Error{Kind: KindInvalidInput, Reason: reason}
}

func quotaExceeded(reason string) error {
	return &Error{Kind: KindQuotaExceeded, Reason: reason}
}

func vendorUnavailable(reason string, err error) error {
	return &Error{Kind: KindVendorUnavailable, Reason: reason, Err: err}
}

func notFound(reason string) error {
	return &Error{Kind: KindNotFound, Reason: reason}
}

func conflict(reason string) error {
	return &Error{Kind: KindConflict, Reason: reason}
}

func busy(reason string, err error) error {
	return &Error{Kind: KindBusy, Reason: reason, Err: err}
}

func unauthenticated(reason string, err error) error {
	return &Error{Kind: KindUnauthenticated, Reason: reason, Err: err}
}
