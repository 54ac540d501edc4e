package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ValidationError rejects malformed input before any external call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

var ErrValidation = ValidationError{}

// ExternalServiceError wraps a failure of a collaborator service (identity
// store, content anchor, AI, price quote). Recoverable: callers default the
// dependent value and surface a transient notice.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e ExternalServiceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Service, e.Err)
}

func (e ExternalServiceError) Unwrap() error { return e.Err }

func (e ExternalServiceError) Is(target error) bool {
	_, ok := target.(ExternalServiceError)
	if ok {
		return true
	}
	_, ok = target.(*ExternalServiceError)
	return ok
}

var ErrExternalService = ExternalServiceError{}

// SubmissionError means a chain write never obtained a transaction handle
// (rejected signature, invalid arguments, network failure).
type SubmissionError struct {
	Method string
	Err    error
}

func (e SubmissionError) Error() string {
	return fmt.Sprintf("submission of %s failed: %v", e.Method, e.Err)
}

func (e SubmissionError) Unwrap() error { return e.Err }

func (e SubmissionError) Is(target error) bool {
	_, ok := target.(SubmissionError)
	if ok {
		return true
	}
	_, ok = target.(*SubmissionError)
	return ok
}

var ErrSubmission = SubmissionError{}

// ConfirmationError means a submitted transaction timed out or reverted.
// A reverted transaction is a failure, never a degraded success.
type ConfirmationError struct {
	TxHash string
	Reason string
}

func (e ConfirmationError) Error() string {
	return fmt.Sprintf("confirmation of %s failed: %s", e.TxHash, e.Reason)
}

func (e ConfirmationError) Is(target error) bool {
	_, ok := target.(ConfirmationError)
	if ok {
		return true
	}
	_, ok = target.(*ConfirmationError)
	return ok
}

var ErrConfirmation = ConfirmationError{}

// ReadError means a read-only chain call failed at the RPC layer. Callers
// should treat the value as unknown; the account aggregation applies a
// documented zero-fallback instead.
type ReadError struct {
	Method string
	Err    error
}

func (e ReadError) Error() string {
	return fmt.Sprintf("read of %s failed: %v", e.Method, e.Err)
}

func (e ReadError) Unwrap() error { return e.Err }

func (e ReadError) Is(target error) bool {
	_, ok := target.(ReadError)
	if ok {
		return true
	}
	_, ok = target.(*ReadError)
	return ok
}

var ErrRead = ReadError{}
