package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a structured error from the registry package
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	// ErrCodeLedgerRejection is used when the ledger refuses a state transition
	// (issuing an issued hash, revoking an unissued or revoked hash).
	// Batch submissions are atomic: a rejection means none of the batch's hashes changed state.
	ErrCodeLedgerRejection ErrorCode = "ledger_rejection"

	// ErrCodeInvalidHash is used when an input hash is not hex or no hashes were given.
	ErrCodeInvalidHash ErrorCode = "invalid_hash"

	// ErrCodeLedger is used when the ledger could not be reached or failed for another reason
	// (including cancellation and timeouts).
	ErrCodeLedger ErrorCode = "ledger"
)

// RegistryError represents a structured error from the registry package
type RegistryError struct {
	code    ErrorCode
	message string
	wrapped error
}

func (e *RegistryError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *RegistryError) Code() ErrorCode { return e.code }
func (e *RegistryError) Unwrap() error   { return e.wrapped }

// LedgerRejectionError reports the hashes and transition the ledger refused.
type LedgerRejectionError struct {
	Hashes     []string
	Transition Transition
	Reason     string
}

func (e *LedgerRejectionError) Error() string {
	return fmt.Sprintf("ledger rejected %s of [%s]: %s", e.Transition, strings.Join(e.Hashes, ", "), e.Reason)
}

func (e *LedgerRejectionError) Code() ErrorCode { return ErrCodeLedgerRejection }
func (e *LedgerRejectionError) Unwrap() error   { return nil }

// HasCode reports whether err (or any error it wraps) is a registry error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var rejection *LedgerRejectionError
	if errors.As(err, &rejection) && code == ErrCodeLedgerRejection {
		return true
	}
	var regErr *RegistryError
	if !errors.As(err, &regErr) {
		return false
	}
	return regErr.code == code
}

// NewLedgerRejectionError is returned by Ledger implementations when a transition is refused.
func NewLedgerRejectionError(hashes []string, transition Transition, reason string) error {
	return &LedgerRejectionError{
		Hashes:     append([]string(nil), hashes...),
		Transition: transition,
		Reason:     reason,
	}
}

// NewInvalidHashError creates an error for unusable hash input.
//
// The returned error will have code ErrCodeInvalidHash.
func NewInvalidHashError(msg string) error {
	return &RegistryError{code: ErrCodeInvalidHash, message: msg}
}

// WrapInvalidHashError wraps a hash decoding failure.
//
// The returned error will have code ErrCodeInvalidHash.
func WrapInvalidHashError(err error, msg string) error {
	return &RegistryError{code: ErrCodeInvalidHash, message: msg, wrapped: err}
}

// WrapLedgerError wraps a ledger failure that is not a rejection.
//
// The returned error will have code ErrCodeLedger.
func WrapLedgerError(err error, msg string) error {
	return &RegistryError{code: ErrCodeLedger, message: msg, wrapped: err}
}
