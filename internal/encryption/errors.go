package encryption

import (
	"errors"
	"fmt"
)

// Error represents a structured error from the encryption package
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	// ErrCodeVerificationURL is used when a document's verification URL is missing or cannot be parsed.
	ErrCodeVerificationURL ErrorCode = "verification_url"

	// ErrCodeMalformedEnvelope is used when an envelope or encrypted document has an unexpected shape.
	ErrCodeMalformedEnvelope ErrorCode = "malformed_envelope"
)

// EncryptionError represents a structured error from the encryption package.
// Key derivation and authentication failures are crypto.CryptoError values and pass through unchanged.
type EncryptionError struct {
	code    ErrorCode
	message string
	wrapped error
}

func (e *EncryptionError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *EncryptionError) Code() ErrorCode { return e.code }
func (e *EncryptionError) Unwrap() error   { return e.wrapped }

// HasCode reports whether err (or any error it wraps) is an EncryptionError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var encErr *EncryptionError
	if !errors.As(err, &encErr) {
		return false
	}
	return encErr.code == code
}

// NewVerificationURLError creates an error for an unusable verification URL.
func NewVerificationURLError(msg string) error {
	return &EncryptionError{code: ErrCodeVerificationURL, message: msg}
}

// WrapVerificationURLError wraps a verification URL parse failure.
func WrapVerificationURLError(err error, msg string) error {
	return &EncryptionError{code: ErrCodeVerificationURL, message: msg, wrapped: err}
}

// NewMalformedEnvelopeError creates an error for an envelope with an unexpected shape.
func NewMalformedEnvelopeError(msg string) error {
	return &EncryptionError{code: ErrCodeMalformedEnvelope, message: msg}
}

// WrapMalformedEnvelopeError wraps an envelope decoding failure.
func WrapMalformedEnvelopeError(err error, msg string) error {
	return &EncryptionError{code: ErrCodeMalformedEnvelope, message: msg, wrapped: err}
}
