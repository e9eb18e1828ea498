package signing

import (
	"errors"
	"fmt"
)

// Error represents a structured error from the signing package
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	// ErrCodeSigning is used when the signer capability fails to produce a signature.
	// Signing failures are never retried.
	ErrCodeSigning ErrorCode = "signing"

	// ErrCodeInvalidSignature is used when a proof does not verify against the issuer key
	// or does not cover the document's target hash.
	ErrCodeInvalidSignature ErrorCode = "invalid_signature"

	// ErrCodeKeyNotFound is used when no public key is known for a proof's verification method.
	ErrCodeKeyNotFound ErrorCode = "key_not_found"

	// ErrCodeConfiguration is used for an invalid key manager or signer setup.
	ErrCodeConfiguration ErrorCode = "configuration"
)

// SigningError represents a structured error from the signing package
type SigningError struct {
	code    ErrorCode
	message string
	wrapped error
}

func (e *SigningError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *SigningError) Code() ErrorCode { return e.code }
func (e *SigningError) Unwrap() error   { return e.wrapped }

// HasCode reports whether err (or any error it wraps) is a SigningError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var sigErr *SigningError
	if !errors.As(err, &sigErr) {
		return false
	}
	return sigErr.code == code
}

// WrapSigningError wraps a signer failure.
//
// The returned error will have code ErrCodeSigning.
func WrapSigningError(err error, msg string) error {
	return &SigningError{code: ErrCodeSigning, message: msg, wrapped: err}
}

// NewSigningError creates a signing error.
//
// The returned error will have code ErrCodeSigning.
func NewSigningError(msg string) error {
	return &SigningError{code: ErrCodeSigning, message: msg}
}

// NewInvalidSignatureError creates an error for a proof that does not verify.
//
// The returned error will have code ErrCodeInvalidSignature.
func NewInvalidSignatureError(msg string) error {
	return &SigningError{code: ErrCodeInvalidSignature, message: msg}
}

// WrapInvalidSignatureError wraps a verification failure.
//
// The returned error will have code ErrCodeInvalidSignature.
func WrapInvalidSignatureError(err error, msg string) error {
	return &SigningError{code: ErrCodeInvalidSignature, message: msg, wrapped: err}
}

// NewKeyNotFoundError creates an error for an unknown key id.
//
// The returned error will have code ErrCodeKeyNotFound.
func NewKeyNotFoundError(msg string) error {
	return &SigningError{code: ErrCodeKeyNotFound, message: msg}
}

// NewConfigurationError creates an error for invalid signer or key manager configuration.
//
// The returned error will have code ErrCodeConfiguration.
func NewConfigurationError(msg string) error {
	return &SigningError{code: ErrCodeConfiguration, message: msg}
}

// WrapConfigurationError wraps a configuration failure.
//
// The returned error will have code ErrCodeConfiguration.
func WrapConfigurationError(err error, msg string) error {
	return &SigningError{code: ErrCodeConfiguration, message: msg, wrapped: err}
}
