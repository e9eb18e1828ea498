package crypto

import (
	"errors"
	"fmt"
)

// Error represents a structured error from the crypto package
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	ErrCodeValidation           ErrorCode = "validation"
	ErrCodeKeyDerivation        ErrorCode = "key_derivation"
	ErrCodeAuthentication       ErrorCode = "authentication"
	ErrCodeUnsupportedAlgorithm ErrorCode = "unsupported_algorithm"
	ErrCodeInvalidSignature     ErrorCode = "invalid_signature"
	ErrCodeKeyManagement        ErrorCode = "key_management"
	ErrCodeInternal             ErrorCode = "internal"
)

// CryptoError represents a structured error from the crypto package
type CryptoError struct {

	// code is the cryptoerror code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *CryptoError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *CryptoError) Code() ErrorCode { return e.code }
func (e *CryptoError) Unwrap() error   { return e.wrapped }

// HasCode reports whether err (or any error it wraps) is a CryptoError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var cryptoErr *CryptoError
	if !errors.As(err, &cryptoErr) {
		return false
	}
	return cryptoErr.code == code
}

// NewValidationError creates a validation error for invalid input.
// Use this for errors related to missing required fields, bad format or bad encoding.
//
// The returned error will have code ErrCodeValidation.
func NewValidationError(msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg}
}

// WrapValidationError wraps an existing error as a validation error.
//
// The returned error will have code ErrCodeValidation.
func WrapValidationError(err error, msg string) error {
	return &CryptoError{code: ErrCodeValidation, message: msg, wrapped: err}
}

// WrapKeyDerivationError wraps a failure of the password key derivation function
// (bad cost parameters, resource exhaustion).
//
// The returned error will have code ErrCodeKeyDerivation.
func WrapKeyDerivationError(err error, msg string) error {
	return &CryptoError{code: ErrCodeKeyDerivation, message: msg, wrapped: err}
}

// NewAuthenticationError creates an error for ciphertext that failed authentication.
// No plaintext is ever returned alongside this error.
//
// The returned error will have code ErrCodeAuthentication.
func NewAuthenticationError(msg string) error {
	return &CryptoError{code: ErrCodeAuthentication, message: msg}
}

// WrapAuthenticationError wraps an existing error as an authentication error.
//
// The returned error will have code ErrCodeAuthentication.
func WrapAuthenticationError(err error, msg string) error {
	return &CryptoError{code: ErrCodeAuthentication, message: msg, wrapped: err}
}

// NewUnsupportedAlgorithmError creates an error for a cipher or signing algorithm
// that is not recognised.
//
// The returned error will have code ErrCodeUnsupportedAlgorithm.
func NewUnsupportedAlgorithmError(msg string) error {
	return &CryptoError{code: ErrCodeUnsupportedAlgorithm, message: msg}
}

// NewSignatureError creates a signature verification error.
// Use this for errors related to signature verification failures or malformed signatures.
//
// The returned error will have code ErrCodeInvalidSignature.
func NewSignatureError(msg string) error {
	return &CryptoError{code: ErrCodeInvalidSignature, message: msg}
}

// WrapSignatureError wraps an existing error as a signature error.
//
// The returned error will have code ErrCodeInvalidSignature.
func WrapSignatureError(err error, msg string) error {
	return &CryptoError{code: ErrCodeInvalidSignature, message: msg, wrapped: err}
}

// NewKeyManagementError creates a key management error.
// Use this for errors related to key loading, key generation, key not found,
// invalid key format, or JWK parsing failures.
//
// The returned error will have code ErrCodeKeyManagement.
func NewKeyManagementError(msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg}
}

// WrapKeyManagementError wraps an existing error as a key management error.
//
// The returned error will have code ErrCodeKeyManagement.
func WrapKeyManagementError(err error, msg string) error {
	return &CryptoError{code: ErrCodeKeyManagement, message: msg, wrapped: err}
}

// WrapInternalError wraps an existing error as an internal error.
// Use this for errors related to crypto library failures or system errors
// (e.g. the random source failing) that should not normally occur.
//
// The returned error will have code ErrCodeInternal.
func WrapInternalError(err error, msg string) error {
	return &CryptoError{code: ErrCodeInternal, message: msg, wrapped: err}
}
