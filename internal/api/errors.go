package api

// errors.go defines the error codes returned by the pass issuer HTTP API

import "fmt"

// APIError represents a structured error raised by the HTTP layer.
type APIError struct {
	// code is the API error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *APIError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *APIError) Code() ErrorCode { return e.code }
func (e *APIError) Unwrap() error   { return e.wrapped }

// ErrorCode is used in the errors array of an ErrorResponse.
//
//   - 7000-7999 for technical errors: the request could not be processed because of the supplied data or a service fault.
//   - 8000-8999 for functional errors: the request is valid but the pass lifecycle does not allow it.
type ErrorCode int

const (

	// ErrCodeBadSignature is used when a proof does not verify against the issuer key.
	ErrCodeBadSignature ErrorCode = 7001

	// ErrCodeInvalidHash is used when a target hash is not hex.
	ErrCodeInvalidHash ErrorCode = 7002

	// ErrCodeIntegrity is used when a wrapped document's target hash or merkle proof does not match its data.
	ErrCodeIntegrity ErrorCode = 7003

	// ErrCodeInvalidDocument is used when a document is structurally invalid
	// (missing signature block, non-object data, unknown value type).
	ErrCodeInvalidDocument ErrorCode = 7004

	// ErrCodeInternalError is used when an internal server error occurs
	ErrCodeInternalError ErrorCode = 7005

	// ErrCodeMalformedRequest is used when JSON parsing or encoding fails
	ErrCodeMalformedRequest ErrorCode = 7006

	// ErrCodeKeyError is used when the verification key cannot be found or is unusable.
	ErrCodeKeyError ErrorCode = 7007

	// ErrCodeLedgerUnavailable is used when the document store could not be read or written.
	ErrCodeLedgerUnavailable ErrorCode = 7008

	// ErrCodeRateLimitExceeded is used when the rate limit is exceeded
	// - this is only used in the middleware
	ErrCodeRateLimitExceeded ErrorCode = 7009

	// ErrCodeRequestTooLarge is used when the request body is too large
	// - this is only used in the middleware
	ErrCodeRequestTooLarge ErrorCode = 7010

	// ErrCodeNotFound is used when the requested resource does not exist.
	ErrCodeNotFound ErrorCode = 8001

	// ErrCodeLedgerRejection is used when the document store refuses a state transition
	// (issuing an issued hash, revoking an unissued or revoked hash).
	ErrCodeLedgerRejection ErrorCode = 8002
)

// NewMalformedRequestError creates an error for malformed requests.
func NewMalformedRequestError(msg string) error {
	return &APIError{code: ErrCodeMalformedRequest, message: msg}
}

// WrapMalformedRequestError wraps an existing error as a malformed request error.
func WrapMalformedRequestError(err error, msg string) error {
	return &APIError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

// NewNotFoundError creates an error for unknown resources.
//
// The returned error will have code ErrCodeNotFound.
func NewNotFoundError(msg string) error {
	return &APIError{code: ErrCodeNotFound, message: msg}
}

// NewInternalError creates an internal error for unexpected failures.
//
// The returned error will have code ErrCodeInternalError.
func NewInternalError(msg string) error {
	return &APIError{code: ErrCodeInternalError, message: msg}
}

// WrapInternalError wraps an existing error as an internal error.
//
// The returned error will have code ErrCodeInternalError.
func WrapInternalError(err error, msg string) error {
	return &APIError{code: ErrCodeInternalError, message: msg, wrapped: err}
}

// NewRateLimitError creates a rate limit exceeded error.
// Use this when the client has exceeded the rate limit.
//
// The returned error will have code ErrCodeRateLimitExceeded.
func NewRateLimitError(msg string) error {
	return &APIError{code: ErrCodeRateLimitExceeded, message: msg}
}

// NewRequestTooLargeError creates a request too large error.
// Use this when the request body exceeds the maximum allowed size.
//
// The returned error will have code ErrCodeRequestTooLarge.
func NewRequestTooLargeError(msg string) error {
	return &APIError{code: ErrCodeRequestTooLarge, message: msg}
}
