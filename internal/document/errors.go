package document

import (
	"errors"
	"fmt"
)

// Error represents a structured error from the document package
type Error interface {
	error
	Code() ErrorCode
	Unwrap() error
}

type ErrorCode string

const (
	// ErrCodeMalformedDocument is used when a document cannot be canonically serialized
	// (cycles, channels, NaN, non-string keys) or a wrapped document has an unexpected shape.
	ErrCodeMalformedDocument ErrorCode = "malformed_document"

	// ErrCodeEmptyBatch is used when zero documents are given where a Merkle root is required.
	ErrCodeEmptyBatch ErrorCode = "empty_batch"

	// ErrCodeIntegrity is used when a wrapped document's content no longer matches its target hash
	// or its proof does not lead to the merkle root.
	ErrCodeIntegrity ErrorCode = "integrity"

	// ErrCodeStorage is used when reading or writing document files fails.
	ErrCodeStorage ErrorCode = "storage"
)

// DocumentError represents a structured error from the document package
type DocumentError struct {
	code    ErrorCode
	message string
	wrapped error
}

func (e *DocumentError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *DocumentError) Code() ErrorCode { return e.code }
func (e *DocumentError) Unwrap() error   { return e.wrapped }

// HasCode reports whether err (or any error it wraps) is a DocumentError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var docErr *DocumentError
	if !errors.As(err, &docErr) {
		return false
	}
	return docErr.code == code
}

// NewMalformedDocumentError creates an error for input that cannot be hashed.
//
// The returned error will have code ErrCodeMalformedDocument.
func NewMalformedDocumentError(msg string) error {
	return &DocumentError{code: ErrCodeMalformedDocument, message: msg}
}

// WrapMalformedDocumentError wraps an existing error as a malformed document error.
//
// The returned error will have code ErrCodeMalformedDocument.
func WrapMalformedDocumentError(err error, msg string) error {
	return &DocumentError{code: ErrCodeMalformedDocument, message: msg, wrapped: err}
}

// NewEmptyBatchError creates an error for an empty batch.
//
// The returned error will have code ErrCodeEmptyBatch.
func NewEmptyBatchError(msg string) error {
	return &DocumentError{code: ErrCodeEmptyBatch, message: msg}
}

// NewIntegrityError creates an error for a document that fails the integrity check.
//
// The returned error will have code ErrCodeIntegrity.
func NewIntegrityError(msg string) error {
	return &DocumentError{code: ErrCodeIntegrity, message: msg}
}

// WrapStorageError wraps a filesystem failure.
//
// The returned error will have code ErrCodeStorage.
func WrapStorageError(err error, msg string) error {
	return &DocumentError{code: ErrCodeStorage, message: msg, wrapped: err}
}
