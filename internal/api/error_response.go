package api

// error_response.go implements the error response format returned by the pass issuer API.
// It maps errors from the lower level packages to a response the client can act on.

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/encryption"
	"github.com/information-sharing-networks/pass-issuer/internal/logger"
	"github.com/information-sharing-networks/pass-issuer/internal/registry"
	"github.com/information-sharing-networks/pass-issuer/internal/signing"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {

	// The HTTP method used to make the request e.g. GET, POST, etc
	HTTPMethod string `json:"httpMethod"`

	// The URI that was requested
	RequestURI string `json:"requestUri"`

	// The HTTP status code returned
	StatusCode int `json:"statusCode"`

	// A standard short description corresponding to the HTTP status code
	StatusCodeText string `json:"statusCodeText"`

	// A long description corresponding to the HTTP status code with additional information
	StatusCodeMessage string `json:"statusCodeMessage,omitempty"`

	// The request id assigned by the server
	ProviderCorrelationReference string `json:"providerCorrelationReference,omitempty"`

	// The DateTime corresponding to the error occurring
	ErrorDateTime string `json:"errorDateTime"`

	// An array of errors providing more detail about the root cause
	Errors []DetailedError `json:"errors"`
}

// DetailedError is one entry in ErrorResponse.Errors.
type DetailedError struct {
	ErrorCode        ErrorCode `json:"errorCode"`
	Property         string    `json:"property,omitempty"`
	Value            string    `json:"value,omitempty"`
	ErrorCodeText    string    `json:"errorCodeText"`
	ErrorCodeMessage string    `json:"errorCodeMessage"`
}

// mapping is the status, API code and short text chosen for an error.
type mapping struct {
	status int
	code   ErrorCode
	text   string
}

var internalMapping = mapping{http.StatusInternalServerError, ErrCodeInternalError, "Internal Error"}

// MapErrorToResponse maps api, registry, signing, document, encryption, crypto or generic errors
// to an ErrorResponse.
//
// The most specific error type is tried first. Errors that match none of the known types are
// logged as a bug and reported as internal errors.
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	requestID := middleware.GetReqID(r.Context())

	m, ok := classify(err)
	if !ok {
		reqLogger := logger.ContextRequestLogger(r.Context())
		reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
			slog.String("error_type", fmt.Sprintf("%T", err)),
			slog.String("error", err.Error()),
			slog.String("request_id", requestID),
		)
		return newErrorResponse(r, requestID, internalMapping, "An internal error occurred")
	}

	message := err.Error()
	if m.status == http.StatusInternalServerError {
		message = "An internal error occurred"
	}
	return newErrorResponse(r, requestID, m, message)
}

func classify(err error) (mapping, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fromAPI(apiErr.Code()), true
	}

	var rejection *registry.LedgerRejectionError
	if errors.As(err, &rejection) {
		return mapping{http.StatusConflict, ErrCodeLedgerRejection, "Ledger rejected transition"}, true
	}

	var regErr *registry.RegistryError
	if errors.As(err, &regErr) {
		switch regErr.Code() {
		case registry.ErrCodeInvalidHash:
			return mapping{http.StatusBadRequest, ErrCodeInvalidHash, "Invalid hash"}, true
		default:
			return mapping{http.StatusServiceUnavailable, ErrCodeLedgerUnavailable, "Ledger unavailable"}, true
		}
	}

	var sigErr *signing.SigningError
	if errors.As(err, &sigErr) {
		switch sigErr.Code() {
		case signing.ErrCodeInvalidSignature:
			return mapping{http.StatusBadRequest, ErrCodeBadSignature, "Bad signature"}, true
		case signing.ErrCodeKeyNotFound:
			return mapping{http.StatusBadRequest, ErrCodeKeyError, "Error retrieving public key"}, true
		default:
			return internalMapping, true
		}
	}

	var docErr *document.DocumentError
	if errors.As(err, &docErr) {
		switch docErr.Code() {
		case document.ErrCodeMalformedDocument, document.ErrCodeEmptyBatch:
			return mapping{http.StatusBadRequest, ErrCodeInvalidDocument, "Invalid document"}, true
		case document.ErrCodeIntegrity:
			return mapping{http.StatusBadRequest, ErrCodeIntegrity, "Integrity check failed"}, true
		default:
			return internalMapping, true
		}
	}

	var encErr *encryption.EncryptionError
	if errors.As(err, &encErr) {
		return mapping{http.StatusBadRequest, ErrCodeInvalidDocument, "Invalid document"}, true
	}

	var cryptoErr *crypto.CryptoError
	if errors.As(err, &cryptoErr) {
		switch cryptoErr.Code() {
		case crypto.ErrCodeInvalidSignature:
			return mapping{http.StatusBadRequest, ErrCodeBadSignature, "Bad signature"}, true
		case crypto.ErrCodeValidation, crypto.ErrCodeUnsupportedAlgorithm:
			return mapping{http.StatusBadRequest, ErrCodeInvalidDocument, "Invalid document"}, true
		case crypto.ErrCodeKeyManagement:
			return mapping{http.StatusBadRequest, ErrCodeKeyError, "Error retrieving public key"}, true
		default:
			return internalMapping, true
		}
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return fromAPI(ErrCodeRequestTooLarge), true
	}

	return mapping{}, false
}

func fromAPI(code ErrorCode) mapping {
	switch code {
	case ErrCodeMalformedRequest:
		return mapping{http.StatusBadRequest, code, "Malformed request"}
	case ErrCodeNotFound:
		return mapping{http.StatusNotFound, code, "Not found"}
	case ErrCodeRateLimitExceeded:
		return mapping{http.StatusTooManyRequests, code, "Rate limit exceeded"}
	case ErrCodeRequestTooLarge:
		return mapping{http.StatusRequestEntityTooLarge, code, "Request too large"}
	default:
		return internalMapping
	}
}

func newErrorResponse(r *http.Request, requestID string, m mapping, message string) *ErrorResponse {
	return &ErrorResponse{
		HTTPMethod:                   r.Method,
		RequestURI:                   r.RequestURI,
		StatusCode:                   m.status,
		StatusCodeText:               http.StatusText(m.status),
		StatusCodeMessage:            m.text,
		ProviderCorrelationReference: requestID,
		ErrorDateTime:                time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{
				ErrorCode:        m.code,
				ErrorCodeText:    m.text,
				ErrorCodeMessage: message,
			},
		},
	}
}
