package crypto

import (
	"errors"
	"fmt"
	"testing"
)

// check to ensure error code handling has not been broken
func TestCryptoError_Code(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{"validation", NewValidationError("test"), ErrCodeValidation},
		{"key_derivation", WrapKeyDerivationError(errors.New("boom"), "test"), ErrCodeKeyDerivation},
		{"authentication", NewAuthenticationError("test"), ErrCodeAuthentication},
		{"unsupported_algorithm", NewUnsupportedAlgorithmError("test"), ErrCodeUnsupportedAlgorithm},
		{"signature", NewSignatureError("test"), ErrCodeInvalidSignature},
		{"key_management", NewKeyManagementError("test"), ErrCodeKeyManagement},
		{"internal", WrapInternalError(errors.New("boom"), "test"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cryptoErr *CryptoError
			if !errors.As(tt.err, &cryptoErr) {
				t.Fatal("error is not a CryptoError")
			}
			if cryptoErr.Code() != tt.wantCode {
				t.Errorf("Code() = %q, want %q", cryptoErr.Code(), tt.wantCode)
			}
		})
	}
}

func TestHasCode_Wrapped(t *testing.T) {
	inner := NewAuthenticationError("tag mismatch")
	outer := fmt.Errorf("decrypting envelope: %w", inner)

	if !HasCode(outer, ErrCodeAuthentication) {
		t.Errorf("HasCode() = false, want true for wrapped authentication error")
	}
	if HasCode(outer, ErrCodeKeyDerivation) {
		t.Errorf("HasCode() = true for the wrong code")
	}
	if HasCode(errors.New("plain"), ErrCodeAuthentication) {
		t.Errorf("HasCode() = true for a non crypto error")
	}
}
