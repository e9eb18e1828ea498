package encryption

import (
	"context"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
	"github.com/information-sharing-networks/pass-issuer/internal/document"
	"github.com/information-sharing-networks/pass-issuer/internal/signing"
)

const testKey = "a7c3f5c4b2ef8f0e7d0b1c9a6e4d3b2a190817263544536271809a0b0c0d0e0f"

func signedPass(t *testing.T, verificationURL string) *document.SignedWrappedDocument {
	t.Helper()
	ctx := context.Background()

	raw := document.RawDocument{
		"name":   "Long Term Visit Pass",
		"status": "live",
		"recipient": map[string]any{
			"name": "Lebron",
			"fin":  "L1234567J",
		},
	}
	if verificationURL != "" {
		raw["verificationUrl"] = verificationURL
	}

	w, err := document.WrapDocument(ctx, raw)
	if err != nil {
		t.Fatalf("WrapDocument() returned error: %v", err)
	}

	priv, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair() returned error: %v", err)
	}
	signer, err := signing.NewSigner(priv, "issuer-key")
	if err != nil {
		t.Fatalf("NewSigner() returned error: %v", err)
	}
	signed, err := signing.Sign(ctx, w, signer, "did:ethr:0xC5f1FFfaAA0984c0dB6a82440b9885204eb3A482")
	if err != nil {
		t.Fatalf("Sign() returned error: %v", err)
	}
	return signed
}

func TestBuildAndParseVerificationURL(t *testing.T) {
	link, err := BuildVerificationURL("https://action.openattestation.com", "https://passes.example.com/ltvp/abc123", testKey, "https://tradetrust.io/")
	if err != nil {
		t.Fatalf("BuildVerificationURL() returned error: %v", err)
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"plain", link},
		{"percent encoded", url.QueryEscape(link)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVerificationURL(tt.raw)
			if err != nil {
				t.Fatalf("ParseVerificationURL() returned error: %v", err)
			}
			if got.URI != "https://passes.example.com/ltvp/abc123" {
				t.Errorf("URI = %s", got.URI)
			}
			if got.Key != testKey {
				t.Errorf("Key = %s, want %s", got.Key, testKey)
			}
			key, err := got.StorageKey()
			if err != nil {
				t.Fatalf("StorageKey() returned error: %v", err)
			}
			if key != "ltvp/abc123" {
				t.Errorf("StorageKey() = %s, want ltvp/abc123", key)
			}
		})
	}
}

func TestParseVerificationURL_Invalid(t *testing.T) {
	q := url.QueryEscape(`{"payload":{"uri":"https://passes.example.com/x"}}`)
	tests := []struct {
		name string
		raw  string
	}{
		{"no query", "https://action.openattestation.com/#" + url.PathEscape(`{"key":"`+testKey+`"}`)},
		{"query not json", "https://action.openattestation.com/?q=nope#" + url.PathEscape(`{"key":"`+testKey+`"}`)},
		{"no uri", "https://action.openattestation.com/?q=" + url.QueryEscape(`{"payload":{}}`) + "#" + url.PathEscape(`{"key":"`+testKey+`"}`)},
		{"no fragment", "https://action.openattestation.com/?q=" + q},
		{"fragment not json", "https://action.openattestation.com/?q=" + q + "#key"},
		{"short key", "https://action.openattestation.com/?q=" + q + "#" + url.PathEscape(`{"key":"abcd"}`)},
		{"key not hex", "https://action.openattestation.com/?q=" + q + "#" + url.PathEscape(`{"key":"`+strings.Repeat("z", 64)+`"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseVerificationURL(tt.raw); !HasCode(err, ErrCodeVerificationURL) {
				t.Errorf("ParseVerificationURL() error = %v, want verification_url", err)
			}
		})
	}
}

func TestStorageKey_NoPath(t *testing.T) {
	link := &VerificationLink{URI: "https://passes.example.com", Key: testKey}
	if _, err := link.StorageKey(); !HasCode(err, ErrCodeVerificationURL) {
		t.Errorf("StorageKey() error = %v, want verification_url", err)
	}
}

func TestEncryptDocument_EndToEnd(t *testing.T) {
	ctx := context.Background()

	key, err := NewDocumentKey()
	if err != nil {
		t.Fatalf("NewDocumentKey() returned error: %v", err)
	}
	link, err := BuildVerificationURL("https://action.openattestation.com", "https://passes.example.com/ltvp/abc123", key, "")
	if err != nil {
		t.Fatalf("BuildVerificationURL() returned error: %v", err)
	}
	signed := signedPass(t, link)

	upload, err := EncryptDocument(ctx, signed, "p@ss", testParams)
	if err != nil {
		t.Fatalf("EncryptDocument() returned error: %v", err)
	}
	if upload.StorageKey != "ltvp/abc123" {
		t.Errorf("StorageKey = %s, want ltvp/abc123", upload.StorageKey)
	}
	if upload.TargetHash != signed.CanonicalTargetHash() {
		t.Errorf("TargetHash = %s, want %s", upload.TargetHash, signed.CanonicalTargetHash())
	}
	if strings.Contains(upload.Envelope.CipherText, key) {
		t.Errorf("envelope leaks the document key")
	}

	got, err := DecryptDocument(ctx, upload.Envelope, "p@ss", key, testParams)
	if err != nil {
		t.Fatalf("DecryptDocument() returned error: %v", err)
	}
	if !reflect.DeepEqual(got, signed) {
		t.Errorf("DecryptDocument() = %+v, want %+v", got, signed)
	}
	if err := document.VerifyIntegrity(&got.WrappedDocument); err != nil {
		t.Errorf("VerifyIntegrity() of the decrypted document returned error: %v", err)
	}

	t.Run("wrong password", func(t *testing.T) {
		if _, err := DecryptDocument(ctx, upload.Envelope, "wrong", key, testParams); !crypto.HasCode(err, crypto.ErrCodeAuthentication) {
			t.Errorf("DecryptDocument() error = %v, want authentication", err)
		}
	})

	t.Run("wrong document key", func(t *testing.T) {
		other, _ := NewDocumentKey()
		if _, err := DecryptDocument(ctx, upload.Envelope, "p@ss", other, testParams); !crypto.HasCode(err, crypto.ErrCodeAuthentication) {
			t.Errorf("DecryptDocument() error = %v, want authentication", err)
		}
	})
}

func TestEncryptDocument_NoVerificationURL(t *testing.T) {
	signed := signedPass(t, "")
	if _, err := EncryptDocument(context.Background(), signed, "p@ss", testParams); !HasCode(err, ErrCodeVerificationURL) {
		t.Errorf("EncryptDocument() error = %v, want verification_url", err)
	}
}

func TestDecryptDocument_WrongType(t *testing.T) {
	ctx := context.Background()
	env, err := EncryptWithPassword(ctx, "p@ss", []byte(`{"cipherText":"","iv":"","tag":"","type":"OTHER"}`), testParams)
	if err != nil {
		t.Fatalf("EncryptWithPassword() returned error: %v", err)
	}
	if _, err := DecryptDocument(ctx, env, "p@ss", testKey, testParams); !HasCode(err, ErrCodeMalformedEnvelope) {
		t.Errorf("DecryptDocument() error = %v, want malformed_envelope", err)
	}
}
