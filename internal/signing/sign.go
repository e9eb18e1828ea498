// Package signing attaches issuer proofs to wrapped passes and verifies them.
//
// A proof covers the document's 0x-prefixed target hash. Because the target hash commits to every
// salted field (including obfuscated ones), a proof stays valid after selective disclosure.
//
// EdDSA and RS256 proofs hold a JWS compact serialization whose kid names the issuer key.
// Dilithium3 proofs hold a base64 signature; the key is named by the verification method fragment.
package signing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/information-sharing-networks/pass-issuer/internal/document"
)

const (
	// ProofType is the type of every proof written by Sign.
	ProofType = "OpenAttestationSignature2018"

	// ProofPurpose is the purpose of every proof written by Sign.
	ProofPurpose = "assertionMethod"
)

// now is replaced in tests.
var now = time.Now

// VerificationMethod joins an issuer identity and a key id ("did:ethr:0xabc#<kid>").
// With no identity the key id alone is used.
func VerificationMethod(identity, keyID string) string {
	if identity == "" {
		return keyID
	}
	return identity + "#" + keyID
}

// KeyIDFromVerificationMethod returns the key id part of a verification method.
func KeyIDFromVerificationMethod(method string) string {
	if i := strings.LastIndex(method, "#"); i >= 0 {
		return method[i+1:]
	}
	return method
}

// IdentityFromVerificationMethod returns the issuer identity part of a verification method, if any.
func IdentityFromVerificationMethod(method string) string {
	if i := strings.LastIndex(method, "#"); i >= 0 {
		return method[:i]
	}
	return ""
}

// SigningPayload returns the bytes an issuer signs for w: the canonical 0x-prefixed target hash.
func SigningPayload(w *document.WrappedDocument) []byte {
	return []byte(w.CanonicalTargetHash())
}

// Sign signs w's target hash and returns the signed document.
//
// identity is the issuer's verification method base (for example its DID) and may be empty.
// Signer failures are returned as signing errors and are not retried.
func Sign(ctx context.Context, w *document.WrappedDocument, signer Signer, identity string) (*document.SignedWrappedDocument, error) {
	if w == nil {
		return nil, NewSigningError("document is nil")
	}
	if signer == nil {
		return nil, NewConfigurationError("signer is nil")
	}
	if w.Signature.TargetHash == "" {
		return nil, NewSigningError("document has no target hash")
	}

	sig, err := signer.Sign(ctx, SigningPayload(w))
	if err != nil {
		return nil, WrapSigningError(err, "failed to sign target hash")
	}

	return &document.SignedWrappedDocument{
		WrappedDocument: *w,
		Proof: []document.Proof{{
			Type:               ProofType,
			Created:            now().UTC().Format(time.RFC3339),
			ProofPurpose:       ProofPurpose,
			VerificationMethod: VerificationMethod(identity, signer.KeyID()),
			Algorithm:          string(signer.Algorithm()),
			Signature:          sig,
		}},
	}, nil
}

// SignEach signs every document in order and reports a result per document: signed[i] is nil
// exactly when errs[i] is set. A failing document does not stop the others. Once ctx is done the
// remaining documents fail with the context error.
func SignEach(ctx context.Context, docs []*document.WrappedDocument, signer Signer, identity string) ([]*document.SignedWrappedDocument, []error) {
	signed := make([]*document.SignedWrappedDocument, len(docs))
	errs := make([]error, len(docs))
	for i, w := range docs {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		signed[i], errs[i] = Sign(ctx, w, signer, identity)
	}
	return signed, errs
}

// SignDocuments signs every document in order. When any document fails it returns an error
// naming every failed index and no documents.
func SignDocuments(ctx context.Context, docs []*document.WrappedDocument, signer Signer, identity string) ([]*document.SignedWrappedDocument, error) {
	signed, errs := SignEach(ctx, docs, signer, identity)

	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Errorf("document %d: %w", i, err))
		}
	}
	if len(failed) > 0 {
		return nil, errors.Join(failed...)
	}
	return signed, nil
}
