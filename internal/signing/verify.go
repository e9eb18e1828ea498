package signing

import (
	"context"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/lestrrat-go/jwx/v3/jws"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
	"github.com/information-sharing-networks/pass-issuer/internal/document"
)

// KeyResolver returns the raw public key for a key id.
// KeyManager and StaticKeys implement it.
type KeyResolver interface {
	PublicKey(ctx context.Context, keyID string) (any, error)
}

// StaticKeys is a KeyResolver over a fixed set of public keys keyed by kid.
type StaticKeys map[string]any

// PublicKey implements KeyResolver.
func (s StaticKeys) PublicKey(_ context.Context, keyID string) (any, error) {
	key, ok := s[keyID]
	if !ok {
		return nil, NewKeyNotFoundError(fmt.Sprintf("key not found: %s", keyID))
	}
	return key, nil
}

// Verify checks every proof on signed against the target hash, resolving issuer keys through resolver.
// A document without proofs is rejected.
func Verify(ctx context.Context, signed *document.SignedWrappedDocument, resolver KeyResolver) error {
	if signed == nil || len(signed.Proof) == 0 {
		return NewInvalidSignatureError("document has no proof")
	}
	if resolver == nil {
		return NewConfigurationError("key resolver is nil")
	}

	payload := SigningPayload(&signed.WrappedDocument)
	for i, proof := range signed.Proof {
		if err := verifyProof(ctx, payload, proof, resolver); err != nil {
			return fmt.Errorf("proof %d: %w", i, err)
		}
	}
	return nil
}

func verifyProof(ctx context.Context, payload []byte, proof document.Proof, resolver KeyResolver) error {
	if proof.Type != ProofType {
		return NewInvalidSignatureError(fmt.Sprintf("unsupported proof type %q", proof.Type))
	}
	if proof.ProofPurpose != ProofPurpose {
		return NewInvalidSignatureError(fmt.Sprintf("unsupported proof purpose %q", proof.ProofPurpose))
	}

	alg, err := crypto.ParseAlgorithm(proof.Algorithm)
	if err != nil {
		return WrapInvalidSignatureError(err, "unknown proof algorithm")
	}

	keyID := KeyIDFromVerificationMethod(proof.VerificationMethod)
	if keyID == "" {
		return NewInvalidSignatureError("proof has no verification method")
	}

	switch alg {
	case crypto.AlgorithmEd25519, crypto.AlgorithmRSA:
		return verifyJWSProof(ctx, payload, proof.Signature, alg, keyID, resolver)
	case crypto.AlgorithmDilithium3:
		pub, err := resolver.PublicKey(ctx, keyID)
		if err != nil {
			return err
		}
		dpub, ok := pub.(*mode3.PublicKey)
		if !ok {
			return NewInvalidSignatureError(fmt.Sprintf("key %s is not a dilithium3 key (%T)", keyID, pub))
		}
		if err := crypto.VerifyDilithium3(payload, proof.Signature, dpub); err != nil {
			return WrapInvalidSignatureError(err, "dilithium3 signature verification failed")
		}
		return nil
	default:
		return NewInvalidSignatureError(fmt.Sprintf("unsupported proof algorithm %s", alg))
	}
}

func verifyJWSProof(ctx context.Context, payload []byte, token string, alg crypto.Algorithm, keyID string, resolver KeyResolver) error {
	header, err := crypto.ParseJWSHeader(token)
	if err != nil {
		return WrapInvalidSignatureError(err, "invalid JWS header")
	}
	if header.KeyID != keyID {
		return NewInvalidSignatureError(fmt.Sprintf("JWS kid %s does not match verification method key %s", header.KeyID, keyID))
	}
	if header.Algorithm != string(alg) {
		return NewInvalidSignatureError(fmt.Sprintf("JWS alg %s does not match proof algorithm %s", header.Algorithm, alg))
	}

	var signedPayload []byte
	if provider, ok := resolver.(jws.KeyProvider); ok {
		signedPayload, err = crypto.VerifyJWSWithKeyProvider(token, provider)
	} else {
		var pub any
		pub, err = resolver.PublicKey(ctx, keyID)
		if err != nil {
			return err
		}
		signedPayload, err = crypto.VerifyJWS(token, pub, alg)
	}
	if err != nil {
		return WrapInvalidSignatureError(err, "JWS verification failed")
	}

	if string(signedPayload) != string(payload) {
		return NewInvalidSignatureError("signature does not cover the document target hash")
	}
	return nil
}
