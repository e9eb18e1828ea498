package signing

import (
	"context"
	stdcrypto "crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
)

// Signer is the issuer's signing capability. Implementations must be safe for concurrent use.
type Signer interface {
	// Algorithm is recorded in each proof so verifiers can pick the matching routine.
	Algorithm() crypto.Algorithm

	// KeyID identifies the public key verifiers must use.
	KeyID() string

	// Sign returns the encoded signature over payload.
	Sign(ctx context.Context, payload []byte) (string, error)
}

// NewSigner builds a Signer from a raw private key.
//
// privateKey must be an ed25519.PrivateKey, *rsa.PrivateKey or *mode3.PrivateKey.
func NewSigner(privateKey any, keyID string) (Signer, error) {
	if keyID == "" {
		return nil, NewConfigurationError("key id is required")
	}

	switch key := privateKey.(type) {
	case ed25519.PrivateKey:
		return &jwsSigner{alg: crypto.AlgorithmEd25519, key: key, keyID: keyID}, nil
	case *rsa.PrivateKey:
		return &jwsSigner{alg: crypto.AlgorithmRSA, key: key, keyID: keyID}, nil
	case *mode3.PrivateKey:
		return &dilithiumSigner{key: key, keyID: keyID}, nil
	default:
		return nil, NewConfigurationError(fmt.Sprintf("unsupported signing key type %T", privateKey))
	}
}

// IssuerKey is an issuer signing key loaded from disk.
type IssuerKey struct {
	Signer     Signer
	PrivateKey any
	PublicKey  any
}

// LoadIssuerKey reads an issuer private key file (JWK or Dilithium3 PEM) from baseDir and builds
// its Signer.
func LoadIssuerKey(baseDir, filename string) (*IssuerKey, error) {
	key, keyID, err := crypto.ReadPrivateKeyFile(baseDir, filename)
	if err != nil {
		return nil, WrapConfigurationError(err, fmt.Sprintf("failed to load signing key %s", filename))
	}
	signer, err := NewSigner(key, keyID)
	if err != nil {
		return nil, err
	}
	pk, ok := key.(interface{ Public() stdcrypto.PublicKey })
	if !ok {
		return nil, NewConfigurationError(fmt.Sprintf("signing key %T has no public half", key))
	}
	return &IssuerKey{Signer: signer, PrivateKey: key, PublicKey: pk.Public()}, nil
}

// jwsSigner produces JWS compact serializations (EdDSA or RS256).
type jwsSigner struct {
	alg   crypto.Algorithm
	key   any
	keyID string
}

func (s *jwsSigner) Algorithm() crypto.Algorithm { return s.alg }
func (s *jwsSigner) KeyID() string               { return s.keyID }

func (s *jwsSigner) Sign(ctx context.Context, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return crypto.SignJWS(payload, s.key, s.keyID)
}

// dilithiumSigner produces base64 Dilithium3 signatures.
type dilithiumSigner struct {
	key   *mode3.PrivateKey
	keyID string
}

func (s *dilithiumSigner) Algorithm() crypto.Algorithm { return crypto.AlgorithmDilithium3 }
func (s *dilithiumSigner) KeyID() string               { return s.keyID }

func (s *dilithiumSigner) Sign(ctx context.Context, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return crypto.SignDilithium3(payload, s.key)
}
