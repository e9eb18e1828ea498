// JWK (JSON Web Key) conversions for issuer signing keys
//
// these functions convert raw RSA/Ed25519 keys to JWK format (and back).
// Reference: https://datatracker.ietf.org/doc/html/rfc7517 (JSON Web Key standard)
//
// Issuers publish their public keys as a JWK set; verifiers resolve the proof's
// verificationMethod against that set (see signing.KeyResolver).
//
// Dilithium3 keys have no registered JWK representation and are handled in keys.go as PEM.

package crypto

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// KeyToJWK converts an Ed25519 or RSA key (public or private) to JWK format
// with kid, alg and use=sig set.
func KeyToJWK(raw any, keyID string) (jwk.Key, error) {
	if raw == nil {
		return nil, NewKeyManagementError("key is nil")
	}
	if keyID == "" {
		return nil, NewValidationError("keyID is required")
	}

	var alg jwa.SignatureAlgorithm
	switch raw.(type) {
	case ed25519.PublicKey, ed25519.PrivateKey:
		alg = jwa.EdDSA()
	case *rsa.PublicKey, *rsa.PrivateKey:
		alg = jwa.RS256()
	default:
		return nil, NewUnsupportedAlgorithmError(fmt.Sprintf("unsupported JWK key type %T", raw))
	}

	key, err := jwk.Import(raw)
	if err != nil {
		return nil, WrapKeyManagementError(err, fmt.Sprintf("failed to create JWK from %T", raw))
	}

	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set key ID")
	}

	if err := key.Set(jwk.AlgorithmKey, alg); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set algorithm")
	}

	if err := key.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, WrapKeyManagementError(err, "failed to set key usage")
	}

	return key, nil
}

// JWKToPublicKey exports the raw public key (ed25519.PublicKey or *rsa.PublicKey) from a JWK.
// Private JWKs are reduced to their public half.
func JWKToPublicKey(key jwk.Key) (any, error) {
	if key == nil {
		return nil, NewKeyManagementError("jwk is nil")
	}

	pub, err := jwk.PublicKeyOf(key)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to derive public JWK")
	}

	var raw any
	if err := jwk.Export(pub, &raw); err != nil {
		return nil, WrapKeyManagementError(err, "failed to export public key")
	}

	switch raw.(type) {
	case ed25519.PublicKey, *rsa.PublicKey:
		return raw, nil
	default:
		alg, _ := key.Algorithm()
		return nil, NewUnsupportedAlgorithmError(fmt.Sprintf("unsupported public key with algorithm %v and type %T", alg, raw))
	}
}

// JWKAlgorithm returns the signing Algorithm for a JWK, using the alg field when present
// and the key type otherwise.
func JWKAlgorithm(key jwk.Key) (Algorithm, error) {
	if alg, ok := key.Algorithm(); ok && alg.String() != "" {
		return ParseAlgorithm(alg.String())
	}
	raw, err := JWKToPublicKey(key)
	if err != nil {
		return "", err
	}
	if _, ok := raw.(ed25519.PublicKey); ok {
		return AlgorithmEd25519, nil
	}
	return AlgorithmRSA, nil
}

// PublicJWKSet returns a JWK set holding the public half of an Ed25519 or RSA key.
func PublicJWKSet(raw any, keyID string) (jwk.Set, error) {
	key, err := KeyToJWK(raw, keyID)
	if err != nil {
		return nil, err
	}

	pub, err := jwk.PublicKeyOf(key)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to derive public JWK")
	}

	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		return nil, WrapKeyManagementError(err, "failed to add key to JWK set")
	}
	return set, nil
}

// KeyIDFromPublicKey generates a key ID from a public key.
//
// Ed25519 and RSA keys use the RFC 7638 SHA-256 thumbprint; Dilithium3 keys use SHA-256 over the
// packed key. In both cases the first 16 characters of the hex encoding are returned.
func KeyIDFromPublicKey(publicKey any) (string, error) {
	switch pub := publicKey.(type) {
	case ed25519.PublicKey:
		if len(pub) != ed25519.PublicKeySize {
			return "", NewKeyManagementError("invalid Ed25519 public key length")
		}
	case *rsa.PublicKey:
		if pub == nil {
			return "", NewKeyManagementError("public key is nil")
		}
	case *mode3.PublicKey:
		if pub == nil {
			return "", NewKeyManagementError("public key is nil")
		}
		packed, err := pub.MarshalBinary()
		if err != nil {
			return "", WrapKeyManagementError(err, "failed to pack dilithium3 public key")
		}
		sum := sha256.Sum256(packed)
		return fmt.Sprintf("%x", sum)[:16], nil
	default:
		return "", NewUnsupportedAlgorithmError(fmt.Sprintf("unsupported public key type %T", publicKey))
	}

	jwkKey, err := jwk.Import(publicKey)
	if err != nil {
		return "", WrapKeyManagementError(err, "failed to import key")
	}

	thumbprint, err := jwkKey.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", WrapKeyManagementError(err, "failed to generate thumbprint")
	}

	return fmt.Sprintf("%x", thumbprint)[:16], nil
}
