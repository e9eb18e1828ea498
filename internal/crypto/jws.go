// jws.go - signing and verifying JWS (JSON Web Signature) compact serializations
//
// Pass proofs signed with EdDSA or RS256 carry a JWS compact serialization whose payload is the
// 0x-prefixed target hash. Dilithium3 proofs are not JWS (see dilithium.go).
//
// The kid header identifies the signing key so verifiers can resolve it from a JWK set.
package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jws"
)

// JWSHeader represents the protected header of a JWS token
type JWSHeader struct {
	Algorithm string `json:"alg"` // "RS256/EdDSA"
	KeyID     string `json:"kid"`
}

// jwsAlgorithm maps an Algorithm to the jwa signature algorithm used in the JWS header.
func jwsAlgorithm(alg Algorithm) (jwa.SignatureAlgorithm, error) {
	switch alg {
	case AlgorithmEd25519:
		return jwa.EdDSA(), nil
	case AlgorithmRSA:
		return jwa.RS256(), nil
	default:
		return jwa.SignatureAlgorithm{}, NewUnsupportedAlgorithmError(fmt.Sprintf("%s cannot be used with JWS", alg))
	}
}

// SignJWS returns a JWS Compact Serialization (Base64URL) string over payload.
//
// privateKey must be an ed25519.PrivateKey (EdDSA) or *rsa.PrivateKey (RS256).
func SignJWS(payload []byte, privateKey any, keyID string) (string, error) {
	if keyID == "" {
		return "", NewValidationError("keyID is required")
	}

	var alg Algorithm
	switch privateKey.(type) {
	case ed25519.PrivateKey:
		alg = AlgorithmEd25519
	case *rsa.PrivateKey:
		alg = AlgorithmRSA
	default:
		return "", NewUnsupportedAlgorithmError(fmt.Sprintf("unsupported JWS signing key type %T", privateKey))
	}

	sigAlg, err := jwsAlgorithm(alg)
	if err != nil {
		return "", err
	}

	headers := jws.NewHeaders()
	if err := headers.Set(jws.KeyIDKey, keyID); err != nil {
		return "", WrapInternalError(err, "failed to set kid header")
	}

	signed, err := jws.Sign(payload, jws.WithKey(sigAlg, privateKey, jws.WithProtectedHeaders(headers)))
	if err != nil {
		return "", WrapSignatureError(err, "failed to sign payload")
	}

	return string(signed), nil
}

// VerifyJWS verifies a JWS compact serialization with publicKey and returns the payload.
//
// alg pins the accepted algorithm so a token cannot downgrade the verifier.
func VerifyJWS(token string, publicKey any, alg Algorithm) ([]byte, error) {
	sigAlg, err := jwsAlgorithm(alg)
	if err != nil {
		return nil, err
	}

	payload, err := jws.Verify([]byte(token), jws.WithKey(sigAlg, publicKey))
	if err != nil {
		return nil, WrapSignatureError(err, "failed to verify JWS")
	}

	return payload, nil
}

// VerifyJWSWithKeyProvider verifies a JWS compact serialization, resolving the key through
// keyProvider (typically by the kid header), and returns the payload.
func VerifyJWSWithKeyProvider(token string, keyProvider jws.KeyProvider) ([]byte, error) {
	if keyProvider == nil {
		return nil, NewKeyManagementError("key provider is required")
	}

	payload, err := jws.Verify([]byte(token), jws.WithKeyProvider(keyProvider))
	if err != nil {
		return nil, WrapSignatureError(err, "failed to verify JWS")
	}

	return payload, nil
}

// ParseJWSHeader extracts the header from a JWS without verifying it.
// The function returns an error if the header contains something other than the fields in JWSHeader
func ParseJWSHeader(token string) (JWSHeader, error) {

	// the structure of the jws is Base64URL(Header).Base64URL(Payload).Base64URL(Signature)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return JWSHeader{}, NewValidationError("invalid JWS format")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return JWSHeader{}, WrapValidationError(err, "error decoding the header")
	}

	var header JWSHeader

	decoder := json.NewDecoder(bytes.NewReader(headerBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&header); err != nil {
		return JWSHeader{}, WrapValidationError(err, "could not unmarshal header")
	}

	if header.Algorithm == "" {
		return JWSHeader{}, NewValidationError("missing required field: alg")
	}
	if header.KeyID == "" {
		return JWSHeader{}, NewValidationError("missing required field: kid")
	}

	return header, nil
}
