// dilithium.go - post-quantum pass signatures using CRYSTALS-Dilithium (mode 3)
//
// The message is reduced to a SHA3-256 digest and the digest is signed.
// Signatures are base64 (standard encoding) raw signature bytes.
package crypto

import (
	"encoding/base64"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

// GenerateDilithium3KeyPair returns a new Dilithium3 keypair.
func GenerateDilithium3KeyPair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	pub, priv, err := mode3.GenerateKey(rand)
	if err != nil {
		return nil, nil, WrapKeyManagementError(err, "failed to generate dilithium3 key pair")
	}
	return pub, priv, nil
}

// SignDilithium3 returns a base64 dilithium3 signature over sha3-256(message).
func SignDilithium3(message []byte, privateKey *mode3.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", NewKeyManagementError("missing dilithium3 private key")
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(privateKey, SHA3256(message), sig)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyDilithium3 checks a base64 dilithium3 signature over sha3-256(message).
func VerifyDilithium3(message []byte, signature string, publicKey *mode3.PublicKey) error {
	if publicKey == nil {
		return NewKeyManagementError("missing dilithium3 public key")
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return WrapSignatureError(err, "invalid signature base64")
	}
	if len(sig) != mode3.SignatureSize {
		return NewSignatureError(fmt.Sprintf("invalid dilithium3 signature length %d", len(sig)))
	}
	if !mode3.Verify(publicKey, SHA3256(message), sig) {
		return NewSignatureError("dilithium3 signature does not match")
	}
	return nil
}

// Dilithium3PublicKeyFromBytes parses a packed dilithium3 public key.
func Dilithium3PublicKeyFromBytes(b []byte) (*mode3.PublicKey, error) {
	var pk mode3.PublicKey
	if err := pk.UnmarshalBinary(b); err != nil {
		return nil, WrapKeyManagementError(err, "invalid dilithium3 public key")
	}
	return &pk, nil
}

// Dilithium3PrivateKeyFromBytes parses a packed dilithium3 private key.
func Dilithium3PrivateKeyFromBytes(b []byte) (*mode3.PrivateKey, error) {
	var sk mode3.PrivateKey
	if err := sk.UnmarshalBinary(b); err != nil {
		return nil, WrapKeyManagementError(err, "invalid dilithium3 private key")
	}
	return &sk, nil
}
