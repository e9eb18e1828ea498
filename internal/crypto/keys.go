// this file contains functions to generate, save and load issuer signing keys
//
// Ed25519 and RSA keys are saved in JWK format (a JWK set holding one key).
// Dilithium3 keys are saved as PEM blocks holding the packed key bytes, with the kid carried as a PEM header.
//
// All file access is scoped to a base directory using os.OpenRoot.

package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

const (
	pemTypeDilithiumPrivate = "DILITHIUM3 PRIVATE KEY"
	pemTypeDilithiumPublic  = "DILITHIUM3 PUBLIC KEY"
	pemHeaderKeyID          = "Key-Id"
)

// GenerateEd25519KeyPair generates a new ED25519 private key
func GenerateEd25519KeyPair() (ed25519.PrivateKey, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to generate key pair")
	}

	return privateKey, nil
}

// GenerateRSAKeyPair generates a new RSA key pair with the specified bit size
// minimum key size is 2048 bits (4096 is recommended) - key size must be a multiple of 256
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	if bits < 2048 {
		return nil, NewValidationError("key size must be at least 2048 bits")
	}

	if bits%256 != 0 {
		return nil, NewValidationError("key size should be a multiple of 256")
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to generate key pair")
	}

	return privateKey, nil
}

// SaveKeyToJWKFile saves an Ed25519 or RSA key to a JWK set file.
// Private keys are written with mode 0600, public keys with 0644. Private keys are not encrypted.
//
// Parameters:
//   - baseDir: The base directory to scope file access (e.g., "./keys")
//   - filename: The filename within the base directory (e.g., "issuer.private.jwk")
func SaveKeyToJWKFile(raw any, keyID, baseDir, filename string) error {
	jwkKey, err := KeyToJWK(raw, keyID)
	if err != nil {
		return err
	}

	jwkSet := jwk.NewSet()
	if err := jwkSet.AddKey(jwkKey); err != nil {
		return WrapKeyManagementError(err, "failed to add key to JWK set")
	}

	jsonBytes, err := json.MarshalIndent(jwkSet, "", "  ")
	if err != nil {
		return WrapKeyManagementError(err, "failed to marshal JWK set")
	}

	perm := os.FileMode(0644)
	switch raw.(type) {
	case ed25519.PrivateKey, *rsa.PrivateKey:
		perm = 0600
	}

	return writeScopedFile(baseDir, filename, jsonBytes, perm)
}

// SaveDilithium3KeyToPEMFile saves a Dilithium3 private or public key to a PEM file.
func SaveDilithium3KeyToPEMFile(key any, keyID, baseDir, filename string) error {
	if keyID == "" {
		return NewValidationError("keyID is required")
	}

	var (
		blockType string
		packed    []byte
		err       error
		perm      os.FileMode
	)

	switch k := key.(type) {
	case *mode3.PrivateKey:
		blockType, perm = pemTypeDilithiumPrivate, 0600
		packed, err = k.MarshalBinary()
	case *mode3.PublicKey:
		blockType, perm = pemTypeDilithiumPublic, 0644
		packed, err = k.MarshalBinary()
	default:
		return NewUnsupportedAlgorithmError(fmt.Sprintf("unsupported dilithium3 key type %T", key))
	}
	if err != nil {
		return WrapKeyManagementError(err, "failed to pack dilithium3 key")
	}

	block := &pem.Block{
		Type:    blockType,
		Headers: map[string]string{pemHeaderKeyID: keyID},
		Bytes:   packed,
	}

	return writeScopedFile(baseDir, filename, pem.EncodeToMemory(block), perm)
}

// ReadPrivateKeyFile loads an issuer signing key and its kid.
//
// Files ending in .pem are read as Dilithium3 PEM keys; all others as JWK sets holding one key.
// The returned key is an ed25519.PrivateKey, *rsa.PrivateKey or *mode3.PrivateKey.
func ReadPrivateKeyFile(baseDir, filename string) (any, string, error) {
	data, err := readScopedFile(baseDir, filename)
	if err != nil {
		return nil, "", err
	}

	if strings.HasSuffix(filename, ".pem") {
		packed, keyID, err := decodeDilithiumPEM(data, pemTypeDilithiumPrivate)
		if err != nil {
			return nil, "", err
		}
		priv, err := Dilithium3PrivateKeyFromBytes(packed)
		if err != nil {
			return nil, "", err
		}
		return priv, keyID, nil
	}

	key, keyID, err := parseSingleJWK(data)
	if err != nil {
		return nil, "", err
	}

	var raw any
	if err := jwk.Export(key, &raw); err != nil {
		return nil, "", WrapKeyManagementError(err, "failed to export key")
	}

	switch raw.(type) {
	case ed25519.PrivateKey, *rsa.PrivateKey:
		return raw, keyID, nil
	default:
		return nil, "", NewKeyManagementError(fmt.Sprintf("%s does not hold a supported private key (%T)", filename, raw))
	}
}

// ReadPublicKeyFile loads an issuer public key and its kid.
// The returned key is an ed25519.PublicKey, *rsa.PublicKey or *mode3.PublicKey.
func ReadPublicKeyFile(baseDir, filename string) (any, string, error) {
	data, err := readScopedFile(baseDir, filename)
	if err != nil {
		return nil, "", err
	}

	if strings.HasSuffix(filename, ".pem") {
		packed, keyID, err := decodeDilithiumPEM(data, pemTypeDilithiumPublic)
		if err != nil {
			return nil, "", err
		}
		pub, err := Dilithium3PublicKeyFromBytes(packed)
		if err != nil {
			return nil, "", err
		}
		return pub, keyID, nil
	}

	key, keyID, err := parseSingleJWK(data)
	if err != nil {
		return nil, "", err
	}

	pub, err := JWKToPublicKey(key)
	if err != nil {
		return nil, "", err
	}
	return pub, keyID, nil
}

func parseSingleJWK(data []byte) (jwk.Key, string, error) {
	jwkSet, err := jwk.Parse(data)
	if err != nil {
		return nil, "", WrapKeyManagementError(err, "failed to parse JWK set")
	}

	if jwkSet.Len() != 1 {
		return nil, "", NewKeyManagementError(fmt.Sprintf("JWK set must hold exactly one key, found %d", jwkSet.Len()))
	}

	key, _ := jwkSet.Key(0)

	keyID, ok := key.KeyID()
	if !ok || keyID == "" {
		return nil, "", NewKeyManagementError("JWK is missing kid")
	}

	return key, keyID, nil
}

func decodeDilithiumPEM(data []byte, wantType string) ([]byte, string, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, "", NewKeyManagementError("failed to decode PEM block")
	}

	if block.Type != wantType {
		return nil, "", NewKeyManagementError(fmt.Sprintf("PEM block is %q, want %q", block.Type, wantType))
	}

	keyID := block.Headers[pemHeaderKeyID]
	if keyID == "" {
		return nil, "", NewKeyManagementError("PEM block is missing the " + pemHeaderKeyID + " header")
	}

	return block.Bytes, keyID, nil
}

func writeScopedFile(baseDir, filename string, data []byte, perm os.FileMode) error {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return WrapKeyManagementError(err, fmt.Sprintf("failed to open root directory %s", baseDir))
	}
	defer root.Close()

	if err := root.WriteFile(filename, data, perm); err != nil {
		return WrapKeyManagementError(err, "failed to write file")
	}

	return nil
}

func readScopedFile(baseDir, filename string) ([]byte, error) {
	root, err := os.OpenRoot(baseDir)
	if err != nil {
		return nil, WrapKeyManagementError(err, fmt.Sprintf("failed to open root directory %s", baseDir))
	}
	defer root.Close()

	data, err := root.ReadFile(filename)
	if err != nil {
		return nil, WrapKeyManagementError(err, "failed to read file")
	}

	return data, nil
}
