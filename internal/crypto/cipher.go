// cipher.go provides the symmetric encryption primitive used for passes at rest.
//
// A CipherSpec is either an AEAD mode (AES-GCM, produces an authentication tag) or a plain
// stream mode (AES-CTR, no tag). A CipherSpec is a tagged variant: callers pick the variant and the
// primitive branches on its type, never on the algorithm name.
//
// Every call generates a fresh 16-byte IV. All output fields are base64 encoded so results can be
// embedded in JSON documents.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// IVSize is the size of the initialization vector generated for every encryption.
const IVSize = 16

// gcmTagSize is the size of the GCM authentication tag.
const gcmTagSize = 16

// CipherSpec identifies a symmetric cipher and its key length.
type CipherSpec interface {
	Algorithm() string
	KeyLen() int
	cipherSpec()
}

// AEAD is an authenticated cipher spec (AES-GCM family).
type AEAD struct {
	Name    string
	KeySize int
}

func (a AEAD) Algorithm() string { return a.Name }
func (a AEAD) KeyLen() int       { return a.KeySize }
func (AEAD) cipherSpec()         {}

// Plain is an unauthenticated cipher spec (AES-CTR family).
type Plain struct {
	Name    string
	KeySize int
}

func (p Plain) Algorithm() string { return p.Name }
func (p Plain) KeyLen() int       { return p.KeySize }
func (Plain) cipherSpec()         {}

var (
	AES128GCM = AEAD{Name: "aes-128-gcm", KeySize: 16}
	AES192GCM = AEAD{Name: "aes-192-gcm", KeySize: 24}
	AES256GCM = AEAD{Name: "aes-256-gcm", KeySize: 32}

	AES128CTR = Plain{Name: "aes-128-ctr", KeySize: 16}
	AES192CTR = Plain{Name: "aes-192-ctr", KeySize: 24}
	AES256CTR = Plain{Name: "aes-256-ctr", KeySize: 32}
)

// EncryptionResult is the output of Encrypt: either an AEADResult or a PlainResult.
type EncryptionResult interface {
	encryptionResult()
}

// AEADResult is produced by AEAD cipher specs.
type AEADResult struct {
	CipherText string `json:"cipherText"`
	IV         string `json:"iv"`
	Tag        string `json:"tag"`
}

// PlainResult is produced by Plain cipher specs.
type PlainResult struct {
	CipherText string `json:"cipherText"`
	IV         string `json:"iv"`
}

func (AEADResult) encryptionResult()  {}
func (PlainResult) encryptionResult() {}

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, WrapInternalError(err, "failed to read random bytes")
	}
	return b, nil
}

// Encrypt encrypts plaintext with key using spec.
//
// A fresh IV is drawn for every call so an IV is never reused for a given key.
func Encrypt(key, plaintext []byte, spec CipherSpec) (EncryptionResult, error) {
	if spec == nil {
		return nil, NewUnsupportedAlgorithmError("cipher spec is required")
	}
	block, err := newBlock(key, spec)
	if err != nil {
		return nil, err
	}

	iv, err := RandomBytes(IVSize)
	if err != nil {
		return nil, err
	}

	switch spec.(type) {
	case AEAD:
		gcm, err := cipher.NewGCMWithNonceSize(block, IVSize)
		if err != nil {
			return nil, WrapInternalError(err, "failed to create GCM cipher")
		}
		sealed := gcm.Seal(nil, iv, plaintext, nil)
		cipherText, tag := sealed[:len(sealed)-gcmTagSize], sealed[len(sealed)-gcmTagSize:]
		return AEADResult{
			CipherText: base64.StdEncoding.EncodeToString(cipherText),
			IV:         base64.StdEncoding.EncodeToString(iv),
			Tag:        base64.StdEncoding.EncodeToString(tag),
		}, nil

	case Plain:
		cipherText := make([]byte, len(plaintext))
		cipher.NewCTR(block, iv).XORKeyStream(cipherText, plaintext)
		return PlainResult{
			CipherText: base64.StdEncoding.EncodeToString(cipherText),
			IV:         base64.StdEncoding.EncodeToString(iv),
		}, nil

	default:
		return nil, NewUnsupportedAlgorithmError(fmt.Sprintf("unsupported cipher spec %T", spec))
	}
}

// Decrypt is the inverse of Encrypt.
//
// For AEAD specs the tag is verified before any plaintext is released: on mismatch an
// authentication error is returned and the plaintext is nil.
func Decrypt(key []byte, result EncryptionResult, spec CipherSpec) ([]byte, error) {
	if spec == nil {
		return nil, NewUnsupportedAlgorithmError("cipher spec is required")
	}
	block, err := newBlock(key, spec)
	if err != nil {
		return nil, err
	}

	switch spec.(type) {
	case AEAD:
		r, ok := result.(AEADResult)
		if !ok {
			return nil, NewValidationError(fmt.Sprintf("cipher %s requires an AEAD result, got %T", spec.Algorithm(), result))
		}
		cipherText, iv, err := decodeFields(r.CipherText, r.IV)
		if err != nil {
			return nil, err
		}
		tag, err := base64.StdEncoding.DecodeString(r.Tag)
		if err != nil {
			return nil, WrapValidationError(err, "tag is not valid base64")
		}
		if len(tag) != gcmTagSize {
			return nil, NewAuthenticationError(fmt.Sprintf("authentication tag must be %d bytes", gcmTagSize))
		}
		gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
		if err != nil {
			return nil, WrapInternalError(err, "failed to create GCM cipher")
		}
		plaintext, err := gcm.Open(nil, iv, append(cipherText, tag...), nil)
		if err != nil {
			return nil, WrapAuthenticationError(err, "ciphertext failed authentication")
		}
		return plaintext, nil

	case Plain:
		r, ok := result.(PlainResult)
		if !ok {
			return nil, NewValidationError(fmt.Sprintf("cipher %s requires a plain result, got %T", spec.Algorithm(), result))
		}
		cipherText, iv, err := decodeFields(r.CipherText, r.IV)
		if err != nil {
			return nil, err
		}
		if len(iv) != aes.BlockSize {
			return nil, NewValidationError(fmt.Sprintf("iv must be %d bytes", aes.BlockSize))
		}
		plaintext := make([]byte, len(cipherText))
		cipher.NewCTR(block, iv).XORKeyStream(plaintext, cipherText)
		return plaintext, nil

	default:
		return nil, NewUnsupportedAlgorithmError(fmt.Sprintf("unsupported cipher spec %T", spec))
	}
}

func newBlock(key []byte, spec CipherSpec) (cipher.Block, error) {
	if len(key) != spec.KeyLen() {
		return nil, NewValidationError(fmt.Sprintf("%s requires a %d byte key, got %d", spec.Algorithm(), spec.KeyLen(), len(key)))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, WrapInternalError(err, "failed to create AES cipher")
	}
	return block, nil
}

func decodeFields(cipherTextB64, ivB64 string) ([]byte, []byte, error) {
	cipherText, err := base64.StdEncoding.DecodeString(cipherTextB64)
	if err != nil {
		return nil, nil, WrapValidationError(err, "cipherText is not valid base64")
	}
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return nil, nil, WrapValidationError(err, "iv is not valid base64")
	}
	if len(iv) == 0 {
		return nil, nil, NewValidationError("iv is required")
	}
	return cipherText, iv, nil
}
