// Package encryption protects signed passes for confidential storage.
//
// EncryptWithPassword seals arbitrary bytes in a password envelope: the NFKC-normalised password is
// stretched with scrypt under a fresh 32-byte salt and the data is sealed with aes-256-gcm.
// The derived key is never stored; only the salt travels with the ciphertext.
// The normalised password bytes go to scrypt as they are; a base64-looking password is not
// decoded first, so envelopes from tools that decode it cannot be opened with the same string.
//
// EncryptDocument adds a second layer keyed by the random document key embedded in the pass's
// verification URL, so a holder of the link can open the document once the envelope is removed.
package encryption

import (
	"context"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
)

// envelopeCipher seals password envelopes and the inner document layer.
var envelopeCipher = crypto.AES256GCM

// Envelope is a password-sealed payload. All fields are base64.
type Envelope struct {
	CipherText string `json:"cipherText"`
	IV         string `json:"iv"`
	Tag        string `json:"tag,omitempty"`
	Salt       string `json:"salt"`
}

// EncryptWithPassword derives a key from password and a fresh salt and seals data.
func EncryptWithPassword(ctx context.Context, password string, data []byte, params crypto.ScryptParams) (*Envelope, error) {
	salt, err := crypto.RandomBytes(crypto.SaltSize)
	if err != nil {
		return nil, err
	}

	key, err := crypto.DeriveKey(ctx, password, salt, params)
	if err != nil {
		return nil, err
	}

	result, err := crypto.Encrypt(key, data, envelopeCipher)
	if err != nil {
		return nil, err
	}
	sealed, ok := result.(crypto.AEADResult)
	if !ok {
		return nil, NewMalformedEnvelopeError("envelope cipher did not produce an authentication tag")
	}

	return &Envelope{
		CipherText: sealed.CipherText,
		IV:         sealed.IV,
		Tag:        sealed.Tag,
		Salt:       encodeBase64(salt),
	}, nil
}

// DecryptWithPassword re-derives the key from password and the envelope salt and opens the envelope.
// A wrong password or any modified field fails with a crypto authentication error and no plaintext.
func DecryptWithPassword(ctx context.Context, password string, env *Envelope, params crypto.ScryptParams) ([]byte, error) {
	if env == nil {
		return nil, NewMalformedEnvelopeError("envelope is nil")
	}
	if env.Tag == "" {
		return nil, NewMalformedEnvelopeError("envelope has no authentication tag")
	}

	salt, err := decodeBase64(env.Salt)
	if err != nil {
		return nil, WrapMalformedEnvelopeError(err, "invalid envelope salt")
	}

	key, err := crypto.DeriveKey(ctx, password, salt, params)
	if err != nil {
		return nil, err
	}

	return crypto.Decrypt(key, crypto.AEADResult{
		CipherText: env.CipherText,
		IV:         env.IV,
		Tag:        env.Tag,
	}, envelopeCipher)
}
