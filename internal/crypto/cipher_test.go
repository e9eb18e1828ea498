package crypto

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	specs := []CipherSpec{AES128GCM, AES192GCM, AES256GCM, AES128CTR, AES192CTR, AES256CTR}
	plaintexts := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte(`{"recipient":{"name":"Alice"}}`),
		bytes.Repeat([]byte{0xff}, 1000),
	}

	for _, spec := range specs {
		t.Run(spec.Algorithm(), func(t *testing.T) {
			key, err := RandomBytes(spec.KeyLen())
			if err != nil {
				t.Fatalf("RandomBytes() returned error: %v", err)
			}

			for _, pt := range plaintexts {
				result, err := Encrypt(key, pt, spec)
				if err != nil {
					t.Fatalf("Encrypt() returned error: %v", err)
				}

				switch r := result.(type) {
				case AEADResult:
					if _, ok := spec.(AEAD); !ok {
						t.Fatalf("Encrypt() returned AEADResult for %s", spec.Algorithm())
					}
					tag, _ := base64.StdEncoding.DecodeString(r.Tag)
					if len(tag) != 16 {
						t.Errorf("tag length = %d, want 16", len(tag))
					}
					iv, _ := base64.StdEncoding.DecodeString(r.IV)
					if len(iv) != IVSize {
						t.Errorf("iv length = %d, want %d", len(iv), IVSize)
					}
				case PlainResult:
					if _, ok := spec.(Plain); !ok {
						t.Fatalf("Encrypt() returned PlainResult for %s", spec.Algorithm())
					}
				default:
					t.Fatalf("Encrypt() returned %T", result)
				}

				got, err := Decrypt(key, result, spec)
				if err != nil {
					t.Fatalf("Decrypt() returned error: %v", err)
				}
				if !bytes.Equal(got, pt) {
					t.Errorf("Decrypt() = %q, want %q", got, pt)
				}
			}
		})
	}
}

func TestEncrypt_FreshIV(t *testing.T) {
	key, _ := RandomBytes(32)
	first, err := Encrypt(key, []byte("same"), AES256GCM)
	if err != nil {
		t.Fatalf("Encrypt() returned error: %v", err)
	}
	second, err := Encrypt(key, []byte("same"), AES256GCM)
	if err != nil {
		t.Fatalf("Encrypt() returned error: %v", err)
	}

	a, b := first.(AEADResult), second.(AEADResult)
	if a.IV == b.IV {
		t.Errorf("two encryptions reused the IV %s", a.IV)
	}
	if a.CipherText == b.CipherText {
		t.Errorf("two encryptions produced the same ciphertext")
	}
}

func TestEncrypt_KeyLength(t *testing.T) {
	_, err := Encrypt(make([]byte, 16), []byte("x"), AES256GCM)
	if !HasCode(err, ErrCodeValidation) {
		t.Errorf("Encrypt() with a short key error = %v, want validation", err)
	}
}

func TestDecrypt_Tampering(t *testing.T) {
	key, _ := RandomBytes(32)
	result, err := Encrypt(key, []byte("secret pass data"), AES256GCM)
	if err != nil {
		t.Fatalf("Encrypt() returned error: %v", err)
	}
	r := result.(AEADResult)

	flip := func(b64 string) string {
		b, _ := base64.StdEncoding.DecodeString(b64)
		b[0] ^= 0x01
		return base64.StdEncoding.EncodeToString(b)
	}
	wrongKey, _ := RandomBytes(32)

	tests := []struct {
		name   string
		key    []byte
		result AEADResult
	}{
		{"flipped ciphertext", key, AEADResult{CipherText: flip(r.CipherText), IV: r.IV, Tag: r.Tag}},
		{"flipped iv", key, AEADResult{CipherText: r.CipherText, IV: flip(r.IV), Tag: r.Tag}},
		{"flipped tag", key, AEADResult{CipherText: r.CipherText, IV: r.IV, Tag: flip(r.Tag)}},
		{"wrong key", wrongKey, r},
		{"truncated tag", key, AEADResult{CipherText: r.CipherText, IV: r.IV, Tag: base64.StdEncoding.EncodeToString([]byte{1, 2})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decrypt(tt.key, tt.result, AES256GCM)
			if err == nil {
				t.Fatalf("Decrypt() expected error, got %q", got)
			}
			if got != nil {
				t.Errorf("Decrypt() released plaintext on failure")
			}
			if !HasCode(err, ErrCodeAuthentication) {
				t.Errorf("Decrypt() error = %v, want authentication", err)
			}
		})
	}
}

func TestDecrypt_VariantMismatch(t *testing.T) {
	key, _ := RandomBytes(32)
	_, err := Decrypt(key, PlainResult{CipherText: "", IV: "AAAAAAAAAAAAAAAAAAAAAA=="}, AES256GCM)
	if !HasCode(err, ErrCodeValidation) {
		t.Errorf("Decrypt() error = %v, want validation", err)
	}
}
