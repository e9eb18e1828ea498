package encryption

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
)

// testParams keeps scrypt fast in tests.
var testParams = crypto.ScryptParams{N: 1 << 10, R: 8, P: 1}

func TestPasswordEnvelope_RoundTrip(t *testing.T) {
	ctx := context.Background()
	data := []byte(`{"name":"Long Term Visit Pass"}`)

	env, err := EncryptWithPassword(ctx, "p@ss", data, testParams)
	if err != nil {
		t.Fatalf("EncryptWithPassword() returned error: %v", err)
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil || len(salt) != crypto.SaltSize {
		t.Errorf("salt = %q, want %d base64 bytes", env.Salt, crypto.SaltSize)
	}
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil || len(iv) != crypto.IVSize {
		t.Errorf("iv = %q, want %d base64 bytes", env.IV, crypto.IVSize)
	}
	if env.Tag == "" {
		t.Errorf("envelope has no tag")
	}

	got, err := DecryptWithPassword(ctx, "p@ss", env, testParams)
	if err != nil {
		t.Fatalf("DecryptWithPassword() returned error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("DecryptWithPassword() = %s, want %s", got, data)
	}
}

func TestPasswordEnvelope_FreshSalt(t *testing.T) {
	ctx := context.Background()
	a, err := EncryptWithPassword(ctx, "p@ss", []byte("x"), testParams)
	if err != nil {
		t.Fatalf("EncryptWithPassword() returned error: %v", err)
	}
	b, err := EncryptWithPassword(ctx, "p@ss", []byte("x"), testParams)
	if err != nil {
		t.Fatalf("EncryptWithPassword() returned error: %v", err)
	}
	if a.Salt == b.Salt || a.IV == b.IV || a.CipherText == b.CipherText {
		t.Errorf("two envelopes of the same data share salt, iv or ciphertext")
	}
}

func TestPasswordEnvelope_NormalizedPassword(t *testing.T) {
	ctx := context.Background()
	env, err := EncryptWithPassword(ctx, "caf\u00e9", []byte("x"), testParams)
	if err != nil {
		t.Fatalf("EncryptWithPassword() returned error: %v", err)
	}
	if _, err := DecryptWithPassword(ctx, "cafe\u0301", env, testParams); err != nil {
		t.Errorf("DecryptWithPassword() with the decomposed password returned error: %v", err)
	}
}

func TestPasswordEnvelope_FailsClosed(t *testing.T) {
	ctx := context.Background()
	env, err := EncryptWithPassword(ctx, "p@ss", []byte("secret pass"), testParams)
	if err != nil {
		t.Fatalf("EncryptWithPassword() returned error: %v", err)
	}

	flip := func(b64 string) string {
		b, _ := base64.StdEncoding.DecodeString(b64)
		b[0] ^= 0x01
		return base64.StdEncoding.EncodeToString(b)
	}

	tests := []struct {
		name     string
		password string
		mutate   func(e Envelope) Envelope
	}{
		{"wrong password", "p@ss2", func(e Envelope) Envelope { return e }},
		{"tag bit flip", "p@ss", func(e Envelope) Envelope { e.Tag = flip(e.Tag); return e }},
		{"ciphertext bit flip", "p@ss", func(e Envelope) Envelope { e.CipherText = flip(e.CipherText); return e }},
		{"iv bit flip", "p@ss", func(e Envelope) Envelope { e.IV = flip(e.IV); return e }},
		{"salt bit flip", "p@ss", func(e Envelope) Envelope { e.Salt = flip(e.Salt); return e }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tampered := tt.mutate(*env)
			got, err := DecryptWithPassword(ctx, tt.password, &tampered, testParams)
			if !crypto.HasCode(err, crypto.ErrCodeAuthentication) {
				t.Errorf("DecryptWithPassword() error = %v, want authentication", err)
			}
			if got != nil {
				t.Errorf("DecryptWithPassword() released plaintext %q", got)
			}
		})
	}
}

func TestPasswordEnvelope_Errors(t *testing.T) {
	ctx := context.Background()

	if _, err := EncryptWithPassword(ctx, "p@ss", []byte("x"), crypto.ScryptParams{N: 3, R: 8, P: 1}); !crypto.HasCode(err, crypto.ErrCodeKeyDerivation) {
		t.Errorf("EncryptWithPassword() with bad params error = %v, want key_derivation", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := EncryptWithPassword(cancelled, "p@ss", []byte("x"), testParams); !crypto.HasCode(err, crypto.ErrCodeKeyDerivation) {
		t.Errorf("EncryptWithPassword() with cancelled context error = %v, want key_derivation", err)
	}

	if _, err := DecryptWithPassword(ctx, "p@ss", &Envelope{CipherText: "AA==", IV: "AA==", Salt: "AA=="}, testParams); !HasCode(err, ErrCodeMalformedEnvelope) {
		t.Errorf("DecryptWithPassword() without tag error = %v, want malformed_envelope", err)
	}
	if _, err := DecryptWithPassword(ctx, "p@ss", nil, testParams); !HasCode(err, ErrCodeMalformedEnvelope) {
		t.Errorf("DecryptWithPassword(nil) error = %v, want malformed_envelope", err)
	}
}

func TestEnvelope_JSONLayout(t *testing.T) {
	env, err := EncryptWithPassword(context.Background(), "p@ss", []byte("x"), testParams)
	if err != nil {
		t.Fatalf("EncryptWithPassword() returned error: %v", err)
	}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("json.Marshal() returned error: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("json.Unmarshal() returned error: %v", err)
	}
	for _, name := range []string{"cipherText", "iv", "tag", "salt"} {
		if _, ok := fields[name]; !ok {
			t.Errorf("envelope JSON has no %s field: %s", name, raw)
		}
	}
	if len(fields) != 4 {
		t.Errorf("envelope JSON has %d fields, want 4: %s", len(fields), raw)
	}
}

func TestEnvelopeCipher(t *testing.T) {
	if envelopeCipher.Algorithm() != "aes-256-gcm" {
		t.Errorf("envelope cipher = %s, want aes-256-gcm", envelopeCipher.Algorithm())
	}
	if envelopeCipher.KeyLen() != crypto.DerivedKeySize {
		t.Errorf("envelope cipher key length = %d, want %d", envelopeCipher.KeyLen(), crypto.DerivedKeySize)
	}

	env, err := EncryptWithPassword(context.Background(), "p@ss", []byte("x"), testParams)
	if err != nil {
		t.Fatalf("EncryptWithPassword() returned error: %v", err)
	}
	if env.Tag == "" {
		t.Errorf("envelope has no authentication tag")
	}
}

func TestPasswordEnvelope_PasswordNotDecoded(t *testing.T) {
	ctx := context.Background()
	encoded := base64.StdEncoding.EncodeToString([]byte("p@ss"))

	env, err := EncryptWithPassword(ctx, encoded, []byte("pass"), testParams)
	if err != nil {
		t.Fatalf("EncryptWithPassword() returned error: %v", err)
	}

	if _, err := DecryptWithPassword(ctx, "p@ss", env, testParams); !crypto.HasCode(err, crypto.ErrCodeAuthentication) {
		t.Errorf("DecryptWithPassword(decoded password) error = %v, want authentication", err)
	}
	got, err := DecryptWithPassword(ctx, encoded, env, testParams)
	if err != nil {
		t.Fatalf("DecryptWithPassword() returned error: %v", err)
	}
	if string(got) != "pass" {
		t.Errorf("DecryptWithPassword() = %q, want pass", got)
	}
}
