package signing

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
	"github.com/information-sharing-networks/pass-issuer/internal/document"
)

const testIdentity = "did:ethr:0xC5f1FFfaAA0984c0dB6a82440b9885204eb3A482"

func wrappedPass(t *testing.T) *document.WrappedDocument {
	t.Helper()
	w, err := document.WrapDocument(context.Background(), document.RawDocument{
		"name":   "Long Term Visit Pass",
		"status": "live",
		"recipient": map[string]any{
			"name": "Lebron",
		},
	})
	if err != nil {
		t.Fatalf("WrapDocument() returned error: %v", err)
	}
	return w
}

// testSigners returns a signer and a resolver holding its public key for each algorithm.
func testSigners(t *testing.T) map[crypto.Algorithm]struct {
	signer   Signer
	resolver StaticKeys
} {
	t.Helper()

	out := map[crypto.Algorithm]struct {
		signer   Signer
		resolver StaticKeys
	}{}

	edPriv, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair() returned error: %v", err)
	}
	edPub := edPriv.Public()
	edKID, err := crypto.KeyIDFromPublicKey(edPub)
	if err != nil {
		t.Fatalf("KeyIDFromPublicKey() returned error: %v", err)
	}

	rsaPriv, err := crypto.GenerateRSAKeyPair(2048)
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair() returned error: %v", err)
	}
	rsaKID, err := crypto.KeyIDFromPublicKey(&rsaPriv.PublicKey)
	if err != nil {
		t.Fatalf("KeyIDFromPublicKey() returned error: %v", err)
	}

	dPub, dPriv, err := crypto.GenerateDilithium3KeyPair(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateDilithium3KeyPair() returned error: %v", err)
	}
	dKID, err := crypto.KeyIDFromPublicKey(dPub)
	if err != nil {
		t.Fatalf("KeyIDFromPublicKey() returned error: %v", err)
	}

	for _, k := range []struct {
		alg   crypto.Algorithm
		priv  any
		pub   any
		keyID string
	}{
		{crypto.AlgorithmEd25519, edPriv, edPub, edKID},
		{crypto.AlgorithmRSA, rsaPriv, &rsaPriv.PublicKey, rsaKID},
		{crypto.AlgorithmDilithium3, dPriv, dPub, dKID},
	} {
		s, err := NewSigner(k.priv, k.keyID)
		if err != nil {
			t.Fatalf("NewSigner(%s) returned error: %v", k.alg, err)
		}
		if s.Algorithm() != k.alg {
			t.Fatalf("NewSigner(%s).Algorithm() = %s", k.alg, s.Algorithm())
		}
		out[k.alg] = struct {
			signer   Signer
			resolver StaticKeys
		}{s, StaticKeys{k.keyID: k.pub}}
	}

	return out
}

func TestSignAndVerify(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	ctx := context.Background()
	w := wrappedPass(t)

	for alg, tc := range testSigners(t) {
		t.Run(string(alg), func(t *testing.T) {
			signed, err := Sign(ctx, w, tc.signer, testIdentity)
			if err != nil {
				t.Fatalf("Sign() returned error: %v", err)
			}

			if len(signed.Proof) != 1 {
				t.Fatalf("got %d proofs, want 1", len(signed.Proof))
			}
			p := signed.Proof[0]
			if p.Type != ProofType || p.ProofPurpose != ProofPurpose {
				t.Errorf("proof type/purpose = %s/%s", p.Type, p.ProofPurpose)
			}
			if p.Algorithm != string(alg) {
				t.Errorf("proof algorithm = %s, want %s", p.Algorithm, alg)
			}
			if p.Created != "2026-03-01T12:00:00Z" {
				t.Errorf("proof created = %s", p.Created)
			}
			if want := testIdentity + "#" + tc.signer.KeyID(); p.VerificationMethod != want {
				t.Errorf("verification method = %s, want %s", p.VerificationMethod, want)
			}
			if signed.Signature.TargetHash != w.Signature.TargetHash {
				t.Errorf("signing changed the target hash")
			}

			if err := Verify(ctx, signed, tc.resolver); err != nil {
				t.Errorf("Verify() returned error: %v", err)
			}
		})
	}
}

func TestVerify_Rejects(t *testing.T) {
	ctx := context.Background()
	signers := testSigners(t)

	for alg, tc := range signers {
		t.Run(string(alg), func(t *testing.T) {
			signed, err := Sign(ctx, wrappedPass(t), tc.signer, "")
			if err != nil {
				t.Fatalf("Sign() returned error: %v", err)
			}

			t.Run("other target hash", func(t *testing.T) {
				tampered := *signed
				tampered.Signature.TargetHash = wrappedPass(t).Signature.TargetHash
				if err := Verify(ctx, &tampered, tc.resolver); !HasCode(err, ErrCodeInvalidSignature) {
					t.Errorf("Verify() error = %v, want invalid_signature", err)
				}
			})

			t.Run("unknown key", func(t *testing.T) {
				if err := Verify(ctx, signed, StaticKeys{}); !HasCode(err, ErrCodeKeyNotFound) {
					t.Errorf("Verify() error = %v, want key_not_found", err)
				}
			})

			t.Run("wrong key", func(t *testing.T) {
				other := signers[crypto.AlgorithmEd25519]
				if alg == crypto.AlgorithmEd25519 {
					other = signers[crypto.AlgorithmRSA]
				}
				var otherKey any
				for _, k := range other.resolver {
					otherKey = k
				}
				resolver := StaticKeys{tc.signer.KeyID(): otherKey}
				if err := Verify(ctx, signed, resolver); !HasCode(err, ErrCodeInvalidSignature) {
					t.Errorf("Verify() error = %v, want invalid_signature", err)
				}
			})

			t.Run("corrupted signature", func(t *testing.T) {
				tampered := *signed
				p := tampered.Proof[0]
				p.Signature = p.Signature[:len(p.Signature)-4] + "AAAA"
				tampered.Proof = []document.Proof{p}
				if err := Verify(ctx, &tampered, tc.resolver); !HasCode(err, ErrCodeInvalidSignature) {
					t.Errorf("Verify() error = %v, want invalid_signature", err)
				}
			})

			t.Run("unknown proof type", func(t *testing.T) {
				tampered := *signed
				p := tampered.Proof[0]
				p.Type = "Other"
				tampered.Proof = []document.Proof{p}
				if err := Verify(ctx, &tampered, tc.resolver); !HasCode(err, ErrCodeInvalidSignature) {
					t.Errorf("Verify() error = %v, want invalid_signature", err)
				}
			})
		})
	}
}

func TestVerify_NoProof(t *testing.T) {
	signed := &document.SignedWrappedDocument{WrappedDocument: *wrappedPass(t)}
	if err := Verify(context.Background(), signed, StaticKeys{}); !HasCode(err, ErrCodeInvalidSignature) {
		t.Errorf("Verify() error = %v, want invalid_signature", err)
	}
}

type failingSigner struct{ calls int }

func (f *failingSigner) Algorithm() crypto.Algorithm { return crypto.AlgorithmEd25519 }
func (f *failingSigner) KeyID() string               { return "kid" }
func (f *failingSigner) Sign(context.Context, []byte) (string, error) {
	f.calls++
	return "", errors.New("hsm unavailable")
}

func TestSign_SignerFailureNotRetried(t *testing.T) {
	signer := &failingSigner{}
	_, err := Sign(context.Background(), wrappedPass(t), signer, "")
	if !HasCode(err, ErrCodeSigning) {
		t.Fatalf("Sign() error = %v, want signing", err)
	}
	if signer.calls != 1 {
		t.Errorf("signer called %d times, want 1", signer.calls)
	}
}

func TestSignDocuments(t *testing.T) {
	ctx := context.Background()
	wrapped, _, err := document.WrapDocuments(ctx, []document.RawDocument{
		{"name": "a"}, {"name": "b"}, {"name": "c"},
	})
	if err != nil {
		t.Fatalf("WrapDocuments() returned error: %v", err)
	}

	tc := testSigners(t)[crypto.AlgorithmEd25519]
	signed, err := SignDocuments(ctx, wrapped, tc.signer, testIdentity)
	if err != nil {
		t.Fatalf("SignDocuments() returned error: %v", err)
	}
	if len(signed) != 3 {
		t.Fatalf("got %d signed documents, want 3", len(signed))
	}
	for i, s := range signed {
		if s.Signature.TargetHash != wrapped[i].Signature.TargetHash {
			t.Errorf("document %d out of order", i)
		}
		if err := Verify(ctx, s, tc.resolver); err != nil {
			t.Errorf("Verify(document %d) returned error: %v", i, err)
		}
	}
}

func TestSign_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tc := testSigners(t)[crypto.AlgorithmEd25519]
	if _, err := Sign(ctx, wrappedPass(t), tc.signer, ""); !HasCode(err, ErrCodeSigning) {
		t.Errorf("Sign() error = %v, want signing", err)
	}
}

func TestNewSigner_Errors(t *testing.T) {
	edPriv, _ := crypto.GenerateEd25519KeyPair()

	if _, err := NewSigner(edPriv, ""); !HasCode(err, ErrCodeConfiguration) {
		t.Errorf("NewSigner() without key id error = %v, want configuration", err)
	}
	if _, err := NewSigner("not a key", "kid"); !HasCode(err, ErrCodeConfiguration) {
		t.Errorf("NewSigner() with a string error = %v, want configuration", err)
	}
}

func TestVerificationMethod(t *testing.T) {
	tests := []struct {
		identity, keyID, want string
	}{
		{"", "abc", "abc"},
		{testIdentity, "abc", testIdentity + "#abc"},
	}
	for _, tt := range tests {
		got := VerificationMethod(tt.identity, tt.keyID)
		if got != tt.want {
			t.Errorf("VerificationMethod(%q, %q) = %q, want %q", tt.identity, tt.keyID, got, tt.want)
		}
		if KeyIDFromVerificationMethod(got) != tt.keyID {
			t.Errorf("KeyIDFromVerificationMethod(%q) = %q", got, KeyIDFromVerificationMethod(got))
		}
		if IdentityFromVerificationMethod(got) != tt.identity {
			t.Errorf("IdentityFromVerificationMethod(%q) = %q", got, IdentityFromVerificationMethod(got))
		}
	}
}

// partialSigner fails the calls listed in fail (1-based) and delegates the rest.
type partialSigner struct {
	Signer
	fail  map[int]bool
	calls int
}

func (p *partialSigner) Sign(ctx context.Context, payload []byte) (string, error) {
	p.calls++
	if p.fail[p.calls] {
		return "", errors.New("hsm unavailable")
	}
	return p.Signer.Sign(ctx, payload)
}

func TestSignEach_ReportsEveryDocument(t *testing.T) {
	ctx := context.Background()
	wrapped, _, err := document.WrapDocuments(ctx, []document.RawDocument{
		{"name": "a"}, {"name": "b"}, {"name": "c"}, {"name": "d"},
	})
	if err != nil {
		t.Fatalf("WrapDocuments() returned error: %v", err)
	}

	tc := testSigners(t)[crypto.AlgorithmEd25519]
	signer := &partialSigner{Signer: tc.signer, fail: map[int]bool{2: true, 4: true}}

	signed, errs := SignEach(ctx, wrapped, signer, testIdentity)
	if signer.calls != 4 {
		t.Errorf("signer called %d times, want 4", signer.calls)
	}
	for i := range wrapped {
		failed := i == 1 || i == 3
		if failed {
			if !HasCode(errs[i], ErrCodeSigning) || signed[i] != nil {
				t.Errorf("document %d: signed = %v, err = %v, want a signing error", i, signed[i] != nil, errs[i])
			}
			continue
		}
		if errs[i] != nil || signed[i] == nil {
			t.Fatalf("document %d: err = %v, want signed", i, errs[i])
		}
		if err := Verify(ctx, signed[i], tc.resolver); err != nil {
			t.Errorf("Verify(document %d) returned error: %v", i, err)
		}
	}
}

func TestSignDocuments_NamesEveryFailure(t *testing.T) {
	ctx := context.Background()
	wrapped, _, err := document.WrapDocuments(ctx, []document.RawDocument{
		{"name": "a"}, {"name": "b"}, {"name": "c"},
	})
	if err != nil {
		t.Fatalf("WrapDocuments() returned error: %v", err)
	}

	tc := testSigners(t)[crypto.AlgorithmEd25519]
	signer := &partialSigner{Signer: tc.signer, fail: map[int]bool{1: true, 3: true}}

	signed, err := SignDocuments(ctx, wrapped, signer, testIdentity)
	if signed != nil {
		t.Errorf("SignDocuments() returned %d documents on failure", len(signed))
	}
	if !HasCode(err, ErrCodeSigning) {
		t.Fatalf("SignDocuments() error = %v, want signing", err)
	}
	for _, want := range []string{"document 0", "document 2"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
	if strings.Contains(err.Error(), "document 1") {
		t.Errorf("error %q mentions the document that was signed", err)
	}
}
