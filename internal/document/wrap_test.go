package document

import (
	"context"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/information-sharing-networks/pass-issuer/internal/merkle"
)

func batch(n int) []RawDocument {
	docs := make([]RawDocument, n)
	for i := range docs {
		doc := samplePass()
		doc["name"] = fmt.Sprintf("Pass %d", i)
		docs[i] = doc
	}
	return docs
}

func TestWrapDocuments_MerkleRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8} {
		t.Run(fmt.Sprintf("%d documents", n), func(t *testing.T) {
			wrapped, root, err := WrapDocuments(context.Background(), batch(n))
			if err != nil {
				t.Fatalf("WrapDocuments() returned error: %v", err)
			}
			if len(wrapped) != n {
				t.Fatalf("got %d wrapped documents, want %d", len(wrapped), n)
			}

			rootBytes, _ := hex.DecodeString(root)
			for i, w := range wrapped {
				if w.Signature.MerkleRoot != root {
					t.Errorf("document %d merkle root = %s, want %s", i, w.Signature.MerkleRoot, root)
				}
				if w.Signature.Type != SignatureType {
					t.Errorf("document %d signature type = %s", i, w.Signature.Type)
				}
				if w.Version != SchemaVersion {
					t.Errorf("document %d version = %s", i, w.Version)
				}

				target, _ := hex.DecodeString(w.Signature.TargetHash)
				proof := make([][]byte, len(w.Signature.Proof))
				for j, p := range w.Signature.Proof {
					proof[j], _ = hex.DecodeString(p)
				}
				if !merkle.Verify(target, proof, rootBytes) {
					t.Errorf("document %d proof does not reproduce the root", i)
				}

				if err := VerifyIntegrity(w); err != nil {
					t.Errorf("VerifyIntegrity(document %d) returned error: %v", i, err)
				}
			}
		})
	}
}

func TestWrapDocument_SingleIdentity(t *testing.T) {
	w, err := WrapDocument(context.Background(), samplePass())
	if err != nil {
		t.Fatalf("WrapDocument() returned error: %v", err)
	}
	if w.Signature.MerkleRoot != w.Signature.TargetHash {
		t.Errorf("merkle root %s != target hash %s", w.Signature.MerkleRoot, w.Signature.TargetHash)
	}
	if len(w.Signature.Proof) != 0 {
		t.Errorf("proof = %v, want empty", w.Signature.Proof)
	}
}

func TestWrapDocuments_IndependentWrapsBothVerify(t *testing.T) {
	a, err := WrapDocument(context.Background(), samplePass())
	if err != nil {
		t.Fatalf("WrapDocument() returned error: %v", err)
	}
	b, err := WrapDocument(context.Background(), samplePass())
	if err != nil {
		t.Fatalf("WrapDocument() returned error: %v", err)
	}

	if a.Signature.MerkleRoot == b.Signature.MerkleRoot {
		t.Errorf("independent wraps share a merkle root")
	}
	if err := VerifyIntegrity(a); err != nil {
		t.Errorf("VerifyIntegrity(a) returned error: %v", err)
	}
	if err := VerifyIntegrity(b); err != nil {
		t.Errorf("VerifyIntegrity(b) returned error: %v", err)
	}
}

func TestWrapDocuments_Empty(t *testing.T) {
	_, _, err := WrapDocuments(context.Background(), nil)
	if !HasCode(err, ErrCodeEmptyBatch) {
		t.Errorf("WrapDocuments(nil) error = %v, want empty_batch", err)
	}
}

func TestWrapDocuments_MalformedMember(t *testing.T) {
	docs := batch(3)
	docs[1]["bad"] = make(chan int)

	_, _, err := WrapDocuments(context.Background(), docs)
	if !HasCode(err, ErrCodeMalformedDocument) {
		t.Errorf("WrapDocuments() error = %v, want malformed_document", err)
	}
}

func TestWrapDocuments_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := WrapDocuments(ctx, batch(4)); err == nil {
		t.Errorf("WrapDocuments() with a cancelled context expected error")
	}
}

func TestVerifyIntegrity_Tampered(t *testing.T) {
	wrapped, _, err := WrapDocuments(context.Background(), batch(3))
	if err != nil {
		t.Fatalf("WrapDocuments() returned error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(w *WrappedDocument)
	}{
		{"changed field", func(w *WrappedDocument) {
			w.Data["status"] = "3b1f8b8e-3c57-4a8b-9d6c-5d1f2b9f4a10:string:dead"
		}},
		{"added field", func(w *WrappedDocument) {
			w.Data["extra"] = "3b1f8b8e-3c57-4a8b-9d6c-5d1f2b9f4a10:string:x"
		}},
		{"removed field", func(w *WrappedDocument) {
			delete(w.Data, "name")
		}},
		{"wrong root", func(w *WrappedDocument) {
			w.Signature.MerkleRoot = w.Signature.TargetHash
		}},
		{"dropped proof", func(w *WrappedDocument) {
			w.Signature.Proof = nil
		}},
		{"unknown signature type", func(w *WrappedDocument) {
			w.Signature.Type = "Other"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// round trip through Obfuscate with no paths to get an independent copy
			w, err := Obfuscate(wrapped[0])
			if err != nil {
				t.Fatalf("Obfuscate() returned error: %v", err)
			}
			tt.mutate(w)
			if err := VerifyIntegrity(w); !HasCode(err, ErrCodeIntegrity) {
				t.Errorf("VerifyIntegrity() error = %v, want integrity", err)
			}
		})
	}
}
