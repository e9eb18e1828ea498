package document

import (
	"context"
	"testing"
)

func TestObfuscate_KeepsTargetHash(t *testing.T) {
	w, err := WrapDocument(context.Background(), samplePass())
	if err != nil {
		t.Fatalf("WrapDocument() returned error: %v", err)
	}

	tests := []struct {
		name        string
		paths       []string
		wantDigests int
	}{
		{"single leaf", []string{"name"}, 1},
		{"nested leaf", []string{"recipient.nationality"}, 1},
		{"whole object", []string{"recipient"}, 2},
		{"key inside array element", []string{"issuers.0.documentStore"}, 1},
		{"several paths", []string{"name", "status"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Obfuscate(w, tt.paths...)
			if err != nil {
				t.Fatalf("Obfuscate() returned error: %v", err)
			}
			if got := len(out.ObfuscatedData()); got != tt.wantDigests {
				t.Errorf("obfuscated digests = %d, want %d", got, tt.wantDigests)
			}
			if err := VerifyIntegrity(out); err != nil {
				t.Errorf("VerifyIntegrity() after Obfuscate returned error: %v", err)
			}
			// the input is not modified
			if err := VerifyIntegrity(w); err != nil {
				t.Errorf("VerifyIntegrity() of the original returned error: %v", err)
			}
			if w.Privacy != nil {
				t.Errorf("Obfuscate() modified the input privacy block")
			}
		})
	}
}

func TestObfuscate_Twice(t *testing.T) {
	w, err := WrapDocument(context.Background(), samplePass())
	if err != nil {
		t.Fatalf("WrapDocument() returned error: %v", err)
	}
	once, err := Obfuscate(w, "name")
	if err != nil {
		t.Fatalf("Obfuscate() returned error: %v", err)
	}
	twice, err := Obfuscate(once, "status")
	if err != nil {
		t.Fatalf("Obfuscate() returned error: %v", err)
	}
	if len(twice.ObfuscatedData()) != 2 {
		t.Errorf("obfuscated digests = %d, want 2", len(twice.ObfuscatedData()))
	}
	if err := VerifyIntegrity(twice); err != nil {
		t.Errorf("VerifyIntegrity() returned error: %v", err)
	}
}

func TestObfuscate_InvalidPath(t *testing.T) {
	w, err := WrapDocument(context.Background(), samplePass())
	if err != nil {
		t.Fatalf("WrapDocument() returned error: %v", err)
	}

	for _, path := range []string{"", "missing", "recipient.missing", "issuers.0", "issuers.9.name", "name.inner"} {
		t.Run(path, func(t *testing.T) {
			if _, err := Obfuscate(w, path); !HasCode(err, ErrCodeMalformedDocument) {
				t.Errorf("Obfuscate(%q) error = %v, want malformed_document", path, err)
			}
		})
	}
}

func TestObfuscate_AmbiguousDocument(t *testing.T) {
	w := &WrappedDocument{
		Version: SchemaVersion,
		Data: map[string]any{
			"a.b": "7d2c1d4a-7a3e-4c61-9f0e-0d5c7c6b1a10:string:x",
			"a": map[string]any{
				"b": "0b8f4b1e-3f1a-4a0e-8a7c-2b9e1f6d5c33:string:y",
			},
		},
	}

	if _, err := Obfuscate(w, "a.b"); !HasCode(err, ErrCodeMalformedDocument) {
		t.Errorf("Obfuscate() error = %v, want malformed_document", err)
	}
}
