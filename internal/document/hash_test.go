package document

import (
	"context"
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
)

func samplePass() RawDocument {
	return RawDocument{
		"name":     "Pass A",
		"status":   "live",
		"issuedOn": "2019-05-29T00:00:00+08:00",
		"version":  2,
		"active":   true,
		"note":     nil,
		"recipient": map[string]any{
			"name":        "Lebron",
			"nationality": "American",
		},
		"issuers": []any{
			map[string]any{
				"name":          "Immigration & Checkpoints Authority",
				"documentStore": "0x8c9460deDCBe881ddaE1681c3aa48d6eEC723160",
			},
		},
		"$template": map[string]any{
			"name": "LTVP",
			"type": "EMBEDDED_RENDERER",
			"url":  "http://localhost:3000",
		},
	}
}

func TestHash_SaltedLeaves(t *testing.T) {
	hashed, err := Hash(samplePass())
	if err != nil {
		t.Fatalf("Hash() returned error: %v", err)
	}

	leaves, err := Flatten(hashed.Data)
	if err != nil {
		t.Fatalf("Flatten() returned error: %v", err)
	}

	tests := []struct {
		path     string
		wantType string
		wantVal  string
	}{
		{"name", "string", "Pass A"},
		{"version", "number", "2"},
		{"active", "boolean", "true"},
		{"note", "null", "null"},
		{"recipient.name", "string", "Lebron"},
		{"issuers.0.documentStore", "string", "0x8c9460deDCBe881ddaE1681c3aa48d6eEC723160"},
		{"$template.url", "string", "http://localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			salted, ok := leaves[tt.path]
			if !ok {
				t.Fatalf("leaf %s not found in %v", tt.path, leaves)
			}
			parts := strings.SplitN(salted, ":", 3)
			if len(parts) != 3 {
				t.Fatalf("leaf %s = %q, want <salt>:<type>:<value>", tt.path, salted)
			}
			if parts[1] != tt.wantType || parts[2] != tt.wantVal {
				t.Errorf("leaf %s = %s:%s, want %s:%s", tt.path, parts[1], parts[2], tt.wantType, tt.wantVal)
			}
		})
	}

	if len(hashed.TargetHash) != 64 {
		t.Errorf("target hash length = %d, want 64", len(hashed.TargetHash))
	}
}

func TestHash_DigestMatchesData(t *testing.T) {
	hashed, err := Hash(samplePass())
	if err != nil {
		t.Fatalf("Hash() returned error: %v", err)
	}
	digest, err := Digest(hashed.Data, nil)
	if err != nil {
		t.Fatalf("Digest() returned error: %v", err)
	}
	if digest != hashed.TargetHash {
		t.Errorf("Digest() = %s, want %s", digest, hashed.TargetHash)
	}
}

func TestHash_ResaltingChangesDigest(t *testing.T) {
	a, err := Hash(samplePass())
	if err != nil {
		t.Fatalf("Hash() returned error: %v", err)
	}
	b, err := Hash(samplePass())
	if err != nil {
		t.Fatalf("Hash() returned error: %v", err)
	}

	if a.TargetHash == b.TargetHash {
		t.Errorf("two hashings of the same document produced the same target hash")
	}

	leavesA, _ := Flatten(a.Data)
	leavesB, _ := Flatten(b.Data)
	if len(leavesA) != len(leavesB) {
		t.Fatalf("leaf sets differ in size: %d vs %d", len(leavesA), len(leavesB))
	}
	for path := range leavesA {
		if _, ok := leavesB[path]; !ok {
			t.Errorf("path %s missing from the second hashing", path)
		}
	}
}

func TestHash_NoSaltCollision(t *testing.T) {
	doc := RawDocument{"name": "Pass A"}
	seen := make(map[string]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		hashed, err := Hash(doc)
		if err != nil {
			t.Fatalf("Hash() returned error: %v", err)
		}
		salted := hashed.Data["name"].(string)
		salt := strings.SplitN(salted, ":", 2)[0]
		if _, dup := seen[salt]; dup {
			t.Fatalf("salt %s repeated after %d hashings", salt, i)
		}
		seen[salt] = struct{}{}
	}
}

func TestHash_Malformed(t *testing.T) {
	cyclic := map[string]any{"name": "loop"}
	cyclic["self"] = cyclic

	tests := []struct {
		name string
		doc  RawDocument
	}{
		{"cycle", RawDocument(cyclic)},
		{"channel", RawDocument{"c": make(chan int)}},
		{"function", RawDocument{"f": func() {}}},
		{"NaN", RawDocument{"n": math.NaN()}},
		{"infinity", RawDocument{"n": math.Inf(1)}},
		{"dotted key collides with nested field", RawDocument{"a.b": "x", "a": map[string]any{"b": "y"}}},
		{"dotted key collides with array element", RawDocument{"list.0": "x", "list": []any{"y"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Hash(tt.doc)
			if err == nil {
				t.Fatalf("Hash() expected error, got nil")
			}
			if !HasCode(err, ErrCodeMalformedDocument) {
				t.Errorf("Hash() error = %v, want malformed_document", err)
			}
		})
	}
}

func TestUnsalt_RoundTrip(t *testing.T) {
	raw := samplePass()
	hashed, err := Hash(raw)
	if err != nil {
		t.Fatalf("Hash() returned error: %v", err)
	}

	got, err := Unsalt(hashed.Data)
	if err != nil {
		t.Fatalf("Unsalt() returned error: %v", err)
	}

	want, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize() returned error: %v", err)
	}

	if !reflect.DeepEqual(map[string]any(got), map[string]any(want)) {
		gotJSON, _ := json.Marshal(got)
		wantJSON, _ := json.Marshal(want)
		t.Errorf("Unsalt() = %s, want %s", gotJSON, wantJSON)
	}
}

func TestUnsalt_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"not salted", map[string]any{"name": "plain"}},
		{"bad salt", map[string]any{"name": "nope:string:x"}},
		{"unknown type", map[string]any{"name": "3b1f8b8e-3c57-4a8b-9d6c-5d1f2b9f4a10:date:x"}},
		{"bad number", map[string]any{"n": "3b1f8b8e-3c57-4a8b-9d6c-5d1f2b9f4a10:number:abc"}},
		{"non string leaf", map[string]any{"n": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unsalt(tt.data); !HasCode(err, ErrCodeMalformedDocument) {
				t.Errorf("Unsalt() error = %v, want malformed_document", err)
			}
		})
	}
}

func TestNormalize_RejectsNonObject(t *testing.T) {
	if _, err := Normalize([]string{"a"}); !HasCode(err, ErrCodeMalformedDocument) {
		t.Errorf("Normalize(array) error = %v, want malformed_document", err)
	}
}

// Leaf paths must be unique or the digest depends on map iteration order.
func TestDigest_RejectsCollidingPaths(t *testing.T) {
	data := map[string]any{
		"a.b": "7d2c1d4a-7a3e-4c61-9f0e-0d5c7c6b1a10:string:x",
		"a": map[string]any{
			"b": "0b8f4b1e-3f1a-4a0e-8a7c-2b9e1f6d5c33:string:y",
		},
	}

	for i := 0; i < 50; i++ {
		if _, err := Digest(data, nil); !HasCode(err, ErrCodeMalformedDocument) {
			t.Fatalf("Digest() run %d error = %v, want malformed_document", i, err)
		}
	}
}

func TestWrapDocument_DottedKeysVerify(t *testing.T) {
	raw := RawDocument{
		"a.b": "x",
		"c":   map[string]any{"d": "y"},
	}

	for i := 0; i < 50; i++ {
		w, err := WrapDocument(context.Background(), raw)
		if err != nil {
			t.Fatalf("WrapDocument() returned error: %v", err)
		}
		if err := VerifyIntegrity(w); err != nil {
			t.Fatalf("run %d: VerifyIntegrity() returned error: %v", i, err)
		}
		leaves, err := Flatten(w.Data)
		if err != nil {
			t.Fatalf("Flatten() returned error: %v", err)
		}
		if len(leaves) != 2 {
			t.Fatalf("got %d leaves, want 2", len(leaves))
		}
	}
}
