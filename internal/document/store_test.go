package document

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

var fileNamePattern = regexp.MustCompile(`^[0-9a-f]{12}\.json$`)

func TestWriteAndReadDocuments(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wrapped")

	wrapped, _, err := WrapDocuments(context.Background(), batch(3))
	if err != nil {
		t.Fatalf("WrapDocuments() returned error: %v", err)
	}

	names, err := WriteDocuments(dir, wrapped)
	if err != nil {
		t.Fatalf("WriteDocuments() returned error: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("wrote %d files, want 3", len(names))
	}

	seen := map[string]bool{}
	for _, name := range names {
		if !fileNamePattern.MatchString(name) {
			t.Errorf("file name %s does not match %s", name, fileNamePattern)
		}
		if seen[name] {
			t.Errorf("file name %s used twice", name)
		}
		seen[name] = true
	}

	// non-json files and sub folders are ignored
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write notes.txt: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := ReadDocuments[WrappedDocument](dir)
	if err != nil {
		t.Fatalf("ReadDocuments() returned error: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("read %d documents, want 3", len(files))
	}

	targets := map[string]bool{}
	for _, w := range wrapped {
		targets[w.Signature.TargetHash] = true
	}
	for _, f := range files {
		if !targets[f.Document.Signature.TargetHash] {
			t.Errorf("%s has unexpected target hash %s", f.Name, f.Document.Signature.TargetHash)
		}
		if err := VerifyIntegrity(&f.Document); err != nil {
			t.Errorf("VerifyIntegrity(%s) returned error: %v", f.Name, err)
		}
	}

	single, err := ReadDocument[WrappedDocument](filepath.Join(dir, names[0]))
	if err != nil {
		t.Fatalf("ReadDocument() returned error: %v", err)
	}
	if single.Signature.TargetHash != wrapped[0].Signature.TargetHash {
		t.Errorf("ReadDocument() returned the wrong document")
	}
}

func TestReadDocuments_Errors(t *testing.T) {
	if _, err := ReadDocuments[WrappedDocument](filepath.Join(t.TempDir(), "missing")); !HasCode(err, ErrCodeStorage) {
		t.Errorf("missing folder error = %v, want storage", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write bad.json: %v", err)
	}
	if _, err := ReadDocuments[WrappedDocument](dir); !HasCode(err, ErrCodeMalformedDocument) {
		t.Errorf("invalid json error = %v, want malformed_document", err)
	}
}
