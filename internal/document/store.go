package document

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
)

// File is a document read from a folder together with the file it came from.
type File[T any] struct {
	Name     string
	Document T
}

// fileNameBytes is the number of random bytes in a generated file name (12 hex characters).
const fileNameBytes = 6

// maxNameAttempts bounds retries when a generated file name already exists.
const maxNameAttempts = 5

// WriteDocuments writes each document as compact JSON to its own randomly named file in dir,
// creating dir if needed. It returns the file names in document order.
func WriteDocuments[T any](dir string, docs []T) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, WrapStorageError(err, fmt.Sprintf("failed to create folder %s", dir))
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, WrapStorageError(err, fmt.Sprintf("failed to open folder %s", dir))
	}
	defer root.Close()

	names := make([]string, 0, len(docs))
	for i, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return names, WrapMalformedDocumentError(err, fmt.Sprintf("document %d cannot be serialized", i))
		}

		name, err := writeUnique(root, data)
		if err != nil {
			return names, err
		}
		names = append(names, name)
	}

	return names, nil
}

func writeUnique(root *os.Root, data []byte) (string, error) {
	for range maxNameAttempts {
		b, err := crypto.RandomBytes(fileNameBytes)
		if err != nil {
			return "", err
		}
		name := hex.EncodeToString(b) + ".json"

		f, err := root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", WrapStorageError(err, fmt.Sprintf("failed to create %s", name))
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = root.Remove(name)
			return "", WrapStorageError(err, fmt.Sprintf("failed to write %s", name))
		}
		if err := f.Close(); err != nil {
			return "", WrapStorageError(err, fmt.Sprintf("failed to close %s", name))
		}
		return name, nil
	}
	return "", WrapStorageError(os.ErrExist, "could not find a free file name")
}

// ReadDocuments decodes every .json file directly inside dir, in file name order.
// Files larger than crypto.MaxDocumentSize are rejected.
func ReadDocuments[T any](dir string) ([]File[T], error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, WrapStorageError(err, fmt.Sprintf("failed to read folder %s", dir))
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, WrapStorageError(err, fmt.Sprintf("failed to open folder %s", dir))
	}
	defer root.Close()

	var files []File[T]
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		doc, err := readDocument[T](root, entry.Name())
		if err != nil {
			return nil, err
		}
		files = append(files, File[T]{Name: entry.Name(), Document: doc})
	}

	return files, nil
}

// ReadDocument decodes a single JSON document file.
func ReadDocument[T any](path string) (T, error) {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		var zero T
		return zero, WrapStorageError(err, fmt.Sprintf("failed to open folder for %s", path))
	}
	defer root.Close()

	return readDocument[T](root, filepath.Base(path))
}

func readDocument[T any](root *os.Root, name string) (T, error) {
	var doc T

	f, err := root.Open(name)
	if err != nil {
		return doc, WrapStorageError(err, fmt.Sprintf("failed to open %s", name))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, crypto.MaxDocumentSize+1))
	if err != nil {
		return doc, WrapStorageError(err, fmt.Sprintf("failed to read %s", name))
	}
	if int64(len(data)) > crypto.MaxDocumentSize {
		return doc, NewMalformedDocumentError(fmt.Sprintf("%s exceeds the maximum document size of %d bytes", name, crypto.MaxDocumentSize))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return doc, WrapMalformedDocumentError(err, fmt.Sprintf("%s is not a valid document", name))
	}

	return doc, nil
}
