package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Obfuscate returns a copy of w with the fields at paths removed from its data.
// The removed leaves' digests are added to privacy.obfuscatedData so the target hash is unchanged.
//
// A path is dotted (e.g. "recipient.fin") and must end on an object key; whole objects and arrays
// may be removed but individual array elements may not.
func Obfuscate(w *WrappedDocument, paths ...string) (*WrappedDocument, error) {
	if w == nil || w.Data == nil {
		return nil, NewMalformedDocumentError("document has no data")
	}
	if _, err := Flatten(w.Data); err != nil {
		return nil, err
	}

	out := &WrappedDocument{
		Version:   w.Version,
		Data:      deepCopy(w.Data).(map[string]any),
		Signature: w.Signature,
	}
	out.Signature.Proof = append([]string(nil), w.Signature.Proof...)

	obfuscated := append([]string(nil), w.ObfuscatedData()...)

	for _, path := range paths {
		digests, err := removePath(out.Data, path)
		if err != nil {
			return nil, err
		}
		obfuscated = append(obfuscated, digests...)
	}

	if len(obfuscated) > 0 {
		sort.Strings(obfuscated)
		out.Privacy = &Privacy{ObfuscatedData: obfuscated}
	}

	return out, nil
}

func removePath(data map[string]any, path string) ([]string, error) {
	segments := strings.Split(path, ".")
	if path == "" {
		return nil, NewMalformedDocumentError("empty path")
	}

	var parent any = data
	for _, seg := range segments[:len(segments)-1] {
		switch node := parent.(type) {
		case map[string]any:
			child, ok := node[seg]
			if !ok {
				return nil, NewMalformedDocumentError(fmt.Sprintf("path %q not found", path))
			}
			parent = child
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, NewMalformedDocumentError(fmt.Sprintf("path %q not found", path))
			}
			parent = node[i]
		default:
			return nil, NewMalformedDocumentError(fmt.Sprintf("path %q not found", path))
		}
	}

	obj, ok := parent.(map[string]any)
	if !ok {
		return nil, NewMalformedDocumentError(fmt.Sprintf("path %q does not end on an object key", path))
	}
	last := segments[len(segments)-1]
	value, ok := obj[last]
	if !ok {
		return nil, NewMalformedDocumentError(fmt.Sprintf("path %q not found", path))
	}

	leaves := make(map[string]string)
	if err := flattenInto(leaves, path, value); err != nil {
		return nil, err
	}

	digests := make([]string, 0, len(leaves))
	for p, salted := range leaves {
		d, err := leafDigest(p, salted)
		if err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}

	delete(obj, last)
	return digests, nil
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = deepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return val
	}
}
