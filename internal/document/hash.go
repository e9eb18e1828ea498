package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
)

// salted value types
const (
	typeString    = "string"
	typeNumber    = "number"
	typeBoolean   = "boolean"
	typeNull      = "null"
	typeUndefined = "undefined"
)

// Normalize converts v (a RawDocument, a struct or any JSON-serializable map) into a RawDocument
// holding only JSON values (numbers are json.Number).
//
// Values that cannot be canonically serialized are rejected with a malformed document error.
func Normalize(v any) (RawDocument, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, WrapMalformedDocumentError(err, "document cannot be serialized")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, WrapMalformedDocumentError(err, "document must be a JSON object")
	}
	if out == nil {
		return nil, NewMalformedDocumentError("document must be a JSON object")
	}

	return out, nil
}

// Hash salts every leaf of raw with a fresh UUIDv4 and computes the document digest.
//
// Identical input always yields the same set of salted paths; salts differ on every call.
func Hash(raw RawDocument) (*HashedDocument, error) {
	normalized, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	salted, err := saltValue(map[string]any(normalized))
	if err != nil {
		return nil, err
	}
	data := salted.(map[string]any)

	targetHash, err := Digest(data, nil)
	if err != nil {
		return nil, err
	}

	return &HashedDocument{Data: data, TargetHash: targetHash}, nil
}

// Digest computes the target hash of salted data plus any obfuscated leaf digests.
func Digest(data map[string]any, obfuscated []string) (string, error) {
	leaves, err := Flatten(data)
	if err != nil {
		return "", err
	}

	digests := make([]string, 0, len(leaves)+len(obfuscated))
	for path, value := range leaves {
		d, err := leafDigest(path, value)
		if err != nil {
			return "", err
		}
		digests = append(digests, d)
	}
	digests = append(digests, obfuscated...)
	sort.Strings(digests)

	canonical, err := crypto.CanonicalMarshal(digests)
	if err != nil {
		return "", WrapMalformedDocumentError(err, "failed to canonicalize leaf digests")
	}

	return crypto.Keccak256Hex(canonical), nil
}

// Flatten returns every salted leaf of data keyed by its dotted path (array elements use their index).
// Empty objects and arrays contribute no leaves. Two leaves on the same path (e.g. "a.b" next to
// "a": {"b": ...}) are rejected.
func Flatten(data map[string]any) (map[string]string, error) {
	out := make(map[string]string)
	if err := flattenInto(out, "", data); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out map[string]string, prefix string, v any) error {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			if err := flattenInto(out, joinPath(prefix, k), child); err != nil {
				return err
			}
		}
	case []any:
		for i, child := range val {
			if err := flattenInto(out, joinPath(prefix, strconv.Itoa(i)), child); err != nil {
				return err
			}
		}
	case string:
		if prefix == "" {
			return NewMalformedDocumentError("salted data must be an object")
		}
		if _, dup := out[prefix]; dup {
			return NewMalformedDocumentError(fmt.Sprintf("field path %q is ambiguous: a key containing \".\" collides with a nested field", prefix))
		}
		out[prefix] = val
	default:
		return NewMalformedDocumentError(fmt.Sprintf("salted field %q holds %T, want a salted string", prefix, v))
	}
	return nil
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// leafDigest is keccak256(jcs({"<path>": "<salted>"})) in hex.
func leafDigest(path, salted string) (string, error) {
	canonical, err := crypto.CanonicalMarshal(map[string]string{path: salted})
	if err != nil {
		return "", WrapMalformedDocumentError(err, fmt.Sprintf("failed to canonicalize field %q", path))
	}
	return crypto.Keccak256Hex(canonical), nil
}

func saltValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			s, err := saltValue(child)
			if err != nil {
				return nil, err
			}
			out[k] = s
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			s, err := saltValue(child)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	case string:
		return salt(typeString, val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, WrapMalformedDocumentError(err, fmt.Sprintf("number %s is out of range", val))
		}
		formatted, err := jcs.NumberToJSON(f)
		if err != nil {
			return nil, WrapMalformedDocumentError(err, fmt.Sprintf("number %s cannot be serialized", val))
		}
		return salt(typeNumber, formatted)
	case bool:
		return salt(typeBoolean, strconv.FormatBool(val))
	case nil:
		return salt(typeNull, "null")
	default:
		return nil, NewMalformedDocumentError(fmt.Sprintf("unsupported value of type %T", v))
	}
}

func salt(valueType, value string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return id.String() + ":" + valueType + ":" + value, nil
}

// Unsalt strips the salts from data and returns the original document.
func Unsalt(data map[string]any) (RawDocument, error) {
	v, err := unsaltValue("", data)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func unsaltValue(path string, v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			u, err := unsaltValue(joinPath(path, k), child)
			if err != nil {
				return nil, err
			}
			out[k] = u
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			u, err := unsaltValue(joinPath(path, strconv.Itoa(i)), child)
			if err != nil {
				return nil, err
			}
			out[i] = u
		}
		return out, nil
	case string:
		return unsaltString(path, val)
	default:
		return nil, NewMalformedDocumentError(fmt.Sprintf("salted field %q holds %T, want a salted string", path, v))
	}
}

func unsaltString(path, s string) (any, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return nil, NewMalformedDocumentError(fmt.Sprintf("field %q is not a salted value", path))
	}
	if _, err := uuid.Parse(parts[0]); err != nil {
		return nil, WrapMalformedDocumentError(err, fmt.Sprintf("field %q has an invalid salt", path))
	}

	value := parts[2]
	switch parts[1] {
	case typeString:
		return value, nil
	case typeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return nil, WrapMalformedDocumentError(err, fmt.Sprintf("field %q holds an invalid number", path))
		}
		return json.Number(value), nil
	case typeBoolean:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, WrapMalformedDocumentError(err, fmt.Sprintf("field %q holds an invalid boolean", path))
		}
		return b, nil
	case typeNull, typeUndefined:
		return nil, nil
	default:
		return nil, NewMalformedDocumentError(fmt.Sprintf("field %q has unknown salted type %q", path, parts[1]))
	}
}
