// pass digests and signed payloads are computed over JSON canonicalized per RFC 8785
// this implementation uses the gowebpki/jcs library to perform this canonicalization
package crypto

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// canonicalizeJSON converts JSON to canonical form per RFC 8785
// This ensures consistent hashing/signing of JSON documents
//
// If the input is not valid JSON, an error is returned (handled by jcs library).
func canonicalizeJSON(jsonData []byte) ([]byte, error) {
	return jcs.Transform(jsonData)
}

// CanonicalMarshal marshals v with encoding/json and canonicalizes the result.
// The RFC 8785 output matches ECMAScript JSON.stringify for strings and numbers,
// so digests agree with the JavaScript document tooling.
func CanonicalMarshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, WrapValidationError(err, "value cannot be serialized to JSON")
	}
	canonical, err := canonicalizeJSON(raw)
	if err != nil {
		return nil, WrapValidationError(err, fmt.Sprintf("value cannot be canonicalized (%d bytes)", len(raw)))
	}
	return canonical, nil
}
