// algorithm.go defines the signing algorithms an issuer can sign passes with.
// The identifier is stored next to every signature so verifiers can pick the matching routine.
package crypto

import "fmt"

// Algorithm specifies which signing algorithm to use for pass signatures
type Algorithm string

const (
	// AlgorithmEd25519: EdDSA with Ed25519 curve (JWS compact serialization)
	AlgorithmEd25519 Algorithm = "EdDSA"

	// AlgorithmRSA: RS256 (RSA with SHA-256, JWS compact serialization)
	AlgorithmRSA Algorithm = "RS256"

	// AlgorithmDilithium3: CRYSTALS-Dilithium mode 3 over a SHA3-256 digest (base64 raw signature)
	AlgorithmDilithium3 Algorithm = "Dilithium3"
)

// ParseAlgorithm converts a configured algorithm name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case AlgorithmEd25519, AlgorithmRSA, AlgorithmDilithium3:
		return Algorithm(name), nil
	default:
		return "", NewUnsupportedAlgorithmError(fmt.Sprintf("unsupported signing algorithm %q", name))
	}
}
