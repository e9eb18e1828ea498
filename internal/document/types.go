// Package document implements salted pass hashing and Merkle wrapping.
//
// A raw pass is a JSON object. Hashing replaces every leaf value with a salted string
// "<uuid>:<type>:<value>" and derives a per-leaf digest from the leaf's flattened path and salted value.
// The document digest (target hash) is the Keccak-256 of the sorted leaf digests, so fields can later be
// removed (obfuscated) without changing it as long as their digests are kept in privacy.obfuscatedData.
//
// Wrapping a batch builds a Merkle tree over the target hashes and stores each document's sibling path
// in its signature block. The persisted layout is the OpenAttestation v2 wrapped document.
package document

// SchemaVersion is written to the version field of every wrapped document.
const SchemaVersion = "https://schema.openattestation.com/2.0/schema.json"

// SignatureType identifies the Merkle proof scheme in the signature block.
const SignatureType = "SHA3MerkleProof"

// RawDocument is an unwrapped pass: field name to value, including issuers and $template.
type RawDocument map[string]any

// HashedDocument is a RawDocument with every leaf salted plus its document digest.
type HashedDocument struct {
	// Data mirrors the raw document structure with every leaf replaced by "<salt>:<type>:<value>".
	Data map[string]any

	// TargetHash is the hex Keccak-256 document digest (no 0x prefix).
	TargetHash string

	// ObfuscatedData holds the leaf digests of fields removed from Data.
	ObfuscatedData []string
}

// SignatureBlock binds a document to the Merkle root of the batch it was wrapped in.
type SignatureBlock struct {
	Type       string   `json:"type"`
	TargetHash string   `json:"targetHash"`
	Proof      []string `json:"proof"`
	MerkleRoot string   `json:"merkleRoot"`
}

// Privacy lists the leaf digests of fields removed by Obfuscate.
type Privacy struct {
	ObfuscatedData []string `json:"obfuscatedData"`
}

// WrappedDocument is the persisted form of a hashed and Merkle-wrapped pass.
// It is immutable: changing any field of Data invalidates TargetHash.
type WrappedDocument struct {
	Version   string         `json:"version"`
	Data      map[string]any `json:"data"`
	Signature SignatureBlock `json:"signature"`
	Privacy   *Privacy       `json:"privacy,omitempty"`
}

// Proof is an issuer signature attached to a wrapped document.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created"`
	ProofPurpose       string `json:"proofPurpose"`
	VerificationMethod string `json:"verificationMethod"`
	Algorithm          string `json:"algorithm"`
	Signature          string `json:"signature"`
}

// SignedWrappedDocument is a wrapped document plus one or more issuer signatures.
type SignedWrappedDocument struct {
	WrappedDocument
	Proof []Proof `json:"proof"`
}

// ObfuscatedData returns the document's obfuscated leaf digests, if any.
func (w *WrappedDocument) ObfuscatedData() []string {
	if w.Privacy == nil {
		return nil
	}
	return w.Privacy.ObfuscatedData
}

// CanonicalTargetHash returns the target hash in the registry's canonical 0x-prefixed form.
func (w *WrappedDocument) CanonicalTargetHash() string {
	return "0x" + w.Signature.TargetHash
}
