// Package registry records and revokes pass validity in a document-store ledger.
//
// The ledger is keyed by target hash in canonical form: "0x" followed by lowercase hex.
// A hash moves unissued -> issued -> revoked; the ledger rejects any other transition and the
// client surfaces that rejection unchanged.
//
// Client deduplicates its input and picks the single or bulk ledger primitive by the number of
// unique hashes. Bulk submissions are atomic. After every submission each hash is read back and
// reported. Nothing is retried.
package registry

import (
	"context"
	"time"
)

// Transition is a state change requested from the ledger.
type Transition string

const (
	TransitionIssue  Transition = "issue"
	TransitionRevoke Transition = "revoke"
)

// Status is the lifecycle state of a hash in the ledger.
type Status string

const (
	StatusUnissued Status = "unissued"
	StatusIssued   Status = "issued"
	StatusRevoked  Status = "revoked"
)

// Receipt acknowledges a committed ledger submission.
type Receipt struct {
	// TxID identifies the submission in the ledger.
	TxID string `json:"txId"`

	// Hashes are the canonical hashes the submission covered.
	Hashes []string `json:"hashes"`

	Transition  Transition `json:"transition"`
	CommittedAt time.Time  `json:"committedAt"`
}

// Ledger is a document store bound to one registry address and one signing identity.
//
// Hashes passed to a Ledger are canonical. Implementations return a LedgerRejectionError
// (see NewLedgerRejectionError) when a transition is refused; BulkIssue and BulkRevoke
// commit all hashes or none.
type Ledger interface {
	Address() string
	Issue(ctx context.Context, hash string) (*Receipt, error)
	BulkIssue(ctx context.Context, hashes []string) (*Receipt, error)
	Revoke(ctx context.Context, hash string) (*Receipt, error)
	BulkRevoke(ctx context.Context, hashes []string) (*Receipt, error)
	IsIssued(ctx context.Context, hash string) (bool, error)
	IsRevoked(ctx context.Context, hash string) (bool, error)
}

// HashStatus is the state of one hash as read back from the ledger.
type HashStatus struct {
	Hash    string `json:"hash"`
	Issued  bool   `json:"issued"`
	Revoked bool   `json:"revoked"`
}

// Status reduces the two ledger flags to a lifecycle state.
func (h HashStatus) Status() Status {
	switch {
	case h.Revoked:
		return StatusRevoked
	case h.Issued:
		return StatusIssued
	default:
		return StatusUnissued
	}
}

// Valid reports whether the hash is issued and not revoked.
func (h HashStatus) Valid() bool {
	return h.Issued && !h.Revoked
}
