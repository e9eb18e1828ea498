package registry

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/information-sharing-networks/pass-issuer/internal/crypto"
	"github.com/information-sharing-networks/pass-issuer/internal/document"
)

// Result is the outcome of an issue or revoke submission.
type Result struct {
	// Receipt is nil when there was nothing to submit.
	Receipt *Receipt `json:"receipt,omitempty"`

	// Bulk reports whether the batch primitive was used.
	Bulk bool `json:"bulk"`

	// Statuses holds the read-back state of every submitted hash, in submission order.
	Statuses []HashStatus `json:"statuses"`
}

// Client submits issue and revoke requests to one ledger.
// Submissions through the same client are serialised.
type Client struct {
	ledger Ledger
	logger *slog.Logger
	mu     sync.Mutex
}

// NewClient creates a client for ledger.
func NewClient(ledger Ledger, logger *slog.Logger) (*Client, error) {
	if ledger == nil {
		return nil, fmt.Errorf("ledger is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Client{ledger: ledger, logger: logger}, nil
}

// Address is the registry address of the underlying ledger.
func (c *Client) Address() string {
	return c.ledger.Address()
}

// CanonicalHash returns h as "0x" followed by lowercase hex.
func CanonicalHash(h string) (string, error) {
	b, err := crypto.DecodeHash(h)
	if err != nil {
		return "", WrapInvalidHashError(err, fmt.Sprintf("invalid hash %q", h))
	}
	return "0x" + hex.EncodeToString(b), nil
}

// Dedup canonicalises hashes and removes duplicates, keeping the order of first occurrence.
func Dedup(hashes []string) ([]string, error) {
	seen := make(map[string]struct{}, len(hashes))
	out := make([]string, 0, len(hashes))
	for _, h := range hashes {
		canonical, err := CanonicalHash(h)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out, nil
}

// Issue records hashes as issued.
func (c *Client) Issue(ctx context.Context, hashes ...string) (*Result, error) {
	return c.submit(ctx, TransitionIssue, hashes)
}

// Revoke records hashes as revoked.
func (c *Client) Revoke(ctx context.Context, hashes ...string) (*Result, error) {
	return c.submit(ctx, TransitionRevoke, hashes)
}

// IssueFolder issues the target hashes of every wrapped document in dir with a single ledger call.
func (c *Client) IssueFolder(ctx context.Context, dir string) (*Result, error) {
	return c.submitFolder(ctx, TransitionIssue, dir)
}

// RevokeFolder revokes the target hashes of every wrapped document in dir with a single ledger call.
func (c *Client) RevokeFolder(ctx context.Context, dir string) (*Result, error) {
	return c.submitFolder(ctx, TransitionRevoke, dir)
}

// Status reads the ledger state of each unique hash.
func (c *Client) Status(ctx context.Context, hashes ...string) ([]HashStatus, error) {
	unique, err := Dedup(hashes)
	if err != nil {
		return nil, err
	}
	return c.readBack(ctx, unique)
}

// HashesInFolder returns the canonical target hashes of the wrapped documents in dir, deduplicated.
func HashesInFolder(dir string) ([]string, error) {
	files, err := document.ReadDocuments[document.WrappedDocument](dir)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, 0, len(files))
	for _, f := range files {
		if f.Document.Signature.TargetHash == "" {
			return nil, NewInvalidHashError(fmt.Sprintf("%s has no target hash", f.Name))
		}
		hashes = append(hashes, f.Document.CanonicalTargetHash())
	}
	return Dedup(hashes)
}

func (c *Client) submitFolder(ctx context.Context, transition Transition, dir string) (*Result, error) {
	hashes, err := HashesInFolder(dir)
	if err != nil {
		return nil, err
	}
	if len(hashes) == 0 {
		c.logger.Info("no hashes found in folder",
			slog.String("dir", dir),
			slog.String("transition", string(transition)))
		return &Result{}, nil
	}
	return c.submit(ctx, transition, hashes)
}

func (c *Client) submit(ctx context.Context, transition Transition, hashes []string) (*Result, error) {
	unique, err := Dedup(hashes)
	if err != nil {
		return nil, err
	}
	if len(unique) == 0 {
		return nil, NewInvalidHashError(fmt.Sprintf("no hashes to %s", transition))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result := &Result{Bulk: len(unique) > 1}

	var receipt *Receipt
	switch {
	case transition == TransitionIssue && !result.Bulk:
		receipt, err = c.ledger.Issue(ctx, unique[0])
	case transition == TransitionIssue:
		receipt, err = c.ledger.BulkIssue(ctx, unique)
	case !result.Bulk:
		receipt, err = c.ledger.Revoke(ctx, unique[0])
	default:
		receipt, err = c.ledger.BulkRevoke(ctx, unique)
	}
	if err != nil {
		c.logger.Warn("ledger submission failed",
			slog.String("registry", c.ledger.Address()),
			slog.String("transition", string(transition)),
			slog.Int("hashes", len(unique)),
			slog.String("error", err.Error()))
		if HasCode(err, ErrCodeLedgerRejection) {
			return nil, err
		}
		return nil, WrapLedgerError(err, fmt.Sprintf("failed to %s %d hash(es)", transition, len(unique)))
	}
	result.Receipt = receipt

	c.logger.Info("ledger submission committed",
		slog.String("registry", c.ledger.Address()),
		slog.String("transition", string(transition)),
		slog.String("tx_id", receipt.TxID),
		slog.Int("hashes", len(unique)),
		slog.Bool("bulk", result.Bulk))

	statuses, err := c.readBack(ctx, unique)
	result.Statuses = statuses
	if err != nil {
		return result, err
	}
	return result, nil
}

func (c *Client) readBack(ctx context.Context, hashes []string) ([]HashStatus, error) {
	statuses := make([]HashStatus, 0, len(hashes))
	for _, h := range hashes {
		issued, err := c.ledger.IsIssued(ctx, h)
		if err != nil {
			return statuses, WrapLedgerError(err, fmt.Sprintf("failed to read issued state of %s", h))
		}
		revoked, err := c.ledger.IsRevoked(ctx, h)
		if err != nil {
			return statuses, WrapLedgerError(err, fmt.Sprintf("failed to read revoked state of %s", h))
		}
		statuses = append(statuses, HashStatus{Hash: h, Issued: issued, Revoked: revoked})
	}
	return statuses, nil
}
