// Package memory is an in-process document-store ledger.
//
// It enforces the same transitions as the Postgres ledger and is used by tests and by
// passctl when no DATABASE_URL is configured. State is lost when the process exits.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/pass-issuer/internal/registry"
)

type entry struct {
	issued  bool
	revoked bool
}

// Ledger is a registry.Ledger held in memory.
type Ledger struct {
	address string

	mu      sync.RWMutex
	entries map[string]*entry
}

var _ registry.Ledger = (*Ledger)(nil)

// New creates an empty ledger for address.
func New(address string) *Ledger {
	return &Ledger{address: address, entries: make(map[string]*entry)}
}

func (l *Ledger) Address() string { return l.address }

func (l *Ledger) Issue(ctx context.Context, hash string) (*registry.Receipt, error) {
	return l.apply(ctx, registry.TransitionIssue, []string{hash})
}

func (l *Ledger) BulkIssue(ctx context.Context, hashes []string) (*registry.Receipt, error) {
	return l.apply(ctx, registry.TransitionIssue, hashes)
}

func (l *Ledger) Revoke(ctx context.Context, hash string) (*registry.Receipt, error) {
	return l.apply(ctx, registry.TransitionRevoke, []string{hash})
}

func (l *Ledger) BulkRevoke(ctx context.Context, hashes []string) (*registry.Receipt, error) {
	return l.apply(ctx, registry.TransitionRevoke, hashes)
}

func (l *Ledger) IsIssued(ctx context.Context, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[hash]
	return ok && e.issued, nil
}

func (l *Ledger) IsRevoked(ctx context.Context, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[hash]
	return ok && e.revoked, nil
}

// apply validates every hash before changing any, so a batch commits all or nothing.
func (l *Ledger) apply(ctx context.Context, transition registry.Transition, hashes []string) (*registry.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(hashes) == 0 {
		return nil, fmt.Errorf("no hashes to %s", transition)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var refused []string
	seen := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		if _, dup := seen[h]; dup {
			refused = append(refused, h)
			continue
		}
		seen[h] = struct{}{}

		e := l.entries[h]
		switch transition {
		case registry.TransitionIssue:
			if e != nil && e.issued {
				refused = append(refused, h)
			}
		case registry.TransitionRevoke:
			if e == nil || !e.issued || e.revoked {
				refused = append(refused, h)
			}
		}
	}
	if len(refused) > 0 {
		return nil, registry.NewLedgerRejectionError(refused, transition, reason(transition))
	}

	for _, h := range hashes {
		e := l.entries[h]
		if e == nil {
			e = &entry{}
			l.entries[h] = e
		}
		switch transition {
		case registry.TransitionIssue:
			e.issued = true
		case registry.TransitionRevoke:
			e.revoked = true
		}
	}

	return &registry.Receipt{
		TxID:        uuid.NewString(),
		Hashes:      append([]string(nil), hashes...),
		Transition:  transition,
		CommittedAt: time.Now().UTC(),
	}, nil
}

func reason(transition registry.Transition) string {
	if transition == registry.TransitionIssue {
		return "hash already issued or duplicated in batch"
	}
	return "hash not issued, already revoked or duplicated in batch"
}
