// Package postgres is a document-store ledger backed by PostgreSQL.
//
// Each registry address is a partition of the document_hashes table. A row exists once a
// hash is issued; revocation stamps the row. Bulk submissions run in one transaction that
// locks the affected rows, so a batch commits all hashes or none.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/information-sharing-networks/pass-issuer/internal/database"
	"github.com/information-sharing-networks/pass-issuer/internal/registry"
)

const uniqueViolation = "23505"

// Ledger is a registry.Ledger stored in Postgres.
type Ledger struct {
	address string
	pool    *pgxpool.Pool
	queries *database.Queries
	logger  *slog.Logger
}

var _ registry.Ledger = (*Ledger)(nil)

// New creates a ledger for address using pool. The schema must already be migrated
// (see database.Migrate).
func New(pool *pgxpool.Pool, address string, logger *slog.Logger) (*Ledger, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if address == "" {
		return nil, fmt.Errorf("registry address is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		address: address,
		pool:    pool,
		queries: database.New(pool),
		logger:  logger,
	}, nil
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
	row, found, err := l.get(ctx, hash)
	if err != nil || !found {
		return false, err
	}
	return row.IssuedTxID.Valid, nil
}

func (l *Ledger) IsRevoked(ctx context.Context, hash string) (bool, error) {
	row, found, err := l.get(ctx, hash)
	if err != nil || !found {
		return false, err
	}
	return row.RevokedTxID.Valid, nil
}

func (l *Ledger) get(ctx context.Context, hash string) (database.DocumentHash, bool, error) {
	row, err := l.queries.GetDocumentHash(ctx, database.GetDocumentHashParams{
		RegistryAddress: l.address,
		Hash:            hash,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return row, false, nil
	}
	if err != nil {
		return row, false, fmt.Errorf("failed to read %s: %w", hash, err)
	}
	return row, true, nil
}

func (l *Ledger) apply(ctx context.Context, transition registry.Transition, hashes []string) (*registry.Receipt, error) {
	if len(hashes) == 0 {
		return nil, fmt.Errorf("no hashes to %s", transition)
	}
	if dups := duplicates(hashes); len(dups) > 0 {
		return nil, registry.NewLedgerRejectionError(dups, transition, "hash duplicated in batch")
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// no-op once committed
		_ = tx.Rollback(context.Background())
	}()

	q := l.queries.WithTx(tx)

	existing, err := q.LockDocumentHashes(ctx, database.LockDocumentHashesParams{
		RegistryAddress: l.address,
		Hashes:          hashes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to lock document hashes: %w", err)
	}

	if refused, reason := refusals(transition, hashes, existing); len(refused) > 0 {
		return nil, registry.NewLedgerRejectionError(refused, transition, reason)
	}

	txID := uuid.New()
	record, err := q.CreateLedgerTransaction(ctx, database.CreateLedgerTransactionParams{
		ID:              pgtype.UUID{Bytes: txID, Valid: true},
		RegistryAddress: l.address,
		Transition:      string(transition),
		HashCount:       int32(len(hashes)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	var affected int64
	switch transition {
	case registry.TransitionIssue:
		affected, err = q.InsertIssuedHashes(ctx, database.InsertIssuedHashesParams{
			RegistryAddress: l.address,
			Hashes:          hashes,
			TxID:            record.ID,
		})
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// a concurrent submission issued one of the hashes after the lock was taken
			return nil, registry.NewLedgerRejectionError(hashes, transition, "hash already issued")
		}
	case registry.TransitionRevoke:
		affected, err = q.MarkHashesRevoked(ctx, database.MarkHashesRevokedParams{
			TxID:            record.ID,
			RegistryAddress: l.address,
			Hashes:          hashes,
		})
	default:
		return nil, fmt.Errorf("unknown transition %q", transition)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s hashes: %w", transition, err)
	}
	if affected != int64(len(hashes)) {
		return nil, fmt.Errorf("%s changed %d rows, expected %d", transition, affected, len(hashes))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	committedAt := time.Now().UTC()
	if record.CommittedAt.Valid {
		committedAt = record.CommittedAt.Time.UTC()
	}

	l.logger.Debug("ledger transaction committed",
		slog.String("registry", l.address),
		slog.String("tx_id", txID.String()),
		slog.String("transition", string(transition)),
		slog.Int("hashes", len(hashes)))

	return &registry.Receipt{
		TxID:        txID.String(),
		Hashes:      append([]string(nil), hashes...),
		Transition:  transition,
		CommittedAt: committedAt,
	}, nil
}

// refusals returns the hashes whose current state does not allow transition.
func refusals(transition registry.Transition, hashes []string, existing []database.DocumentHash) ([]string, string) {
	rows := make(map[string]database.DocumentHash, len(existing))
	for _, row := range existing {
		rows[row.Hash] = row
	}

	var refused []string
	switch transition {
	case registry.TransitionIssue:
		for _, h := range hashes {
			if _, ok := rows[h]; ok {
				refused = append(refused, h)
			}
		}
		return refused, "hash already issued"
	default:
		for _, h := range hashes {
			row, ok := rows[h]
			if !ok || row.RevokedTxID.Valid {
				refused = append(refused, h)
			}
		}
		return refused, "hash not issued or already revoked"
	}
}

func duplicates(hashes []string) []string {
	seen := make(map[string]struct{}, len(hashes))
	var dups []string
	for _, h := range hashes {
		if _, ok := seen[h]; ok {
			dups = append(dups, h)
			continue
		}
		seen[h] = struct{}{}
	}
	return dups
}
