package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the ledger on PostgreSQL (table revoked_tokens).
// Apply the schema with [Migrate] first.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed revocation ledger.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// IsRevoked reports whether jti has a row.
func (s *PostgresStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)
	`, jti).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return exists, nil
}

// Revoke inserts rec unless its jti is already present.
func (s *PostgresStore) Revoke(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO revoked_tokens (jti, account_id, issued_at, revoked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (jti) DO NOTHING
	`, rec.JTI, rec.AccountID, rec.IssuedAt.UTC(), rec.RevokedAt.UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Lookup loads the record for jti.
func (s *PostgresStore) Lookup(ctx context.Context, jti string) (*Record, error) {
	rec := Record{JTI: jti}
	err := s.pool.QueryRow(ctx, `
		SELECT account_id, issued_at, revoked_at
		FROM revoked_tokens
		WHERE jti = $1
	`, jti).Scan(&rec.AccountID, &rec.IssuedAt, &rec.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &rec, nil
}

// Purge deletes records for tokens issued before cutoff and returns the
// number of rows removed. Callers pass now minus the longest token lifetime.
func (s *PostgresStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM revoked_tokens WHERE issued_at < $1
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

// Ping measures database round-trip latency.
func (s *PostgresStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.pool.Ping(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
