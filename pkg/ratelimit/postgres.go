package ratelimit

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tech-artist89/mitra/pkg/db"
)

// Migrations holds the goose migrations for [PostgresStore], under "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside [Migrations].
const MigrationsDir = "migrations"

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	db.Beginner
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps windows in the rate_windows table. Updates lock the
// key's row inside a transaction with an upsert that takes the row lock.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store on conn. The schema is created by
// applying [Migrations].
func NewPostgresStore(conn DB) *PostgresStore {
	return &PostgresStore{db: conn}
}

const (
	pgSelectHits = `SELECT hits FROM rate_windows WHERE key = $1`

	// Inserts a placeholder row or locks the existing one, so concurrent
	// first requests for a key serialize too. The epoch timestamp makes an
	// unused placeholder eligible for the next sweep.
	pgLockRow = `INSERT INTO rate_windows (key, hits, updated_at)
VALUES ($1, '{}', to_timestamp(0))
ON CONFLICT (key) DO UPDATE SET key = EXCLUDED.key
RETURNING hits`

	pgSaveRow = `UPDATE rate_windows SET hits = $2, updated_at = $3 WHERE key = $1`

	pgSweep = `DELETE FROM rate_windows WHERE updated_at < $1`
)

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, key string) ([]time.Time, error) {
	var hits []time.Time
	err := s.db.QueryRow(ctx, pgSelectHits, key).Scan(&hits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return hits, nil
}

// Update implements Store.
func (s *PostgresStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var hits []time.Time
		if err := tx.QueryRow(ctx, pgLockRow, key).Scan(&hits); err != nil {
			return err
		}

		next, write := fn(hits)
		if !write {
			return nil
		}

		updated := newest(next)
		if updated.IsZero() {
			updated = time.Unix(0, 0)
		}
		if next == nil {
			next = []time.Time{}
		}
		_, err := tx.Exec(ctx, pgSaveRow, key, next, updated)
		return err
	})
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Sweep implements Store. Rows locked by an in-flight update are deleted
// only after that update commits, and then only if still stale.
func (s *PostgresStore) Sweep(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.db.Exec(ctx, pgSweep, before)
	if err != nil {
		return 0, errors.Join(ErrStoreFailed, err)
	}
	return int(tag.RowsAffected()), nil
}
