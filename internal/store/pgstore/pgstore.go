// Package pgstore is a Postgres-backed store.ChallengeStore, grounded on
// the teacher's internal/db PostgresStore: a pgxpool connection pool, an
// explicit InitSchema migration, and transaction-wrapped writes.
//
// This backend exists because the spec explicitly leaves production
// store backends unspecified beyond the in-memory reference (§4.3) —
// it is the supplemented "distributed store" component named in
// SPEC_FULL's domain stack expansion.
package pgstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentauth/core/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS agentauth_challenges (
	id TEXT PRIMARY KEY,
	record JSONB NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_agentauth_challenges_expires_at
	ON agentauth_challenges (expires_at);
`

// Store is a Postgres-backed ChallengeStore (see assert.go for the
// store.ChallengeStore conformance check).
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pooled connection to dsn and ensures the schema
// exists, mirroring PostgresStore.Connect's eager InitSchema call.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pgstore: init schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Set upserts record under id with the given TTL, transaction-wrapped
// like PostgresStore.SaveAnalysisResult.
func (s *Store) Set(id string, record models.ChallengeRecord, ttl time.Duration) error {
	ctx := context.Background()
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("pgstore: marshal record: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pgstore: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO agentauth_challenges (id, record, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, expires_at = EXCLUDED.expires_at
	`, id, payload, time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("pgstore: upsert: %w", err)
	}
	return tx.Commit(ctx)
}

// Get loads the record for id, treating an expired row as absent.
func (s *Store) Get(id string) (models.ChallengeRecord, bool, error) {
	ctx := context.Background()
	var payload []byte
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx, `SELECT record, expires_at FROM agentauth_challenges WHERE id = $1`, id).
		Scan(&payload, &expiresAt)
	if err != nil {
		return models.ChallengeRecord{}, false, nil
	}
	if time.Now().After(expiresAt) {
		return models.ChallengeRecord{}, false, nil
	}
	var rec models.ChallengeRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return models.ChallengeRecord{}, false, fmt.Errorf("pgstore: unmarshal record: %w", err)
	}
	return rec, true, nil
}

// Delete atomically removes and returns the row for id using
// DELETE ... RETURNING, so the compare-and-delete required by §5 is
// enforced by Postgres's row lock rather than an application mutex.
func (s *Store) Delete(id string) (models.ChallengeRecord, bool, error) {
	ctx := context.Background()
	var payload []byte
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx, `
		DELETE FROM agentauth_challenges WHERE id = $1 RETURNING record, expires_at
	`, id).Scan(&payload, &expiresAt)
	if err != nil {
		return models.ChallengeRecord{}, false, nil
	}
	if time.Now().After(expiresAt) {
		return models.ChallengeRecord{}, false, nil
	}
	var rec models.ChallengeRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return models.ChallengeRecord{}, false, fmt.Errorf("pgstore: unmarshal record: %w", err)
	}
	return rec, true, nil
}
