package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lexivox/lexivox/internal/practice"
)

// Schema is the SQL DDL for the attempts table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
//
// Aggregates are computed on read; the raw attempt log is the source of
// truth so new aggregate views never need a backfill.
const Schema = `
CREATE TABLE IF NOT EXISTS pronunciation_attempts (
    id           BIGSERIAL PRIMARY KEY,
    learner_id   TEXT NOT NULL,
    word_id      TEXT NOT NULL,
    word         TEXT NOT NULL DEFAULT '',
    transcript   TEXT NOT NULL DEFAULT '',
    similarity   DOUBLE PRECISION NOT NULL DEFAULT 0,
    confidence   DOUBLE PRECISION NOT NULL DEFAULT 0,
    combined     DOUBLE PRECISION NOT NULL DEFAULT 0,
    decision     TEXT NOT NULL,
    failure_code TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_pron_attempts_learner_word ON pronunciation_attempts(learner_id, word_id);
CREATE INDEX IF NOT EXISTS idx_pron_attempts_learner_time ON pronunciation_attempts(learner_id, created_at DESC);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] using the given connection or
// pool. The caller is responsible for calling [PostgresStore.Migrate] to
// ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("progress: migrate: %w", err)
	}
	return nil
}

// RecordAttempt implements [Store.RecordAttempt].
func (s *PostgresStore) RecordAttempt(ctx context.Context, rec *AttemptRecord) error {
	if !rec.valid() {
		return ErrInvalidRecord
	}

	const query = `
		INSERT INTO pronunciation_attempts (
			learner_id, word_id, word, transcript,
			similarity, confidence, combined, decision, failure_code
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`

	err := s.db.QueryRow(ctx, query,
		rec.LearnerID, rec.WordID, rec.Word, rec.Transcript,
		rec.Similarity, rec.Confidence, rec.Combined, string(rec.Decision), rec.FailureCode,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("progress: record attempt: %w", err)
	}
	return nil
}

const aggregateColumns = `
	learner_id, word_id,
	max(word)                                              AS word,
	count(*)                                               AS attempts,
	count(*) FILTER (WHERE decision = $2)                  AS accepts,
	count(*) FILTER (WHERE decision = $3)                  AS forced_advances,
	coalesce(max(combined), 0)                             AS best_combined,
	max(created_at)                                        AS last_attempt_at`

// WordProgress implements [Store.WordProgress].
func (s *PostgresStore) WordProgress(ctx context.Context, learnerID, wordID string) (*WordProgress, error) {
	query := `
		SELECT ` + aggregateColumns + `
		FROM pronunciation_attempts
		WHERE learner_id = $1 AND word_id = $4
		GROUP BY learner_id, word_id`

	var p WordProgress
	err := s.db.QueryRow(ctx, query,
		learnerID, string(practice.DecisionAccepted), string(practice.DecisionForcedAdvance), wordID,
	).Scan(
		&p.LearnerID, &p.WordID, &p.Word,
		&p.Attempts, &p.Accepts, &p.ForcedAdvances,
		&p.BestCombined, &p.LastAttemptAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("progress: word progress %q/%q: %w", learnerID, wordID, err)
	}
	return &p, nil
}

// ListProgress implements [Store.ListProgress].
func (s *PostgresStore) ListProgress(ctx context.Context, learnerID string) ([]WordProgress, error) {
	query := `
		SELECT ` + aggregateColumns + `
		FROM pronunciation_attempts
		WHERE learner_id = $1
		GROUP BY learner_id, word_id
		ORDER BY max(created_at) DESC`

	rows, err := s.db.Query(ctx, query,
		learnerID, string(practice.DecisionAccepted), string(practice.DecisionForcedAdvance),
	)
	if err != nil {
		return nil, fmt.Errorf("progress: list: %w", err)
	}
	defer rows.Close()

	var result []WordProgress
	for rows.Next() {
		var p WordProgress
		if err := rows.Scan(
			&p.LearnerID, &p.WordID, &p.Word,
			&p.Attempts, &p.Accepts, &p.ForcedAdvances,
			&p.BestCombined, &p.LastAttemptAt,
		); err != nil {
			return nil, fmt.Errorf("progress: list scan: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("progress: list: %w", err)
	}
	return result, nil
}
