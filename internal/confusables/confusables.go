// Package confusables maintains a nearest-neighbour index over vocabulary
// word embeddings. The game uses it to pick distractor words that sound or
// read close to the target ("spork" next to "spark"), and to explain near
// misses after a rejected attempt.
//
// The index keys each word by its vocab store ID and embeds the phonetic
// transcription when one exists, falling back to the word text. Phonetic
// strings cluster by sound rather than spelling, which is what recognition
// confusion actually follows.
package confusables

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/lexivox/lexivox/internal/vocab"
	"github.com/lexivox/lexivox/pkg/provider/embeddings"
)

// SchemaFmt is the SQL DDL for the confusables table, parameterised by
// embedding dimensionality. Execute it via [Index.Migrate] or apply it
// manually during deployment. Requires the pgvector extension.
const SchemaFmt = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS word_embeddings (
    word_id   TEXT PRIMARY KEY,
    text      TEXT NOT NULL,
    language  TEXT NOT NULL DEFAULT '',
    embedding vector(%d) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_word_embeddings_hnsw
    ON word_embeddings USING hnsw (embedding vector_cosine_ops);
`

// DB is the database interface used by [Index]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Neighbor is one word close to a query word in embedding space.
type Neighbor struct {
	// WordID is the vocab store ID of the neighbouring word.
	WordID string

	// Text is the neighbouring word's text.
	Text string

	// Distance is the cosine distance to the query word. Smaller is more
	// confusable.
	Distance float64
}

// Index is a pgvector-backed confusables index.
// All methods are safe for concurrent use.
type Index struct {
	db       DB
	embedder embeddings.Provider
}

// New creates an [Index] over db using embedder for vectorisation. The
// caller is responsible for calling [Index.Migrate] before issuing queries.
func New(db DB, embedder embeddings.Provider) *Index {
	return &Index{db: db, embedder: embedder}
}

// Migrate creates the word_embeddings table sized to the embedder's
// dimensionality.
func (ix *Index) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(SchemaFmt, ix.embedder.Dimensions())
	if _, err := ix.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("confusables: migrate: %w", err)
	}
	return nil
}

// Upsert embeds word and stores its vector, replacing any previous entry
// for the same word ID.
func (ix *Index) Upsert(ctx context.Context, word vocab.Word) error {
	if word.ID == "" {
		return fmt.Errorf("confusables: word %q has no ID", word.Text)
	}

	vec, err := ix.embedder.Embed(ctx, embedText(word))
	if err != nil {
		return fmt.Errorf("confusables: embed %q: %w", word.Text, err)
	}

	const q = `
		INSERT INTO word_embeddings (word_id, text, language, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (word_id) DO UPDATE SET
		    text      = EXCLUDED.text,
		    language  = EXCLUDED.language,
		    embedding = EXCLUDED.embedding`

	if _, err := ix.db.Exec(ctx, q, word.ID, word.Text, word.Language, pgvector.NewVector(vec)); err != nil {
		return fmt.Errorf("confusables: upsert %q: %w", word.Text, err)
	}
	return nil
}

// UpsertAll embeds and stores a batch of words in one embedding call.
// Words without an ID are rejected before any work happens.
func (ix *Index) UpsertAll(ctx context.Context, words []vocab.Word) error {
	if len(words) == 0 {
		return nil
	}

	texts := make([]string, len(words))
	for i, w := range words {
		if w.ID == "" {
			return fmt.Errorf("confusables: word %q has no ID", w.Text)
		}
		texts[i] = embedText(w)
	}

	vecs, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("confusables: embed batch: %w", err)
	}

	const q = `
		INSERT INTO word_embeddings (word_id, text, language, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (word_id) DO UPDATE SET
		    text      = EXCLUDED.text,
		    language  = EXCLUDED.language,
		    embedding = EXCLUDED.embedding`

	for i, w := range words {
		if _, err := ix.db.Exec(ctx, q, w.ID, w.Text, w.Language, pgvector.NewVector(vecs[i])); err != nil {
			return fmt.Errorf("confusables: upsert %q: %w", w.Text, err)
		}
	}
	return nil
}

// Remove drops a word from the index. Removing an unindexed word is not an
// error.
func (ix *Index) Remove(ctx context.Context, wordID string) error {
	const q = `DELETE FROM word_embeddings WHERE word_id = $1`
	if _, err := ix.db.Exec(ctx, q, wordID); err != nil {
		return fmt.Errorf("confusables: remove %q: %w", wordID, err)
	}
	return nil
}

// Nearest returns up to topK indexed words closest to word, excluding the
// word itself, ordered by ascending cosine distance.
func (ix *Index) Nearest(ctx context.Context, word vocab.Word, topK int) ([]Neighbor, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("confusables: topK must be positive, got %d", topK)
	}

	vec, err := ix.embedder.Embed(ctx, embedText(word))
	if err != nil {
		return nil, fmt.Errorf("confusables: embed query %q: %w", word.Text, err)
	}

	const q = `
		SELECT word_id, text, embedding <=> $1 AS distance
		FROM   word_embeddings
		WHERE  word_id <> $2
		ORDER  BY distance
		LIMIT  $3`

	rows, err := ix.db.Query(ctx, q, pgvector.NewVector(vec), word.ID, topK)
	if err != nil {
		return nil, fmt.Errorf("confusables: nearest: %w", err)
	}

	neighbors, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Neighbor, error) {
		var n Neighbor
		if err := row.Scan(&n.WordID, &n.Text, &n.Distance); err != nil {
			return Neighbor{}, err
		}
		return n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("confusables: scan rows: %w", err)
	}
	if neighbors == nil {
		neighbors = []Neighbor{}
	}
	return neighbors, nil
}

// embedText picks the string that gets embedded for a word: the phonetic
// transcription when present, otherwise the text itself.
func embedText(w vocab.Word) string {
	if w.Phonetic != "" {
		return w.Phonetic
	}
	return w.Text
}
