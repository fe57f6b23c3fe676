package vocab

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Update when the requested word does not exist.
var ErrNotFound = errors.New("word not found")

// ErrDuplicateID is returned by Add when a word with the same ID already exists.
var ErrDuplicateID = errors.New("word with that ID already exists")

// Store manages the vocabulary available for practice.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Add creates a new word. Returns the word with a generated ID if the
	// provided word's ID is empty.
	// Returns [ErrDuplicateID] if a word with the same non-empty ID exists.
	Add(ctx context.Context, word Word) (Word, error)

	// Get retrieves a word by ID.
	// Returns [ErrNotFound] when no word with that ID exists.
	Get(ctx context.Context, id string) (Word, error)

	// List returns all words, optionally filtered. An empty [ListOptions]
	// returns everything. Results order is not guaranteed.
	List(ctx context.Context, opts ListOptions) ([]Word, error)

	// Update replaces an existing word. The word's ID must be non-empty.
	// Returns [ErrNotFound] when no word with that ID exists.
	Update(ctx context.Context, word Word) error

	// Remove deletes a word by ID.
	// Returns [ErrNotFound] when no word with that ID exists.
	Remove(ctx context.Context, id string) error

	// BulkImport adds multiple words. Returns the number of words added and
	// the first error that aborted the import.
	BulkImport(ctx context.Context, words []Word) (int, error)
}

// ListOptions narrows the result set of [Store.List].
// All non-zero fields are applied as AND conditions.
type ListOptions struct {
	// Language restricts results to words with this language tag.
	// An empty value matches all languages.
	Language string

	// Tags restricts results to words carrying all of the specified tags.
	Tags []string

	// MaxDifficulty restricts results to words with Difficulty at or below
	// this value. Zero means no limit.
	MaxDifficulty int
}
