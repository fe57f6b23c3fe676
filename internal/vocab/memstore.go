package vocab

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// It backs single-process deployments and tests. The zero value is ready
// to use.
type MemStore struct {
	mu    sync.RWMutex
	words map[string]Word
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		words: make(map[string]Word),
	}
}

// Add implements [Store.Add].
func (s *MemStore) Add(ctx context.Context, word Word) (Word, error) {
	if err := Validate(word); err != nil {
		return Word{}, fmt.Errorf("vocab: invalid word: %w", err)
	}
	if word.ID == "" {
		id, err := generateID()
		if err != nil {
			return Word{}, fmt.Errorf("vocab: generate id: %w", err)
		}
		word.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.words == nil {
		s.words = make(map[string]Word)
	}

	if _, exists := s.words[word.ID]; exists {
		return Word{}, ErrDuplicateID
	}

	s.words[word.ID] = word
	return word, nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(ctx context.Context, id string) (Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.words[id]
	if !ok {
		return Word{}, ErrNotFound
	}
	return w, nil
}

// List implements [Store.List].
func (s *MemStore) List(ctx context.Context, opts ListOptions) ([]Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Word, 0, len(s.words))
	for _, w := range s.words {
		if !matchesOpts(w, opts) {
			continue
		}
		result = append(result, w)
	}
	return result, nil
}

// Update implements [Store.Update].
func (s *MemStore) Update(ctx context.Context, word Word) error {
	if err := Validate(word); err != nil {
		return fmt.Errorf("vocab: invalid word: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.words[word.ID]; !ok {
		return ErrNotFound
	}

	s.words[word.ID] = word
	return nil
}

// Remove implements [Store.Remove].
func (s *MemStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.words[id]; !ok {
		return ErrNotFound
	}

	delete(s.words, id)
	return nil
}

// BulkImport implements [Store.BulkImport].
// Words are added one at a time; the count of successfully added words is
// returned along with the first error encountered.
func (s *MemStore) BulkImport(ctx context.Context, words []Word) (int, error) {
	count := 0
	for _, w := range words {
		if _, err := s.Add(ctx, w); err != nil {
			return count, fmt.Errorf("vocab: bulk import at index %d (text %q): %w", count, w.Text, err)
		}
		count++
	}
	return count, nil
}

// generateID produces a random 16-byte hex string using crypto/rand.
func generateID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// matchesOpts reports whether w satisfies all conditions in opts.
func matchesOpts(w Word, opts ListOptions) bool {
	if opts.Language != "" && w.Language != opts.Language {
		return false
	}
	if opts.MaxDifficulty > 0 && w.Difficulty > opts.MaxDifficulty {
		return false
	}
	for _, want := range opts.Tags {
		if !slices.Contains(w.Tags, want) {
			return false
		}
	}
	return true
}
