package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lexivox/lexivox/internal/practice"
)

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// It backs deployments without a database and tests. The zero value is
// ready to use.
type MemStore struct {
	mu       sync.RWMutex
	attempts []AttemptRecord
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{}
}

// RecordAttempt implements [Store.RecordAttempt].
func (s *MemStore) RecordAttempt(ctx context.Context, rec *AttemptRecord) error {
	if !rec.valid() {
		return ErrInvalidRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.CreatedAt = time.Now()
	s.attempts = append(s.attempts, *rec)
	return nil
}

// WordProgress implements [Store.WordProgress].
func (s *MemStore) WordProgress(ctx context.Context, learnerID, wordID string) (*WordProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p *WordProgress
	for _, a := range s.attempts {
		if a.LearnerID != learnerID || a.WordID != wordID {
			continue
		}
		if p == nil {
			p = &WordProgress{LearnerID: learnerID, WordID: wordID}
		}
		accumulate(p, a)
	}
	return p, nil
}

// ListProgress implements [Store.ListProgress].
func (s *MemStore) ListProgress(ctx context.Context, learnerID string) ([]WordProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byWord := make(map[string]*WordProgress)
	for _, a := range s.attempts {
		if a.LearnerID != learnerID {
			continue
		}
		p, ok := byWord[a.WordID]
		if !ok {
			p = &WordProgress{LearnerID: learnerID, WordID: a.WordID}
			byWord[a.WordID] = p
		}
		accumulate(p, a)
	}

	result := make([]WordProgress, 0, len(byWord))
	for _, p := range byWord {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastAttemptAt.After(result[j].LastAttemptAt)
	})
	return result, nil
}

// accumulate folds one attempt into a word aggregate.
func accumulate(p *WordProgress, a AttemptRecord) {
	p.Attempts++
	if a.Word != "" {
		p.Word = a.Word
	}
	switch a.Decision {
	case practice.DecisionAccepted:
		p.Accepts++
	case practice.DecisionForcedAdvance:
		p.ForcedAdvances++
	}
	if a.Combined > p.BestCombined {
		p.BestCombined = a.Combined
	}
	if a.CreatedAt.After(p.LastAttemptAt) {
		p.LastAttemptAt = a.CreatedAt
	}
}
