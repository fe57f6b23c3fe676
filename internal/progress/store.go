// Package progress persists per-learner attempt history so the game can
// show streaks, weak words, and long-term improvement across sessions.
package progress

import (
	"context"
	"errors"
	"time"

	"github.com/lexivox/lexivox/internal/practice"
)

// ErrInvalidRecord is returned by RecordAttempt for records missing
// required fields.
var ErrInvalidRecord = errors.New("attempt record is missing required fields")

// AttemptRecord is one judged pronunciation attempt, exactly as ruled.
type AttemptRecord struct {
	// LearnerID identifies the learner. Required.
	LearnerID string

	// WordID is the vocab store ID of the target word. Required.
	WordID string

	// Word is the target text at the time of the attempt, denormalised so
	// history survives pack edits.
	Word string

	// Transcript is what the recognizer heard. Empty for failure attempts.
	Transcript string

	// Similarity, Confidence, and Combined are the scores of the attempt.
	// All zero for failure attempts.
	Similarity float64
	Confidence float64
	Combined   float64

	// Decision is the judge's ruling.
	Decision practice.Decision

	// FailureCode is the recognition failure class, empty for scored attempts.
	FailureCode string

	// CreatedAt is set by the store on insert.
	CreatedAt time.Time
}

// valid reports whether the record carries the required identifiers.
func (r *AttemptRecord) valid() bool {
	return r != nil && r.LearnerID != "" && r.WordID != "" && r.Decision != ""
}

// WordProgress is the aggregate history of one learner on one word.
type WordProgress struct {
	LearnerID string
	WordID    string
	Word      string

	// Attempts is the total number of recorded attempts.
	Attempts int

	// Accepts is the number of accepted attempts.
	Accepts int

	// ForcedAdvances is the number of times the word force-advanced.
	ForcedAdvances int

	// BestCombined is the highest combined score ever recorded.
	BestCombined float64

	// LastAttemptAt is the time of the most recent attempt.
	LastAttemptAt time.Time
}

// Store persists attempt history.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// RecordAttempt appends one judged attempt.
	// Returns [ErrInvalidRecord] when required fields are missing.
	RecordAttempt(ctx context.Context, rec *AttemptRecord) error

	// WordProgress returns the aggregate for one learner and word.
	// Returns (nil, nil) when the learner has no attempts on the word.
	WordProgress(ctx context.Context, learnerID, wordID string) (*WordProgress, error)

	// ListProgress returns aggregates for every word the learner has
	// attempted, most recently attempted first.
	ListProgress(ctx context.Context, learnerID string) ([]WordProgress, error)
}
