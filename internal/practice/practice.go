// Package practice implements the attempt flow of a pronunciation drill:
// a learner gets up to three attempts per word, each attempt is scored by
// the match package, and the third rejection force-advances the word so a
// learner is never stuck.
package practice

import (
	"fmt"
	"strings"

	"github.com/lexivox/lexivox/internal/match"
	"github.com/lexivox/lexivox/internal/recognize"
)

// DefaultMaxAttempts is the number of scored attempts a learner gets per
// word before the word force-advances.
const DefaultMaxAttempts = 3

// Decision is the judge's ruling on an attempt.
type Decision string

const (
	// DecisionAccepted means the attempt passed and the word advances.
	DecisionAccepted Decision = "accepted"

	// DecisionRetry means the attempt failed but attempts remain.
	DecisionRetry Decision = "retry"

	// DecisionForcedAdvance means the final attempt failed and the word
	// advances anyway.
	DecisionForcedAdvance Decision = "forced-advance"
)

// Session tracks attempt state for one target word. A Session is not safe
// for concurrent use; callers serialize access (the gateway runs one
// session per connection).
type Session struct {
	// Word is the target the learner is practicing.
	Word string

	// Attempts is the number of scored attempts consumed for Word.
	Attempts int

	// MaxAttempts is the attempt budget per word. Zero means
	// [DefaultMaxAttempts].
	MaxAttempts int
}

// NewSession starts a practice session on word.
func NewSession(word string) *Session {
	return &Session{Word: word, MaxAttempts: DefaultMaxAttempts}
}

// maxAttempts returns the effective attempt budget.
func (s *Session) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return DefaultMaxAttempts
}

// Advance moves the session to the next target word and resets the attempt
// counter. Called on every accept and every forced advance.
func (s *Session) Advance(word string) {
	s.Word = word
	s.Attempts = 0
}

// Verdict is the full result of judging one attempt.
type Verdict struct {
	// Word is the target word the attempt was judged against.
	Word string

	// Transcript is what the recognizer heard. Empty for failure attempts.
	Transcript string

	// Outcome carries similarity, combined score, and acceptance. Zero-valued
	// for failure attempts (similarity 0, not accepted).
	Outcome match.Outcome

	// Decision is the judge's ruling.
	Decision Decision

	// AttemptsRemaining is how many scored attempts are left for this word
	// after this one. Zero when Decision is Accepted or ForcedAdvance.
	AttemptsRemaining int

	// FailureCode is set when the attempt was a recognition failure rather
	// than a scored transcript.
	FailureCode recognize.Code `json:",omitempty"`
}

// Judge scores attempts against a session's target word and applies the
// attempt budget. Safe for concurrent use across distinct sessions.
type Judge struct {
	scorer *match.Scorer
}

// NewJudge returns a Judge that scores with scorer.
func NewJudge(scorer *match.Scorer) *Judge {
	return &Judge{scorer: scorer}
}

// Submit judges one spoken attempt. It consumes one attempt from the
// session, scores transcript against the session word, and rules:
//
//   - accepted score        → Accepted, counter reset
//   - rejected, budget left → Retry
//   - rejected, budget gone → ForcedAdvance, counter reset
//
// The caller advances the session to the next word after Accepted or
// ForcedAdvance; Submit only resets the counter so a stale count can never
// leak into the next word.
func (j *Judge) Submit(s *Session, transcript string, confidence float64) (Verdict, error) {
	if strings.TrimSpace(s.Word) == "" {
		return Verdict{}, fmt.Errorf("practice: session has no target word")
	}

	outcome, err := j.scorer.Score(transcript, s.Word, confidence)
	if err != nil {
		return Verdict{}, fmt.Errorf("practice: score attempt: %w", err)
	}

	s.Attempts++
	v := Verdict{
		Word:       s.Word,
		Transcript: transcript,
		Outcome:    outcome,
	}

	switch {
	case outcome.Accepted:
		v.Decision = DecisionAccepted
		s.Attempts = 0
	case s.Attempts >= s.maxAttempts():
		v.Decision = DecisionForcedAdvance
		s.Attempts = 0
	default:
		v.Decision = DecisionRetry
		v.AttemptsRemaining = s.maxAttempts() - s.Attempts
	}

	return v, nil
}

// SubmitFailure judges a recognition failure. Every failure class counts
// as a zero-score attempt except [recognize.CodeNetwork]: a learner should
// not lose an attempt because the recognizer's connection dropped, so
// network failures always rule Retry without touching the counter.
func (j *Judge) SubmitFailure(s *Session, code recognize.Code) (Verdict, error) {
	if strings.TrimSpace(s.Word) == "" {
		return Verdict{}, fmt.Errorf("practice: session has no target word")
	}
	if !code.IsValid() {
		return Verdict{}, fmt.Errorf("practice: unknown recognition failure code %q", code)
	}

	v := Verdict{
		Word:        s.Word,
		FailureCode: code,
	}

	if code == recognize.CodeNetwork {
		v.Decision = DecisionRetry
		v.AttemptsRemaining = s.maxAttempts() - s.Attempts
		return v, nil
	}

	s.Attempts++
	if s.Attempts >= s.maxAttempts() {
		v.Decision = DecisionForcedAdvance
		s.Attempts = 0
	} else {
		v.Decision = DecisionRetry
		v.AttemptsRemaining = s.maxAttempts() - s.Attempts
	}

	return v, nil
}
