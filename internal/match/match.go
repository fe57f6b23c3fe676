// Package match implements pronunciation scoring: deciding whether a spoken
// transcript counts as a correct pronunciation of a target vocabulary word.
//
// The canonical scoring mode combines normalised Levenshtein similarity with
// the recognizer's confidence score and accepts when the product exceeds a
// fixed threshold. A legacy containment mode (substring acceptance without
// confidence weighting) is retained for compatibility with older game
// clients; it should not be used for new deployments.
//
// Scoring is pure and deterministic — identical inputs always produce the
// identical [Outcome]. All methods are safe for concurrent use; a [Scorer]
// is read-only after construction.
package match

import (
	"errors"
	"strings"

	"github.com/antzucaro/matchr"
)

// AcceptThreshold is the combined-score boundary for accepting an attempt.
// The comparison is strict: a combined score of exactly 0.6 is rejected.
// This boundary is load-bearing for existing game clients and must not drift.
const AcceptThreshold = 0.6

// ErrEmptyTarget is returned by [Scorer.Score] when the target word is empty.
// An empty target indicates a wiring bug in the caller (a practice session
// was started without a word), not a runtime condition.
var ErrEmptyTarget = errors.New("match: target word must not be empty")

// Mode selects the scoring scheme.
type Mode string

const (
	// ModeEditDistance is the canonical scheme: Levenshtein similarity
	// weighted by recognizer confidence, accepted above [AcceptThreshold].
	ModeEditDistance Mode = "edit-distance"

	// ModeContainment is the legacy scheme used by one generation of game
	// scenes: accept when either string contains the other, ignoring
	// confidence entirely. Kept only for backwards compatibility.
	ModeContainment Mode = "containment"
)

// IsValid reports whether m is a recognised scoring mode.
func (m Mode) IsValid() bool {
	return m == ModeEditDistance || m == ModeContainment
}

// Outcome is the result of scoring a single pronunciation attempt.
type Outcome struct {
	// Similarity is the normalised string similarity in [0, 1]:
	// 1 - editDistance/maxLen, or 1.0 when both strings are empty.
	Similarity float64

	// Combined is Similarity weighted by recognizer confidence, in [0, 1].
	Combined float64

	// Accepted reports whether the attempt counts as a correct pronunciation.
	Accepted bool
}

// Option is a functional option for configuring a [Scorer].
type Option func(*Scorer)

// WithMode selects the scoring scheme. Default: [ModeEditDistance].
func WithMode(m Mode) Option {
	return func(s *Scorer) {
		if m.IsValid() {
			s.mode = m
		}
	}
}

// WithThreshold overrides the acceptance threshold. Default: [AcceptThreshold].
// The comparison stays strict (score must exceed the threshold).
func WithThreshold(t float64) Option {
	return func(s *Scorer) {
		if t > 0 && t < 1 {
			s.threshold = t
		}
	}
}

// Scorer scores pronunciation attempts against target words.
type Scorer struct {
	mode      Mode
	threshold float64
}

// New returns a [Scorer] configured with the supplied options.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		mode:      ModeEditDistance,
		threshold: AcceptThreshold,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score evaluates one spoken attempt.
//
// transcript may be empty (a recognizer error surfaces as an empty
// transcript and scores zero similarity against any non-empty target).
// target must be non-empty; [ErrEmptyTarget] is returned otherwise.
// confidence is the recognizer-reported score in (0, 1]; values <= 0 mean
// "not reported" and default to 1.0, values above 1 are clamped to 1.0.
//
// Both strings are lower-cased and whitespace-trimmed before comparison.
func (s *Scorer) Score(transcript, target string, confidence float64) (Outcome, error) {
	if strings.TrimSpace(target) == "" {
		return Outcome{}, ErrEmptyTarget
	}

	spoken := normalize(transcript)
	word := normalize(target)

	if confidence <= 0 {
		confidence = 1.0
	} else if confidence > 1 {
		confidence = 1.0
	}

	sim := Similarity(spoken, word)

	if s.mode == ModeContainment {
		// Legacy scheme: substring containment, no confidence weighting.
		// Similarity is still reported so callers can log it.
		accepted := spoken != "" && (strings.Contains(spoken, word) || strings.Contains(word, spoken))
		return Outcome{Similarity: sim, Combined: sim, Accepted: accepted}, nil
	}

	combined := sim * confidence
	return Outcome{
		Similarity: sim,
		Combined:   combined,
		Accepted:   combined > s.threshold,
	}, nil
}

// Similarity computes normalised Levenshtein similarity between two strings:
// 1 - editDistance/max(len(a), len(b)), with unit insertion, deletion, and
// substitution costs. Two empty strings are identical and score 1.0.
//
// The inputs are compared as-is; callers wanting case-insensitive comparison
// must lower-case beforehand ([Scorer.Score] does).
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}

	dist := matchr.Levenshtein(a, b)

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}

	sim := 1.0 - float64(dist)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}

// normalize lower-cases and trims the string for comparison.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
