// Package vocab manages the vocabulary words a learner practices: word
// definitions, YAML word packs, and the store the practice flow draws
// target words from.
package vocab

import (
	"errors"
	"fmt"
	"strings"
)

// Word is a single vocabulary entry.
type Word struct {
	// ID uniquely identifies the word within the store. Auto-generated on
	// Add when empty.
	ID string `yaml:"id,omitempty" json:"id"`

	// Text is the word as the learner must pronounce it. Required.
	Text string `yaml:"text" json:"text"`

	// Language is the BCP-47 tag of the word (e.g., "en", "de-DE").
	Language string `yaml:"language,omitempty" json:"language,omitempty"`

	// Phonetic is an optional IPA transcription shown as a hint.
	Phonetic string `yaml:"phonetic,omitempty" json:"phonetic,omitempty"`

	// Definition is an optional learner-facing gloss.
	Definition string `yaml:"definition,omitempty" json:"definition,omitempty"`

	// Example is an optional example sentence.
	Example string `yaml:"example,omitempty" json:"example,omitempty"`

	// Tags group words for filtering (e.g., "animals", "unit-3").
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`

	// Difficulty orders words within a pack. Higher is harder. Zero means
	// unrated.
	Difficulty int `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
}

// Validate checks a [Word] for required fields.
//
// Rules:
//   - Text must be non-empty after trimming.
//   - Difficulty must not be negative.
func Validate(w Word) error {
	var errs []error

	if strings.TrimSpace(w.Text) == "" {
		errs = append(errs, errors.New("text must not be empty"))
	}
	if w.Difficulty < 0 {
		errs = append(errs, fmt.Errorf("difficulty %d must not be negative", w.Difficulty))
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
