// Package hints turns rejected pronunciation attempts into short coaching
// tips. An LLM writes the tip when one is configured; otherwise (or when
// the model call fails) a static template keeps the game responsive rather
// than blocking a child's turn on a flaky API.
package hints

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lexivox/lexivox/internal/vocab"
	"github.com/lexivox/lexivox/pkg/provider/llm"
)

const (
	defaultTimeout   = 4 * time.Second
	defaultMaxTokens = 120

	systemPrompt = "You are a friendly pronunciation coach for children " +
		"learning vocabulary. Reply with ONE short tip (max two sentences) " +
		"on how to say the target word, based on what the learner actually " +
		"said. Simple words, no phonetics jargon, no IPA unless the learner " +
		"profile asks for it."
)

// Request describes one rejected attempt that needs a tip.
type Request struct {
	// Word is the target word. Word.Text must be non-empty.
	Word vocab.Word

	// Transcript is what the recognizer heard. May be empty when the
	// attempt was a recognition failure.
	Transcript string

	// Similarity is the edit-distance similarity of the attempt, informing
	// how close the learner already is.
	Similarity float64
}

// Option is a functional option for configuring a [Generator].
type Option func(*Generator)

// WithTimeout bounds the model call. On expiry the static tip is returned.
// Default: 4 s.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// Generator produces pronunciation tips. Safe for concurrent use.
type Generator struct {
	provider llm.Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// New returns a [Generator]. provider may be nil, in which case every tip
// comes from the static template.
func New(provider llm.Provider, logger *slog.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		provider: provider,
		timeout:  defaultTimeout,
		logger:   logger,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Tip returns a coaching tip for req. It never returns an error for model
// failures — the static fallback covers those — only for invalid input.
func (g *Generator) Tip(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Word.Text) == "" {
		return "", fmt.Errorf("hints: request has no target word")
	}

	if g.provider == nil {
		return staticTip(req), nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: buildPrompt(req)},
		},
		Temperature: 0.7,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		g.logger.Warn("hint generation failed, using static tip",
			"word", req.Word.Text, "model", g.provider.ModelID(), "error", err)
		return staticTip(req), nil
	}

	tip := strings.TrimSpace(resp.Content)
	if tip == "" {
		return staticTip(req), nil
	}
	return tip, nil
}

// buildPrompt renders the user message for the model.
func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target word: %q", req.Word.Text)
	if req.Word.Phonetic != "" {
		fmt.Fprintf(&b, " (pronounced %s)", req.Word.Phonetic)
	}
	if req.Transcript != "" {
		fmt.Fprintf(&b, "\nThe learner said: %q", req.Transcript)
	} else {
		b.WriteString("\nThe recognizer heard nothing usable.")
	}
	fmt.Fprintf(&b, "\nSimilarity to the target: %.0f%%", req.Similarity*100)
	return b.String()
}

// staticTip is the no-model fallback.
func staticTip(req Request) string {
	if req.Transcript == "" {
		return fmt.Sprintf("Take a breath and say %q slowly, one sound at a time.", req.Word.Text)
	}
	if req.Similarity >= 0.5 {
		return fmt.Sprintf("Almost! You said %q — listen once more and try %q again.", req.Transcript, req.Word.Text)
	}
	return fmt.Sprintf("Let's try %q again. Listen to the example first, then repeat it slowly.", req.Word.Text)
}
