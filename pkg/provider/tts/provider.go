// Package tts defines the Provider interface for text-to-speech backends.
//
// Lexivox uses TTS for reference pronunciations: before an attempt the game
// can play the target word spoken by a clear model voice. Words are short,
// so the interface is a simple one-shot synthesis call returning the full
// audio clip rather than a stream.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Voice identifies a synthesis voice offered by a provider.
type Voice struct {
	// ID is the provider-assigned voice identifier.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider names the backend the voice belongs to (e.g., "elevenlabs").
	Provider string

	// Metadata carries provider-specific labels (accent, age, gender).
	Metadata map[string]string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders text as raw 16-bit little-endian PCM at 16 kHz
	// mono, the format the rest of the audio pipeline speaks. voice must
	// have a non-empty ID.
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)

	// ListVoices returns the provider's current voice catalogue.
	ListVoices(ctx context.Context) ([]Voice, error)
}
