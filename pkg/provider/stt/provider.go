// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a transcription service (Deepgram streaming, or a
// local whisper.cpp model) and exposes a uniform streaming interface. The
// central abstraction is SessionHandle: once opened, a session accepts raw
// PCM audio frames and emits two streams of Transcript values — low-latency
// partials for live "we heard..." feedback in the game UI and authoritative
// finals that pronunciation attempts are judged on.
//
// Practice sessions are short (a learner speaks one word), so recognition
// hints are fixed at stream start: the gateway boosts the current target
// word via StreamConfig.Hints to raise the odds that an uncommon vocabulary
// word is recognised at all.
//
// Implementations must be safe for concurrent use. Multiple sessions may be
// open simultaneously (one per connected learner).
package stt

import (
	"context"
	"time"
)

// Transcript represents a speech-to-text result from an STT provider.
// Both partial (interim) and final transcripts use this type.
type Transcript struct {
	// Text is the transcribed speech content.
	Text string

	// IsFinal indicates whether this is a final (authoritative) or partial
	// (interim) transcript.
	IsFinal bool

	// Confidence is the overall confidence score (0.0–1.0). Zero means the
	// provider does not report confidence (whisper.cpp does not); the judge
	// treats an unreported confidence as 1.0.
	Confidence float64

	// Words contains per-word detail when available (Deepgram).
	// Nil for providers without word-level output.
	Words []WordDetail

	// Timestamp marks when the utterance started, relative to session start.
	Timestamp time.Duration

	// Duration is the length of the utterance.
	Duration time.Duration
}

// WordDetail holds per-word metadata from STT providers that support it.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// Hint is a vocabulary word to boost in recognition, used to improve the
// odds that the current target word (and its close confusables) are
// recognised rather than replaced by a more common homophone.
type Hint struct {
	// Word is the text to boost (e.g., "Spark").
	Word string

	// Boost is the intensity of the boost (provider-specific scale).
	Boost float64
}

// StreamConfig describes the audio format and recognition hints for a new
// STT session. All fields must be compatible with what the underlying
// provider supports.
type StreamConfig struct {
	// SampleRate is the audio sample rate in Hz. The gateway normalises
	// browser audio to 16000 before it reaches the provider.
	SampleRate int

	// Channels is the number of audio channels. 1 = mono (required by most
	// STT providers). Implementations may downmix internally.
	Channels int

	// Language is the BCP-47 language tag for recognition (e.g., "en-US").
	// Empty lets the provider use its configured default.
	Language string

	// Hints lists vocabulary words to boost, typically the target word of
	// the practice attempt. Providers without hint support ignore it.
	Hints []Hint
}

// SessionHandle represents an open STT streaming session. It is an interface
// so that test code can provide mock implementations without a live provider
// connection.
//
// Callers must call Close when the session is no longer needed; failing to
// do so may leak goroutines and network connections inside the provider.
// All methods must be safe for concurrent use.
type SessionHandle interface {
	// SendAudio delivers a chunk of raw 16-bit little-endian PCM audio to
	// the provider. The chunk must match the SampleRate and Channels agreed
	// in StreamConfig. Calling SendAudio after Close returns an error.
	SendAudio(chunk []byte) error

	// Partials returns a read-only channel emitting interim Transcript
	// values. Suitable for live UI feedback only; attempts are never judged
	// on partials. Closed when the session ends.
	Partials() <-chan Transcript

	// Finals returns a read-only channel emitting authoritative Transcript
	// values. The first final of a practice session is the attempt that
	// gets judged. Closed when the session ends.
	Finals() <-chan Transcript

	// Close terminates the session, flushes pending audio, and releases all
	// resources. After Close returns, Partials and Finals are closed.
	// Calling Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any STT backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// StartStream opens a new streaming transcription session with the given
	// audio format and recognition hints. The returned SessionHandle is
	// ready to accept audio immediately.
	//
	// Returns an error if the session cannot be established (authentication
	// failure, unsupported configuration, or ctx already cancelled). The
	// caller owns the SessionHandle and must call Close when done.
	StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error)
}
