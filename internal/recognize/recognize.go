// Package recognize turns a streaming STT provider into the single-utterance
// request/response shape the practice flow consumes: one Capture per
// attempt, one Result (or one classified error) out.
//
// The classified error codes mirror what browser speech recognition surfaces
// to the game client, so a client-side recognition failure and a server-side
// one travel through the same judging path. Only the first final transcript
// of a capture is used; everything after it belongs to the next attempt.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lexivox/lexivox/pkg/provider/stt"
)

// Code classifies a recognition failure.
type Code string

const (
	// CodeNoSpeech means the listen window elapsed without any speech.
	CodeNoSpeech Code = "no-speech"

	// CodeNetwork means the recognizer was unreachable or the connection
	// dropped mid-capture. Network failures are the one class the judge
	// retries without consuming an attempt.
	CodeNetwork Code = "network"

	// CodeAborted means the capture was cancelled by the caller.
	CodeAborted Code = "aborted"

	// CodeAudioCapture means the audio input could not be read.
	CodeAudioCapture Code = "audio-capture"

	// CodeNotAllowed means the user denied microphone permission.
	CodeNotAllowed Code = "not-allowed"

	// CodeServiceNotAllowed means the recognition service refused the request.
	CodeServiceNotAllowed Code = "service-not-allowed"

	// CodeBadGrammar means the recognition grammar was rejected.
	CodeBadGrammar Code = "bad-grammar"

	// CodeLanguageNotSupported means the requested language is unavailable.
	CodeLanguageNotSupported Code = "language-not-supported"
)

// IsValid reports whether c is one of the recognised failure codes.
func (c Code) IsValid() bool {
	switch c {
	case CodeNoSpeech, CodeNetwork, CodeAborted, CodeAudioCapture,
		CodeNotAllowed, CodeServiceNotAllowed, CodeBadGrammar,
		CodeLanguageNotSupported:
		return true
	}
	return false
}

// Error is a classified recognition failure.
type Error struct {
	// Code classifies the failure.
	Code Code

	// Err is the underlying cause. May be nil for client-reported failures
	// that arrive as a bare code.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recognize: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("recognize: %s", e.Code)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the failure [Code] from err. Unclassified errors map to
// [CodeNetwork] — the conservative choice, since the only special-cased
// class must never be silently widened to attempt-consuming codes.
func CodeOf(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeNetwork
}

// Result is a single successful speech-to-text outcome.
type Result struct {
	// Transcript is the recognized text. Never empty on a successful capture.
	Transcript string

	// Confidence is the recognizer-reported score in [0, 1]. Zero means the
	// provider does not report confidence and the judge defaults it to 1.0.
	Confidence float64
}

const (
	defaultListenWindow = 6 * time.Second
	defaultSampleRate   = 16000
	defaultChannels     = 1

	// targetWordBoost is the hint boost applied to the current target word.
	targetWordBoost = 5
)

// Option is a functional option for configuring a [Capturer].
type Option func(*Capturer)

// WithListenWindow sets how long a capture waits for a final transcript
// after the last audio chunk before giving up with [CodeNoSpeech].
// Default: 6 s.
func WithListenWindow(d time.Duration) Option {
	return func(c *Capturer) {
		if d > 0 {
			c.listenWindow = d
		}
	}
}

// WithLanguage sets the BCP-47 language tag for recognition.
func WithLanguage(lang string) Option {
	return func(c *Capturer) { c.language = lang }
}

// Capturer opens single-utterance captures against an STT provider.
// It is safe for concurrent use; each capture owns its own session.
type Capturer struct {
	provider     stt.Provider
	listenWindow time.Duration
	language     string
	sampleRate   int
	channels     int
}

// NewCapturer returns a [Capturer] backed by provider.
func NewCapturer(provider stt.Provider, opts ...Option) *Capturer {
	c := &Capturer{
		provider:     provider,
		listenWindow: defaultListenWindow,
		sampleRate:   defaultSampleRate,
		channels:     defaultChannels,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start opens a capture for one pronunciation attempt of targetWord.
// The target word is passed to the provider as a recognition hint.
//
// A provider that cannot open a stream is a [CodeNetwork] failure.
func (c *Capturer) Start(ctx context.Context, targetWord string) (*Capture, error) {
	cfg := stt.StreamConfig{
		SampleRate: c.sampleRate,
		Channels:   c.channels,
		Language:   c.language,
	}
	if targetWord != "" {
		cfg.Hints = []stt.Hint{{Word: targetWord, Boost: targetWordBoost}}
	}

	sess, err := c.provider.StartStream(ctx, cfg)
	if err != nil {
		return nil, &Error{Code: CodeNetwork, Err: err}
	}

	return &Capture{
		sess:         sess,
		listenWindow: c.listenWindow,
	}, nil
}

// Capture is one in-flight utterance capture. It is not safe for concurrent
// use beyond the documented split: one goroutine may call SendAudio while
// another waits in Result.
type Capture struct {
	sess         stt.SessionHandle
	listenWindow time.Duration
}

// SendAudio forwards a PCM chunk to the recognizer. A send that fails after
// the stream was open is an [CodeAudioCapture] failure.
func (a *Capture) SendAudio(chunk []byte) error {
	if err := a.sess.SendAudio(chunk); err != nil {
		return &Error{Code: CodeAudioCapture, Err: err}
	}
	return nil
}

// Partials exposes interim transcripts for live UI feedback. Attempts are
// never judged on partials.
func (a *Capture) Partials() <-chan stt.Transcript { return a.sess.Partials() }

// Result blocks until the first final transcript arrives and returns it.
//
// Failure classification:
//   - ctx cancelled                      → [CodeAborted]
//   - listen window elapsed              → [CodeNoSpeech]
//   - finals channel closed early, or an
//     empty final transcript             → [CodeNetwork] (stream died) or
//     [CodeNoSpeech] (empty text)
//
// Result closes the capture before returning in every path; the caller does
// not need to call Close after Result.
func (a *Capture) Result(ctx context.Context) (Result, error) {
	defer a.Close()

	timer := time.NewTimer(a.listenWindow)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Result{}, &Error{Code: CodeAborted, Err: ctx.Err()}

		case <-timer.C:
			return Result{}, &Error{Code: CodeNoSpeech}

		case t, ok := <-a.sess.Finals():
			if !ok {
				// The provider tore the stream down before delivering a
				// final — connection loss, not learner silence.
				return Result{}, &Error{Code: CodeNetwork, Err: errors.New("stream closed before final transcript")}
			}
			if t.Text == "" {
				return Result{}, &Error{Code: CodeNoSpeech}
			}
			return Result{Transcript: t.Text, Confidence: t.Confidence}, nil
		}
	}
}

// Close releases the capture's STT session. Safe to call multiple times.
func (a *Capture) Close() error {
	return a.sess.Close()
}
