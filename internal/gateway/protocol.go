package gateway

// The browser client speaks a small JSON protocol over the WebSocket.
// Text frames carry the messages below; binary frames carry Opus-encoded
// microphone audio for the in-flight attempt.

// Client message types.
const (
	// msgStart begins a pronunciation attempt on a word.
	msgStart = "start"

	// msgAbort cancels the in-flight attempt.
	msgAbort = "abort"

	// msgTranscript submits a client-side recognition result (the browser's
	// Web Speech API heard the learner locally, so no audio reaches the
	// server). The text is judged exactly like a server-side final.
	msgTranscript = "transcript"

	// msgFailure reports a client-side recognition failure (the browser's
	// own speech recognition surfaced an error before any audio reached
	// the server). The code travels through the same judging path as
	// server-side failures.
	msgFailure = "failure"

	// msgSay asks for reference audio of the current word.
	msgSay = "say"
)

// Server message types.
const (
	// msgReady confirms an attempt has started and names the target word.
	msgReady = "ready"

	// msgPartial carries an interim transcript for live feedback.
	msgPartial = "partial"

	// msgVerdict carries the judged result of an attempt.
	msgVerdict = "verdict"

	// msgAudio carries synthesized reference audio (16 kHz mono PCM,
	// base64 in JSON).
	msgAudio = "audio"

	// msgError reports a protocol-level problem (unknown word, malformed
	// message). Attempt-level recognition failures arrive as verdicts, not
	// errors.
	msgError = "error"
)

// clientMessage is a text frame from the browser.
type clientMessage struct {
	Type string `json:"type"`

	// LearnerID identifies the learner for progress tracking. Sent with
	// the first start message; later messages may omit it.
	LearnerID string `json:"learner_id,omitempty"`

	// WordID selects the word to practice. Required for start.
	WordID string `json:"word_id,omitempty"`

	// Channels is the Opus channel count of subsequent binary frames.
	// Zero means mono.
	Channels int `json:"channels,omitempty"`

	// FailureCode carries the browser's recognition error for failure
	// messages (e.g. "not-allowed").
	FailureCode string `json:"failure_code,omitempty"`

	// Transcript and Confidence carry a client-side recognition result for
	// transcript messages. Confidence zero means the browser did not report
	// one.
	Transcript string  `json:"transcript,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// wordInfo is the subset of a vocab word the client needs to render.
type wordInfo struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Phonetic string `json:"phonetic,omitempty"`
	Example  string `json:"example,omitempty"`
}

// serverMessage is a text frame to the browser.
type serverMessage struct {
	Type string `json:"type"`

	// Word names the target of the current attempt (ready, verdict).
	Word *wordInfo `json:"word,omitempty"`

	// Transcript is what the recognizer heard (partial, verdict).
	Transcript string `json:"transcript,omitempty"`

	// Similarity and Combined are the attempt scores (verdict).
	Similarity float64 `json:"similarity,omitempty"`
	Combined   float64 `json:"combined,omitempty"`

	// Decision is "accepted", "retry", or "forced-advance" (verdict).
	Decision string `json:"decision,omitempty"`

	// AttemptsRemaining is how many tries are left after this one
	// (verdict, retry only).
	AttemptsRemaining int `json:"attempts_remaining,omitempty"`

	// FailureCode classifies a recognition failure (verdict).
	FailureCode string `json:"failure_code,omitempty"`

	// Hint is a short pronunciation tip (verdict, non-accepted only).
	Hint string `json:"hint,omitempty"`

	// Suggestions lists confusable words to practice next (verdict,
	// forced-advance only).
	Suggestions []wordInfo `json:"suggestions,omitempty"`

	// Audio is base64-encoded 16 kHz mono PCM (audio).
	Audio []byte `json:"audio,omitempty"`

	// Error describes a protocol-level problem (error).
	Error string `json:"error,omitempty"`
}
