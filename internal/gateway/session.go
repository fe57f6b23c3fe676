package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/lexivox/lexivox/internal/hints"
	"github.com/lexivox/lexivox/internal/practice"
	"github.com/lexivox/lexivox/internal/progress"
	"github.com/lexivox/lexivox/internal/recognize"
	"github.com/lexivox/lexivox/internal/vocab"
	"github.com/lexivox/lexivox/pkg/audio"
)

// connection is the per-learner state of one WebSocket session.
type connection struct {
	srv *Server
	ws  *websocket.Conn
	log *slog.Logger

	// writeMu serializes outbound frames; the read loop and the capture
	// waiter both send.
	writeMu sync.Mutex

	// judgeMu serializes attempt judging and verdict delivery. The read
	// loop (transcript and failure frames) and the capture waiter both
	// submit against psession, so every Submit-and-deliver runs under it.
	judgeMu   sync.Mutex
	learnerID string
	psession  *practice.Session
	word      vocab.Word

	// capture plumbing for the in-flight attempt. Guarded by captureMu.
	// The capture pointer doubles as the ownership token: whichever path
	// nils it out judges the attempt.
	captureMu     sync.Mutex
	capture       *recognize.Capture
	captureCancel context.CancelFunc
	captureStart  time.Time
	decoder       *audio.OpusDecoder
	sendErr       error
}

func newConnection(s *Server, ws *websocket.Conn) *connection {
	return &connection{
		srv: s,
		ws:  ws,
		log: s.logger,
	}
}

// run processes frames until the client disconnects or ctx is cancelled.
func (c *connection) run(ctx context.Context) {
	defer c.ws.Close(websocket.StatusNormalClosure, "session ended")
	defer c.abortCapture()

	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				c.log.Debug("client disconnected")
			} else {
				c.log.Warn("websocket read failed", "err", err)
			}
			return
		}

		switch typ {
		case websocket.MessageBinary:
			c.handleAudio(data)

		case websocket.MessageText:
			var msg clientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				c.sendError(ctx, "malformed message")
				continue
			}
			c.handleMessage(ctx, msg)
		}
	}
}

// handleMessage dispatches one client text message.
func (c *connection) handleMessage(ctx context.Context, msg clientMessage) {
	if msg.LearnerID != "" {
		c.judgeMu.Lock()
		c.learnerID = msg.LearnerID
		c.judgeMu.Unlock()
	}

	switch msg.Type {
	case msgStart:
		c.handleStart(ctx, msg)
	case msgAbort:
		c.abortCapture()
	case msgTranscript:
		c.handleTranscript(ctx, msg.Transcript, msg.Confidence)
	case msgFailure:
		c.handleFailure(ctx, recognize.Code(msg.FailureCode))
	case msgSay:
		c.handleSay(ctx)
	default:
		c.sendError(ctx, "unknown message type "+msg.Type)
	}
}

// handleStart begins a pronunciation attempt.
func (c *connection) handleStart(ctx context.Context, msg clientMessage) {
	if c.inFlight() {
		c.sendError(ctx, "attempt already in flight")
		return
	}

	word, err := c.srv.words.Get(ctx, msg.WordID)
	if err != nil {
		c.sendError(ctx, "unknown word "+msg.WordID)
		return
	}

	// A new word resets the attempt budget; restarting the same word
	// (a retry) keeps the counter.
	c.judgeMu.Lock()
	if c.psession == nil {
		c.psession = practice.NewSession(word.Text)
		if c.srv.maxAttempts > 0 {
			c.psession.MaxAttempts = c.srv.maxAttempts
		}
	} else if word.ID != c.word.ID {
		c.psession.Advance(word.Text)
	}
	c.word = word
	c.judgeMu.Unlock()

	channels := msg.Channels
	if channels == 0 {
		channels = 1
	}
	decoder, err := audio.NewOpusDecoder(channels)
	if err != nil {
		c.sendError(ctx, "unsupported audio format")
		return
	}

	capCtx, cancel := context.WithCancel(ctx)
	capt, err := c.srv.capturer.Start(capCtx, word.Text)
	if err != nil {
		cancel()
		// A recognizer that cannot open a stream is judged like any other
		// recognition failure (network: free retry).
		c.handleFailure(ctx, recognize.CodeOf(err))
		return
	}

	c.captureMu.Lock()
	c.capture = capt
	c.captureCancel = cancel
	c.captureStart = time.Now()
	c.decoder = decoder
	c.sendErr = nil
	c.captureMu.Unlock()

	c.send(ctx, serverMessage{Type: msgReady, Word: wordPayload(word)})

	go c.forwardPartials(ctx, capt)
	go c.awaitVerdict(ctx, capt)
}

// handleAudio decodes one Opus frame and forwards it to the in-flight
// capture. Frames arriving with no capture open are dropped.
func (c *connection) handleAudio(packet []byte) {
	c.captureMu.Lock()
	capt := c.capture
	decoder := c.decoder
	c.captureMu.Unlock()
	if capt == nil {
		return
	}

	pcm, err := decoder.Decode(packet)
	if err != nil {
		c.log.Warn("opus decode failed", "err", err)
		return
	}
	if err := capt.SendAudio(pcm); err != nil {
		// Remember the classified error so the waiter reports
		// audio-capture instead of a generic abort.
		c.captureMu.Lock()
		c.sendErr = err
		cancel := c.captureCancel
		c.captureMu.Unlock()
		if cancel != nil {
			cancel()
		}
	}
}

// forwardPartials relays interim transcripts for live feedback.
func (c *connection) forwardPartials(ctx context.Context, capt *recognize.Capture) {
	for t := range capt.Partials() {
		if t.Text == "" {
			continue
		}
		c.send(ctx, serverMessage{Type: msgPartial, Transcript: t.Text})
	}
}

// awaitVerdict blocks on the capture result, claims the attempt, judges
// it, and sends the verdict. The claim happens under judgeMu so a client
// frame can never judge the same attempt between the claim and the Submit.
func (c *connection) awaitVerdict(ctx context.Context, capt *recognize.Capture) {
	c.captureMu.Lock()
	start := c.captureStart
	c.captureMu.Unlock()

	res, err := capt.Result(ctx)

	c.srv.metrics.STTDuration.Record(ctx, time.Since(start).Seconds())

	c.judgeMu.Lock()
	defer c.judgeMu.Unlock()

	sendErr, ok := c.claimCapture(capt)
	if !ok {
		// A client transcript or failure frame took over this attempt.
		return
	}

	if err != nil {
		if sendErr != nil {
			err = sendErr
		}
		c.judgeFailure(ctx, recognize.CodeOf(err))
		return
	}

	verdict, jerr := c.srv.judge.Submit(c.psession, res.Transcript, res.Confidence)
	if jerr != nil {
		c.log.Error("judging attempt failed", "err", jerr)
		c.sendError(ctx, "attempt could not be judged")
		return
	}
	c.deliverVerdict(ctx, verdict, res.Confidence)
}

// handleTranscript judges a recognition result the browser produced
// locally. Any in-flight server capture is superseded first: the client has
// already decided which recognizer to trust for this attempt.
func (c *connection) handleTranscript(ctx context.Context, transcript string, confidence float64) {
	c.judgeMu.Lock()
	defer c.judgeMu.Unlock()

	if c.psession == nil {
		c.sendError(ctx, "no attempt in progress")
		return
	}
	c.supersedeCapture()

	verdict, err := c.srv.judge.Submit(c.psession, transcript, confidence)
	if err != nil {
		c.log.Error("judging client transcript failed", "err", err)
		c.sendError(ctx, "attempt could not be judged")
		return
	}
	c.deliverVerdict(ctx, verdict, confidence)
}

// handleFailure judges a recognition failure code, client- or
// server-reported.
func (c *connection) handleFailure(ctx context.Context, code recognize.Code) {
	c.judgeMu.Lock()
	defer c.judgeMu.Unlock()

	if c.psession == nil {
		c.sendError(ctx, "no attempt to fail")
		return
	}
	c.supersedeCapture()
	c.judgeFailure(ctx, code)
}

// claimCapture takes exclusive ownership of the in-flight capture. It fails
// when capt is no longer current, meaning a client frame superseded it or a
// newer start replaced it. Callers hold judgeMu, which keeps the claim and
// the judging that follows atomic with respect to the read loop.
func (c *connection) claimCapture(capt *recognize.Capture) (sendErr error, ok bool) {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	if c.capture != capt {
		return nil, false
	}
	sendErr = c.sendErr
	c.capture = nil
	c.captureCancel = nil
	c.decoder = nil
	c.sendErr = nil
	return sendErr, true
}

// supersedeCapture cancels and disowns any in-flight capture so its waiter
// cannot judge the attempt a second time. Callers hold judgeMu.
func (c *connection) supersedeCapture() {
	c.captureMu.Lock()
	cancel := c.captureCancel
	c.capture = nil
	c.captureCancel = nil
	c.decoder = nil
	c.sendErr = nil
	c.captureMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// judgeFailure runs a failure code through the judge and sends the verdict.
// Callers hold judgeMu.
func (c *connection) judgeFailure(ctx context.Context, code recognize.Code) {
	c.srv.metrics.RecordRecognitionFailure(ctx, string(code))

	verdict, err := c.srv.judge.SubmitFailure(c.psession, code)
	if err != nil {
		c.sendError(ctx, "unknown failure code "+string(code))
		return
	}
	c.deliverVerdict(ctx, verdict, 0)
}

// deliverVerdict records, annotates, and sends a judged verdict. Callers
// hold judgeMu.
func (c *connection) deliverVerdict(ctx context.Context, v practice.Verdict, confidence float64) {
	c.srv.metrics.RecordAttempt(ctx, string(v.Decision), c.srv.matchMode,
		v.Outcome.Similarity, v.Outcome.Combined)

	c.recordAttempt(ctx, v, confidence)

	out := serverMessage{
		Type:              msgVerdict,
		Word:              wordPayload(c.word),
		Transcript:        v.Transcript,
		Similarity:        v.Outcome.Similarity,
		Combined:          v.Outcome.Combined,
		Decision:          string(v.Decision),
		AttemptsRemaining: v.AttemptsRemaining,
		FailureCode:       string(v.FailureCode),
	}
	if v.Decision != practice.DecisionAccepted {
		out.Hint = c.hintFor(ctx, v)
	}
	if v.Decision == practice.DecisionForcedAdvance {
		out.Suggestions = c.suggestionsFor(ctx)
	}
	c.send(ctx, out)
}

// suggestionsFor looks up confusable words worth practicing after the
// current word force-advanced. Missing index or lookup failure degrades to
// no suggestions.
func (c *connection) suggestionsFor(ctx context.Context) []wordInfo {
	if c.srv.suggester == nil {
		return nil
	}
	neighbors, err := c.srv.suggester.Nearest(ctx, c.word, 3)
	if err != nil {
		c.log.Warn("confusable lookup failed", "word", c.word.Text, "err", err)
		return nil
	}
	out := make([]wordInfo, 0, len(neighbors))
	for _, n := range neighbors {
		out = append(out, wordInfo{ID: n.WordID, Text: n.Text})
	}
	return out
}

// hintFor asks the hint generator for a tip. Missing generator or any
// failure inside it degrades to no hint.
func (c *connection) hintFor(ctx context.Context, v practice.Verdict) string {
	if c.srv.hints == nil {
		return ""
	}
	start := time.Now()
	tip, err := c.srv.hints.Tip(ctx, hints.Request{
		Word:       c.word,
		Transcript: v.Transcript,
		Similarity: v.Outcome.Similarity,
	})
	c.srv.metrics.HintDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		c.log.Warn("hint generation failed", "err", err)
		return ""
	}
	return tip
}

// recordAttempt persists the attempt when a progress store and learner ID
// are present.
func (c *connection) recordAttempt(ctx context.Context, v practice.Verdict, confidence float64) {
	if c.srv.progress == nil || c.learnerID == "" {
		return
	}
	rec := progress.AttemptRecord{
		LearnerID:   c.learnerID,
		WordID:      c.word.ID,
		Word:        c.word.Text,
		Transcript:  v.Transcript,
		Similarity:  v.Outcome.Similarity,
		Confidence:  confidence,
		Combined:    v.Outcome.Combined,
		Decision:    v.Decision,
		FailureCode: string(v.FailureCode),
	}
	if err := c.srv.progress.RecordAttempt(ctx, &rec); err != nil {
		c.log.Warn("recording attempt failed", "err", err)
	}
}

// handleSay synthesizes reference audio for the current word.
func (c *connection) handleSay(ctx context.Context) {
	if c.srv.tts == nil {
		c.sendError(ctx, "reference audio is not configured")
		return
	}
	if c.word.Text == "" {
		c.sendError(ctx, "no current word")
		return
	}

	pcm, err := c.srv.tts.Synthesize(ctx, c.word.Text, c.srv.voice)
	if err != nil {
		c.log.Warn("tts synthesis failed", "word", c.word.Text, "err", err)
		c.sendError(ctx, "reference audio unavailable")
		return
	}
	c.send(ctx, serverMessage{Type: msgAudio, Audio: pcm})
}

// inFlight reports whether a capture is currently open.
func (c *connection) inFlight() bool {
	c.captureMu.Lock()
	defer c.captureMu.Unlock()
	return c.capture != nil
}

// abortCapture cancels the in-flight capture, if any.
func (c *connection) abortCapture() {
	c.captureMu.Lock()
	cancel := c.captureCancel
	c.captureMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// send writes one JSON frame, serialized against concurrent senders.
func (c *connection) send(ctx context.Context, msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal server message", "err", err)
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		c.log.Debug("websocket write failed", "err", err)
	}
}

// sendError reports a protocol-level problem.
func (c *connection) sendError(ctx context.Context, reason string) {
	c.send(ctx, serverMessage{Type: msgError, Error: reason})
}

// wordPayload converts a vocab word to its client representation.
func wordPayload(w vocab.Word) *wordInfo {
	return &wordInfo{
		ID:       w.ID,
		Text:     w.Text,
		Phonetic: w.Phonetic,
		Example:  w.Example,
	}
}
