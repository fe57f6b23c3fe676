package audio

import (
	"fmt"

	"layeh.com/gopus"
)

// Browser microphone capture arrives as 48 kHz Opus packets at 20 ms frame
// size (the WebRTC defaults).
const (
	opusSampleRate  = 48000
	opusFrameSizeMs = 20
	// opusFrameSize is the number of samples per channel per 20 ms frame.
	opusFrameSize = opusSampleRate * opusFrameSizeMs / 1000 // 960
)

// OpusDecoder decodes a single learner's Opus stream into recognizer-format
// PCM. Each connection gets its own decoder; gopus decoders carry state
// between consecutive packets and must not be shared.
type OpusDecoder struct {
	dec      *gopus.Decoder
	channels int
}

// NewOpusDecoder creates a decoder for browser audio. channels must be 1 or 2.
func NewOpusDecoder(channels int) (*OpusDecoder, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("audio: opus decoder supports 1 or 2 channels, got %d", channels)
	}
	dec, err := gopus.NewDecoder(opusSampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("audio: create opus decoder: %w", err)
	}
	return &OpusDecoder{dec: dec, channels: channels}, nil
}

// Decode decodes one Opus packet and returns 16 kHz mono little-endian PCM
// ready for a recognizer session.
func (d *OpusDecoder) Decode(packet []byte) ([]byte, error) {
	pcm, err := d.dec.Decode(packet, opusFrameSize, false)
	if err != nil {
		return nil, fmt.Errorf("audio: opus decode: %w", err)
	}
	return ToRecognizerFormat(Int16sToBytes(pcm), opusSampleRate, d.channels), nil
}
