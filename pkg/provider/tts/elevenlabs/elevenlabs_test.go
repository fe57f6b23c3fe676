package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lexivox/lexivox/pkg/provider/tts"
)

func TestNew_EmptyAPIKey(t *testing.T) {
	t.Parallel()
	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") should return an error")
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()

	wantPCM := []byte{0x01, 0x02, 0x03, 0x04}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Errorf("path = %q; want /v1/text-to-speech/voice-1", r.URL.Path)
		}
		if got := r.URL.Query().Get("output_format"); got != "pcm_16000" {
			t.Errorf("output_format = %q; want pcm_16000", got)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("xi-api-key = %q; want test-key", got)
		}

		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != "Squirrel" {
			t.Errorf("text = %q; want Squirrel", req.Text)
		}
		if req.ModelID != defaultModel {
			t.Errorf("model_id = %q; want %q", req.ModelID, defaultModel)
		}

		w.Write(wantPCM)
	}))
	defer srv.Close()

	p, err := New("test-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pcm, err := p.Synthesize(context.Background(), "Squirrel", tts.Voice{ID: "voice-1"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(pcm) != string(wantPCM) {
		t.Errorf("pcm = %v; want %v", pcm, wantPCM)
	}
}

func TestSynthesize_InvalidInput(t *testing.T) {
	t.Parallel()

	p, err := New("test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := p.Synthesize(context.Background(), "word", tts.Voice{}); err == nil {
		t.Error("empty voice ID should fail")
	}
	if _, err := p.Synthesize(context.Background(), "", tts.Voice{ID: "v"}); err == nil {
		t.Error("empty text should fail")
	}
}

func TestSynthesize_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := New("bad-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := p.Synthesize(context.Background(), "word", tts.Voice{ID: "v"}); err == nil {
		t.Fatal("non-200 status should fail")
	}
}

func TestListVoices(t *testing.T) {
	t.Parallel()

	const payload = `{
		"voices": [
			{"voice_id": "v1", "name": "Clara", "category": "premade", "labels": {"accent": "british"}},
			{"voice_id": "v2", "name": "Sam"}
		]
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			t.Errorf("path = %q; want /v1/voices", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	p, err := New("test-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	voices, err := p.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("voices = %d; want 2", len(voices))
	}
	if voices[0].ID != "v1" || voices[0].Name != "Clara" {
		t.Errorf("voices[0] = %+v; want Clara/v1", voices[0])
	}
	if voices[0].Metadata["accent"] != "british" || voices[0].Metadata["category"] != "premade" {
		t.Errorf("voices[0].Metadata = %v; want accent and category labels", voices[0].Metadata)
	}
	if voices[0].Provider != "elevenlabs" {
		t.Errorf("voices[0].Provider = %q; want elevenlabs", voices[0].Provider)
	}
}

func TestParseVoicesResponse_Invalid(t *testing.T) {
	t.Parallel()
	if _, err := parseVoicesResponse([]byte("not json")); err == nil {
		t.Fatal("invalid JSON should fail")
	}
}
