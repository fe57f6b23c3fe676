package config

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

const validYAML = `
server:
  listen_addr: ":8080"
  log_level: info
providers:
  stt:
    name: deepgram
    api_key: dg-key
    model: nova-2
  stt_fallback:
    name: whisper
    options:
      model_path: /models/ggml-base.en.bin
  tts:
    name: elevenlabs
    api_key: el-key
  llm:
    name: openai
    api_key: oa-key
    model: gpt-4o-mini
  embeddings:
    name: openai
    api_key: oa-key
practice:
  accept_threshold: 0.6
  max_attempts: 3
  match_mode: edit-distance
  listen_window: 6s
  language: en-US
vocab:
  packs:
    - packs/animals.yaml
    - packs/space.yaml
progress:
  postgres_dsn: postgres://lexivox@localhost:5432/lexivox?sslmode=disable
  embedding_dimensions: 1536
`

func TestLoadFromReader_ValidConfig(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr = %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Providers.STT.Name != "deepgram" {
		t.Errorf("stt provider = %q, want %q", cfg.Providers.STT.Name, "deepgram")
	}
	if cfg.Providers.STTFallback.Name != "whisper" {
		t.Errorf("stt fallback = %q, want %q", cfg.Providers.STTFallback.Name, "whisper")
	}
	if cfg.Practice.AcceptThreshold != 0.6 {
		t.Errorf("accept_threshold = %v, want 0.6", cfg.Practice.AcceptThreshold)
	}
	if cfg.Practice.MaxAttempts != 3 {
		t.Errorf("max_attempts = %d, want 3", cfg.Practice.MaxAttempts)
	}
	if cfg.Practice.ListenWindow != 6*time.Second {
		t.Errorf("listen_window = %v, want 6s", cfg.Practice.ListenWindow)
	}
	if len(cfg.Vocab.Packs) != 2 {
		t.Errorf("packs = %d, want 2", len(cfg.Vocab.Packs))
	}
	if cfg.Progress.EmbeddingDimensions != 1536 {
		t.Errorf("embedding_dimensions = %d, want 1536", cfg.Progress.EmbeddingDimensions)
	}
}

func TestLoadFromReader_RejectsUnknownKeys(t *testing.T) {
	yaml := `
server:
  listen_addr: ":8080"
  max_players: 10
providers:
  stt:
    name: deepgram
`
	_, err := LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
}

func TestLoadFromReader_InvalidYAML(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("server: [unclosed"))
	if err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "verbose" },
			wantSub: "server.log_level",
		},
		{
			name:    "missing stt provider",
			mutate:  func(c *Config) { c.Providers.STT.Name = "" },
			wantSub: "providers.stt is required",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Practice.AcceptThreshold = 1.5 },
			wantSub: "practice.accept_threshold",
		},
		{
			name:    "negative max attempts",
			mutate:  func(c *Config) { c.Practice.MaxAttempts = -1 },
			wantSub: "practice.max_attempts",
		},
		{
			name:    "invalid match mode",
			mutate:  func(c *Config) { c.Practice.MatchMode = "phonetic" },
			wantSub: "practice.match_mode",
		},
		{
			name:    "negative listen window",
			mutate:  func(c *Config) { c.Practice.ListenWindow = -time.Second },
			wantSub: "practice.listen_window",
		},
		{
			name:    "incomplete tls",
			mutate:  func(c *Config) { c.Server.TLS = &TLSConfig{CertFile: "cert.pem"} },
			wantSub: "server.tls",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadFromReader(strings.NewReader(validYAML))
			if err != nil {
				t.Fatalf("base config: %v", err)
			}
			tc.mutate(cfg)
			err = Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := &Config{}
	cfg.Server.LogLevel = "loud"
	cfg.Practice.MaxAttempts = -2
	// STT is also missing.

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors, got nil")
	}
	for _, sub := range []string{"server.log_level", "providers.stt", "practice.max_attempts"} {
		if !strings.Contains(err.Error(), sub) {
			t.Errorf("joined error missing %q: %v", sub, err)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestMatchMode_IsValid(t *testing.T) {
	tests := []struct {
		mode MatchMode
		want bool
	}{
		{MatchEditDistance, true},
		{MatchContainment, true},
		{"", false},
		{"phonetic", false},
	}
	for _, tc := range tests {
		if got := tc.mode.IsValid(); got != tc.want {
			t.Errorf("MatchMode(%q).IsValid() = %v, want %v", tc.mode, got, tc.want)
		}
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	for _, l := range []LogLevel{LogDebug, LogInfo, LogWarn, LogError} {
		if !l.IsValid() {
			t.Errorf("LogLevel(%q).IsValid() = false, want true", l)
		}
	}
	if LogLevel("trace").IsValid() {
		t.Error(`LogLevel("trace").IsValid() = true, want false`)
	}
}
