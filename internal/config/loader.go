package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":        {"deepgram", "whisper"},
	"tts":        {"elevenlabs"},
	"llm":        {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq"},
	"embeddings": {"openai"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("stt", cfg.Providers.STTFallback.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)

	if cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt is required; pronunciation attempts cannot be judged without a recognizer"))
	}
	if cfg.Providers.STTFallback.Name != "" && cfg.Providers.STTFallback.Name == cfg.Providers.STT.Name {
		slog.Warn("providers.stt_fallback names the same provider as providers.stt; failover will not help",
			"name", cfg.Providers.STT.Name)
	}
	if cfg.Providers.LLM.Name == "" {
		slog.Warn("providers.llm is not configured; pronunciation tips fall back to canned hints")
	}

	p := cfg.Practice
	if p.AcceptThreshold != 0 && (p.AcceptThreshold <= 0 || p.AcceptThreshold >= 1) {
		errs = append(errs, fmt.Errorf("practice.accept_threshold %.2f is out of range (0, 1)", p.AcceptThreshold))
	}
	if p.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("practice.max_attempts %d must not be negative", p.MaxAttempts))
	}
	if p.MatchMode != "" && !p.MatchMode.IsValid() {
		errs = append(errs, fmt.Errorf("practice.match_mode %q is invalid; valid values: edit-distance, containment", p.MatchMode))
	}
	if p.ListenWindow < 0 {
		errs = append(errs, fmt.Errorf("practice.listen_window %v must not be negative", p.ListenWindow))
	}

	if len(cfg.Vocab.Packs) == 0 {
		slog.Warn("vocab.packs is empty; the word store starts with no words")
	}

	if cfg.Providers.Embeddings.Name != "" && cfg.Progress.EmbeddingDimensions <= 0 {
		slog.Warn("providers.embeddings is configured but progress.embedding_dimensions is not set; defaulting to 1536")
	}
	if cfg.Progress.PostgresDSN == "" {
		slog.Warn("progress.postgres_dsn is empty; attempt history is kept in memory only")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
