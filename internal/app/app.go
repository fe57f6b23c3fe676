// Package app wires all Lexivox subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves the HTTP endpoints until the context is cancelled,
// and Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithWordStore, WithProgressStore, etc.). When an option is not provided,
// New creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/lexivox/lexivox/internal/config"
	"github.com/lexivox/lexivox/internal/confusables"
	"github.com/lexivox/lexivox/internal/gateway"
	"github.com/lexivox/lexivox/internal/health"
	"github.com/lexivox/lexivox/internal/hints"
	"github.com/lexivox/lexivox/internal/match"
	"github.com/lexivox/lexivox/internal/observe"
	"github.com/lexivox/lexivox/internal/practice"
	"github.com/lexivox/lexivox/internal/progress"
	"github.com/lexivox/lexivox/internal/recognize"
	"github.com/lexivox/lexivox/internal/resilience"
	"github.com/lexivox/lexivox/internal/vocab"
	"github.com/lexivox/lexivox/pkg/provider/embeddings"
	"github.com/lexivox/lexivox/pkg/provider/llm"
	"github.com/lexivox/lexivox/pkg/provider/stt"
	"github.com/lexivox/lexivox/pkg/provider/tts"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	STT         stt.Provider
	STTFallback stt.Provider
	TTS         tts.Provider
	LLM         llm.Provider
	Embeddings  embeddings.Provider
}

// App owns all subsystem lifetimes and serves the Lexivox practice game.
type App struct {
	cfg       *config.Config
	version   string
	providers *Providers

	// Subsystems — initialised in New, torn down in Shutdown.
	words       vocab.Store
	progress    progress.Store
	pool        *pgxpool.Pool
	confusables *confusables.Index
	hints       *hints.Generator
	gateway     *gateway.Server
	metrics     *observe.Metrics

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithWordStore injects a word store instead of creating a MemStore and
// loading packs from config.
func WithWordStore(s vocab.Store) Option {
	return func(a *App) { a.words = s }
}

// WithProgressStore injects a progress store instead of creating one from
// config.
func WithProgressStore(s progress.Store) Option {
	return func(a *App) { a.progress = s }
}

// WithMetrics injects a metrics instance instead of using the global default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option
// functions to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously: word-pack loading, progress
// store connection and migration, confusables index seeding, and gateway
// assembly.
func New(ctx context.Context, cfg *config.Config, version string, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		version:   version,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initVocab(ctx); err != nil {
		return nil, fmt.Errorf("app: init vocab: %w", err)
	}
	if err := a.initProgress(ctx); err != nil {
		return nil, fmt.Errorf("app: init progress: %w", err)
	}
	a.initHints()
	if err := a.initGateway(); err != nil {
		return nil, fmt.Errorf("app: init gateway: %w", err)
	}

	return a, nil
}

// initVocab sets up the word store and loads the configured packs.
func (a *App) initVocab(ctx context.Context) error {
	if a.words == nil {
		a.words = vocab.NewMemStore()
	}
	return a.ImportPacks(ctx, a.cfg.Vocab.Packs)
}

// ImportPacks loads the given word-pack files into the word store. Called
// at startup and again on config hot reload when the pack list changes.
func (a *App) ImportPacks(ctx context.Context, paths []string) error {
	for _, path := range paths {
		pf, err := vocab.LoadPackFile(path)
		if err != nil {
			return err
		}
		n, err := vocab.ImportPack(ctx, a.words, pf)
		if err != nil {
			return err
		}
		slog.Info("imported word pack", "path", path, "pack", pf.Pack.Name, "words", n)
	}
	return nil
}

// initProgress connects the PostgreSQL attempt store, or falls back to the
// in-memory store when no DSN is configured. When both a database and an
// embeddings provider are available, it also builds and seeds the
// confusables index.
func (a *App) initProgress(ctx context.Context) error {
	dsn := a.cfg.Progress.PostgresDSN

	if a.progress == nil {
		if dsn == "" {
			slog.Warn("no postgres_dsn configured, attempt history will not survive restarts")
			a.progress = progress.NewMemStore()
		} else {
			pool, err := pgxpool.New(ctx, dsn)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			a.pool = pool
			a.closers = append(a.closers, func() error {
				pool.Close()
				return nil
			})

			store := progress.NewPostgresStore(pool)
			if err := store.Migrate(ctx); err != nil {
				return err
			}
			a.progress = store
		}
	}

	if a.pool != nil && a.providers.Embeddings != nil {
		a.confusables = confusables.New(a.pool, a.providers.Embeddings)
		if err := a.confusables.Migrate(ctx); err != nil {
			return err
		}
		a.seedConfusables(ctx)
	}
	return nil
}

// seedConfusables embeds every stored word into the index. The index is a
// soft dependency: failures are logged, not fatal, and the game runs
// without distractor words.
func (a *App) seedConfusables(ctx context.Context) {
	words, err := a.words.List(ctx, vocab.ListOptions{})
	if err != nil {
		slog.Warn("listing words for confusables index failed", "err", err)
		return
	}
	if err := a.confusables.UpsertAll(ctx, words); err != nil {
		slog.Warn("seeding confusables index failed", "err", err)
		return
	}
	slog.Info("confusables index seeded", "words", len(words))
}

// initHints builds the tip generator. The LLM rides behind a circuit
// breaker so a stalled model API cannot hold up verdicts.
func (a *App) initHints() {
	var provider llm.Provider
	if a.providers.LLM != nil {
		provider = resilience.NewLLMFallback(
			a.providers.LLM,
			a.cfg.Providers.LLM.Name,
			resilience.FallbackConfig{},
		)
	}
	a.hints = hints.New(provider, slog.Default())
}

// initGateway assembles the scoring pipeline and the WebSocket server.
func (a *App) initGateway() error {
	if a.providers.STT == nil {
		return fmt.Errorf("an stt provider is required")
	}

	pc := a.cfg.Practice

	var scorerOpts []match.Option
	if pc.MatchMode != "" {
		scorerOpts = append(scorerOpts, match.WithMode(match.Mode(pc.MatchMode)))
	}
	if pc.AcceptThreshold > 0 {
		scorerOpts = append(scorerOpts, match.WithThreshold(pc.AcceptThreshold))
	}
	judge := practice.NewJudge(match.New(scorerOpts...))

	recognizer := a.providers.STT
	if a.providers.STTFallback != nil {
		fb := resilience.NewSTTFallback(
			a.providers.STT,
			a.cfg.Providers.STT.Name,
			resilience.FallbackConfig{},
		)
		fb.AddFallback(a.cfg.Providers.STTFallback.Name, a.providers.STTFallback)
		recognizer = fb
	}

	var capOpts []recognize.Option
	if pc.ListenWindow > 0 {
		capOpts = append(capOpts, recognize.WithListenWindow(pc.ListenWindow))
	}
	if pc.Language != "" {
		capOpts = append(capOpts, recognize.WithLanguage(pc.Language))
	}
	capturer := recognize.NewCapturer(recognizer, capOpts...)

	gwOpts := []gateway.Option{
		gateway.WithProgress(a.progress),
		gateway.WithHints(a.hints),
		gateway.WithMetrics(a.metrics),
	}
	if pc.MaxAttempts > 0 {
		gwOpts = append(gwOpts, gateway.WithMaxAttempts(pc.MaxAttempts))
	}
	if pc.MatchMode != "" {
		gwOpts = append(gwOpts, gateway.WithMatchMode(string(pc.MatchMode)))
	}
	if a.providers.TTS != nil {
		speech := resilience.NewTTSFallback(
			a.providers.TTS,
			a.cfg.Providers.TTS.Name,
			resilience.FallbackConfig{},
		)
		gwOpts = append(gwOpts, gateway.WithTTS(speech, a.referenceVoice()))
	}
	if a.confusables != nil {
		gwOpts = append(gwOpts, gateway.WithSuggestions(a.confusables))
	}

	a.gateway = gateway.New(a.words, judge, capturer, gwOpts...)
	return nil
}

// referenceVoice builds the TTS voice from the provider config. The voice
// ID lives in the provider's options block since voices are provider-scoped.
func (a *App) referenceVoice() tts.Voice {
	entry := a.cfg.Providers.TTS
	voiceID, _ := entry.Options["voice_id"].(string)
	return tts.Voice{
		ID:       voiceID,
		Provider: entry.Name,
	}
}

// Confusables returns the confusable-word index, or nil when no database or
// embeddings provider is configured.
func (a *App) Confusables() *confusables.Index {
	return a.confusables
}

// Handler builds the full HTTP handler: health endpoints, Prometheus
// metrics, and the practice WebSocket, all behind the tracing middleware.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	var checkers []health.Checker
	if a.pool != nil {
		pool := a.pool
		checkers = append(checkers, health.Checker{
			Name:  "postgres",
			Check: pool.Ping,
		})
	}
	health.New(a.version, checkers...).Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())
	a.gateway.Register(mux)

	return observe.Middleware(a.metrics)(mux)
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
// It returns context.Canceled on a clean signal-driven stop.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			slog.Info("listening with TLS", "addr", srv.Addr)
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			slog.Info("listening", "addr", srv.Addr)
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()

		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			slog.Warn("http shutdown error", "err", err)
		}
		return ctx.Err()
	})

	return g.Wait()
}

// Shutdown tears down all subsystems in init order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
