package app_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lexivox/lexivox/internal/app"
	"github.com/lexivox/lexivox/internal/config"
	"github.com/lexivox/lexivox/internal/progress"
	"github.com/lexivox/lexivox/internal/vocab"
	llmmock "github.com/lexivox/lexivox/pkg/provider/llm/mock"
	sttmock "github.com/lexivox/lexivox/pkg/provider/stt/mock"
	ttsmock "github.com/lexivox/lexivox/pkg/provider/tts/mock"
)

// testConfig returns a minimal config for tests: no packs, no database.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr: "127.0.0.1:0",
			LogLevel:   config.LogInfo,
		},
		Providers: config.ProvidersConfig{
			STT: config.ProviderEntry{Name: "deepgram"},
			TTS: config.ProviderEntry{Name: "elevenlabs"},
			LLM: config.ProviderEntry{Name: "openai", Model: "gpt-4o-mini"},
		},
		Practice: config.PracticeConfig{
			MaxAttempts: 3,
		},
	}
}

// testProviders returns mock providers for every configured slot.
func testProviders() *app.Providers {
	return &app.Providers{
		STT: &sttmock.Provider{},
		TTS: &ttsmock.Provider{},
		LLM: &llmmock.Provider{},
	}
}

func newTestApp(t *testing.T, cfg *config.Config, providers *app.Providers) *app.App {
	t.Helper()

	application, err := app.New(
		context.Background(),
		cfg,
		"test",
		providers,
		app.WithWordStore(vocab.NewMemStore()),
		app.WithProgressStore(progress.NewMemStore()),
	)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	return application
}

func TestNew_WithMocks(t *testing.T) {
	t.Parallel()

	application := newTestApp(t, testConfig(), testProviders())
	if application == nil {
		t.Fatal("New() returned nil app")
	}
}

func TestNew_RequiresSTT(t *testing.T) {
	t.Parallel()

	providers := testProviders()
	providers.STT = nil

	_, err := app.New(
		context.Background(),
		testConfig(),
		"test",
		providers,
		app.WithWordStore(vocab.NewMemStore()),
		app.WithProgressStore(progress.NewMemStore()),
	)
	if err == nil {
		t.Fatal("New() succeeded without an STT provider")
	}
}

func TestHandler_Healthz(t *testing.T) {
	t.Parallel()

	application := newTestApp(t, testConfig(), testProviders())

	ts := httptest.NewServer(application.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Version != "test" {
		t.Errorf("version = %q, want test", body.Version)
	}
}

func TestHandler_Readyz(t *testing.T) {
	t.Parallel()

	application := newTestApp(t, testConfig(), testProviders())

	ts := httptest.NewServer(application.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	defer resp.Body.Close()

	// No database configured means no hard dependencies to gate on.
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandler_Metrics(t *testing.T) {
	t.Parallel()

	application := newTestApp(t, testConfig(), testProviders())

	ts := httptest.NewServer(application.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestApp_RunAndShutdown(t *testing.T) {
	t.Parallel()

	application := newTestApp(t, testConfig(), testProviders())

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run(ctx)
	}()

	// Give Run a moment to bind the listener.
	time.Sleep(50 * time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			t.Fatalf("Run() returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return within 5s after context cancellation")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
}

func TestApp_ShutdownAfterRunError(t *testing.T) {
	t.Parallel()

	// Occupy a port so Run fails to bind, then make sure Shutdown still
	// releases the app's resources cleanly.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	cfg := testConfig()
	cfg.Server.ListenAddr = ln.Addr().String()

	application := newTestApp(t, cfg, testProviders())

	if err := application.Run(context.Background()); err == nil {
		t.Fatal("Run() succeeded on an occupied port")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() after failed Run: %v", err)
	}
}
