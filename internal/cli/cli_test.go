package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sifan077/ushort/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type copierFunc func(ctx context.Context, text string) bool

func (f copierFunc) Copy(ctx context.Context, text string) bool { return f(ctx, text) }

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/shorten", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OriginalURL string `json:"originalUrl"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if strings.Contains(req.OriginalURL, "overload") {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limited"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"shortUrl":    "http://sho.rt/abc123",
			"originalUrl": req.OriginalURL,
			"shortCode":   "abc123",
			"createdAt":   "2026-06-01T10:00:00",
			"expiresAt":   nil,
		})
	})
	mux.HandleFunc("GET /api/v1/analytics/{code}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("code") != "abc123" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Short URL not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"shortUrl":    "http://sho.rt/abc123",
			"originalUrl": "https://example.com",
			"clickCount":  12,
			"createdAt":   "2026-06-01T10:00:00",
			"expiresAt":   "2020-01-01T00:00:00",
			"isActive":    true,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL, driver string) *config.Config {
	return &config.Config{
		API: config.APIConfig{BaseURL: baseURL + "/api/v1", Timeout: 5 * time.Second},
		History: config.HistoryConfig{
			Driver: driver,
			DSN:    filepath.Join(t.TempDir(), "history.db"),
			Limit:  10,
		},
		Console: config.ConsoleConfig{Addr: "127.0.0.1:0"},
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, Env{
		Stdout:    &stdout,
		Stderr:    &stderr,
		Config:    cfg,
		Clipboard: copierFunc(func(context.Context, string) bool { return true }),
	})
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1", "none")

	code, _, stderr := run(t, cfg)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "Usage: ushort")

	code, _, stderr = run(t, cfg, "frobnicate")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)

	code, stdout, _ := run(t, cfg, "help")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "shorten <url>")
}

func TestRun_ShortenAndHistory(t *testing.T) {
	cfg := testConfig(t, newBackend(t).URL, "sqlite")

	code, stdout, stderr := run(t, cfg, "shorten", "example.com", "--copy")
	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, "http://sho.rt/abc123\n", stdout)
	assert.Contains(t, stderr, "✓ URL shortened successfully!")
	assert.Contains(t, stderr, "✓ Link copied to clipboard!")

	code, stdout, _ = run(t, cfg, "history")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "http://sho.rt/abc123")
	assert.Contains(t, stdout, "https://example.com")

	_, _, stderr = run(t, cfg, "shorten", "https://example.com")
	assert.Contains(t, stderr, "Previously shortened as http://sho.rt/abc123")
}

func TestRun_ShortenValidationError(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1", "none")

	code, stdout, stderr := run(t, cfg, "shorten", "ftp://example.com")
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "Please enter a valid URL (e.g., google.com or https://google.com)\n", stderr)
}

func TestRun_ShortenBackendError(t *testing.T) {
	cfg := testConfig(t, newBackend(t).URL, "none")

	code, stdout, stderr := run(t, cfg, "shorten", "overload.example.com")
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "✗ Too many requests. Please slow down and try again later.")
}

func TestRun_Analytics(t *testing.T) {
	cfg := testConfig(t, newBackend(t).URL, "none")

	code, stdout, stderr := run(t, cfg, "analytics", "http://sho.rt/abc123")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "Clicks        12")
	assert.Contains(t, stdout, "Status        Expired")
	assert.Contains(t, stdout, "Original URL  https://example.com")
	assert.Empty(t, stderr)

	code, _, stderr = run(t, cfg, "analytics", "missing")
	assert.Equal(t, ExitFailure, code)
	assert.Equal(t, "The requested resource was not found.\n", stderr)

	code, _, _ = run(t, cfg, "analytics")
	assert.Equal(t, ExitUsage, code)
}

func TestRun_HistoryDisabled(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1", "none")

	code, _, stderr := run(t, cfg, "history")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "History is disabled")
}

func TestRun_EventsWithoutNATS(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1", "none")

	code, _, stderr := run(t, cfg, "events")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "NATS is not configured")
}

func TestRun_ConsoleStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1", "none")
	ctx, cancel := context.WithCancel(context.Background())

	var stderr bytes.Buffer
	done := make(chan int)
	go func() {
		done <- Run(ctx, []string{"console"}, Env{Stdout: &bytes.Buffer{}, Stderr: &stderr, Config: cfg})
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, ExitOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("console did not stop")
	}
}
