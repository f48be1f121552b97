package server_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/translationfiesta/backtranslate/internal/server"
	"github.com/translationfiesta/backtranslate/pkg/memory"
	"github.com/translationfiesta/backtranslate/pkg/model"
	"github.com/translationfiesta/backtranslate/pkg/pricing"
	"github.com/translationfiesta/backtranslate/pkg/retry"
	"github.com/translationfiesta/backtranslate/pkg/storage"
	"github.com/translationfiesta/backtranslate/pkg/tracker"
	"github.com/translationfiesta/backtranslate/pkg/translate"
)

type echoTranslator struct{}

func (echoTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	if from == "en" {
		return "こんにちは世界", nil
	}
	return "Hello world", nil
}

func setupServer(t *testing.T) *server.Server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	costs := tracker.NewCostTracker(store, pricing.Default(), nil, logger)
	cache := memory.NewCache(memory.DefaultMaxEntries, nil, logger)

	bt := translate.NewBackTranslator(map[translate.Provider]translate.Translator{
		translate.ProviderUnofficialGoogle: echoTranslator{},
	}, cache, costs, retry.Config{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}, logger)

	return server.NewServer(bt, cache, costs, logger)
}

func TestServer_Health(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
}

func TestServer_BackTranslate(t *testing.T) {
	srv := setupServer(t)

	body := `{"text":"Hello world"}`
	req := httptest.NewRequest("POST", "/api/v1/backtranslate", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result model.BackTranslationResult
	err := json.NewDecoder(w.Body).Decode(&result)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", result.FinalText)
	assert.Equal(t, "こんにちは世界", result.IntermediateText)
	assert.Equal(t, "google_unofficial", result.Provider)
	assert.InDelta(t, 1.0, result.BLEUScore, 0.0001)
}

func TestServer_BackTranslateValidation(t *testing.T) {
	srv := setupServer(t)

	body := `{"text":"   "}`
	req := httptest.NewRequest("POST", "/api/v1/backtranslate", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_BackTranslateUnknownProvider(t *testing.T) {
	srv := setupServer(t)

	body := `{"text":"hi","provider":"deepl"}`
	req := httptest.NewRequest("POST", "/api/v1/backtranslate", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_BackTranslateBadJSON(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("POST", "/api/v1/backtranslate", strings.NewReader("{"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Summary(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest("GET", "/api/v1/summary", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary model.MonthlySummary
	err := json.NewDecoder(w.Body).Decode(&summary)
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.TotalCostUSD)
}

func TestServer_CacheStats(t *testing.T) {
	srv := setupServer(t)

	// Run one translation so the cache has traffic.
	body := `{"text":"Hello world"}`
	req := httptest.NewRequest("POST", "/api/v1/backtranslate", strings.NewReader(body))
	srv.Handler().ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("GET", "/api/v1/cache/stats", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]any
	err := json.NewDecoder(w.Body).Decode(&stats)
	require.NoError(t, err)
	assert.Equal(t, float64(2), stats["size"])
	assert.Equal(t, float64(2), stats["misses"])
}
