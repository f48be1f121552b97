package tracker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/translationfiesta/backtranslate/pkg/alerts"
	"github.com/translationfiesta/backtranslate/pkg/model"
	"github.com/translationfiesta/backtranslate/pkg/pricing"
	"github.com/translationfiesta/backtranslate/pkg/storage"
)

func newTestTracker(t *testing.T, notifiers ...alerts.Notifier) (*CostTracker, storage.Storage) {
	t.Helper()

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCostTracker(store, pricing.Default(), notifiers, logger), store
}

func TestTrackRecordsEntry(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	entry := tr.Track(ctx, "google_official", 1_000_000, "backtranslation")
	require.NotNil(t, entry)
	assert.NotEmpty(t, entry.ID)
	assert.InDelta(t, 20.0, entry.CostUSD, 0.0001)

	entries, err := tr.Query(ctx, model.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "google_official", entries[0].APIType)
	assert.Equal(t, int64(1_000_000), entries[0].CharacterCount)
}

func TestTrackFreeAPIRecordsZeroCost(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	entry := tr.Track(ctx, "google_unofficial", 50_000, "backtranslation")
	assert.Equal(t, 0.0, entry.CostUSD)

	entry = tr.Track(ctx, "local", 50_000, "backtranslation")
	assert.Equal(t, 0.0, entry.CostUSD)
}

func TestMonthlySummaryBudgetArithmetic(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.SetBudget(ctx, 10.00, 80.0))

	// 2_500_000 chars at $20/1M = $0.05, 1_500_000 at $20/1M = $0.03.
	tr.Track(ctx, "google_official", 2_500_000, "backtranslation")
	tr.Track(ctx, "google_official", 1_500_000, "backtranslation")

	summary, err := tr.MonthlySummary(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.08, summary.TotalCostUSD, 0.0001)
	assert.InDelta(t, 0.8, summary.BudgetUsedPct, 0.001)
	assert.InDelta(t, 9.92, summary.BudgetRemainingUSD, 0.0001)

	exceeded, err := tr.IsBudgetExceeded(ctx)
	require.NoError(t, err)
	assert.False(t, exceeded)
}

func TestIsBudgetExceededStrictlyGreater(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.SetBudget(ctx, 0.01, 80.0))
	tr.Track(ctx, "google_official", 4_000_000, "backtranslation") // $0.08

	exceeded, err := tr.IsBudgetExceeded(ctx)
	require.NoError(t, err)
	assert.True(t, exceeded)

	summary, err := tr.MonthlySummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.BudgetRemainingUSD)
}

func TestEqualToLimitIsNotExceeded(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.SetBudget(ctx, 20.00, 80.0))
	tr.Track(ctx, "google_official", 1_000_000, "backtranslation") // exactly $20

	exceeded, err := tr.IsBudgetExceeded(ctx)
	require.NoError(t, err)
	assert.False(t, exceeded)
}

func TestThresholdAlertDispatched(t *testing.T) {
	var received []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		received = append(received, payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := alerts.NewWebhookNotifier(srv.URL, "")

	tr, _ := newTestTracker(t, notifier)
	ctx := context.Background()

	require.NoError(t, tr.SetBudget(ctx, 1.00, 80.0))

	// $0.04: below threshold, no alert.
	tr.Track(ctx, "google_official", 2_000_000, "backtranslation")
	assert.Empty(t, received)

	// Cumulative $0.84: crosses 80% warning threshold.
	tr.Track(ctx, "google_official", 40_000_000, "backtranslation")
	require.Len(t, received, 1)
	alert, ok := received[0]["alert"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "warning", alert["level"])

	// Cumulative $1.04: over 100%, exceeded.
	tr.Track(ctx, "google_official", 10_000_000, "backtranslation")
	require.Len(t, received, 2)
	alert, ok = received[1]["alert"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "exceeded", alert["level"])
}

func TestFreeCallsDoNotTriggerAlerts(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := alerts.NewWebhookNotifier(srv.URL, "")

	tr, _ := newTestTracker(t, notifier)
	ctx := context.Background()

	require.NoError(t, tr.SetBudget(ctx, 0.001, 80.0))
	tr.Track(ctx, "google_unofficial", 100_000_000, "backtranslation")
	assert.Zero(t, calls)
}

func TestBudgetDefaultsWhenUnset(t *testing.T) {
	tr, _ := newTestTracker(t)
	ctx := context.Background()

	budget, err := tr.Budget(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultMonthlyLimitUSD, budget.MonthlyLimitUSD)
	assert.Equal(t, storage.DefaultAlertThresholdPct, budget.AlertThresholdPct)
}
