package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/translationfiesta/backtranslate/pkg/model"
	"github.com/translationfiesta/backtranslate/pkg/storage"
)

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLite_RecordAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &model.CostEntry{
		APIType:        "google_official",
		CharacterCount: 1000,
		CostUSD:        0.02,
		OperationType:  "forward",
	}
	require.NoError(t, store.RecordCost(ctx, entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	entries, err := store.QueryCosts(ctx, model.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "google_official", entries[0].APIType)
	assert.Equal(t, int64(1000), entries[0].CharacterCount)
	assert.InDelta(t, 0.02, entries[0].CostUSD, 1e-9)
}

func TestSQLite_QueryFilterByAPI(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordCost(ctx, &model.CostEntry{APIType: "google_official", CostUSD: 0.05}))
	require.NoError(t, store.RecordCost(ctx, &model.CostEntry{APIType: "google_unofficial", CostUSD: 0.0}))

	entries, err := store.QueryCosts(ctx, model.LedgerFilter{APIType: "google_official"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "google_official", entries[0].APIType)
}

func TestSQLite_QueryFilterByTime(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := &model.CostEntry{
		APIType:   "google_official",
		CostUSD:   0.10,
		Timestamp: time.Now().UTC().AddDate(0, -2, 0),
	}
	recent := &model.CostEntry{APIType: "google_official", CostUSD: 0.05}
	require.NoError(t, store.RecordCost(ctx, old))
	require.NoError(t, store.RecordCost(ctx, recent))

	start, end := model.MonthBounds(time.Now())
	entries, err := store.QueryCosts(ctx, model.LedgerFilter{StartTime: start, EndTime: end})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.InDelta(t, 0.05, entries[0].CostUSD, 1e-9)
}

func TestSQLite_AggregateCosts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordCost(ctx, &model.CostEntry{
		APIType: "google_official", CharacterCount: 2500, CostUSD: 0.05, OperationType: "forward",
	}))
	require.NoError(t, store.RecordCost(ctx, &model.CostEntry{
		APIType: "google_official", CharacterCount: 1500, CostUSD: 0.03, OperationType: "backward",
	}))
	require.NoError(t, store.RecordCost(ctx, &model.CostEntry{
		APIType: "google_unofficial", CharacterCount: 900, CostUSD: 0.0,
	}))

	summary, err := store.AggregateCosts(ctx, model.LedgerFilter{})
	require.NoError(t, err)
	assert.InDelta(t, 0.08, summary.TotalCostUSD, 1e-9)
	assert.Equal(t, int64(4900), summary.TotalCharacters)

	require.Len(t, summary.ByAPI, 2)
	assert.Equal(t, "google_official", summary.ByAPI[0].APIType)
	assert.InDelta(t, 0.08, summary.ByAPI[0].TotalCostUSD, 1e-9)
	assert.Equal(t, int64(2), summary.ByAPI[0].EntryCount)
	assert.Equal(t, "google_unofficial", summary.ByAPI[1].APIType)
	assert.Equal(t, int64(1), summary.ByAPI[1].EntryCount)
}

func TestSQLite_AggregateEmpty(t *testing.T) {
	store := newTestStore(t)

	summary, err := store.AggregateCosts(context.Background(), model.LedgerFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, summary.TotalCostUSD)
	assert.Equal(t, int64(0), summary.TotalCharacters)
	assert.Empty(t, summary.ByAPI)
}

func TestSQLite_BudgetDefaults(t *testing.T) {
	store := newTestStore(t)

	budget, err := store.GetBudget(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, storage.DefaultMonthlyLimitUSD, budget.MonthlyLimitUSD, 1e-9)
	assert.InDelta(t, storage.DefaultAlertThresholdPct, budget.AlertThresholdPct, 1e-9)
}

func TestSQLite_SetAndGetBudget(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetBudget(ctx, &model.BudgetConfig{
		MonthlyLimitUSD:   10.0,
		AlertThresholdPct: 75.0,
	}))

	budget, err := store.GetBudget(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, budget.MonthlyLimitUSD, 1e-9)
	assert.InDelta(t, 75.0, budget.AlertThresholdPct, 1e-9)

	// Upsert replaces the single config row.
	require.NoError(t, store.SetBudget(ctx, &model.BudgetConfig{
		MonthlyLimitUSD:   0.01,
		AlertThresholdPct: 80.0,
	}))
	budget, err = store.GetBudget(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, budget.MonthlyLimitUSD, 1e-9)
}

func TestSQLite_ReopenPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.RecordCost(ctx, &model.CostEntry{APIType: "local", CostUSD: 0}))
	require.NoError(t, store.Close())

	reopened, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.QueryCosts(ctx, model.LedgerFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
