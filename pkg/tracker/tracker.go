// Package tracker records per-call translation costs against a monthly
// budget. The ledger is append-only; budget usage is recomputed from the
// current calendar month's entries on every read, so the period rolls over
// without any background timer.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/translationfiesta/backtranslate/pkg/alerts"
	"github.com/translationfiesta/backtranslate/pkg/model"
	"github.com/translationfiesta/backtranslate/pkg/pricing"
	"github.com/translationfiesta/backtranslate/pkg/storage"
)

// CostTracker is the entry point for recording and querying translation costs.
type CostTracker struct {
	storage   storage.Storage
	pricing   *pricing.Table
	notifiers []alerts.Notifier
	logger    *slog.Logger
}

// NewCostTracker creates a cost tracker with the given dependencies.
// A nil pricing table falls back to the built-in rates.
func NewCostTracker(store storage.Storage, table *pricing.Table, notifiers []alerts.Notifier, logger *slog.Logger) *CostTracker {
	if table == nil {
		table = pricing.Default()
	}
	return &CostTracker{
		storage:   store,
		pricing:   table,
		notifiers: notifiers,
		logger:    logger,
	}
}

// Track appends a cost entry for one translation call. Free APIs always
// record zero cost. Ledger write failures are logged and swallowed: cost
// tracking must never fail the translation it accounts for.
func (t *CostTracker) Track(ctx context.Context, apiType string, characters int64, operation string) *model.CostEntry {
	entry := &model.CostEntry{
		ID:             uuid.New().String(),
		APIType:        apiType,
		CharacterCount: characters,
		CostUSD:        t.pricing.CostFor(apiType, characters),
		OperationType:  operation,
		Timestamp:      time.Now().UTC(),
	}

	if err := t.storage.RecordCost(ctx, entry); err != nil {
		t.logger.Error("record cost entry", "api_type", apiType, "error", err)
		return entry
	}

	t.logger.Info("cost recorded",
		"api_type", apiType,
		"characters", characters,
		"cost_usd", entry.CostUSD,
		"operation", operation,
	)

	if entry.CostUSD > 0 {
		t.checkThresholds(ctx)
	}

	return entry
}

// MonthlySummary aggregates the current calendar month's ledger entries
// against the configured budget.
func (t *CostTracker) MonthlySummary(ctx context.Context) (*model.MonthlySummary, error) {
	start, end := model.MonthBounds(time.Now())
	summary, err := t.storage.AggregateCosts(ctx, model.LedgerFilter{StartTime: start, EndTime: end})
	if err != nil {
		return nil, fmt.Errorf("aggregate month: %w", err)
	}

	budget, err := t.storage.GetBudget(ctx)
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}

	if budget.MonthlyLimitUSD > 0 {
		summary.BudgetUsedPct = (summary.TotalCostUSD / budget.MonthlyLimitUSD) * 100
	}
	summary.BudgetRemainingUSD = budget.MonthlyLimitUSD - summary.TotalCostUSD
	if summary.BudgetRemainingUSD < 0 {
		summary.BudgetRemainingUSD = 0
	}

	return summary, nil
}

// IsBudgetExceeded reports whether the current month's spend is over the
// configured limit.
func (t *CostTracker) IsBudgetExceeded(ctx context.Context) (bool, error) {
	start, end := model.MonthBounds(time.Now())
	summary, err := t.storage.AggregateCosts(ctx, model.LedgerFilter{StartTime: start, EndTime: end})
	if err != nil {
		return false, fmt.Errorf("aggregate month: %w", err)
	}

	budget, err := t.storage.GetBudget(ctx)
	if err != nil {
		return false, fmt.Errorf("get budget: %w", err)
	}

	return summary.TotalCostUSD > budget.MonthlyLimitUSD, nil
}

// Query returns individual ledger entries for the given filter.
func (t *CostTracker) Query(ctx context.Context, filter model.LedgerFilter) ([]model.CostEntry, error) {
	return t.storage.QueryCosts(ctx, filter)
}

// SetBudget updates the monthly limit and alert threshold.
func (t *CostTracker) SetBudget(ctx context.Context, limitUSD, thresholdPct float64) error {
	return t.storage.SetBudget(ctx, &model.BudgetConfig{
		MonthlyLimitUSD:   limitUSD,
		AlertThresholdPct: thresholdPct,
	})
}

// Budget returns the active budget configuration.
func (t *CostTracker) Budget(ctx context.Context) (*model.BudgetConfig, error) {
	return t.storage.GetBudget(ctx)
}

// checkThresholds evaluates the month's spend and dispatches alerts when a
// threshold is crossed. Best-effort: failures are logged only.
func (t *CostTracker) checkThresholds(ctx context.Context) {
	budget, err := t.storage.GetBudget(ctx)
	if err != nil {
		t.logger.Error("get budget for threshold check", "error", err)
		return
	}
	if budget.MonthlyLimitUSD <= 0 {
		return
	}

	start, end := model.MonthBounds(time.Now())
	summary, err := t.storage.AggregateCosts(ctx, model.LedgerFilter{StartTime: start, EndTime: end})
	if err != nil {
		t.logger.Error("aggregate month for threshold check", "error", err)
		return
	}

	pct := (summary.TotalCostUSD / budget.MonthlyLimitUSD) * 100

	var level alerts.AlertLevel
	switch {
	case pct >= 100:
		level = alerts.AlertExceeded
	case pct >= 95:
		level = alerts.AlertCritical
	case pct >= budget.AlertThresholdPct:
		level = alerts.AlertWarning
	default:
		return // Under threshold, no alert needed
	}

	alert := alerts.Alert{
		Level:           level,
		MonthlyLimitUSD: budget.MonthlyLimitUSD,
		CurrentUsageUSD: summary.TotalCostUSD,
		ThresholdPct:    budget.AlertThresholdPct,
		Message: fmt.Sprintf("Monthly translation budget at %.1f%% ($%.2f / $%.2f)",
			pct, summary.TotalCostUSD, budget.MonthlyLimitUSD),
	}

	t.logger.Warn("budget threshold crossed",
		"level", level,
		"pct", pct,
		"usage", summary.TotalCostUSD,
		"limit", budget.MonthlyLimitUSD,
	)

	for _, notifier := range t.notifiers {
		if err := notifier.Send(ctx, alert); err != nil {
			t.logger.Error("send alert failed",
				"notifier", notifier.Name(),
				"error", err,
			)
		}
	}
}
