// Package storage persists the cost ledger and budget configuration.
package storage

import (
	"context"

	"github.com/translationfiesta/backtranslate/pkg/model"
)

// Storage is the persistence interface for cost tracking.
type Storage interface {
	// RecordCost appends a single immutable cost entry to the ledger.
	RecordCost(ctx context.Context, entry *model.CostEntry) error

	// QueryCosts retrieves ledger entries matching the given filter,
	// most recent first.
	QueryCosts(ctx context.Context, filter model.LedgerFilter) ([]model.CostEntry, error)

	// AggregateCosts returns total cost, characters and the per-API
	// breakdown for a time range.
	AggregateCosts(ctx context.Context, filter model.LedgerFilter) (*model.MonthlySummary, error)

	// SetBudget creates or updates the budget configuration.
	SetBudget(ctx context.Context, budget *model.BudgetConfig) error

	// GetBudget retrieves the budget configuration, falling back to
	// defaults when none has been set.
	GetBudget(ctx context.Context) (*model.BudgetConfig, error)

	// Close releases the underlying database handle.
	Close() error
}
