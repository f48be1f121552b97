package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/translationfiesta/backtranslate/pkg/model"

	_ "modernc.org/sqlite"
)

// Default budget configuration used until the caller sets one.
const (
	DefaultMonthlyLimitUSD   = 50.0
	DefaultAlertThresholdPct = 80.0
)

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) RecordCost(ctx context.Context, entry *model.CostEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cost_entries (id, api_type, character_count, cost_usd, operation_type, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.APIType, entry.CharacterCount, entry.CostUSD,
		entry.OperationType, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert cost entry: %w", err)
	}
	return nil
}

func (s *SQLite) QueryCosts(ctx context.Context, filter model.LedgerFilter) ([]model.CostEntry, error) {
	query := "SELECT id, api_type, character_count, cost_usd, operation_type, timestamp FROM cost_entries"
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY timestamp DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cost entries: %w", err)
	}
	defer rows.Close()

	var entries []model.CostEntry
	for rows.Next() {
		var e model.CostEntry
		if err := rows.Scan(&e.ID, &e.APIType, &e.CharacterCount, &e.CostUSD,
			&e.OperationType, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan cost row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLite) AggregateCosts(ctx context.Context, filter model.LedgerFilter) (*model.MonthlySummary, error) {
	query := `SELECT
		COALESCE(SUM(cost_usd), 0),
		COALESCE(SUM(character_count), 0)
	FROM cost_entries`
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}

	summary := &model.MonthlySummary{
		PeriodStart: filter.StartTime,
		PeriodEnd:   filter.EndTime,
	}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&summary.TotalCostUSD,
		&summary.TotalCharacters,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate costs: %w", err)
	}

	summary.ByAPI, err = s.aggregateByAPI(ctx, where, args)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

func (s *SQLite) aggregateByAPI(ctx context.Context, where string, args []any) ([]model.APIUsage, error) {
	query := `SELECT api_type, COALESCE(SUM(cost_usd), 0), COALESCE(SUM(character_count), 0), COUNT(*)
	FROM cost_entries`
	if where != "" {
		query += " WHERE " + where
	}
	query += " GROUP BY api_type ORDER BY api_type"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate by api: %w", err)
	}
	defer rows.Close()

	var usage []model.APIUsage
	for rows.Next() {
		var u model.APIUsage
		if err := rows.Scan(&u.APIType, &u.TotalCostUSD, &u.TotalCharacters, &u.EntryCount); err != nil {
			return nil, fmt.Errorf("scan api aggregate: %w", err)
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

func (s *SQLite) SetBudget(ctx context.Context, budget *model.BudgetConfig) error {
	budget.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budget_config (id, monthly_limit_usd, alert_threshold_pct, updated_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   monthly_limit_usd = excluded.monthly_limit_usd,
		   alert_threshold_pct = excluded.alert_threshold_pct,
		   updated_at = excluded.updated_at`,
		budget.MonthlyLimitUSD, budget.AlertThresholdPct, budget.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

func (s *SQLite) GetBudget(ctx context.Context) (*model.BudgetConfig, error) {
	var b model.BudgetConfig
	err := s.db.QueryRowContext(ctx,
		`SELECT monthly_limit_usd, alert_threshold_pct, updated_at FROM budget_config WHERE id = 1`,
	).Scan(&b.MonthlyLimitUSD, &b.AlertThresholdPct, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return &model.BudgetConfig{
			MonthlyLimitUSD:   DefaultMonthlyLimitUSD,
			AlertThresholdPct: DefaultAlertThresholdPct,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return &b, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// buildWhereClause constructs a SQL WHERE clause from a LedgerFilter.
func buildWhereClause(filter model.LedgerFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.APIType != "" {
		conditions = append(conditions, "api_type = ?")
		args = append(args, filter.APIType)
	}
	if !filter.StartTime.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, filter.EndTime)
	}

	return strings.Join(conditions, " AND "), args
}
