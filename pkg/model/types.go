package model

import "time"

// CostEntry represents a single translation API call with cost data.
// Entries are append-only; once written to the ledger they are never mutated.
type CostEntry struct {
	ID             string    `json:"id" db:"id"`
	APIType        string    `json:"api_type" db:"api_type"`
	CharacterCount int64     `json:"character_count" db:"character_count"`
	CostUSD        float64   `json:"cost_usd" db:"cost_usd"`
	OperationType  string    `json:"operation_type" db:"operation_type"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
}

// BudgetConfig defines the monthly spending limit and alert threshold.
// Current usage is not stored here; it is recomputed from the ledger on read.
type BudgetConfig struct {
	MonthlyLimitUSD   float64   `json:"monthly_limit_usd" db:"monthly_limit_usd"`
	AlertThresholdPct float64   `json:"alert_threshold_pct" db:"alert_threshold_pct"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// APIUsage is the per-API slice of a monthly summary.
type APIUsage struct {
	APIType         string  `json:"api_type"`
	TotalCostUSD    float64 `json:"total_cost_usd"`
	TotalCharacters int64   `json:"total_characters"`
	EntryCount      int64   `json:"entry_count"`
}

// MonthlySummary holds usage aggregated over the current calendar month.
type MonthlySummary struct {
	PeriodStart        time.Time  `json:"period_start"`
	PeriodEnd          time.Time  `json:"period_end"`
	TotalCostUSD       float64    `json:"total_cost_usd"`
	TotalCharacters    int64      `json:"total_characters"`
	BudgetUsedPct      float64    `json:"budget_used_pct"`
	BudgetRemainingUSD float64    `json:"budget_remaining_usd"`
	ByAPI              []APIUsage `json:"by_api,omitempty"`
}

// LedgerFilter controls which cost entries are included in queries.
type LedgerFilter struct {
	APIType   string    `json:"api_type,omitempty"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

// BackTranslationResult is the outcome of one source -> intermediate -> source
// round trip. Constructed once per call and never mutated afterwards.
type BackTranslationResult struct {
	ID               string    `json:"id"`
	OriginalText     string    `json:"original_text"`
	IntermediateText string    `json:"intermediate_text"`
	FinalText        string    `json:"final_text"`
	SourceLang       string    `json:"source_lang"`
	IntermediateLang string    `json:"intermediate_lang"`
	BLEUScore        float64   `json:"bleu_score"`
	QualityRating    string    `json:"quality_rating"`
	CostUSD          float64   `json:"cost_usd"`
	Provider         string    `json:"provider"`
	Timestamp        time.Time `json:"timestamp"`
}

// MonthBounds returns the half-open [start, end) interval of the calendar
// month containing the given instant, in UTC.
func MonthBounds(at time.Time) (start, end time.Time) {
	at = at.UTC()
	start = time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}
