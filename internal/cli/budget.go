package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage the monthly spending budget",
}

var budgetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the monthly limit and alert threshold",
	RunE:  runBudgetSet,
}

var budgetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current budget status",
	RunE:  runBudgetStatus,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetSetCmd)
	budgetCmd.AddCommand(budgetStatusCmd)

	budgetSetCmd.Flags().Float64P("limit", "l", 0, "Monthly spending limit in USD")
	budgetSetCmd.Flags().Float64("alert-at", 80, "Alert threshold percentage")
	_ = budgetSetCmd.MarkFlagRequired("limit")
}

func runBudgetSet(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetFloat64("limit")
	alertAt, _ := cmd.Flags().GetFloat64("alert-at")

	_, _, costs, store, err := initPipeline(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := costs.SetBudget(cmd.Context(), limit, alertAt); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	fmt.Printf("Budget set:\n")
	fmt.Printf("  Monthly limit: $%.2f\n", limit)
	fmt.Printf("  Alert at:      %.0f%%\n", alertAt)

	return nil
}

func runBudgetStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, _, costs, store, err := initPipeline(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	budget, err := costs.Budget(cmd.Context())
	if err != nil {
		return fmt.Errorf("get budget: %w", err)
	}

	summary, err := costs.MonthlySummary(cmd.Context())
	if err != nil {
		return fmt.Errorf("get summary: %w", err)
	}

	exceeded, err := costs.IsBudgetExceeded(cmd.Context())
	if err != nil {
		return fmt.Errorf("check budget: %w", err)
	}

	fmt.Printf("=== Budget Status ===\n")
	fmt.Printf("Monthly limit:  $%.2f\n", budget.MonthlyLimitUSD)
	fmt.Printf("Spent:          $%.4f (%.1f%%)\n", summary.TotalCostUSD, summary.BudgetUsedPct)
	fmt.Printf("Remaining:      $%.2f\n", summary.BudgetRemainingUSD)
	fmt.Printf("Alert at:       %.0f%%\n", budget.AlertThresholdPct)
	if exceeded {
		fmt.Printf("\nBudget EXCEEDED for this month.\n")
	}

	return nil
}
