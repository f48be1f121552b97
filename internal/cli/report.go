package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/translationfiesta/backtranslate/pkg/model"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show this month's translation costs",
	Long:  `Report aggregates the current calendar month's cost ledger by API type.`,
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("api", "a", "", "Filter detailed records by API type")
	reportCmd.Flags().Bool("detailed", false, "Show individual ledger entries")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	apiFilter, _ := cmd.Flags().GetString("api")
	detailed, _ := cmd.Flags().GetBool("detailed")

	_, _, costs, store, err := initPipeline(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := costs.MonthlySummary(cmd.Context())
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	fmt.Printf("=== Translation Cost Report ===\n")
	fmt.Printf("Period: %s to %s\n\n",
		summary.PeriodStart.Format("2006-01-02"),
		summary.PeriodEnd.AddDate(0, 0, -1).Format("2006-01-02"))
	fmt.Printf("Total Cost:       $%.4f\n", summary.TotalCostUSD)
	fmt.Printf("Total Characters: %d\n", summary.TotalCharacters)
	fmt.Printf("Budget Used:      %.1f%%\n", summary.BudgetUsedPct)
	fmt.Printf("Budget Remaining: $%.2f\n", summary.BudgetRemainingUSD)

	if len(summary.ByAPI) > 0 {
		fmt.Printf("\nBy API:\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  API\tCALLS\tCHARACTERS\tCOST\n")
		for _, u := range summary.ByAPI {
			fmt.Fprintf(w, "  %s\t%d\t%d\t$%.4f\n",
				u.APIType, u.EntryCount, u.TotalCharacters, u.TotalCostUSD)
		}
		w.Flush()
	}

	if detailed {
		start, end := model.MonthBounds(summary.PeriodStart)
		entries, err := costs.Query(cmd.Context(), model.LedgerFilter{
			APIType:   apiFilter,
			StartTime: start,
			EndTime:   end,
		})
		if err != nil {
			return fmt.Errorf("query ledger: %w", err)
		}

		if len(entries) > 0 {
			fmt.Printf("\nDetailed Entries:\n")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "  TIMESTAMP\tAPI\tOPERATION\tCHARS\tCOST\n")
			for _, e := range entries {
				fmt.Fprintf(w, "  %s\t%s\t%s\t%d\t$%.6f\n",
					e.Timestamp.Format("2006-01-02 15:04"),
					e.APIType, e.OperationType,
					e.CharacterCount, e.CostUSD,
				)
			}
			w.Flush()
		}
	}

	return nil
}
