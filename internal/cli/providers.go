package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/translationfiesta/backtranslate/pkg/translate"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List translation providers and pricing",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	table, err := initPricing(cfg)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PROVIDER\tMETERED\tPRICE ($/1M chars)\n")
	for _, p := range translate.Providers() {
		price := "free"
		if !table.IsFree(p.String()) {
			price = fmt.Sprintf("$%.2f", table.CostFor(p.String(), 1_000_000))
		}
		fmt.Fprintf(w, "%s\t%t\t%s\n", p, p.Metered(), price)
	}
	w.Flush()

	return nil
}
