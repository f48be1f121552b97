package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/translationfiesta/backtranslate/pkg/translate"
)

var runCmd = &cobra.Command{
	Use:   "run [text]",
	Short: "Back-translate text and score the round trip",
	Long: `Run translates the given text to an intermediate language and back, then
scores the round trip with BLEU. Text is read from the argument, or from
stdin when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("provider", "p", "", "Translation provider (default from config)")
	runCmd.Flags().StringP("source", "s", "", "Source language code (default from config)")
	runCmd.Flags().StringP("intermediate", "i", "", "Intermediate language code (default from config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	providerName, _ := cmd.Flags().GetString("provider")
	if providerName == "" {
		providerName = cfg.Translate.Provider
	}
	provider, err := translate.NormalizeProvider(providerName)
	if err != nil {
		return err
	}

	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		source = cfg.Translate.SourceLang
	}
	intermediate, _ := cmd.Flags().GetString("intermediate")
	if intermediate == "" {
		intermediate = cfg.Translate.IntermediateLang
	}

	bt, _, _, store, err := initPipeline(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := bt.Execute(cmd.Context(), translate.Request{
		Text:             text,
		SourceLang:       source,
		IntermediateLang: intermediate,
		Provider:         provider,
	})
	if err != nil {
		return err
	}

	fmt.Printf("=== Back-Translation (%s, %s -> %s -> %s) ===\n",
		result.Provider, result.SourceLang, result.IntermediateLang, result.SourceLang)
	fmt.Printf("Original:     %s\n", result.OriginalText)
	fmt.Printf("Intermediate: %s\n", result.IntermediateText)
	fmt.Printf("Final:        %s\n", result.FinalText)
	fmt.Printf("\nBLEU Score:   %.4f (%s)\n", result.BLEUScore, result.QualityRating)
	fmt.Printf("Cost:         $%.6f\n", result.CostUSD)

	return nil
}
