package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/translationfiesta/backtranslate/pkg/translate"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation memory",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the translation memory",
	RunE:  runCacheClear,
}

var cacheFindCmd = &cobra.Command{
	Use:   "find [text]",
	Short: "Find cached translations similar to the given text",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheFind,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheFindCmd)

	cacheFindCmd.Flags().StringP("provider", "p", "", "Translation provider (default from config)")
	cacheFindCmd.Flags().StringP("source", "s", "", "Source language code (default from config)")
	cacheFindCmd.Flags().StringP("target", "t", "", "Target language code (default: intermediate from config)")
	cacheFindCmd.Flags().Float64("threshold", 0.5, "Minimum token-set similarity")
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cache := initCache(cfg, newLogger(cfg))
	stats := cache.Stats()

	fmt.Printf("=== Translation Memory ===\n")
	fmt.Printf("Entries:     %d / %d\n", cache.Len(), cache.MaxEntries())
	fmt.Printf("Hits:        %d\n", stats.Hits)
	fmt.Printf("Fuzzy hits:  %d\n", stats.FuzzyHits)
	fmt.Printf("Misses:      %d\n", stats.Misses)
	fmt.Printf("Lookups:     %d\n", stats.TotalLookups)

	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cache := initCache(cfg, newLogger(cfg))
	n := cache.Len()
	cache.Clear()

	fmt.Printf("Cleared %d cached translations.\n", n)
	return nil
}

func runCacheFind(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
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
	target, _ := cmd.Flags().GetString("target")
	if target == "" {
		target = cfg.Translate.IntermediateLang
	}
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	cache := initCache(cfg, newLogger(cfg))
	matches := cache.LookupFuzzy(provider.String(), source, target, args[0], threshold)
	if len(matches) == 0 {
		fmt.Println("No similar cached translations.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SIMILARITY\tSOURCE\tTRANSLATION\n")
	for _, m := range matches {
		fmt.Fprintf(w, "%.2f\t%s\t%s\n", m.Similarity, m.Entry.SourceText, m.Entry.TranslatedText)
	}
	w.Flush()

	return nil
}
