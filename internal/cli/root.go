package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/translationfiesta/backtranslate/internal/config"
	"github.com/translationfiesta/backtranslate/pkg/alerts"
	"github.com/translationfiesta/backtranslate/pkg/memory"
	"github.com/translationfiesta/backtranslate/pkg/pricing"
	"github.com/translationfiesta/backtranslate/pkg/retry"
	"github.com/translationfiesta/backtranslate/pkg/storage"
	"github.com/translationfiesta/backtranslate/pkg/tracker"
	"github.com/translationfiesta/backtranslate/pkg/translate"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "backtranslate",
	Short: "Back-translation quality checking with cost tracking",
	Long: `backtranslate round-trips text through an intermediate language and scores
the result with BLEU, so you can judge how much meaning a translation
provider preserves. Completed translations are cached in a local memory,
and per-character costs for metered providers are recorded against a
monthly budget.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.backtranslate/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initPricing loads the pricing table, falling back to built-in rates when
// no file is configured.
func initPricing(cfg *config.Config) (*pricing.Table, error) {
	if cfg.Pricing.File == "" {
		return pricing.Default(), nil
	}
	return pricing.Load(cfg.Pricing.File)
}

// initStorage creates the cost ledger backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initCache creates the translation memory with file persistence.
func initCache(cfg *config.Config, logger *slog.Logger) *memory.Cache {
	var snap memory.Snapshotter
	if cfg.Cache.Path != "" {
		snap = memory.NewFileSnapshotter(cfg.Cache.Path)
	}
	return memory.NewCache(cfg.Cache.MaxEntries, snap, logger)
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// initTranslators registers one client per provider. The official client is
// registered even without a key; its first call fails with a config error.
func initTranslators(cfg *config.Config, logger *slog.Logger) map[translate.Provider]translate.Translator {
	return map[translate.Provider]translate.Translator{
		translate.ProviderUnofficialGoogle: translate.NewUnofficialGoogle(logger),
		translate.ProviderOfficialGoogle:   translate.NewOfficialGoogle(cfg.Translate.GoogleAPIKey, logger),
		translate.ProviderLocal:            translate.NewLocal(cfg.Translate.LocalEndpoint, logger),
	}
}

// initRetry builds the retry policy from config, keeping defaults for
// unparseable durations.
func initRetry(cfg *config.Config) retry.Config {
	rc := retry.DefaultConfig()
	if cfg.Retry.MaxAttempts > 0 {
		rc.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if d, err := time.ParseDuration(cfg.Retry.BaseDelay); err == nil && d > 0 {
		rc.BaseDelay = d
	}
	if d, err := time.ParseDuration(cfg.Retry.MaxDelay); err == nil && d > 0 {
		rc.MaxDelay = d
	}
	return rc
}

// initPipeline creates a fully wired back-translation pipeline. The caller
// owns the returned storage and must close it.
func initPipeline(cfg *config.Config) (*translate.BackTranslator, *memory.Cache, *tracker.CostTracker, storage.Storage, error) {
	logger := newLogger(cfg)

	table, err := initPricing(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	notifiers := initNotifiers(cfg)
	costs := tracker.NewCostTracker(store, table, notifiers, logger)
	cache := initCache(cfg, logger)
	translators := initTranslators(cfg, logger)

	bt := translate.NewBackTranslator(translators, cache, costs, initRetry(cfg), logger)
	return bt, cache, costs, store, nil
}
