package translate

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/translationfiesta/backtranslate/pkg/bleu"
	"github.com/translationfiesta/backtranslate/pkg/memory"
	"github.com/translationfiesta/backtranslate/pkg/model"
	"github.com/translationfiesta/backtranslate/pkg/retry"
	"github.com/translationfiesta/backtranslate/pkg/tracker"
)

// MaxTextLength is the longest input, in runes, accepted for one round trip.
const MaxTextLength = 5000

const (
	// DefaultSourceLang is used when the request omits the source language.
	DefaultSourceLang = "en"
	// DefaultIntermediateLang is used when the request omits the pivot language.
	DefaultIntermediateLang = "ja"
)

// Request describes one back-translation round trip.
type Request struct {
	Text             string
	SourceLang       string
	IntermediateLang string
	Provider         Provider
}

// BackTranslator runs the source -> intermediate -> source pipeline: cache
// lookup, retried provider calls, cache writes, cost tracking, and BLEU
// scoring of the round trip.
type BackTranslator struct {
	translators map[Provider]Translator
	cache       *memory.Cache
	costs       *tracker.CostTracker
	retryCfg    retry.Config
	logger      *slog.Logger
}

// NewBackTranslator wires the pipeline. cache and costs may be nil, which
// disables the memory cache and cost tracking respectively.
func NewBackTranslator(translators map[Provider]Translator, cache *memory.Cache, costs *tracker.CostTracker, retryCfg retry.Config, logger *slog.Logger) *BackTranslator {
	return &BackTranslator{
		translators: translators,
		cache:       cache,
		costs:       costs,
		retryCfg:    retryCfg,
		logger:      logger,
	}
}

// Execute performs one round trip. The forward leg runs strictly before the
// backward leg; a leg served from cache costs nothing and makes no provider
// call. Cache writes for a completed leg persist even if a later leg fails.
func (b *BackTranslator) Execute(ctx context.Context, req Request) (*model.BackTranslationResult, error) {
	if err := b.validate(&req); err != nil {
		return nil, err
	}

	tr, ok := b.translators[req.Provider]
	if !ok {
		return nil, &model.ConfigError{Reason: "no translator registered for provider " + req.Provider.String()}
	}

	start := time.Now()

	intermediate, forwardCost, err := b.leg(ctx, tr, req.Provider, req.Text, req.SourceLang, req.IntermediateLang, "forward")
	if err != nil {
		return nil, err
	}

	final, backwardCost, err := b.leg(ctx, tr, req.Provider, intermediate, req.IntermediateLang, req.SourceLang, "backward")
	if err != nil {
		return nil, err
	}

	score := bleu.Score(req.Text, final)

	result := &model.BackTranslationResult{
		ID:               uuid.New().String(),
		OriginalText:     req.Text,
		IntermediateText: intermediate,
		FinalText:        final,
		SourceLang:       req.SourceLang,
		IntermediateLang: req.IntermediateLang,
		BLEUScore:        score,
		QualityRating:    bleu.Rating(score),
		CostUSD:          forwardCost + backwardCost,
		Provider:         req.Provider.String(),
		Timestamp:        time.Now().UTC(),
	}

	b.logger.Info("back-translation complete",
		"provider", result.Provider,
		"source_lang", result.SourceLang,
		"intermediate_lang", result.IntermediateLang,
		"bleu", result.BLEUScore,
		"rating", result.QualityRating,
		"cost_usd", result.CostUSD,
		"duration", time.Since(start),
	)

	return result, nil
}

// leg translates one direction, consulting the cache first. A provider call
// that succeeds is cached and its cost recorded; a cached result is free and
// does not touch the provider.
func (b *BackTranslator) leg(ctx context.Context, tr Translator, provider Provider, text, from, to, operation string) (string, float64, error) {
	if b.cache != nil {
		if entry, ok := b.cache.LookupExact(provider.String(), from, to, text); ok {
			b.logger.Debug("cache hit", "operation", operation, "from", from, "to", to)
			return entry.TranslatedText, 0, nil
		}
	}

	translated, err := retry.Do(ctx, b.retryCfg, b.logger, func(ctx context.Context) (string, error) {
		return tr.Translate(ctx, text, from, to)
	})
	if err != nil {
		return "", 0, err
	}

	if b.cache != nil {
		b.cache.Store(provider.String(), from, to, text, translated)
	}

	var cost float64
	if b.costs != nil {
		entry := b.costs.Track(ctx, provider.String(), int64(utf8.RuneCountInString(text)), operation)
		cost = entry.CostUSD
	}

	return translated, cost, nil
}

func (b *BackTranslator) validate(req *Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return &model.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if n := utf8.RuneCountInString(req.Text); n > MaxTextLength {
		return &model.ValidationError{Field: "text", Reason: "exceeds maximum length"}
	}

	if req.SourceLang == "" {
		req.SourceLang = DefaultSourceLang
	}
	if req.IntermediateLang == "" {
		req.IntermediateLang = DefaultIntermediateLang
	}
	if !isLangCode(req.SourceLang) {
		return &model.ValidationError{Field: "source_lang", Reason: "must be a two-letter ISO 639-1 code"}
	}
	if !isLangCode(req.IntermediateLang) {
		return &model.ValidationError{Field: "intermediate_lang", Reason: "must be a two-letter ISO 639-1 code"}
	}
	if req.SourceLang == req.IntermediateLang {
		return &model.ValidationError{Field: "intermediate_lang", Reason: "must differ from source language"}
	}

	return nil
}

func isLangCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
