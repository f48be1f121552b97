package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/translationfiesta/backtranslate/pkg/memory"
	"github.com/translationfiesta/backtranslate/pkg/model"
	"github.com/translationfiesta/backtranslate/pkg/tracker"
	"github.com/translationfiesta/backtranslate/pkg/translate"
)

// Server exposes the back-translation pipeline and usage summaries over HTTP.
type Server struct {
	backtranslator *translate.BackTranslator
	cache          *memory.Cache
	costs          *tracker.CostTracker
	mux            *http.ServeMux
	logger         *slog.Logger
}

// NewServer creates an API server.
func NewServer(bt *translate.BackTranslator, cache *memory.Cache, costs *tracker.CostTracker, logger *slog.Logger) *Server {
	s := &Server{
		backtranslator: bt,
		cache:          cache,
		costs:          costs,
		mux:            http.NewServeMux(),
		logger:         logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", method(http.MethodGet, s.handleHealth))
	s.mux.HandleFunc("/api/v1/backtranslate", method(http.MethodPost, s.handleBackTranslate))
	s.mux.HandleFunc("/api/v1/summary", method(http.MethodGet, s.handleSummary))
	s.mux.HandleFunc("/api/v1/cache/stats", method(http.MethodGet, s.handleCacheStats))
}

// method restricts a handler to one HTTP method, matching the behavior of
// the Go 1.22+ ServeMux "METHOD /path" patterns on the Go 1.21 toolchain.
func method(m string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != m {
			w.Header().Set("Allow", m)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type backTranslateRequest struct {
	Text             string `json:"text"`
	SourceLang       string `json:"source_lang"`
	IntermediateLang string `json:"intermediate_lang"`
	Provider         string `json:"provider"`
}

func (s *Server) handleBackTranslate(w http.ResponseWriter, r *http.Request) {
	var req backTranslateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	provider := translate.ProviderUnofficialGoogle
	if req.Provider != "" {
		p, err := translate.NormalizeProvider(req.Provider)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		provider = p
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	result, err := s.backtranslator.Execute(ctx, translate.Request{
		Text:             req.Text,
		SourceLang:       req.SourceLang,
		IntermediateLang: req.IntermediateLang,
		Provider:         provider,
	})
	if err != nil {
		s.writeExecuteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) writeExecuteError(w http.ResponseWriter, err error) {
	var vErr *model.ValidationError
	if errors.As(err, &vErr) {
		http.Error(w, vErr.Error(), http.StatusBadRequest)
		return
	}
	var cfgErr *model.ConfigError
	if errors.As(err, &cfgErr) {
		http.Error(w, cfgErr.Error(), http.StatusBadRequest)
		return
	}
	var rlErr *model.RateLimitedError
	if errors.As(err, &rlErr) {
		http.Error(w, rlErr.Error(), http.StatusTooManyRequests)
		return
	}

	s.logger.Error("back-translation failed", "error", err)
	http.Error(w, "translation failed", http.StatusBadGateway)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	summary, err := s.costs.MonthlySummary(ctx)
	if err != nil {
		s.logger.Error("aggregate monthly summary", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

type cacheStatsResponse struct {
	Size       int   `json:"size"`
	MaxEntries int   `json:"max_entries"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	FuzzyHits  int64 `json:"fuzzy_hits"`
	Lookups    int64 `json:"lookups"`
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.cache.Stats()
	resp := cacheStatsResponse{
		Size:       s.cache.Len(),
		MaxEntries: s.cache.MaxEntries(),
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		FuzzyHits:  stats.FuzzyHits,
		Lookups:    stats.TotalLookups,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
