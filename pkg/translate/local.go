package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/translationfiesta/backtranslate/pkg/model"
)

const defaultLocalEndpoint = "http://127.0.0.1:5000/translate"

// Local translates through a locally hosted model server speaking the
// LibreTranslate-style JSON API. Free, no key, latency depends entirely on
// the host machine.
type Local struct {
	// BaseURL points at the local server's translate endpoint.
	BaseURL string

	client *http.Client
	logger *slog.Logger
}

// NewLocal creates a client for a local model server. An empty endpoint
// falls back to the conventional localhost port.
func NewLocal(endpoint string, logger *slog.Logger) *Local {
	if endpoint == "" {
		endpoint = defaultLocalEndpoint
	}
	return &Local{
		BaseURL: endpoint,
		// Local models can be slow on first load.
		client: &http.Client{Timeout: 120 * time.Second},
		logger: logger,
	}
}

type localRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type localResponse struct {
	TranslatedText string `json:"translatedText"`
}

func (l *Local) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload, err := json.Marshal(localRequest{Q: text, Source: sourceLang, Target: targetLang, Format: "text"})
	if err != nil {
		return "", &model.InvalidResponseError{Provider: "local", Detail: "encode request"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", &model.NetworkError{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &model.NetworkError{Message: "local server request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &model.NetworkError{Message: "read response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &model.RateLimitedError{Provider: "local"}
	case resp.StatusCode >= 500:
		return "", &model.NetworkError{Message: "local server http " + resp.Status}
	case resp.StatusCode != http.StatusOK:
		return "", &model.InvalidResponseError{Provider: "local", Detail: "http " + resp.Status}
	}

	var parsed localResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &model.InvalidResponseError{Provider: "local", Detail: "unparseable payload"}
	}
	if parsed.TranslatedText == "" {
		return "", &model.InvalidResponseError{Provider: "local", Detail: "empty translation"}
	}
	return parsed.TranslatedText, nil
}
