package translate

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/translationfiesta/backtranslate/pkg/model"
)

const officialEndpoint = "https://translation.googleapis.com/language/translate/v2"

// OfficialGoogle translates through the Cloud Translation v2 API. Requires
// an API key and bills per character.
type OfficialGoogle struct {
	// BaseURL is overridable for tests. Defaults to the Cloud endpoint.
	BaseURL string

	apiKey string
	client *http.Client
	logger *slog.Logger
}

// NewOfficialGoogle creates a Cloud Translation client. The key is checked
// lazily so an unconfigured client can still be registered; the first call
// fails with a ConfigError.
func NewOfficialGoogle(apiKey string, logger *slog.Logger) *OfficialGoogle {
	return &OfficialGoogle{
		BaseURL: officialEndpoint,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

type officialResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

func (g *OfficialGoogle) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		return "", &model.ConfigError{Reason: "google_official requires an API key"}
	}

	form := url.Values{}
	form.Set("q", text)
	form.Set("source", sourceLang)
	form.Set("target", targetLang)
	form.Set("format", "text")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.BaseURL+"?key="+url.QueryEscape(g.apiKey), strings.NewReader(form.Encode()))
	if err != nil {
		return "", &model.NetworkError{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &model.NetworkError{Message: "google_official request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &model.NetworkError{Message: "read response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &model.RateLimitedError{Provider: "google_official"}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &model.ConfigError{Reason: "google_official rejected the API key"}
	case resp.StatusCode >= 500:
		return "", &model.NetworkError{Message: "google_official http " + resp.Status}
	case resp.StatusCode != http.StatusOK:
		return "", &model.InvalidResponseError{Provider: "google_official", Detail: "http " + resp.Status}
	}

	var parsed officialResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &model.InvalidResponseError{Provider: "google_official", Detail: "unparseable payload"}
	}
	if len(parsed.Data.Translations) == 0 {
		return "", &model.InvalidResponseError{Provider: "google_official", Detail: "no translations in payload"}
	}
	return parsed.Data.Translations[0].TranslatedText, nil
}
