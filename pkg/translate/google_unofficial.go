package translate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/translationfiesta/backtranslate/pkg/model"
)

const unofficialEndpoint = "https://translate.googleapis.com/translate_a/single"

// UnofficialGoogle translates through the free translate.googleapis.com
// endpoint. The endpoint blocks abusive clients with 403s and captcha
// interstitials, so calls run through a circuit breaker that opens after a
// run of consecutive failures instead of hammering a blocked host.
type UnofficialGoogle struct {
	// BaseURL is overridable for tests. Defaults to the public endpoint.
	BaseURL string

	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rateLimiter
	logger  *slog.Logger
}

// NewUnofficialGoogle creates a client for the free Google endpoint.
func NewUnofficialGoogle(logger *slog.Logger) *UnofficialGoogle {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "google_unofficial",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A caller abandoning the request says nothing about upstream
		// health, so cancellations never count against the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &UnofficialGoogle{
		BaseURL: unofficialEndpoint,
		client:  &http.Client{Timeout: 15 * time.Second},
		breaker: breaker,
		limiter: newRateLimiter(time.Second, 60*time.Second),
		logger:  logger,
	}
}

func (g *UnofficialGoogle) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	result, err := g.breaker.Execute(func() (any, error) {
		return g.translate(ctx, text, sourceLang, targetLang)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", &model.NetworkError{Message: "google_unofficial circuit open", Err: err}
		}
		return "", err
	}
	return result.(string), nil
}

func (g *UnofficialGoogle) translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if err := g.limiter.wait(ctx); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", sourceLang)
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", &model.NetworkError{Message: "build request", Err: err}
	}
	req.Header.Set("User-Agent", "backtranslate/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &model.NetworkError{Message: "google_unofficial request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &model.NetworkError{Message: "read response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		g.limiter.throttled(retryAfterHint(resp))
		return "", &model.RateLimitedError{Provider: "google_unofficial"}
	case resp.StatusCode == http.StatusForbidden:
		g.limiter.throttled(0)
		return "", &model.BlockedError{Provider: "google_unofficial", Detail: "http 403"}
	case resp.StatusCode >= 500:
		return "", &model.NetworkError{Message: "google_unofficial http " + resp.Status}
	case resp.StatusCode != http.StatusOK:
		return "", &model.InvalidResponseError{Provider: "google_unofficial", Detail: "http " + resp.Status}
	}

	// A captcha interstitial comes back as 200 with an HTML document.
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") ||
		strings.Contains(strings.ToLower(string(body)), "captcha") {
		g.limiter.throttled(0)
		return "", &model.BlockedError{Provider: "google_unofficial", Detail: "captcha interstitial"}
	}

	translated, err := parseUnofficialResponse(body)
	if err != nil {
		return "", err
	}
	g.limiter.success()
	return translated, nil
}

// retryAfterHint reads a Retry-After delay in seconds, 0 when absent.
func retryAfterHint(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// parseUnofficialResponse extracts the translation from the endpoint's
// undocumented nested-array payload: [[["translated","original",...],...],...].
// Segment strings at [0][i][0] are concatenated in order.
func parseUnofficialResponse(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &model.InvalidResponseError{Provider: "google_unofficial", Detail: "unparseable payload"}
	}
	if len(payload) == 0 {
		return "", &model.InvalidResponseError{Provider: "google_unofficial", Detail: "empty payload"}
	}

	segments, ok := payload[0].([]any)
	if !ok {
		return "", &model.InvalidResponseError{Provider: "google_unofficial", Detail: "unexpected payload shape"}
	}

	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}

	if b.Len() == 0 {
		return "", &model.InvalidResponseError{Provider: "google_unofficial", Detail: "no translation segments"}
	}
	return b.String(), nil
}
