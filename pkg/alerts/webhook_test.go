package alerts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/translationfiesta/backtranslate/pkg/alerts"
)

func TestWebhookNotifier_Name(t *testing.T) {
	n := alerts.NewWebhookNotifier("https://example.com/webhook", "")
	assert.Equal(t, "webhook", n.Name())
}

func TestWebhookNotifier_Send(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, http.MethodPost, r.Method)

		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	alert := alerts.Alert{
		Level:           alerts.AlertCritical,
		MonthlyLimitUSD: 50.00,
		CurrentUsageUSD: 48.00,
		ThresholdPct:    80.0,
	}

	err := n.Send(context.Background(), alert)
	require.NoError(t, err)
	assert.Equal(t, "budget_threshold", received["event"])
	assert.Equal(t, time.Now().UTC().Format("2006-01"), received["period"])
	assert.NotEmpty(t, received["timestamp"])

	sent, ok := received["alert"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "critical", sent["level"])
	assert.Equal(t, 50.00, sent["monthly_limit_usd"])
}

func TestWebhookNotifier_Send_WithHMAC(t *testing.T) {
	var signature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get("X-Signature-256")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "test-secret")
	err := n.Send(context.Background(), alerts.Alert{Level: alerts.AlertWarning})
	require.NoError(t, err)
	assert.Contains(t, signature, "sha256=")
}

func TestWebhookNotifier_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), alerts.Alert{Level: alerts.AlertWarning})
	assert.Error(t, err)
}

func TestSlackNotifier_Send(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewSlackNotifier(server.URL, "#translation-costs")
	require.Equal(t, "slack", n.Name())

	err := n.Send(context.Background(), alerts.Alert{
		Level:           alerts.AlertExceeded,
		MonthlyLimitUSD: 50.00,
		CurrentUsageUSD: 51.00,
		ThresholdPct:    80.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "#translation-costs", payload["channel"])
	assert.NotEmpty(t, payload["attachments"])
}
