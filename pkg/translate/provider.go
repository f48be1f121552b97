// Package translate provides translation providers and the back-translation
// orchestrator built on top of them.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/translationfiesta/backtranslate/pkg/model"
)

// Provider identifies a translation backend. The set is closed; external
// input is mapped onto it with NormalizeProvider.
type Provider string

const (
	// ProviderUnofficialGoogle uses the free translate.googleapis.com
	// endpoint. No key, no SLA, subject to blocking.
	ProviderUnofficialGoogle Provider = "google_unofficial"

	// ProviderOfficialGoogle uses the Cloud Translation v2 API. Metered.
	ProviderOfficialGoogle Provider = "google_official"

	// ProviderLocal uses a locally hosted model server. Free.
	ProviderLocal Provider = "local"
)

// Metered reports whether calls to the provider incur per-character charges.
func (p Provider) Metered() bool {
	return p == ProviderOfficialGoogle
}

func (p Provider) String() string { return string(p) }

// Providers returns all known providers in display order.
func Providers() []Provider {
	return []Provider{ProviderUnofficialGoogle, ProviderOfficialGoogle, ProviderLocal}
}

// providerAliases maps legacy and shorthand identifiers onto the closed enum.
var providerAliases = map[string]Provider{
	"google_unofficial": ProviderUnofficialGoogle,
	"unofficial":        ProviderUnofficialGoogle,
	"google":            ProviderUnofficialGoogle,
	"google_free":       ProviderUnofficialGoogle,
	"free":              ProviderUnofficialGoogle,
	"google_official":   ProviderOfficialGoogle,
	"official":          ProviderOfficialGoogle,
	"google_cloud":      ProviderOfficialGoogle,
	"paid":              ProviderOfficialGoogle,
	"local":             ProviderLocal,
	"offline":           ProviderLocal,
}

// NormalizeProvider maps a user-supplied provider identifier onto the closed
// Provider enum. Matching is case-insensitive and ignores surrounding
// whitespace. Unknown identifiers return a ConfigError.
func NormalizeProvider(s string) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if p, ok := providerAliases[key]; ok {
		return p, nil
	}
	return "", &model.ConfigError{Reason: fmt.Sprintf("unknown provider %q", s)}
}

// Translator performs a single directed translation.
type Translator interface {
	// Translate returns text translated from sourceLang to targetLang.
	// Language codes are ISO 639-1.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
