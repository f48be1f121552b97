package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/translationfiesta/backtranslate/pkg/model"
)

func TestNormalizeProvider(t *testing.T) {
	tests := []struct {
		in   string
		want Provider
	}{
		{"google_unofficial", ProviderUnofficialGoogle},
		{"unofficial", ProviderUnofficialGoogle},
		{"google", ProviderUnofficialGoogle},
		{"google_free", ProviderUnofficialGoogle},
		{"free", ProviderUnofficialGoogle},
		{"google_official", ProviderOfficialGoogle},
		{"official", ProviderOfficialGoogle},
		{"google_cloud", ProviderOfficialGoogle},
		{"paid", ProviderOfficialGoogle},
		{"local", ProviderLocal},
		{"offline", ProviderLocal},
		{"  GOOGLE_OFFICIAL  ", ProviderOfficialGoogle},
		{"Unofficial", ProviderUnofficialGoogle},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeProvider(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeProviderUnknown(t *testing.T) {
	_, err := NormalizeProvider("deepl")
	require.Error(t, err)

	var cfgErr *model.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestMetered(t *testing.T) {
	assert.True(t, ProviderOfficialGoogle.Metered())
	assert.False(t, ProviderUnofficialGoogle.Metered())
	assert.False(t, ProviderLocal.Metered())
}

func TestProvidersOrder(t *testing.T) {
	assert.Equal(t, []Provider{ProviderUnofficialGoogle, ProviderOfficialGoogle, ProviderLocal}, Providers())
}
