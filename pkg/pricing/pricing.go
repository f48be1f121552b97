// Package pricing loads per-provider translation pricing from YAML files.
// Translation APIs bill per character, so rates are expressed in USD per
// million characters.
package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rate holds the pricing for one translation API.
type Rate struct {
	APIType            string  `yaml:"api_type"`
	USDPerMillionChars float64 `yaml:"usd_per_million_chars"`
	Free               bool    `yaml:"free,omitempty"`
}

// Table maps API types to their rates.
type Table struct {
	Updated string `yaml:"updated,omitempty"`
	Rates   []Rate `yaml:"rates"`

	byAPI map[string]Rate
}

// Default returns the built-in pricing table: the official Google Cloud
// Translation API at $20 per million characters, everything else free.
func Default() *Table {
	t := &Table{
		Rates: []Rate{
			{APIType: "google_official", USDPerMillionChars: 20.0},
			{APIType: "google_unofficial", Free: true},
			{APIType: "local", Free: true},
		},
	}
	t.index()
	return t
}

// Load reads a YAML pricing file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML pricing data from raw bytes.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse pricing data: %w", err)
	}
	if len(t.Rates) == 0 {
		return nil, fmt.Errorf("pricing data: no rates defined")
	}
	t.index()
	return &t, nil
}

func (t *Table) index() {
	t.byAPI = make(map[string]Rate, len(t.Rates))
	for _, r := range t.Rates {
		t.byAPI[r.APIType] = r
	}
}

// CostFor returns the USD cost of translating the given number of characters
// with the given API. Unknown and free APIs cost nothing.
func (t *Table) CostFor(apiType string, characters int64) float64 {
	r, ok := t.byAPI[apiType]
	if !ok || r.Free || characters <= 0 {
		return 0.0
	}
	return float64(characters) / 1_000_000 * r.USDPerMillionChars
}

// IsFree reports whether the given API is unmetered. Unknown APIs are
// treated as free so that a missing pricing row never invents charges.
func (t *Table) IsFree(apiType string) bool {
	r, ok := t.byAPI[apiType]
	return !ok || r.Free
}
