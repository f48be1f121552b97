// Package memory implements a bounded translation memory: an LRU-evicted
// cache of previously seen translations with exact and fuzzy lookup, persisted
// as a versioned snapshot blob. A corrupt or version-mismatched snapshot is
// treated as an empty cache, never as a failure.
package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/translationfiesta/backtranslate/pkg/bleu"
)

// DefaultMaxEntries bounds the cache when no explicit size is configured.
const DefaultMaxEntries = 500

// Entry is one remembered translation. Owned by the cache; AccessedAt is
// refreshed on every exact hit.
type Entry struct {
	Key            string    `json:"key"`
	SourceText     string    `json:"source_text"`
	TranslatedText string    `json:"translated_text"`
	SourceLang     string    `json:"source_lang"`
	TargetLang     string    `json:"target_lang"`
	Provider       string    `json:"provider"`
	AccessedAt     time.Time `json:"accessed_at"`
}

// Match pairs an entry with its similarity to a fuzzy query.
type Match struct {
	Entry      Entry
	Similarity float64
}

// Stats counts cache traffic.
type Stats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	FuzzyHits    int64 `json:"fuzzy_hits"`
	TotalLookups int64 `json:"total_lookups"`
}

// Cache is a thread-safe bounded translation memory.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	maxEntries int
	snap       Snapshotter
	logger     *slog.Logger
	stats      Stats
}

// NewCache creates a cache bounded to maxEntries and restores any previous
// snapshot. maxEntries <= 0 selects DefaultMaxEntries; a nil snapshotter
// disables persistence.
func NewCache(maxEntries int, snap Snapshotter, logger *slog.Logger) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if snap == nil {
		snap = discardSnapshotter{}
	}
	c := &Cache{
		entries:    make(map[string]*Entry),
		maxEntries: maxEntries,
		snap:       snap,
		logger:     logger,
	}
	c.restore()
	return c
}

// Key derives the deterministic cache key for a translation request.
func Key(provider, sourceLang, targetLang, text string) string {
	h := sha256.New()
	for _, part := range []string{provider, sourceLang, targetLang, text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LookupExact returns the cached translation for an exact request match.
// A hit refreshes the entry's access time and persists the store.
func (c *Cache) LookupExact(provider, sourceLang, targetLang, text string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalLookups++
	e, ok := c.entries[Key(provider, sourceLang, targetLang, text)]
	if !ok {
		c.stats.Misses++
		return Entry{}, false
	}

	c.stats.Hits++
	e.AccessedAt = time.Now().UTC()
	c.persist()
	return *e, true
}

// LookupFuzzy returns entries for the same (provider, language pair) whose
// source text has token-set Jaccard similarity >= threshold against text,
// ordered by similarity descending, ties broken by most recent access.
func (c *Cache) LookupFuzzy(provider, sourceLang, targetLang, text string, threshold float64) []Match {
	queryTokens := tokenSet(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalLookups++

	var matches []Match
	for _, e := range c.entries {
		if e.Provider != provider || e.SourceLang != sourceLang || e.TargetLang != targetLang {
			continue
		}
		sim := jaccard(queryTokens, tokenSet(e.SourceText))
		if sim >= threshold {
			matches = append(matches, Match{Entry: *e, Similarity: sim})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Entry.AccessedAt.After(matches[j].Entry.AccessedAt)
	})

	if len(matches) > 0 {
		c.stats.FuzzyHits++
	} else {
		c.stats.Misses++
	}
	return matches
}

// Store upserts a translation and evicts least-recently-used entries when the
// cache exceeds its bound.
func (c *Cache) Store(provider, sourceLang, targetLang, text, translatedText string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(provider, sourceLang, targetLang, text)
	c.entries[key] = &Entry{
		Key:            key,
		SourceText:     text,
		TranslatedText: translatedText,
		SourceLang:     sourceLang,
		TargetLang:     targetLang,
		Provider:       provider,
		AccessedAt:     time.Now().UTC(),
	}

	c.evict()
	c.persist()
}

// Clear resets the cache to an empty, default-configured store.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
	c.stats = Stats{}
	c.persist()
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// MaxEntries returns the configured bound.
func (c *Cache) MaxEntries() int { return c.maxEntries }

// Stats returns a copy of the traffic counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// evict drops least-recently-used entries until the bound holds.
// Callers must hold c.mu.
func (c *Cache) evict() {
	if len(c.entries) <= c.maxEntries {
		return
	}

	all := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].AccessedAt.After(all[j].AccessedAt)
	})

	for _, e := range all[c.maxEntries:] {
		delete(c.entries, e.Key)
	}
}

// persist writes the whole store as one snapshot. Failures are logged and
// suppressed: a storage hiccup must never fail a translation.
// Callers must hold c.mu.
func (c *Cache) persist() {
	entries := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AccessedAt.After(entries[j].AccessedAt)
	})

	data, err := json.Marshal(snapshot{
		Version:    snapshotVersion,
		MaxEntries: c.maxEntries,
		Entries:    entries,
		Stats:      c.stats,
	})
	if err != nil {
		c.logger.Error("marshal cache snapshot", "error", err)
		return
	}
	if err := c.snap.Save(data); err != nil {
		c.logger.Error("save cache snapshot", "error", err)
	}
}

// restore loads the previous snapshot, falling back to an empty cache on any
// read, parse or version problem.
func (c *Cache) restore() {
	data, err := c.snap.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("read cache snapshot, starting empty", "error", err)
		}
		return
	}

	s, err := decodeSnapshot(data)
	if err != nil {
		c.logger.Warn("cache snapshot rejected, starting empty", "error", err)
		return
	}

	for i := range s.Entries {
		e := s.Entries[i]
		c.entries[e.Key] = &e
	}
	c.stats = s.Stats
	c.evict()
}

// tokenSet builds the deduplicated token set used for Jaccard similarity.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range bleu.Tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}

// jaccard computes |intersection| / |union| of two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
