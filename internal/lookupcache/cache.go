package lookupcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/MimeLyc/movielens-etl/internal/omdb"
)

// Key derives the cache key for a (title, year) pair. Titles are NFC
// normalized first so canonically equal spellings share one lookup. Year
// absence is part of the key: "Title|" and "Title|2001" are distinct.
func Key(title string, year *int) string {
	normalized := norm.NFC.String(title)
	if year == nil {
		return normalized + "|"
	}
	return normalized + "|" + strconv.Itoa(*year)
}

// LoadStatus reports which branch a Load took, so callers and tests can
// tell a fresh cache apart from one recovered from a corrupt file.
type LoadStatus int

const (
	LoadedExisting LoadStatus = iota
	LoadedEmpty
	RecoveredCorrupt
)

func (s LoadStatus) String() string {
	switch s {
	case LoadedExisting:
		return "existing"
	case LoadedEmpty:
		return "empty"
	case RecoveredCorrupt:
		return "recovered-corrupt"
	default:
		return "unknown"
	}
}

// Cache is the durable mapping from lookup key to a previously fetched
// payload or a recorded-absent marker. Entries are tri-state:
//   - key missing: never attempted
//   - key present, value nil: attempted, confirmed no usable data
//   - key present, value non-nil: attempted, payload on hand
//
// A single run owns the cache file; there is exactly one writer.
type Cache struct {
	path    string
	entries map[string]omdb.Payload
}

// Load reads the cache file at path. A missing file yields an empty cache;
// an unreadable or corrupt file also yields an empty cache, flagged via the
// returned status rather than an error, so the run never aborts on it.
func Load(path string) (*Cache, LoadStatus) {
	cache := &Cache{
		path:    path,
		entries: make(map[string]omdb.Payload),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cache, LoadedEmpty
	}

	var entries map[string]omdb.Payload
	if err := json.Unmarshal(data, &entries); err != nil {
		return cache, RecoveredCorrupt
	}
	if entries != nil {
		cache.entries = entries
	}
	return cache, LoadedExisting
}

// Lookup returns the stored payload for key. attempted is true when the key
// has been looked up before, even when that lookup confirmed absence (in
// which case the payload is nil).
func (c *Cache) Lookup(key string) (omdb.Payload, bool) {
	payload, attempted := c.entries[key]
	return payload, attempted
}

// PutFound records a successful lookup result for key.
func (c *Cache) PutFound(key string, payload omdb.Payload) {
	c.entries[key] = payload
}

// PutAbsent records that key was looked up and yielded no usable data, so
// future runs do not retry it.
func (c *Cache) PutAbsent(key string) {
	c.entries[key] = nil
}

// Entries returns a copy of the current mapping. Mock-mode runs use the
// persisted mapping itself as the static lookup source.
func (c *Cache) Entries() map[string]omdb.Payload {
	ret := make(map[string]omdb.Payload, len(c.entries))
	for key, payload := range c.entries {
		ret[key] = payload
	}
	return ret
}

// Len returns the number of attempted keys.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Save serializes the full mapping to the cache file, wholesale. It is
// called after every miss so a crash loses at most the in-flight lookup.
func (c *Cache) Save() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}
