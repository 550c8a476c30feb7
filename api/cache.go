package api

import (
	"encoding/json"
	"os"
	"time"

	"wxnow/internal/logger"
)

// CacheEntry is the persisted (city, weather, timestamp) triple. Old-format
// or corrupt files fail decoding and are treated as absent.
type CacheEntry struct {
	Timestamp int64  `json:"timestamp"`
	City      string `json:"city"`
	Weather   string `json:"weather"`
}

// CacheStore persists the last successful weather resolution to a single
// well-known file. It is a performance optimization only: every failure mode
// collapses to "absent" on read and is swallowed on write.
type CacheStore struct {
	filePath string
	ttl      time.Duration
	now      func() time.Time
}

func NewCacheStore(filePath string, ttl time.Duration) *CacheStore {
	return &CacheStore{
		filePath: filePath,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Read returns the cached entry when the file exists, decodes, and is still
// within the TTL. An expired file is left on disk; the next successful
// write supersedes it.
func (cs *CacheStore) Read() (*CacheEntry, bool) {
	data, err := os.ReadFile(cs.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("cache read error: %v", err)
		}
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.Debug("cache decode error: %v", err)
		return nil, false
	}

	age := cs.now().Unix() - entry.Timestamp
	if age >= int64(cs.ttl.Seconds()) {
		logger.Debug("cache expired (age %ds)", age)
		return nil, false
	}

	logger.Debug("using cached data for %s", entry.City)
	return &entry, true
}

// Write overwrites the cache file with a fresh entry. The write is
// temp-file-then-rename so a concurrent reader never sees a torn file.
func (cs *CacheStore) Write(city, weather string) error {
	entry := CacheEntry{
		Timestamp: cs.now().Unix(),
		City:      city,
		Weather:   weather,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	tempFile := cs.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tempFile, cs.filePath); err != nil {
		os.Remove(tempFile)
		return err
	}

	logger.Debug("cached weather data for %s", city)
	return nil
}
