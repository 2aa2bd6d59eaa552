package coordinator

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/archlens/archlens/internal/models"
)

var parseCacheBucket = []byte("parse_results")

// ParseCache memoizes per-file extraction results in a local bbolt file.
// Entries are keyed by path and invalidated when size or mtime change, so
// repeated coordination runs over an unchanged tree skip re-extraction.
type ParseCache struct {
	db *bolt.DB
}

type cacheEntry struct {
	Size    int64              `json:"size"`
	ModTime int64              `json:"mod_time"`
	Result  models.ParseResult `json:"result"`
}

// OpenParseCache opens (or creates) the cache file.
func OpenParseCache(path string) (*ParseCache, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open parse cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(parseCacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize parse cache: %w", err)
	}
	return &ParseCache{db: db}, nil
}

// Get returns the cached result for path if the file is unchanged.
func (c *ParseCache) Get(path string) (*models.ParseResult, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	found := false
	c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(parseCacheBucket).Get([]byte(path))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil
		}
		found = true
		return nil
	})

	if !found || entry.Size != info.Size() || entry.ModTime != info.ModTime().UnixNano() {
		return nil, false
	}
	result := entry.Result
	return &result, true
}

// Put stores a result keyed by the file's current identity. Cache write
// failures are swallowed; the cache is an optimization, not a dependency.
func (c *ParseCache) Put(path string, result *models.ParseResult) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	raw, err := json.Marshal(cacheEntry{
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
		Result:  *result,
	})
	if err != nil {
		return
	}
	c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(parseCacheBucket).Put([]byte(path), raw)
	})
}

// Close closes the underlying bbolt file.
func (c *ParseCache) Close() error {
	return c.db.Close()
}
