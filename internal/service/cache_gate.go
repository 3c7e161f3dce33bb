package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"gastoscan/internal/models"
	"gastoscan/pkg/cache"

	"go.uber.org/zap"
)

// extractTag namespaces cache keys so a change to the pipeline's contract
// can invalidate old entries by bumping the tag.
const extractTag = "extract-expense-v1"

// DocumentMeta is the request metadata mixed into the cache key.
type DocumentMeta struct {
	MimeType  string `json:"mimeType"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"sizeBytes"`
}

// CacheGate memoizes pipeline results by content hash. A hit skips the
// whole pipeline and returns the stored record verbatim, pre-computed XML
// included.
//
// The gate stores a TTL with each entry but never reads it back to reject
// stale data; expiry is the caller's call. There is also no single-flight
// guard: two concurrent requests for the same content may both compute and
// both write, and last write wins. Both are deliberate.
type CacheGate struct {
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

func NewCacheGate(store cache.Store, ttl time.Duration, logger *zap.Logger) *CacheGate {
	return &CacheGate{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Key derives the content-addressed cache key for a document and its
// request metadata.
func (g *CacheGate) Key(meta DocumentMeta, content []byte) string {
	contentHash := "no-buffer"
	if len(content) > 0 {
		h := sha256.Sum256(content)
		contentHash = hex.EncodeToString(h[:])
	}

	metaJSON, _ := json.Marshal(meta)

	h := sha256.New()
	h.Write([]byte(extractTag))
	h.Write(metaJSON)
	h.Write([]byte(contentHash))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the memoized entry for key, or nil on a miss. Store failures
// degrade to a miss.
func (g *CacheGate) Get(key string) *models.CacheEntry {
	stored, err := g.store.Get(key)
	if err != nil {
		g.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if stored == nil {
		return nil
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(stored.Value, &entry); err != nil {
		g.logger.Warn("Cache entry is corrupt, ignoring", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &entry
}

// Put stores a computed entry. The error is returned so callers and tests
// can see persistence failures, but the pipeline treats them as non-fatal.
func (g *CacheGate) Put(key string, record *models.CanonicalExpenseRecord, xml string) error {
	entry := models.CacheEntry{
		Key:        key,
		Record:     record,
		XML:        xml,
		TTLSeconds: int64(g.ttl.Seconds()),
		CreatedAt:  time.Now(),
	}

	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	if err := g.store.Put(key, data, entry.TTLSeconds); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}
