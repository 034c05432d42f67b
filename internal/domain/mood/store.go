package mood

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Store caches validated FeedResults. Sentinels are never stored.
type Store interface {
	Get(ctx context.Context, key string) (FeedResult, bool, error)
	Save(ctx context.Context, key string, result FeedResult, ttl time.Duration) error
}

// CacheKey identifies a query under a prompt version.
func CacheKey(version string, query MoodQuery) string {
	h := sha256.New()
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write([]byte(query.Intent))
	h.Write([]byte{0})
	h.Write([]byte(normalizeText(query.RawText)))
	return hex.EncodeToString(h.Sum(nil))
}
