// internal/catalog/cache.go
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"rfp-proposal-engine/internal/common/logger"
)

const embeddingCacheTTL = 24 * time.Hour

// EmbeddingCache caches item query vectors in Redis so repeated runs over the
// same RFP skip the embedding collaborator. Cache failures are logged and
// treated as misses.
type EmbeddingCache struct {
	client *redis.Client
	logger logger.Logger
}

func NewEmbeddingCache(client *redis.Client, log logger.Logger) *EmbeddingCache {
	return &EmbeddingCache{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "embedding-cache"}),
	}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// Get returns the cached vector for the query text, or ok=false on a miss.
func (c *EmbeddingCache) Get(ctx context.Context, text string) ([]float32, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, cacheKey(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("embedding cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, false
	}
	return vector, true
}

// Put stores the vector for the query text.
func (c *EmbeddingCache) Put(ctx context.Context, text string, vector []float32) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(text), raw, embeddingCacheTTL).Err(); err != nil {
		c.logger.Warn("embedding cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
