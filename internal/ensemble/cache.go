package ensemble

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
)

// CacheKey identifies a cached forecast
type CacheKey struct {
	Symbol     string
	EnsembleID uuid.UUID
	Horizon    int
}

// String returns string representation of cache key
func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%d", k.Symbol, k.EnsembleID, k.Horizon)
}

// ForecastCache provides in-memory caching for ensemble forecasts. The hit
// and miss counters are atomics so concurrent readers never contend.
type ForecastCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	mu        sync.Mutex
	hitCount  atomic.Uint64
	missCount atomic.Uint64
}

// NewForecastCache creates a new forecast cache
func NewForecastCache(ttl time.Duration, maxSize int) *ForecastCache {
	return &ForecastCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached forecast
func (fc *ForecastCache) Get(key CacheKey) *Forecast {
	if result, found := fc.cache.Get(key.String()); found {
		if f, ok := result.(*Forecast); ok {
			fc.hitCount.Add(1)
			return f
		}
	}

	fc.missCount.Add(1)
	return nil
}

// Set stores a forecast in cache
func (fc *ForecastCache) Set(key CacheKey, f *Forecast) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.cache.ItemCount() >= fc.maxSize {
		fc.cache.DeleteExpired()
	}

	fc.cache.Set(key.String(), f, fc.ttl)
}

// Invalidate removes every cached forecast for an ensemble, used after a
// retrain or a weight update.
func (fc *ForecastCache) Invalidate(ensembleID uuid.UUID) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Cache key format: symbol:ensembleID:horizon
	id := ensembleID.String()
	for k := range fc.cache.Items() {
		if strings.Contains(k, id) {
			fc.cache.Delete(k)
		}
	}
}

// Clear flushes the entire cache
func (fc *ForecastCache) Clear() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.cache.Flush()
	fc.hitCount.Store(0)
	fc.missCount.Store(0)
}

// Stats returns cache statistics
func (fc *ForecastCache) Stats() (hits, misses uint64, ratio float64) {
	hits = fc.hitCount.Load()
	misses = fc.missCount.Load()
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (fc *ForecastCache) ItemCount() int {
	return fc.cache.ItemCount()
}
