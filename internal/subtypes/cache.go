package subtypes

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// CacheStats counts cache probes since the engine was created.
type CacheStats struct {
	SupertypeHits   int `json:"supertype_hits"`
	SupertypeMisses int `json:"supertype_misses"`
	SubtypeHits     int `json:"subtype_hits"`
	SubtypeMisses   int `json:"subtype_misses"`
	MeetHits        int `json:"meet_hits"`
	MeetMisses      int `json:"meet_misses"`
	MemoHits        int `json:"memo_hits"`
}

// boundedCache is a least-recently-used map that can be switched off.
// A nil lru means every lookup misses and nothing is stored.
type boundedCache[K comparable, V any] struct {
	lru    *simplelru.LRU[K, V]
	hits   *int
	misses *int
}

func newBoundedCache[K comparable, V any](size int, enabled bool, hits, misses *int) *boundedCache[K, V] {
	c := &boundedCache[K, V]{hits: hits, misses: misses}
	if !enabled || size <= 0 {
		return c
	}
	lru, err := simplelru.NewLRU[K, V](size, nil)
	if err != nil {
		return c
	}
	c.lru = lru
	return c
}

func (c *boundedCache[K, V]) get(key K) (V, bool) {
	if c.lru != nil {
		if v, ok := c.lru.Get(key); ok {
			*c.hits++
			return v, true
		}
	}
	*c.misses++
	var zero V
	return zero, false
}

func (c *boundedCache[K, V]) put(key K, value V) {
	if c.lru != nil {
		c.lru.Add(key, value)
	}
}

func (c *boundedCache[K, V]) purge() {
	if c.lru != nil {
		c.lru.Purge()
	}
}

func (c *boundedCache[K, V]) len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}
