package service

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/surenab/ireland-property-market-backend/internal/cache"
)

// fromCache loads a cached response into out. Reports false on a miss,
// a nil store, or a stale payload shape.
func fromCache(store cache.Store, key string, out interface{}) bool {
	if store == nil {
		return false
	}
	data, ok := store.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// toCache stores a marshaled response. Marshal failures skip caching.
func toCache(store cache.Store, key string, v interface{}, ttl time.Duration) {
	if store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	store.Put(key, data, ttl)
}

func priceKey(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func boolKey(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}
