package cache

import "CoinPulse/internal/domain/models"

// EntryStore holds successful upstream responses keyed by exact URL.
type EntryStore interface {
	Lookup(key string) (models.CacheEntry, bool)
	Store(entry models.CacheEntry)
	Len() int
}
