package main

import (
	"sync"
	"time"

	"github.com/apibillme/cache"
)

const (
	generateLimit = 5
	quotaWindow   = 24 * time.Hour

	// Upper bound on tracked identities. The backing LRU evicts the
	// least recently seen user once the bound is hit, so spoofed or
	// anonymous IDs cannot grow the map without limit.
	quotaCapacity = 4096
)

type quotaRecord struct {
	count       int
	windowStart time.Time
}

// QuotaTracker gates the metered generation endpoint with a per-user
// rolling 24h window. The window reset is evaluated lazily on access;
// the TTL on the backing store only bounds memory.
type QuotaTracker struct {
	mu      sync.Mutex
	records cache.Cache
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewQuotaTracker(limit int) *QuotaTracker {
	return &QuotaTracker{
		records: cache.New(quotaCapacity, cache.WithTTL(quotaWindow)),
		limit:   limit,
		window:  quotaWindow,
		now:     time.Now,
	}
}

// CheckAndIncrement consumes one unit of the user's quota. When the
// window is exhausted it reports false without incrementing; this path
// fails closed because every allowed call has real monetary cost.
func (q *QuotaTracker) CheckAndIncrement(userID string) (allowed bool, remaining int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var rec *quotaRecord
	if v, ok := q.records.Get(userID); ok {
		rec = v.(*quotaRecord)
		if now.Sub(rec.windowStart) > q.window {
			rec.count = 0
			rec.windowStart = now
		}
	} else {
		rec = &quotaRecord{windowStart: now}
		q.records.Set(userID, rec)
	}

	if rec.count >= q.limit {
		return false, 0
	}
	rec.count++
	return true, q.limit - rec.count
}
