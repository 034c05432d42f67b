package metrics

import "sync/atomic"

// FeedCounters tracks process-wide pipeline outcomes. The dropped item count
// is the signal to watch for schema drift on the model side.
type FeedCounters struct {
	queries      atomic.Int64
	sentinels    atomic.Int64
	droppedItems atomic.Int64
	cacheHits    atomic.Int64
}

// FeedSnapshot is a point-in-time copy of FeedCounters.
type FeedSnapshot struct {
	Queries      int64 `json:"queries"`
	Sentinels    int64 `json:"sentinels"`
	DroppedItems int64 `json:"droppedItems"`
	CacheHits    int64 `json:"cacheHits"`
}

// NewFeedCounters returns zeroed counters.
func NewFeedCounters() *FeedCounters {
	return &FeedCounters{}
}

func (c *FeedCounters) IncQueries() { c.queries.Add(1) }

func (c *FeedCounters) IncSentinels() { c.sentinels.Add(1) }

func (c *FeedCounters) IncCacheHits() { c.cacheHits.Add(1) }

func (c *FeedCounters) AddDropped(n int) { c.droppedItems.Add(int64(n)) }

// Snapshot copies the current values.
func (c *FeedCounters) Snapshot() FeedSnapshot {
	return FeedSnapshot{
		Queries:      c.queries.Load(),
		Sentinels:    c.sentinels.Load(),
		DroppedItems: c.droppedItems.Load(),
		CacheHits:    c.cacheHits.Load(),
	}
}
