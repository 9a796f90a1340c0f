package toast

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	// DefaultIdleTTL is how long an untouched owner keeps its queue.
	DefaultIdleTTL = 30 * time.Minute
	// DefaultOwnerCapacity caps how many owner queues are kept at once.
	DefaultOwnerCapacity = 10_000
)

// Queues keeps one Queue per owner so visitors never see or dismiss each
// other's toasts. A queue expires after its owner has been idle for the TTL,
// and once the capacity is reached the least recently used queue is dropped.
type Queues struct {
	cache  *ttlcache.Cache[string, *Queue]
	loader ttlcache.Loader[string, *Queue]
}

// NewQueues builds an empty set of owner queues. Non-positive idle and zero
// capacity use the defaults; opts configure every queue created.
func NewQueues(idle time.Duration, capacity uint64, opts ...Option) *Queues {
	if idle <= 0 {
		idle = DefaultIdleTTL
	}
	if capacity == 0 {
		capacity = DefaultOwnerCapacity
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *Queue](idle),
		ttlcache.WithCapacity[string, *Queue](capacity),
	)
	loader := ttlcache.LoaderFunc[string, *Queue](
		func(c *ttlcache.Cache[string, *Queue], owner string) *ttlcache.Item[string, *Queue] {
			return c.Set(owner, NewQueue(opts...), ttlcache.DefaultTTL)
		},
	)
	return &Queues{
		cache:  cache,
		loader: ttlcache.NewSuppressedLoader[string, *Queue](loader, nil),
	}
}

// For returns the queue of owner, creating it on first use. Every call
// restarts the owner's idle window.
func (qs *Queues) For(owner string) *Queue {
	qs.cache.DeleteExpired()
	item := qs.cache.Get(owner, ttlcache.WithLoader[string, *Queue](qs.loader))
	return item.Value()
}

// Len returns the number of live owner queues.
func (qs *Queues) Len() int {
	qs.cache.DeleteExpired()
	return qs.cache.Len()
}
