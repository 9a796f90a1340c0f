package cache

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// State identifies the lifecycle state of one cache entry.
type State int

const (
	// StateIdle indicates no fetch has started for the key.
	StateIdle State = iota
	// StatePending indicates the newest fetch for the key is in flight.
	StatePending
	// StateResolved indicates the newest applied fetch succeeded.
	StateResolved
	// StateFailed indicates the newest applied fetch failed.
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Fetcher performs the remote read for key and returns the raw payload.
type Fetcher func(ctx context.Context, key Key) (any, error)

// Snapshot is an immutable view of one entry handed to callers.
//
// Data keeps the last resolved payload while a refetch is pending or after a
// refetch failed, so pages never flash to empty.
type Snapshot struct {
	Key       Key
	State     State
	Data      any
	Err       error
	IsLoading bool
	FetchedAt time.Time
	FailedAt  time.Time
}

// HasData reports whether the snapshot carries a resolved payload.
func (s Snapshot) HasData() bool {
	return s.Data != nil
}

// entry is the registry-owned mutable state for one key. All fields are
// guarded by Registry.mu.
type entry struct {
	key       Key
	state     State
	data      any
	err       error
	fetchedAt time.Time
	failedAt  time.Time

	fetcher Fetcher
	policy  Policy

	// startSeq is the sequence of the newest started fetch; appliedSeq is the
	// sequence of the newest result written into the entry.
	startSeq   uint64
	appliedSeq uint64

	retries    int
	retryTimer *time.Timer
	backoff    *backoff.ExponentialBackOff

	subscribers map[int]chan Snapshot
}

func newEntry(key Key) *entry {
	return &entry{
		key:         key,
		state:       StateIdle,
		subscribers: make(map[int]chan Snapshot),
	}
}

// remember keeps the newest fetcher and policy so triggers without a caller
// (focus, reconnect, retry, Revalidate) can refetch.
func (e *entry) remember(fetcher Fetcher, policy Policy) {
	if fetcher != nil {
		e.fetcher = fetcher
	}
	e.policy = policy
}

// needsFetch reports whether a mount-style read should start a fetch. A
// failed entry is always read again on mount; ShouldRetryOnError only gates
// focus, reconnect and scheduled retries.
func (e *entry) needsFetch(now time.Time) bool {
	if e.fetcher == nil {
		return false
	}
	switch e.state {
	case StateIdle, StateFailed:
		return true
	case StateResolved:
		return e.policy.isStale(e.fetchedAt, now)
	default:
		return false
	}
}

func (e *entry) stopRetry() {
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Key:       e.key,
		State:     e.state,
		Data:      e.data,
		Err:       e.err,
		IsLoading: e.state == StatePending,
		FetchedAt: e.fetchedAt,
		FailedAt:  e.failedAt,
	}
}
