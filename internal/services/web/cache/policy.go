package cache

import (
	"time"

	"github.com/cenkalti/backoff/v5"
	platformerrors "github.com/louisbranch/giving.space/internal/platform/errors"
)

const (
	defaultErrorRetryCount    = 3
	defaultErrorRetryInterval = 5 * time.Second
	maxErrorRetryInterval     = time.Minute
)

// Policy controls when one resource family is refetched.
type Policy struct {
	// FreshFor is how long a resolved entry is served without refetching on
	// mount. Zero or negative means resolved entries never go stale on mount.
	FreshFor time.Duration
	// RevalidateOnFocus refetches the entry when the UI regains focus.
	RevalidateOnFocus bool
	// RevalidateOnReconnect refetches the entry when connectivity returns.
	RevalidateOnReconnect bool
	// ShouldRetryOnError allows retryable failures to be refetched on mount,
	// focus, reconnect and by the scheduled error retry.
	ShouldRetryOnError bool
	// ErrorRetryCount bounds scheduled retries after consecutive failures.
	ErrorRetryCount int
	// ErrorRetryInterval is the first scheduled retry delay; later delays grow
	// exponentially.
	ErrorRetryInterval time.Duration
}

// DefaultPolicy returns the policy used by resources with cheap staleness.
func DefaultPolicy() Policy {
	return Policy{
		RevalidateOnFocus:     true,
		RevalidateOnReconnect: true,
		ShouldRetryOnError:    true,
		ErrorRetryCount:       defaultErrorRetryCount,
		ErrorRetryInterval:    defaultErrorRetryInterval,
	}
}

// PreconditionPolicy returns the policy for resources whose failures usually
// mean the remote state cannot satisfy the request yet, such as a report for a
// campaign that has not closed. They are never refetched implicitly.
func PreconditionPolicy() Policy {
	return Policy{}
}

// canRetry reports whether err may be refetched without an explicit trigger.
func (p Policy) canRetry(err error) bool {
	if !p.ShouldRetryOnError {
		return false
	}
	return platformerrors.CodeOf(err).Retryable()
}

// isStale reports whether a resolved entry fetched at fetchedAt needs a refetch.
func (p Policy) isStale(fetchedAt, now time.Time) bool {
	if p.FreshFor <= 0 || fetchedAt.IsZero() {
		return false
	}
	return now.Sub(fetchedAt) > p.FreshFor
}

// newBackOff builds the retry schedule for one entry.
func (p Policy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.ErrorRetryInterval
	if b.InitialInterval <= 0 {
		b.InitialInterval = defaultErrorRetryInterval
	}
	b.MaxInterval = maxErrorRetryInterval
	b.Reset()
	return b
}
