package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	platformerrors "github.com/louisbranch/giving.space/internal/platform/errors"
	"github.com/louisbranch/giving.space/internal/platform/timeouts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

const meterName = "github.com/louisbranch/giving.space/internal/services/web/cache"

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the registry clock.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFetchTimeout bounds each fetch. Fetches run detached from the caller's
// context so one caller leaving does not fail the read shared with others.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(r *Registry) {
		if timeout > 0 {
			r.fetchTimeout = timeout
		}
	}
}

// WithMeter sets the meter used for registry counters.
func WithMeter(meter metric.Meter) Option {
	return func(r *Registry) {
		if meter != nil {
			r.meter = meter
		}
	}
}

// Registry is the process-wide keyed request cache.
type Registry struct {
	mu      sync.Mutex
	entries map[Key]*entry
	flights singleflight.Group
	seq     uint64
	nextSub int
	closed  bool

	clock        func() time.Time
	fetchTimeout time.Duration
	logger       *slog.Logger
	meter        metric.Meter

	fetches   metric.Int64Counter
	attaches  metric.Int64Counter
	discarded metric.Int64Counter
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry()
})

// Default returns the lazily created process-wide registry.
func Default() *Registry {
	return defaultRegistry()
}

// NewRegistry builds an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:      make(map[Key]*entry),
		clock:        time.Now,
		fetchTimeout: timeouts.FetchRequest,
		logger:       slog.Default(),
		meter:        otel.Meter(meterName),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.fetches = r.counter("web.cache.fetches", "Fetches started by the web cache")
	r.attaches = r.counter("web.cache.attaches", "Callers attached to an in-flight fetch")
	r.discarded = r.counter("web.cache.discarded", "Fetch results discarded as superseded")
	return r
}

func (r *Registry) counter(name, description string) metric.Int64Counter {
	counter, err := r.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		r.logger.Warn("create cache counter", "name", name, "error", err)
	}
	return counter
}

func (r *Registry) add(ctx context.Context, counter metric.Int64Counter, key Key) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("cache.resource", key.Resource())))
}

// Get returns the current snapshot for key, starting a fetch when the entry is
// idle, stale or failed. It never blocks on the fetch.
func (r *Registry) Get(ctx context.Context, key Key, fetcher Fetcher, policy Policy) Snapshot {
	if key.IsNull() {
		return Snapshot{}
	}
	ctx = normalizeContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(key)
	e.remember(fetcher, policy)
	if e.needsFetch(r.clock()) {
		r.startLocked(ctx, e)
	}
	return e.snapshot()
}

// Load behaves like Get and then waits for the in-flight fetch to settle or for
// ctx to end. A snapshot taken after ctx ends still reports IsLoading.
func (r *Registry) Load(ctx context.Context, key Key, fetcher Fetcher, policy Policy) Snapshot {
	if key.IsNull() {
		return Snapshot{}
	}
	ctx = normalizeContext(ctx)

	r.mu.Lock()
	e := r.entryLocked(key)
	e.remember(fetcher, policy)
	if e.needsFetch(r.clock()) {
		r.startLocked(ctx, e)
	}
	return r.waitLocked(ctx, e)
}

// Wait blocks until the in-flight fetch for key settles or ctx ends.
func (r *Registry) Wait(ctx context.Context, key Key) Snapshot {
	if key.IsNull() {
		return Snapshot{}
	}
	ctx = normalizeContext(ctx)

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		r.mu.Unlock()
		return Snapshot{Key: key}
	}
	return r.waitLocked(ctx, e)
}

// waitLocked attaches to the current flight of e and releases r.mu.
func (r *Registry) waitLocked(ctx context.Context, e *entry) Snapshot {
	if e.state != StatePending {
		snap := e.snapshot()
		r.mu.Unlock()
		return snap
	}
	// The flight for startSeq cannot have returned yet: its settle step needs
	// r.mu, which is held here, so DoChan attaches instead of starting a read.
	done := r.flightLocked(ctx, e)
	key := e.key
	r.mu.Unlock()
	r.add(ctx, r.attaches, key)

	select {
	case <-done:
	case <-ctx.Done():
	}
	snap, _ := r.Peek(key)
	return snap
}

// Revalidate forces a new fetch for key regardless of its cached state. The
// current data stays visible until the new fetch resolves. Keys that were
// never read have no fetcher and are left untouched.
func (r *Registry) Revalidate(ctx context.Context, key Key) Snapshot {
	if key.IsNull() {
		return Snapshot{}
	}
	ctx = normalizeContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return Snapshot{Key: key}
	}
	if e.fetcher != nil {
		r.startLocked(ctx, e)
	}
	return e.snapshot()
}

// RevalidateWith forces a new fetch for key using fetcher and policy, which
// replace the ones remembered from earlier reads. Unlike Revalidate it also
// starts the first fetch of a key that was never read.
func (r *Registry) RevalidateWith(ctx context.Context, key Key, fetcher Fetcher, policy Policy) Snapshot {
	if key.IsNull() {
		return Snapshot{}
	}
	ctx = normalizeContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(key)
	e.remember(fetcher, policy)
	r.startLocked(ctx, e)
	return e.snapshot()
}

// Mutate replaces the data for key as if a fetch had just resolved with value.
// Any fetch still in flight for key is superseded and its result discarded.
func (r *Registry) Mutate(key Key, value any) Snapshot {
	if key.IsNull() {
		return Snapshot{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryLocked(key)
	r.seq++
	e.startSeq = r.seq
	e.appliedSeq = r.seq
	e.stopRetry()
	e.retries = 0
	e.state = StateResolved
	e.data = value
	e.err = nil
	e.fetchedAt = r.clock()
	r.broadcastLocked(e)
	return e.snapshot()
}

// Focus revalidates entries whose policy opts into focus revalidation.
// It returns the number of fetches started.
func (r *Registry) Focus(ctx context.Context) int {
	return r.revalidateWhere(ctx, func(p Policy) bool { return p.RevalidateOnFocus })
}

// Reconnect revalidates entries whose policy opts into reconnect revalidation.
// It returns the number of fetches started.
func (r *Registry) Reconnect(ctx context.Context) int {
	return r.revalidateWhere(ctx, func(p Policy) bool { return p.RevalidateOnReconnect })
}

func (r *Registry) revalidateWhere(ctx context.Context, enabled func(Policy) bool) int {
	ctx = normalizeContext(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	started := 0
	for _, e := range r.entries {
		if e.fetcher == nil || !enabled(e.policy) {
			continue
		}
		switch e.state {
		case StatePending:
			continue
		case StateFailed:
			if !e.policy.canRetry(e.err) {
				continue
			}
		}
		r.startLocked(ctx, e)
		started++
	}
	return started
}

// Peek returns the snapshot for key without triggering a fetch.
func (r *Registry) Peek(key Key) (Snapshot, bool) {
	if key.IsNull() {
		return Snapshot{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return Snapshot{Key: key}, false
	}
	return e.snapshot(), true
}

// Subscribe returns a channel receiving the snapshot after every transition of
// key. Delivery is latest-wins: a slow reader only sees the newest snapshot.
// The returned function cancels the subscription and closes the channel.
func (r *Registry) Subscribe(key Key) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	if key.IsNull() {
		close(ch)
		return ch, func() {}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		close(ch)
		return ch, func() {}
	}
	e := r.entryLocked(key)
	r.nextSub++
	id := r.nextSub
	e.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if sub, ok := e.subscribers[id]; ok {
				delete(e.subscribers, id)
				close(sub)
			}
		})
	}
}

// Close stops scheduled retries and ends all subscriptions. Reads after Close
// return cached snapshots without fetching.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, e := range r.entries {
		e.stopRetry()
		for id, sub := range e.subscribers {
			delete(e.subscribers, id)
			close(sub)
		}
	}
}

func (r *Registry) entryLocked(key Key) *entry {
	e, ok := r.entries[key]
	if !ok {
		e = newEntry(key)
		r.entries[key] = e
	}
	return e
}

// startLocked moves e to Pending under a new sequence and launches its flight.
func (r *Registry) startLocked(ctx context.Context, e *entry) {
	if r.closed || e.fetcher == nil {
		return
	}
	r.seq++
	e.startSeq = r.seq
	e.stopRetry()
	e.state = StatePending
	r.flightLocked(ctx, e)
	r.add(ctx, r.fetches, e.key)
	r.logger.Debug("cache fetch started", "key", string(e.key), "seq", e.startSeq)
	r.broadcastLocked(e)
}

// flightLocked joins or launches the flight for e's newest sequence.
func (r *Registry) flightLocked(ctx context.Context, e *entry) <-chan singleflight.Result {
	key := e.key
	seq := e.startSeq
	fetcher := e.fetcher
	timeout := r.fetchTimeout
	parent := context.WithoutCancel(ctx)

	return r.flights.DoChan(flightKey(key, seq), func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		data, err := fetcher(fetchCtx, key)
		r.settle(key, seq, data, err)
		return data, err
	})
}

// settle applies one fetch result unless a newer result was already applied.
func (r *Registry) settle(key Key, seq uint64, data any, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return
	}
	if seq <= e.appliedSeq {
		r.add(context.Background(), r.discarded, key)
		r.logger.Debug("cache result discarded", "key", string(key), "seq", seq, "applied_seq", e.appliedSeq)
		return
	}
	e.appliedSeq = seq
	now := r.clock()
	newest := seq == e.startSeq

	if err != nil {
		e.err = platformerrors.Normalize(err)
		e.failedAt = now
		if newest {
			e.state = StateFailed
			r.logger.Warn("cache fetch failed",
				"key", string(key),
				"code", string(platformerrors.CodeOf(e.err)),
				"error", e.err.Error(),
			)
			r.scheduleRetryLocked(e)
		}
	} else {
		e.data = data
		e.err = nil
		e.fetchedAt = now
		e.retries = 0
		if e.backoff != nil {
			e.backoff.Reset()
		}
		if newest {
			e.state = StateResolved
		}
	}
	r.broadcastLocked(e)
}

// scheduleRetryLocked arms the next error retry for a failed entry.
func (r *Registry) scheduleRetryLocked(e *entry) {
	if r.closed || !e.policy.canRetry(e.err) || e.retries >= e.policy.ErrorRetryCount {
		return
	}
	if e.backoff == nil {
		e.backoff = e.policy.newBackOff()
	}
	delay := e.backoff.NextBackOff()
	if delay < 0 {
		return
	}
	e.retries++
	key := e.key
	seq := e.startSeq
	e.stopRetry()
	e.retryTimer = time.AfterFunc(delay, func() {
		r.retry(key, seq)
	})
}

func (r *Registry) retry(key Key, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok || e.startSeq != seq || e.state != StateFailed {
		return
	}
	e.retryTimer = nil
	r.startLocked(context.Background(), e)
}

func (r *Registry) broadcastLocked(e *entry) {
	if len(e.subscribers) == 0 {
		return
	}
	snap := e.snapshot()
	for _, sub := range e.subscribers {
		select {
		case sub <- snap:
		default:
			select {
			case <-sub:
			default:
			}
			sub <- snap
		}
	}
}

func flightKey(key Key, seq uint64) string {
	return string(key) + "#" + strconv.FormatUint(seq, 10)
}

func normalizeContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
