package resource

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/louisbranch/giving.space/internal/platform/timeouts"
	"github.com/louisbranch/giving.space/internal/services/web/auth"
	"github.com/louisbranch/giving.space/internal/services/web/cache"
	"github.com/louisbranch/giving.space/internal/services/web/receipts"
)

// Resource names used as the first segment of cache keys.
const (
	resourceSummary     = "campaign_summary"
	resourceCategories  = "categories"
	resourceAuditReport = "audit_report"
	resourceReceipts    = "campaign_receipts"
)

const (
	defaultSummaryFreshFor  = 30 * time.Second
	receiptsErrorRetryCount = 2
	summaryErrorRetryCount  = 3
)

// Getter performs one authenticated JSON GET against the remote API.
type Getter interface {
	Get(ctx context.Context, path, token string, target any) error
}

// Option configures Hooks.
type Option func(*Hooks)

// WithSession sets the session used when a request carries no bearer token.
func WithSession(session auth.Session) Option {
	return func(h *Hooks) {
		h.session = session
	}
}

// WithSummaryFreshFor sets how long a fetched summary is served without a
// refetch on the next read.
func WithSummaryFreshFor(d time.Duration) Option {
	return func(h *Hooks) {
		if d > 0 {
			h.summaryPolicy.FreshFor = d
		}
	}
}

// WithRenderWait bounds how long a hook call waits for an in-flight fetch
// before returning the loading state.
func WithRenderWait(d time.Duration) Option {
	return func(h *Hooks) {
		if d > 0 {
			h.renderWait = d
		}
	}
}

// Hooks exposes one read operation per resource family.
type Hooks struct {
	registry *cache.Registry
	api      Getter
	receipts receipts.Source
	session  auth.Session

	summaryPolicy    cache.Policy
	categoriesPolicy cache.Policy
	reportPolicy     cache.Policy
	receiptsPolicy   cache.Policy
	renderWait       time.Duration
}

// New builds hooks over registry. A nil registry uses the process-wide one.
func New(registry *cache.Registry, api Getter, source receipts.Source, opts ...Option) *Hooks {
	if registry == nil {
		registry = cache.Default()
	}
	h := &Hooks{
		registry:         registry,
		api:              api,
		receipts:         source,
		session:          auth.Anonymous(),
		summaryPolicy:    summaryPolicy(),
		categoriesPolicy: categoriesPolicy(),
		reportPolicy:     cache.PreconditionPolicy(),
		receiptsPolicy:   receiptsPolicy(),
		renderWait:       timeouts.RenderWait,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Summary and categories tolerate staleness: they are refetched on mount once
// stale and on reconnect, never on focus.
func summaryPolicy() cache.Policy {
	p := cache.DefaultPolicy()
	p.FreshFor = defaultSummaryFreshFor
	p.RevalidateOnFocus = false
	p.ErrorRetryCount = summaryErrorRetryCount
	return p
}

func categoriesPolicy() cache.Policy {
	p := cache.DefaultPolicy()
	p.RevalidateOnFocus = false
	return p
}

// Receipts failures are usually transient; not-found and precondition
// failures are still excluded by their error code.
func receiptsPolicy() cache.Policy {
	p := cache.DefaultPolicy()
	p.ErrorRetryCount = receiptsErrorRetryCount
	return p
}

// Registry returns the cache the hooks read through.
func (h *Hooks) Registry() *cache.Registry {
	return h.registry
}

// Focus revalidates focus-enabled resources.
func (h *Hooks) Focus(ctx context.Context) int {
	return h.registry.Focus(ctx)
}

// Reconnect revalidates reconnect-enabled resources.
func (h *Hooks) Reconnect(ctx context.Context) int {
	return h.registry.Reconnect(ctx)
}

// SummaryKey returns the cache key of the campaign summary.
func (h *Hooks) SummaryKey() cache.Key {
	return cache.NewKey(resourceSummary, cache.Public)
}

// CategoriesKey returns the cache key of the category list.
func (h *Hooks) CategoriesKey() cache.Key {
	return cache.NewKey(resourceCategories, cache.Public)
}

// AuditReportKey returns the cache key of one campaign's audit report for the
// caller in ctx. An empty campaign id yields the null key.
func (h *Hooks) AuditReportKey(ctx context.Context, campaignID string) cache.Key {
	return cache.NewKey(resourceAuditReport, h.sessionFor(ctx).Variant(), campaignID)
}

// ReceiptsKey returns the cache key of one campaign's receipts for the caller
// in ctx. An empty campaign id yields the null key.
func (h *Hooks) ReceiptsKey(ctx context.Context, campaignID string) cache.Key {
	return cache.NewKey(resourceReceipts, h.sessionFor(ctx).Variant(), campaignID)
}

func (h *Hooks) sessionFor(ctx context.Context) auth.Session {
	return auth.FromContext(ctx, h.session)
}

// load reads key through the registry, waiting at most renderWait for an
// in-flight fetch.
func (h *Hooks) load(ctx context.Context, key cache.Key, fetcher cache.Fetcher, policy cache.Policy) cache.Snapshot {
	if key.IsNull() {
		return cache.Snapshot{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	waitCtx, cancel := context.WithTimeout(ctx, h.renderWait)
	defer cancel()
	return h.registry.Load(waitCtx, key, fetcher, policy)
}

func campaignPath(campaignID, suffix string) string {
	return "/campaigns/" + url.PathEscape(strings.TrimSpace(campaignID)) + suffix
}
