package resource

import (
	"context"

	"github.com/louisbranch/giving.space/internal/services/web/cache"
	"github.com/louisbranch/giving.space/internal/services/web/viewmodel"
)

// AuditReportResult is the audit report handle of one campaign.
type AuditReportResult struct {
	AuditReport *viewmodel.AuditReport
	IsLoading   bool
	Err         error
	// Mutate replaces the cached report payload without a fetch.
	Mutate func(viewmodel.RawAuditReport)
	// Refresh forces a refetch with the credential of the call that returned
	// this result.
	Refresh func(context.Context)
}

// UseAuditReport reads the audit report of campaignID. An empty id performs
// no fetch and returns a nil report that is not loading.
func (h *Hooks) UseAuditReport(ctx context.Context, campaignID string) AuditReportResult {
	key := h.AuditReportKey(ctx, campaignID)
	fetcher := h.auditReportFetcher(ctx, campaignID)

	snap := h.load(ctx, key, fetcher, h.reportPolicy)
	result := AuditReportResult{
		IsLoading: snap.IsLoading,
		Err:       snap.Err,
		Mutate: func(raw viewmodel.RawAuditReport) {
			h.registry.Mutate(key, raw)
		},
		Refresh: func(ctx context.Context) {
			h.registry.RevalidateWith(ctx, key, fetcher, h.reportPolicy)
		},
	}
	if raw, ok := snap.Data.(viewmodel.RawAuditReport); ok {
		report := viewmodel.TransformAuditReport(raw)
		result.AuditReport = &report
	}
	return result
}

// RefreshAuditReport refetches the report of campaignID with the caller's
// credential and waits for the result like UseAuditReport. Each call performs
// exactly one fetch, whether or not the report was read before.
func (h *Hooks) RefreshAuditReport(ctx context.Context, campaignID string) AuditReportResult {
	key := h.AuditReportKey(ctx, campaignID)
	h.registry.RevalidateWith(ctx, key, h.auditReportFetcher(ctx, campaignID), h.reportPolicy)
	return h.UseAuditReport(ctx, campaignID)
}

func (h *Hooks) auditReportFetcher(ctx context.Context, campaignID string) cache.Fetcher {
	token := h.sessionFor(ctx).Token()
	return func(ctx context.Context, _ cache.Key) (any, error) {
		var raw viewmodel.RawAuditReport
		if err := h.api.Get(ctx, campaignPath(campaignID, "/audit-report"), token, &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
}
