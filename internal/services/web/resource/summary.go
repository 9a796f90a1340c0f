package resource

import (
	"context"

	"github.com/louisbranch/giving.space/internal/services/web/cache"
	"github.com/louisbranch/giving.space/internal/services/web/viewmodel"
)

// SummaryResult is the campaign summary handle.
type SummaryResult struct {
	Summary   *viewmodel.Summary
	IsLoading bool
	IsError   bool
	Err       error
}

// UseSummary reads the platform-wide campaign summary.
func (h *Hooks) UseSummary(ctx context.Context) SummaryResult {
	snap := h.load(ctx, h.SummaryKey(), h.fetchSummary, h.summaryPolicy)

	result := SummaryResult{
		IsLoading: snap.IsLoading,
		IsError:   snap.Err != nil,
		Err:       snap.Err,
	}
	if raw, ok := snap.Data.(viewmodel.RawSummary); ok {
		summary := viewmodel.TransformSummary(raw)
		result.Summary = &summary
	}
	return result
}

func (h *Hooks) fetchSummary(ctx context.Context, _ cache.Key) (any, error) {
	var raw viewmodel.RawSummary
	if err := h.api.Get(ctx, "/campaigns/summary", "", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
