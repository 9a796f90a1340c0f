package resource

import (
	"context"

	platformerrors "github.com/louisbranch/giving.space/internal/platform/errors"
	"github.com/louisbranch/giving.space/internal/services/web/cache"
	"github.com/louisbranch/giving.space/internal/services/web/viewmodel"
	"github.com/shopspring/decimal"
)

// ReceiptsResult is the receipts handle of one campaign. Receipts is never nil.
type ReceiptsResult struct {
	Receipts   []viewmodel.Receipt
	TotalSpent decimal.Decimal
	IsLoading  bool
	Err        error
	Refresh    func(context.Context)
}

// UseCampaignReceipts reads the receipts of campaignID from the configured
// receipts source. An empty id performs no fetch.
func (h *Hooks) UseCampaignReceipts(ctx context.Context, campaignID string) ReceiptsResult {
	key := h.ReceiptsKey(ctx, campaignID)
	token := h.sessionFor(ctx).Token()
	fetcher := func(ctx context.Context, _ cache.Key) (any, error) {
		if h.receipts == nil {
			return nil, platformerrors.New(platformerrors.CodeUnknown, "receipts source is not configured")
		}
		return h.receipts.CampaignReceipts(ctx, campaignID, token)
	}

	snap := h.load(ctx, key, fetcher, h.receiptsPolicy)
	raw, _ := snap.Data.([]viewmodel.RawReceipt)
	view := viewmodel.TransformReceipts(raw)
	return ReceiptsResult{
		Receipts:   view.Items,
		TotalSpent: view.TotalSpent,
		IsLoading:  snap.IsLoading,
		Err:        snap.Err,
		Refresh: func(ctx context.Context) {
			h.registry.RevalidateWith(ctx, key, fetcher, h.receiptsPolicy)
		},
	}
}
