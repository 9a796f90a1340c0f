// Package receipts provides the swappable sources behind the campaign
// receipts resource.
//
// The remote API does not serve receipts for every campaign yet, so the web
// process can read them from the API, from a built-in table, or from a local
// SQLite ledger without changing the receipts hook.
package receipts

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	platformerrors "github.com/louisbranch/giving.space/internal/platform/errors"
	"github.com/louisbranch/giving.space/internal/services/web/fetch"
	webstorage "github.com/louisbranch/giving.space/internal/services/web/storage"
	"github.com/louisbranch/giving.space/internal/services/web/viewmodel"
)

// Kind names a receipts source implementation.
type Kind string

const (
	KindRemote Kind = "remote"
	KindStatic Kind = "static"
	KindSQLite Kind = "sqlite"
)

// ParseKind validates a configured source name.
func ParseKind(raw string) (Kind, error) {
	switch kind := Kind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case KindRemote, KindStatic, KindSQLite:
		return kind, nil
	case "":
		return KindRemote, nil
	default:
		return "", fmt.Errorf("unknown receipts source %q", raw)
	}
}

// Source fetches the receipts of one campaign. token is the caller's bearer
// credential and may be empty.
type Source interface {
	CampaignReceipts(ctx context.Context, campaignID, token string) ([]viewmodel.RawReceipt, error)
}

// Remote reads receipts from GET /campaigns/{id}/receipts.
type Remote struct {
	exec *fetch.Executor
}

// NewRemote builds a remote source over exec.
func NewRemote(exec *fetch.Executor) *Remote {
	return &Remote{exec: exec}
}

// CampaignReceipts implements Source.
func (r *Remote) CampaignReceipts(ctx context.Context, campaignID, token string) ([]viewmodel.RawReceipt, error) {
	if r == nil || r.exec == nil {
		return nil, platformerrors.New(platformerrors.CodeUnknown, "receipts executor is not configured")
	}
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidArgument, "campaign id is required")
	}
	var raw viewmodel.RawReceipts
	if err := r.exec.Get(ctx, "/campaigns/"+url.PathEscape(campaignID)+"/receipts", token, &raw); err != nil {
		return nil, err
	}
	return raw.Result, nil
}

// Ledger reads receipts recorded in the local receipts store.
type Ledger struct {
	store webstorage.ReceiptStore
}

// NewLedger builds a source over store.
func NewLedger(store webstorage.ReceiptStore) *Ledger {
	return &Ledger{store: store}
}

// CampaignReceipts implements Source. The ledger is local, so token is unused.
func (l *Ledger) CampaignReceipts(ctx context.Context, campaignID, _ string) ([]viewmodel.RawReceipt, error) {
	if l == nil || l.store == nil {
		return nil, platformerrors.New(platformerrors.CodeUnknown, "receipts store is not configured")
	}
	rows, err := l.store.ListCampaignReceipts(ctx, campaignID)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.CodeTransport, "read receipts ledger", err)
	}
	out := make([]viewmodel.RawReceipt, 0, len(rows))
	for _, row := range rows {
		out = append(out, viewmodel.RawReceipt{
			ID:          row.ID,
			CampaignID:  row.CampaignID,
			Vendor:      row.Vendor,
			Description: row.Description,
			CategoryID:  row.CategoryID,
			Amount:      viewmodel.RawAmount(row.Amount.String()),
			IssuedAt:    row.IssuedAt.UTC().Format(time.RFC3339),
			DocumentURL: row.DocumentURL,
		})
	}
	return out, nil
}
