package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates a requested receipt is missing.
	ErrNotFound = errors.New("record not found")
)

// Receipt stores one spending receipt attached to a campaign.
type Receipt struct {
	ID          string
	CampaignID  string
	Vendor      string
	Description string
	CategoryID  string
	Amount      decimal.Decimal
	IssuedAt    time.Time
	DocumentURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReceiptStore persists campaign receipts.
type ReceiptStore interface {
	Close() error
	PutReceipt(ctx context.Context, receipt Receipt) error
	GetReceipt(ctx context.Context, campaignID, receiptID string) (Receipt, error)
	ListCampaignReceipts(ctx context.Context, campaignID string) ([]Receipt, error)
	DeleteReceipt(ctx context.Context, campaignID, receiptID string) error
}
