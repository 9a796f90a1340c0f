package viewmodel

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawReceipts is the payload of GET /campaigns/{id}/receipts.
type RawReceipts struct {
	Result []RawReceipt `json:"result"`
}

// RawReceipt is one spending receipt as produced by a receipts source.
type RawReceipt struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaign_id"`
	Vendor      string    `json:"vendor"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	Amount      RawAmount `json:"amount"`
	IssuedAt    string    `json:"issued_at"`
	DocumentURL string    `json:"document_url"`
}

// Receipts is the per-campaign receipts view.
type Receipts struct {
	Items      []Receipt       `json:"items"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
}

// Receipt is one receipt row.
type Receipt struct {
	ID           string          `json:"id"`
	CampaignID   string          `json:"campaignId"`
	Vendor       string          `json:"vendor"`
	Description  string          `json:"description"`
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
	IssuedAt     time.Time       `json:"issuedAt"`
	DocumentURL  string          `json:"documentUrl"`
}

// TransformReceipts orders receipts newest first and totals their amounts.
// Malformed amounts count as zero.
func TransformReceipts(raw []RawReceipt) Receipts {
	items := make([]Receipt, 0, len(raw))
	total := decimal.Zero
	for _, item := range raw {
		amount := item.Amount.Decimal()
		total = total.Add(amount)
		categoryID := normalizeCategoryID(item.CategoryID)
		items = append(items, Receipt{
			ID:           strings.TrimSpace(item.ID),
			CampaignID:   strings.TrimSpace(item.CampaignID),
			Vendor:       strings.TrimSpace(item.Vendor),
			Description:  strings.TrimSpace(item.Description),
			CategoryID:   categoryID,
			CategoryName: GetCategoryName(categoryID),
			Amount:       amount,
			IssuedAt:     parseTimestamp(item.IssuedAt),
			DocumentURL:  strings.TrimSpace(item.DocumentURL),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].IssuedAt.Equal(items[j].IssuedAt) {
			return items[i].IssuedAt.After(items[j].IssuedAt)
		}
		return items[i].ID < items[j].ID
	})
	return Receipts{Items: items, TotalSpent: total}
}
