package receipts

import (
	"context"
	"slices"
	"strings"

	"github.com/louisbranch/giving.space/internal/services/web/viewmodel"
)

// Static serves receipts from an in-memory table.
type Static struct {
	byCampaign map[string][]viewmodel.RawReceipt
}

// NewStatic builds a source over rows, grouped by campaign. A nil rows uses
// the built-in sample table.
func NewStatic(rows []viewmodel.RawReceipt) *Static {
	if rows == nil {
		rows = sampleReceipts
	}
	byCampaign := make(map[string][]viewmodel.RawReceipt)
	for _, row := range rows {
		id := strings.TrimSpace(row.CampaignID)
		byCampaign[id] = append(byCampaign[id], row)
	}
	return &Static{byCampaign: byCampaign}
}

// CampaignReceipts implements Source. Unknown campaigns have no receipts.
func (s *Static) CampaignReceipts(ctx context.Context, campaignID, _ string) ([]viewmodel.RawReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(s.byCampaign[strings.TrimSpace(campaignID)]), nil
}

var sampleReceipts = []viewmodel.RawReceipt{
	{
		ID:          "rcpt-0001",
		CampaignID:  "camp-invierno-2025",
		Vendor:      "Distribuidora Andes",
		Description: "Frazadas y colchones",
		CategoryID:  "550e8400-e29b-41d4-a716-446655440002",
		Amount:      "185000.00",
		IssuedAt:    "2025-06-12T14:00:00Z",
	},
	{
		ID:          "rcpt-0002",
		CampaignID:  "camp-invierno-2025",
		Vendor:      "Mercado Central",
		Description: "Alimentos no perecederos",
		CategoryID:  "550e8400-e29b-41d4-a716-446655440001",
		Amount:      "92350.50",
		IssuedAt:    "2025-06-20T10:30:00Z",
	},
	{
		ID:          "rcpt-0003",
		CampaignID:  "camp-invierno-2025",
		Vendor:      "Farmacia del Pueblo",
		Description: "Botiquines",
		CategoryID:  "550e8400-e29b-41d4-a716-446655440003",
		Amount:      "41200.00",
		IssuedAt:    "2025-07-02T09:15:00Z",
	},
	{
		ID:          "rcpt-0101",
		CampaignID:  "camp-escuelas-rurales",
		Vendor:      "Librería Escolar",
		Description: "Útiles escolares",
		CategoryID:  "550e8400-e29b-41d4-a716-446655440004",
		Amount:      "67800.00",
		IssuedAt:    "2025-03-01T12:00:00Z",
	},
}
