package viewmodel

import "github.com/shopspring/decimal"

// RawSummary is the payload of GET /campaigns/summary.
type RawSummary struct {
	Result *RawSummaryResult `json:"result"`
}

// RawSummaryResult holds the platform-wide aggregate counts.
type RawSummaryResult struct {
	TotalCampaigns    int       `json:"total_campaigns"`
	TotalContributors int       `json:"total_contributors"`
	TotalGoal         RawAmount `json:"total_goal"`
}

// Summary is the dashboard aggregate view.
type Summary struct {
	TotalCampaigns  int             `json:"totalCampaigns"`
	ActiveCampaigns int             `json:"activeCampaigns"`
	TotalRaised     decimal.Decimal `json:"totalRaised"`
	TotalDonors     int             `json:"totalDonors"`
	ThisMonthRaised decimal.Decimal `json:"thisMonthRaised"`
	ThisMonthDonors int             `json:"thisMonthDonors"`
}

// TransformSummary maps the aggregate payload into the dashboard view.
// The backend does not report active or monthly figures yet: every campaign
// counts as active and the monthly figures are zero.
func TransformSummary(raw RawSummary) Summary {
	if raw.Result == nil {
		return Summary{TotalRaised: decimal.Zero, ThisMonthRaised: decimal.Zero}
	}
	return Summary{
		TotalCampaigns:  raw.Result.TotalCampaigns,
		ActiveCampaigns: raw.Result.TotalCampaigns,
		TotalRaised:     raw.Result.TotalGoal.Decimal(),
		TotalDonors:     raw.Result.TotalContributors,
		ThisMonthRaised: decimal.Zero,
		ThisMonthDonors: 0,
	}
}
