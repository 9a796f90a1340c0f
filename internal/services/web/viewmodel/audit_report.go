package viewmodel

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const unknownStatus = "unknown"

// RawAuditReport is the payload of GET /campaigns/{id}/audit-report.
type RawAuditReport struct {
	Result *RawAuditReportResult `json:"result"`
}

// RawAuditReportResult is the closed-campaign accounting as sent by the API.
type RawAuditReportResult struct {
	CampaignID   string       `json:"campaign_id"`
	Title        string       `json:"title"`
	Status       string       `json:"status"`
	UrgencyLevel int          `json:"urgency_level"`
	Goal         RawAmount    `json:"goal"`
	TotalRaised  RawAmount    `json:"total_raised"`
	TotalSpent   RawAmount    `json:"total_spent"`
	Donors       int          `json:"donors"`
	ClosedAt     string       `json:"closed_at"`
	GeneratedAt  string       `json:"generated_at"`
	Expenses     []RawExpense `json:"expenses"`
}

// RawExpense is one spending line in an audit report.
type RawExpense struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id"`
	Description string    `json:"description"`
	Amount      RawAmount `json:"amount"`
	SpentAt     string    `json:"spent_at"`
}

// AuditReport is the closed-campaign accounting view.
type AuditReport struct {
	CampaignID   string          `json:"campaignId"`
	Title        string          `json:"title"`
	Status       string          `json:"status"`
	UrgencyLevel int             `json:"urgencyLevel"`
	Urgency      string          `json:"urgency"`
	Goal         decimal.Decimal `json:"goal"`
	TotalRaised  decimal.Decimal `json:"totalRaised"`
	TotalSpent   decimal.Decimal `json:"totalSpent"`
	Balance      decimal.Decimal `json:"balance"`
	Donors       int             `json:"donors"`
	ClosedAt     time.Time       `json:"closedAt"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	Expenses     []Expense       `json:"expenses"`
}

// Expense is one spending line with its resolved category label.
type Expense struct {
	ID           string          `json:"id"`
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	SpentAt      time.Time       `json:"spentAt"`
}

// TransformAuditReport maps the report payload. When the API omits
// total_spent it is derived from the expense lines. Expenses are ordered by
// date, oldest first, then by id so the input order never matters; the slice
// is never nil.
func TransformAuditReport(raw RawAuditReport) AuditReport {
	if raw.Result == nil {
		return AuditReport{
			Status:      unknownStatus,
			Urgency:     GetUrgencyLevel(0),
			Goal:        decimal.Zero,
			TotalRaised: decimal.Zero,
			TotalSpent:  decimal.Zero,
			Balance:     decimal.Zero,
			Expenses:    []Expense{},
		}
	}
	r := raw.Result

	expenses := make([]Expense, 0, len(r.Expenses))
	expenseTotal := decimal.Zero
	for _, item := range r.Expenses {
		amount := item.Amount.Decimal()
		expenseTotal = expenseTotal.Add(amount)
		categoryID := normalizeCategoryID(item.CategoryID)
		expenses = append(expenses, Expense{
			ID:           strings.TrimSpace(item.ID),
			CategoryID:   categoryID,
			CategoryName: GetCategoryName(categoryID),
			Description:  strings.TrimSpace(item.Description),
			Amount:       amount,
			SpentAt:      parseTimestamp(item.SpentAt),
		})
	}
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if !a.SpentAt.Equal(b.SpentAt) {
			return a.SpentAt.Before(b.SpentAt)
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.CategoryID != b.CategoryID {
			return a.CategoryID < b.CategoryID
		}
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c < 0
		}
		return a.Description < b.Description
	})

	spent := expenseTotal
	if r.TotalSpent != "" {
		spent = r.TotalSpent.Decimal()
	}
	raised := r.TotalRaised.Decimal()

	status := strings.ToLower(strings.TrimSpace(r.Status))
	if status == "" {
		status = unknownStatus
	}

	return AuditReport{
		CampaignID:   strings.TrimSpace(r.CampaignID),
		Title:        strings.TrimSpace(r.Title),
		Status:       status,
		UrgencyLevel: r.UrgencyLevel,
		Urgency:      GetUrgencyLevel(r.UrgencyLevel),
		Goal:         r.Goal.Decimal(),
		TotalRaised:  raised,
		TotalSpent:   spent,
		Balance:      raised.Sub(spent),
		Donors:       r.Donors,
		ClosedAt:     parseTimestamp(r.ClosedAt),
		GeneratedAt:  parseTimestamp(r.GeneratedAt),
		Expenses:     expenses,
	}
}
