package web

import (
	"net/http"

	platformerrors "github.com/louisbranch/giving.space/internal/platform/errors"
	"github.com/louisbranch/giving.space/internal/services/web/platform/httpx"
	"github.com/louisbranch/giving.space/internal/services/web/resource"
	"github.com/louisbranch/giving.space/internal/services/web/routepath"
	"github.com/louisbranch/giving.space/internal/services/web/toast"
	"github.com/louisbranch/giving.space/internal/services/web/viewmodel"
	"github.com/shopspring/decimal"
)

type summaryResponse struct {
	Summary            *viewmodel.Summary `json:"summary"`
	TotalRaisedDisplay string             `json:"totalRaisedDisplay,omitempty"`
	IsLoading          bool               `json:"isLoading"`
	Error              *httpx.ErrorBody   `json:"error,omitempty"`
}

type categoriesResponse struct {
	Categories []viewmodel.Category `json:"categories"`
	IsLoading  bool                 `json:"isLoading"`
	Error      *httpx.ErrorBody     `json:"error,omitempty"`
}

type auditReportResponse struct {
	AuditReport  *viewmodel.AuditReport `json:"auditReport"`
	UrgencyLabel string                 `json:"urgencyLabel,omitempty"`
	IsLoading    bool                   `json:"isLoading"`
	Error        *httpx.ErrorBody       `json:"error,omitempty"`
	Toast        *toastView             `json:"toast,omitempty"`
}

type receiptsResponse struct {
	Receipts          []viewmodel.Receipt `json:"receipts"`
	TotalSpent        decimal.Decimal     `json:"totalSpent"`
	TotalSpentDisplay string              `json:"totalSpentDisplay"`
	IsLoading         bool                `json:"isLoading"`
	Error             *httpx.ErrorBody    `json:"error,omitempty"`
}

func newAuditReportResponse(r *http.Request, res resource.AuditReportResult) auditReportResponse {
	out := auditReportResponse{
		AuditReport: res.AuditReport,
		IsLoading:   res.IsLoading,
		Error:       httpx.NewErrorBody(res.Err),
	}
	if res.AuditReport != nil {
		out.UrgencyLabel = viewmodel.LocalizedUrgencyLevel(resolveTag(r), res.AuditReport.UrgencyLevel)
	}
	return out
}

// readStatus maps a hook result to an HTTP status. Cached data wins over a
// newer failure, a failure without data uses its code, and a read still in
// flight is accepted.
func readStatus(hasData, isLoading bool, err error) int {
	switch {
	case hasData:
		return http.StatusOK
	case err != nil:
		return platformerrors.CodeOf(err).HTTPStatus()
	case isLoading:
		return http.StatusAccepted
	default:
		return http.StatusOK
	}
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	res := h.hooks.UseSummary(r.Context())
	out := summaryResponse{
		Summary:   res.Summary,
		IsLoading: res.IsLoading,
		Error:     httpx.NewErrorBody(res.Err),
	}
	if res.Summary != nil {
		out.TotalRaisedDisplay = viewmodel.FormatAmount(resolveTag(r), res.Summary.TotalRaised)
	}
	h.writeJSON(w, readStatus(res.Summary != nil, res.IsLoading, res.Err), out)
}

func (h *handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	res := h.hooks.UseCategories(r.Context())
	h.writeJSON(w, readStatus(len(res.Categories) > 0, res.IsLoading, res.Err), categoriesResponse{
		Categories: res.Categories,
		IsLoading:  res.IsLoading,
		Error:      httpx.NewErrorBody(res.Err),
	})
}

func (h *handler) handleAuditReport(w http.ResponseWriter, r *http.Request) {
	res := h.hooks.UseAuditReport(r.Context(), r.PathValue(routepath.CampaignIDPathValue))
	h.writeJSON(w, readStatus(res.AuditReport != nil, res.IsLoading, res.Err), newAuditReportResponse(r, res))
}

// handleAuditReportRefresh forces a report refetch and reports the outcome
// through the toast queue.
func (h *handler) handleAuditReportRefresh(w http.ResponseWriter, r *http.Request) {
	res := h.hooks.RefreshAuditReport(r.Context(), r.PathValue(routepath.CampaignIDPathValue))

	var notice *toastView
	if !res.IsLoading {
		tag := resolveTag(r)
		queue := h.toastQueue(r)
		var (
			shown toast.Toast
			err   error
		)
		if res.Err != nil {
			shown, err = queue.ShowError(localize(tag, "toast.report_refresh_failed"))
		} else {
			shown, err = queue.ShowSuccess(localize(tag, "toast.report_refreshed"))
		}
		if err != nil {
			h.logger.Warn("show refresh toast", "error", err)
		} else {
			view := newToastView(shown)
			notice = &view
		}
	}

	out := newAuditReportResponse(r, res)
	out.Toast = notice
	h.writeJSON(w, readStatus(res.AuditReport != nil, res.IsLoading, res.Err), out)
}

func (h *handler) handleReceipts(w http.ResponseWriter, r *http.Request) {
	res := h.hooks.UseCampaignReceipts(r.Context(), r.PathValue(routepath.CampaignIDPathValue))
	hasData := len(res.Receipts) > 0 || (res.Err == nil && !res.IsLoading)
	h.writeJSON(w, readStatus(hasData, res.IsLoading, res.Err), receiptsResponse{
		Receipts:          res.Receipts,
		TotalSpent:        res.TotalSpent,
		TotalSpentDisplay: viewmodel.FormatAmount(resolveTag(r), res.TotalSpent),
		IsLoading:         res.IsLoading,
		Error:             httpx.NewErrorBody(res.Err),
	})
}
