// Package routepath stores canonical HTTP paths for the web preview surface.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Health                       = "/up"
	APIPrefix                    = "/api/"
	APISummary                   = "/api/summary"
	APICategories                = "/api/categories"
	CampaignsPrefix              = "/api/campaigns/"
	APIAuditReportPattern        = CampaignsPrefix + "{campaignID}/audit-report"
	APIAuditReportRefreshPattern = CampaignsPrefix + "{campaignID}/audit-report/refresh"
	APIReceiptsPattern           = CampaignsPrefix + "{campaignID}/receipts"
	APIEventsFocus               = "/api/events/focus"
	APIEventsReconnect           = "/api/events/reconnect"
	APIToasts                    = "/api/toasts"
	ToastsPrefix                 = "/api/toasts/"
	APIToastPattern              = ToastsPrefix + "{toastID}"
)

// CampaignIDPathValue is the wildcard name used by campaign patterns.
const CampaignIDPathValue = "campaignID"

// ToastIDPathValue is the wildcard name used by toast patterns.
const ToastIDPathValue = "toastID"

// AuditReport returns the audit report route for one campaign.
func AuditReport(campaignID string) string {
	return CampaignsPrefix + escapeSegment(campaignID) + "/audit-report"
}

// AuditReportRefresh returns the audit report refresh route for one campaign.
func AuditReportRefresh(campaignID string) string {
	return AuditReport(campaignID) + "/refresh"
}

// Receipts returns the receipts route for one campaign.
func Receipts(campaignID string) string {
	return CampaignsPrefix + escapeSegment(campaignID) + "/receipts"
}

// Toast returns the route of one toast.
func Toast(toastID string) string {
	return ToastsPrefix + escapeSegment(toastID)
}

func escapeSegment(raw string) string {
	return url.PathEscape(strings.TrimSpace(raw))
}
