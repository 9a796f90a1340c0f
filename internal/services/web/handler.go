package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/louisbranch/giving.space/internal/services/web/platform/httpx"
	"github.com/louisbranch/giving.space/internal/services/web/resource"
	"github.com/louisbranch/giving.space/internal/services/web/routepath"
	"github.com/louisbranch/giving.space/internal/services/web/toast"
)

// maxToastsPerOwner bounds the visible toasts of one visitor.
const maxToastsPerOwner = 20

// Dependencies are the collaborators shared by every route.
type Dependencies struct {
	Hooks *resource.Hooks
	// Toasts holds one notification queue per visitor.
	Toasts *toast.Queues
	Logger *slog.Logger
}

type handler struct {
	hooks  *resource.Hooks
	toasts *toast.Queues
	logger *slog.Logger
}

// NewHandler creates the HTTP handler for the preview surface.
func NewHandler(deps Dependencies) (http.Handler, error) {
	if deps.Hooks == nil {
		return nil, errors.New("resource hooks are required")
	}
	if deps.Toasts == nil {
		deps.Toasts = NewToastQueues()
	}
	h := &handler{
		hooks:  deps.Hooks,
		toasts: deps.Toasts,
		logger: loggerOrDefault(deps.Logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+routepath.Health, h.handleHealth)
	mux.HandleFunc("GET "+routepath.APISummary, h.handleSummary)
	mux.HandleFunc("GET "+routepath.APICategories, h.handleCategories)
	mux.HandleFunc("GET "+routepath.APIAuditReportPattern, h.handleAuditReport)
	mux.HandleFunc("POST "+routepath.APIAuditReportRefreshPattern, h.handleAuditReportRefresh)
	mux.HandleFunc("GET "+routepath.APIReceiptsPattern, h.handleReceipts)
	mux.HandleFunc("POST "+routepath.APIEventsFocus, h.handleFocus)
	mux.HandleFunc("POST "+routepath.APIEventsReconnect, h.handleReconnect)
	mux.HandleFunc("GET "+routepath.APIToasts, h.handleListToasts)
	mux.HandleFunc("POST "+routepath.APIToasts, h.handleShowToast)
	mux.HandleFunc("DELETE "+routepath.APIToasts, h.handleDismissAllToasts)
	mux.HandleFunc("DELETE "+routepath.APIToastPattern, h.handleDismissToast)

	return httpx.Chain(mux,
		httpx.RecoverPanic(h.logger),
		httpx.RequestID(),
		httpx.LogRequests(h.logger),
		httpx.BearerToken(),
		httpx.ClientID(),
	), nil
}

// NewToastQueues builds per-visitor toast queues with the surface defaults.
func NewToastQueues() *toast.Queues {
	return toast.NewQueues(toast.DefaultIdleTTL, toast.DefaultOwnerCapacity, toast.WithLimit(maxToastsPerOwner))
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := httpx.WriteJSON(w, status, payload); err != nil {
		h.logger.Warn("write json response", "error", err)
	}
}
