package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	platformerrors "github.com/louisbranch/giving.space/internal/platform/errors"
	"github.com/louisbranch/giving.space/internal/platform/requestctx"
	"github.com/louisbranch/giving.space/internal/services/web/auth"
	"github.com/louisbranch/giving.space/internal/services/web/platform/httpx"
	"github.com/louisbranch/giving.space/internal/services/web/routepath"
	"github.com/louisbranch/giving.space/internal/services/web/toast"
)

const (
	maxToastBodyBytes = 16 << 10
	maxToastDuration  = time.Hour
)

type toastView struct {
	ID         string        `json:"id"`
	Message    string        `json:"message"`
	Variant    toast.Variant `json:"variant"`
	DurationMS int64         `json:"durationMs,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

func newToastView(t toast.Toast) toastView {
	return toastView{
		ID:         t.ID,
		Message:    t.Message,
		Variant:    t.Variant,
		DurationMS: t.Duration.Milliseconds(),
		CreatedAt:  t.CreatedAt,
	}
}

type toastsResponse struct {
	Toasts []toastView `json:"toasts"`
}

type showToastRequest struct {
	Message    string `json:"message"`
	Variant    string `json:"variant"`
	DurationMS int64  `json:"durationMs"`
}

type revalidatedResponse struct {
	Revalidated int `json:"revalidated"`
}

func (h *handler) handleFocus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, revalidatedResponse{Revalidated: h.hooks.Focus(r.Context())})
}

func (h *handler) handleReconnect(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, revalidatedResponse{Revalidated: h.hooks.Reconnect(r.Context())})
}

// toastQueue returns the queue of the visitor behind r: the bearer credential
// when present, otherwise the client id cookie.
func (h *handler) toastQueue(r *http.Request) *toast.Queue {
	return h.toasts.For(toastOwner(r.Context()))
}

func toastOwner(ctx context.Context) string {
	if session := auth.FromContext(ctx, auth.Anonymous()); session.Authenticated() {
		return "session:" + string(session.Variant())
	}
	if clientID := requestctx.ClientIDFromContext(ctx); clientID != "" {
		return "client:" + clientID
	}
	return "anonymous"
}

// toastDuration converts a millisecond count, clamping it to [0, maxToastDuration].
func toastDuration(ms int64) time.Duration {
	if ms <= 0 {
		return 0
	}
	if ms > maxToastDuration.Milliseconds() {
		return maxToastDuration
	}
	return time.Duration(ms) * time.Millisecond
}

func (h *handler) handleListToasts(w http.ResponseWriter, r *http.Request) {
	toasts := h.toastQueue(r).Toasts()
	views := make([]toastView, 0, len(toasts))
	for _, t := range toasts {
		views = append(views, newToastView(t))
	}
	h.writeJSON(w, http.StatusOK, toastsResponse{Toasts: views})
}

func (h *handler) handleShowToast(w http.ResponseWriter, r *http.Request) {
	var req showToastRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxToastBodyBytes)).Decode(&req); err != nil {
		httpx.WriteError(w, platformerrors.Wrap(platformerrors.CodeInvalidArgument, "malformed toast request", err))
		return
	}
	variant, err := toast.ParseVariant(req.Variant)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	shown, err := h.toastQueue(r).Show(req.Message, variant, toastDuration(req.DurationMS))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, newToastView(shown))
}

// handleDismissToast is idempotent: unknown ids also answer 204.
func (h *handler) handleDismissToast(w http.ResponseWriter, r *http.Request) {
	h.toastQueue(r).Dismiss(r.PathValue(routepath.ToastIDPathValue))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleDismissAllToasts(w http.ResponseWriter, r *http.Request) {
	h.toastQueue(r).DismissAll()
	w.WriteHeader(http.StatusNoContent)
}
