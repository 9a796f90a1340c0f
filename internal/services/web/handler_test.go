package web

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/louisbranch/giving.space/internal/services/web/cache"
	"github.com/louisbranch/giving.space/internal/services/web/fetch"
	"github.com/louisbranch/giving.space/internal/services/web/platform/httpx"
	"github.com/louisbranch/giving.space/internal/services/web/receipts"
	"github.com/louisbranch/giving.space/internal/services/web/resource"
	"github.com/louisbranch/giving.space/internal/services/web/routepath"
	"github.com/louisbranch/giving.space/internal/services/web/toast"
)

var discardLogger = slog.New(slog.DiscardHandler)

// upstream fakes the remote donation API.
type upstream struct {
	summaryHits atomic.Int32
	reportHits  atomic.Int32
	reportCode  atomic.Int32
	lastAuth    atomic.Value
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.lastAuth.Store(r.Header.Get("Authorization"))
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/campaigns/summary":
		u.summaryHits.Add(1)
		_, _ = io.WriteString(w, `{"result":{"total_campaigns":12,"total_contributors":340,"total_goal":50000}}`)
	case r.URL.Path == "/categories":
		_, _ = io.WriteString(w, `{"result":[{"id":"550e8400-e29b-41d4-a716-446655440002","name":""}]}`)
	case strings.HasSuffix(r.URL.Path, "/audit-report"):
		u.reportHits.Add(1)
		if code := int(u.reportCode.Load()); code != 0 {
			w.WriteHeader(code)
			_, _ = io.WriteString(w, `{"message":"campaign is still open"}`)
			return
		}
		_, _ = io.WriteString(w, `{"result":{"campaign_id":"camp-1","title":"Abrigo","status":"closed","urgency_level":5,"total_raised":"1000","total_spent":"400"}}`)
	default:
		http.NotFound(w, r)
	}
}

func (u *upstream) authorization() string {
	value, _ := u.lastAuth.Load().(string)
	return value
}

func newTestHandler(t *testing.T) (http.Handler, *upstream, *toast.Queues) {
	t.Helper()

	up := &upstream{}
	api := httptest.NewServer(up)
	t.Cleanup(api.Close)

	exec, err := fetch.NewExecutor(api.URL, fetch.WithLogger(discardLogger))
	if err != nil {
		t.Fatalf("new executor: %v", err)
	}
	t.Cleanup(func() { _ = exec.Close() })

	reg := cache.NewRegistry(cache.WithLogger(discardLogger))
	t.Cleanup(reg.Close)

	queues := NewToastQueues()
	h, err := NewHandler(Dependencies{
		Hooks:  resource.New(reg, exec, receipts.NewStatic(nil)),
		Toasts: queues,
		Logger: discardLogger,
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return h, up, queues
}

func clientHeaders(clientID string) map[string]string {
	return map[string]string{"Cookie": httpx.ClientCookieName + "=" + clientID}
}

func serve(h http.Handler, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), target); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
}

func TestNewHandlerRequiresHooks(t *testing.T) {
	t.Parallel()

	if _, err := NewHandler(Dependencies{}); err == nil {
		t.Fatal("expected error without hooks")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)
	rr := serve(h, http.MethodGet, routepath.Health, nil, nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("health = %d %q", rr.Code, rr.Body.String())
	}
}

func TestSummaryRouteServesCachedSummary(t *testing.T) {
	t.Parallel()

	h, up, _ := newTestHandler(t)
	for range 2 {
		rr := serve(h, http.MethodGet, routepath.APISummary+"?lang=en", nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		var body struct {
			Summary struct {
				TotalCampaigns  int    `json:"totalCampaigns"`
				ActiveCampaigns int    `json:"activeCampaigns"`
				TotalDonors     int    `json:"totalDonors"`
				TotalRaised     string `json:"totalRaised"`
			} `json:"summary"`
			TotalRaisedDisplay string `json:"totalRaisedDisplay"`
			IsLoading          bool   `json:"isLoading"`
		}
		decodeBody(t, rr, &body)
		if body.TotalRaisedDisplay != "50,000.00" {
			t.Fatalf("total raised display = %q, want 50,000.00", body.TotalRaisedDisplay)
		}
		if body.Summary.TotalCampaigns != 12 || body.Summary.ActiveCampaigns != 12 || body.Summary.TotalDonors != 340 {
			t.Fatalf("summary = %+v", body.Summary)
		}
		if body.Summary.TotalRaised != "50000" {
			t.Fatalf("total raised = %q, want 50000", body.Summary.TotalRaised)
		}
	}
	if hits := up.summaryHits.Load(); hits != 1 {
		t.Fatalf("upstream summary hits = %d, want 1", hits)
	}
}

func TestCategoriesRouteFillsKnownNames(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)
	rr := serve(h, http.MethodGet, routepath.APICategories, nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
	}
	decodeBody(t, rr, &body)
	if len(body.Categories) != 1 || body.Categories[0].Name != "Refugio" {
		t.Fatalf("categories = %+v", body.Categories)
	}
}

func TestAuditReportRouteForwardsBearerToken(t *testing.T) {
	t.Parallel()

	h, up, _ := newTestHandler(t)
	rr := serve(h, http.MethodGet, routepath.AuditReport("camp-1"), nil, map[string]string{
		"Authorization":   "Bearer tok-ana",
		"Accept-Language": "en-US,en;q=0.9",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if got := up.authorization(); got != "Bearer tok-ana" {
		t.Fatalf("upstream authorization = %q", got)
	}
	var body struct {
		AuditReport struct {
			Urgency string `json:"urgency"`
			Balance string `json:"balance"`
		} `json:"auditReport"`
		UrgencyLabel string `json:"urgencyLabel"`
	}
	decodeBody(t, rr, &body)
	if body.AuditReport.Urgency != "Media" || body.AuditReport.Balance != "600" {
		t.Fatalf("report = %+v", body.AuditReport)
	}
	if body.UrgencyLabel != "Medium" {
		t.Fatalf("urgency label = %q, want Medium", body.UrgencyLabel)
	}
}

func TestAuditReportRoutePreconditionFailure(t *testing.T) {
	t.Parallel()

	h, up, _ := newTestHandler(t)
	up.reportCode.Store(http.StatusConflict)

	rr := serve(h, http.MethodGet, routepath.AuditReport("camp-open"), nil, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
	var body struct {
		AuditReport *json.RawMessage `json:"auditReport"`
		Error       struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, rr, &body)
	if body.AuditReport != nil {
		t.Fatal("expected null report")
	}
	if body.Error.Code != "PRECONDITION" || body.Error.Message != "campaign is still open" {
		t.Fatalf("error = %+v", body.Error)
	}

	focus := serve(h, http.MethodPost, routepath.APIEventsFocus, nil, nil)
	if focus.Code != http.StatusOK {
		t.Fatalf("focus status = %d", focus.Code)
	}
	var revalidated struct {
		Revalidated int `json:"revalidated"`
	}
	decodeBody(t, focus, &revalidated)
	if revalidated.Revalidated != 0 {
		t.Fatalf("revalidated = %d, want 0", revalidated.Revalidated)
	}
	if hits := up.reportHits.Load(); hits != 1 {
		t.Fatalf("upstream report hits after focus = %d, want 1", hits)
	}

	up.reportCode.Store(0)
	again := serve(h, http.MethodGet, routepath.AuditReport("camp-open"), nil, nil)
	if again.Code != http.StatusOK {
		t.Fatalf("status on next visit = %d, want 200", again.Code)
	}
	if hits := up.reportHits.Load(); hits != 2 {
		t.Fatalf("upstream report hits = %d, want 2", hits)
	}
}

func TestAuditReportRefreshShowsLocalizedToast(t *testing.T) {
	t.Parallel()

	h, up, queues := newTestHandler(t)

	rr := serve(h, http.MethodPost, routepath.AuditReportRefresh("camp-1"), nil, clientHeaders("client-a"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Toast struct {
			ID      string `json:"id"`
			Message string `json:"message"`
			Variant string `json:"variant"`
		} `json:"toast"`
	}
	decodeBody(t, rr, &body)
	if body.Toast.Message != "Informe actualizado" || body.Toast.Variant != "success" {
		t.Fatalf("toast = %+v", body.Toast)
	}

	up.reportCode.Store(http.StatusBadGateway)
	failed := serve(h, http.MethodPost, routepath.AuditReportRefresh("camp-1")+"?lang=en", nil, clientHeaders("client-a"))
	if failed.Code != http.StatusOK {
		t.Fatalf("status with cached report = %d, want 200", failed.Code)
	}
	decodeBody(t, failed, &body)
	if body.Toast.Message != "Could not refresh the report" || body.Toast.Variant != "error" {
		t.Fatalf("toast = %+v", body.Toast)
	}

	if got := len(queues.For("client:client-a").Toasts()); got != 2 {
		t.Fatalf("queued toasts = %d, want 2", got)
	}
	if hits := up.reportHits.Load(); hits != 2 {
		t.Fatalf("upstream report hits = %d, want 2", hits)
	}
}

func TestReceiptsRoute(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)
	rr := serve(h, http.MethodGet, routepath.Receipts("camp-invierno-2025"), nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body struct {
		Receipts []struct {
			ID string `json:"id"`
		} `json:"receipts"`
		TotalSpent string `json:"totalSpent"`
	}
	decodeBody(t, rr, &body)
	if len(body.Receipts) != 3 || body.Receipts[0].ID != "rcpt-0003" {
		t.Fatalf("receipts = %+v", body.Receipts)
	}
	if body.TotalSpent != "318550.5" {
		t.Fatalf("total spent = %q", body.TotalSpent)
	}

	focus := serve(h, http.MethodPost, routepath.APIEventsFocus, nil, nil)
	var revalidated struct {
		Revalidated int `json:"revalidated"`
	}
	decodeBody(t, focus, &revalidated)
	if revalidated.Revalidated != 1 {
		t.Fatalf("revalidated = %d, want 1", revalidated.Revalidated)
	}
}

func TestUnknownCampaignReceiptsAreEmpty(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)
	rr := serve(h, http.MethodGet, routepath.Receipts("camp-none"), nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"receipts":[]`) {
		t.Fatalf("body = %s, want empty receipts array", rr.Body.String())
	}
}

func TestToastRoutes(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)
	client := clientHeaders("client-a")

	created := serve(h, http.MethodPost, routepath.APIToasts, strings.NewReader(`{"message":"Saved","variant":"success","durationMs":3000}`), client)
	if created.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", created.Code, created.Body.String())
	}
	var shown struct {
		ID         string `json:"id"`
		DurationMS int64  `json:"durationMs"`
	}
	decodeBody(t, created, &shown)
	if shown.ID == "" || shown.DurationMS != 3000 {
		t.Fatalf("toast = %+v", shown)
	}
	serve(h, http.MethodPost, routepath.APIToasts, strings.NewReader(`{"message":"Other"}`), client)

	if rr := serve(h, http.MethodDelete, routepath.Toast(shown.ID), nil, client); rr.Code != http.StatusNoContent {
		t.Fatalf("dismiss status = %d", rr.Code)
	}
	if rr := serve(h, http.MethodDelete, routepath.Toast(shown.ID), nil, client); rr.Code != http.StatusNoContent {
		t.Fatalf("repeat dismiss status = %d", rr.Code)
	}

	list := serve(h, http.MethodGet, routepath.APIToasts, nil, client)
	var listed struct {
		Toasts []struct {
			Message string `json:"message"`
		} `json:"toasts"`
	}
	decodeBody(t, list, &listed)
	if len(listed.Toasts) != 1 || listed.Toasts[0].Message != "Other" {
		t.Fatalf("toasts = %+v", listed.Toasts)
	}

	if rr := serve(h, http.MethodDelete, routepath.APIToasts, nil, client); rr.Code != http.StatusNoContent {
		t.Fatalf("dismiss all status = %d", rr.Code)
	}
	list = serve(h, http.MethodGet, routepath.APIToasts, nil, client)
	if !strings.Contains(list.Body.String(), `"toasts":[]`) {
		t.Fatalf("body = %s, want empty toasts", list.Body.String())
	}
}

func TestToastsAreIsolatedPerClient(t *testing.T) {
	t.Parallel()

	h, _, queues := newTestHandler(t)
	if rr := serve(h, http.MethodPost, routepath.APIToasts, strings.NewReader(`{"message":"Only for a"}`), clientHeaders("client-a")); rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rr.Code)
	}

	list := serve(h, http.MethodGet, routepath.APIToasts, nil, clientHeaders("client-b"))
	if !strings.Contains(list.Body.String(), `"toasts":[]`) {
		t.Fatalf("client-b body = %s, want empty toasts", list.Body.String())
	}
	if rr := serve(h, http.MethodDelete, routepath.APIToasts, nil, clientHeaders("client-b")); rr.Code != http.StatusNoContent {
		t.Fatalf("dismiss all status = %d", rr.Code)
	}
	if got := len(queues.For("client:client-a").Toasts()); got != 1 {
		t.Fatalf("client-a toasts = %d, want 1", got)
	}

	bearer := map[string]string{"Authorization": "Bearer token-a", "Cookie": httpx.ClientCookieName + "=client-a"}
	serve(h, http.MethodPost, routepath.APIToasts, strings.NewReader(`{"message":"Signed in"}`), bearer)
	if got := len(queues.For("client:client-a").Toasts()); got != 1 {
		t.Fatalf("client-a toasts after bearer request = %d, want 1", got)
	}
}

func TestToastQueueIsBounded(t *testing.T) {
	t.Parallel()

	h, _, queues := newTestHandler(t)
	for range maxToastsPerOwner + 5 {
		serve(h, http.MethodPost, routepath.APIToasts, strings.NewReader(`{"message":"again"}`), clientHeaders("client-a"))
	}
	if got := len(queues.For("client:client-a").Toasts()); got != maxToastsPerOwner {
		t.Fatalf("toasts = %d, want %d", got, maxToastsPerOwner)
	}
}

func TestShowToastClampsDuration(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)
	for body, want := range map[string]int64{
		`{"message":"x","durationMs":9223372036854775807}`: maxToastDuration.Milliseconds(),
		`{"message":"x","durationMs":-5}`:                  0,
		`{"message":"x","durationMs":1500}`:                1500,
	} {
		rr := serve(h, http.MethodPost, routepath.APIToasts, strings.NewReader(body), clientHeaders("client-a"))
		if rr.Code != http.StatusCreated {
			t.Fatalf("body %q status = %d", body, rr.Code)
		}
		var shown struct {
			DurationMS int64 `json:"durationMs"`
		}
		decodeBody(t, rr, &shown)
		if shown.DurationMS != want {
			t.Fatalf("body %q duration = %d, want %d", body, shown.DurationMS, want)
		}
	}
}

func TestShowToastRejectsBadInput(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)
	for _, body := range []string{`{"message":"x","variant":"warning"}`, `not json`} {
		rr := serve(h, http.MethodPost, routepath.APIToasts, strings.NewReader(body), nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %q status = %d, want 400", body, rr.Code)
		}
	}
}

func TestMethodMismatchIsRejected(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)
	rr := serve(h, http.MethodPost, routepath.APISummary, nil, nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}
