package resource

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	platformerrors "github.com/louisbranch/giving.space/internal/platform/errors"
	"github.com/louisbranch/giving.space/internal/platform/requestctx"
	"github.com/louisbranch/giving.space/internal/services/web/cache"
	"github.com/louisbranch/giving.space/internal/services/web/receipts"
	"github.com/louisbranch/giving.space/internal/services/web/viewmodel"
	"github.com/shopspring/decimal"
)

func signedToken(t *testing.T, claims jwt.RegisteredClaims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type apiCall struct {
	path  string
	token string
}

// fakeAPI answers GETs from canned JSON bodies or errors keyed by path.
type fakeAPI struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  []apiCall
	block  chan struct{}
}

func (f *fakeAPI) Get(ctx context.Context, path, token string, target any) error {
	f.mu.Lock()
	f.calls = append(f.calls, apiCall{path: path, token: token})
	body, hasBody := f.bodies[path]
	err := f.errs[path]
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	if !hasBody {
		return platformerrors.New(platformerrors.CodeNotFound, "not found")
	}
	return json.Unmarshal([]byte(body), target)
}

func (f *fakeAPI) setError(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = map[string]error{}
	}
	f.errs[path] = err
}

func (f *fakeAPI) setBody(path, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.bodies[path] = body
	delete(f.errs, path)
}

func (f *fakeAPI) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.path == path {
			n++
		}
	}
	return n
}

func (f *fakeAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) lastToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1].token
}

func newTestHooks(api *fakeAPI, opts ...Option) *Hooks {
	reg := cache.NewRegistry(cache.WithLogger(slog.New(slog.DiscardHandler)))
	return New(reg, api, receipts.NewStatic(nil), opts...)
}

const summaryBody = `{"result":{"total_campaigns":12,"total_contributors":340,"total_goal":50000}}`

const reportBody = `{"result":{
	"campaign_id":"camp-invierno-2025",
	"title":"Abrigo de invierno",
	"status":"CLOSED",
	"urgency_level":8,
	"goal":"400000",
	"total_raised":"350000",
	"expenses":[
		{"id":"e2","category_id":"550e8400-e29b-41d4-a716-446655440002","amount":"100000","spent_at":"2025-07-02"},
		{"id":"e1","category_id":"550e8400-e29b-41d4-a716-446655440001","amount":"50000","spent_at":"2025-07-01"}
	]
}}`

func TestUseSummaryTransformsPayload(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{bodies: map[string]string{"/campaigns/summary": summaryBody}}
	hooks := newTestHooks(api)

	got := hooks.UseSummary(context.Background())
	if got.IsLoading || got.IsError || got.Err != nil {
		t.Fatalf("result = %+v, want resolved", got)
	}
	if got.Summary == nil {
		t.Fatal("expected summary")
	}
	s := *got.Summary
	if s.TotalCampaigns != 12 || s.ActiveCampaigns != 12 || s.TotalDonors != 340 {
		t.Fatalf("summary counts = %+v", s)
	}
	if !s.TotalRaised.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("total raised = %s, want 50000", s.TotalRaised)
	}
	if !s.ThisMonthRaised.IsZero() || s.ThisMonthDonors != 0 {
		t.Fatalf("monthly figures = %s/%d, want zero", s.ThisMonthRaised, s.ThisMonthDonors)
	}
	if token := api.lastToken(); token != "" {
		t.Fatalf("summary token = %q, want public fetch", token)
	}
}

func TestUseSummaryServesCacheWhileFresh(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{bodies: map[string]string{"/campaigns/summary": summaryBody}}
	hooks := newTestHooks(api, WithSummaryFreshFor(time.Hour))

	hooks.UseSummary(context.Background())
	hooks.UseSummary(context.Background())
	if n := api.callCount("/campaigns/summary"); n != 1 {
		t.Fatalf("summary fetches = %d, want 1", n)
	}
}

func TestUseSummaryConcurrentCallersShareFetch(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		bodies: map[string]string{"/campaigns/summary": summaryBody},
		block:  make(chan struct{}),
	}
	hooks := newTestHooks(api, WithRenderWait(5*time.Second))

	const callers = 5
	var wg sync.WaitGroup
	results := make([]SummaryResult, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = hooks.UseSummary(context.Background())
		}()
	}
	for api.totalCalls() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(api.block)
	wg.Wait()

	if n := api.callCount("/campaigns/summary"); n != 1 {
		t.Fatalf("summary fetches = %d, want 1", n)
	}
	for i, res := range results {
		if res.Summary == nil || res.Summary.TotalCampaigns != 12 {
			t.Fatalf("caller %d result = %+v, want shared summary", i, res)
		}
	}
}

func TestUseSummaryReportsLoadingAfterRenderWait(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		bodies: map[string]string{"/campaigns/summary": summaryBody},
		block:  make(chan struct{}),
	}
	defer close(api.block)
	hooks := newTestHooks(api, WithRenderWait(10*time.Millisecond))

	got := hooks.UseSummary(context.Background())
	if !got.IsLoading {
		t.Fatalf("result = %+v, want loading", got)
	}
	if got.Summary != nil {
		t.Fatal("expected no summary before the first fetch resolves")
	}
}

func TestUseSummaryError(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{errs: map[string]error{
		"/campaigns/summary": platformerrors.New(platformerrors.CodeNotFound, "missing"),
	}}
	hooks := newTestHooks(api)

	got := hooks.UseSummary(context.Background())
	if !got.IsError || got.Err == nil {
		t.Fatalf("result = %+v, want error", got)
	}
	if got.Summary != nil {
		t.Fatal("expected nil summary on first failure")
	}
}

func TestUseCategoriesNeverNil(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{errs: map[string]error{
		"/categories": platformerrors.New(platformerrors.CodeNotFound, "missing"),
	}}
	hooks := newTestHooks(api)

	got := hooks.UseCategories(context.Background())
	if got.Err == nil {
		t.Fatal("expected categories error")
	}
	if got.Categories == nil {
		t.Fatal("expected non-nil categories on error")
	}
}

func TestUseCategoriesSortedByName(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{bodies: map[string]string{"/categories": `{"result":[
		{"id":"b","name":"Salud"},
		{"id":"a","name":"Agua"}
	]}`}}
	hooks := newTestHooks(api)

	got := hooks.UseCategories(context.Background())
	if len(got.Categories) != 2 {
		t.Fatalf("categories = %+v, want 2", got.Categories)
	}
	if got.Categories[0].Name != "Agua" || got.Categories[1].Name != "Salud" {
		t.Fatalf("categories order = %+v", got.Categories)
	}
}

func TestUseAuditReportEmptyIDSkipsFetch(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	hooks := newTestHooks(api)

	got := hooks.UseAuditReport(context.Background(), "")
	if api.totalCalls() != 0 {
		t.Fatalf("fetches = %d, want 0", api.totalCalls())
	}
	if got.IsLoading {
		t.Fatal("expected not loading for empty id")
	}
	if got.AuditReport != nil || got.Err != nil {
		t.Fatalf("result = %+v, want empty", got)
	}
}

func TestUseAuditReportTransformsPayload(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{bodies: map[string]string{"/campaigns/camp-invierno-2025/audit-report": reportBody}}
	hooks := newTestHooks(api)

	got := hooks.UseAuditReport(context.Background(), "camp-invierno-2025")
	if got.Err != nil || got.AuditReport == nil {
		t.Fatalf("result = %+v, want report", got)
	}
	report := got.AuditReport
	if report.Status != "closed" || report.Urgency != "Alta" {
		t.Fatalf("status/urgency = %q/%q", report.Status, report.Urgency)
	}
	if !report.TotalSpent.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("total spent = %s, want 150000", report.TotalSpent)
	}
	if !report.Balance.Equal(decimal.NewFromInt(200000)) {
		t.Fatalf("balance = %s, want 200000", report.Balance)
	}
	if len(report.Expenses) != 2 || report.Expenses[0].ID != "e1" {
		t.Fatalf("expenses = %+v, want oldest first", report.Expenses)
	}
	if report.Expenses[1].CategoryName != "Refugio" {
		t.Fatalf("category name = %q, want Refugio", report.Expenses[1].CategoryName)
	}
}

func TestUseAuditReportPreconditionFailureIsReadAgainOnMount(t *testing.T) {
	t.Parallel()

	path := "/campaigns/camp-abierta/audit-report"
	api := &fakeAPI{errs: map[string]error{
		path: platformerrors.New(platformerrors.CodePrecondition, "campaign is still open"),
	}}
	hooks := newTestHooks(api)
	ctx := context.Background()

	first := hooks.UseAuditReport(ctx, "camp-abierta")
	if platformerrors.CodeOf(first.Err) != platformerrors.CodePrecondition {
		t.Fatalf("error = %v, want precondition", first.Err)
	}
	if first.IsLoading {
		t.Fatal("expected settled failure")
	}

	if started := hooks.Focus(ctx); started != 0 {
		t.Fatalf("focus started %d fetches, want 0", started)
	}
	hooks.Reconnect(ctx)
	if n := api.callCount(path); n != 1 {
		t.Fatalf("report fetches after focus = %d, want 1", n)
	}

	api.setBody(path, reportBody)
	got := hooks.UseAuditReport(ctx, "camp-abierta")
	if got.Err != nil || got.AuditReport == nil {
		t.Fatalf("result after campaign closed = %+v, want report", got)
	}
	if n := api.callCount(path); n != 2 {
		t.Fatalf("report fetches = %d, want 2", n)
	}

	hooks.UseAuditReport(ctx, "camp-abierta")
	if n := api.callCount(path); n != 2 {
		t.Fatalf("report fetches after resolved read = %d, want 2", n)
	}
}

func TestAuditReportIsNotSharedBetweenForgedTokens(t *testing.T) {
	t.Parallel()

	path := "/campaigns/camp-invierno-2025/audit-report"
	api := &fakeAPI{bodies: map[string]string{path: reportBody}}
	hooks := newTestHooks(api)

	claims := jwt.RegisteredClaims{Subject: "victim"}
	issued := requestctx.WithBearerToken(context.Background(), signedToken(t, claims, "real-server-secret"))
	forged := requestctx.WithBearerToken(context.Background(), signedToken(t, claims, "attacker-guess"))

	if got := hooks.UseAuditReport(issued, "camp-invierno-2025"); got.AuditReport == nil {
		t.Fatalf("result = %+v, want report", got)
	}
	api.setError(path, platformerrors.New(platformerrors.CodeTransport, "unauthorized"))

	got := hooks.UseAuditReport(forged, "camp-invierno-2025")
	if got.AuditReport != nil {
		t.Fatalf("forged token read cached report %q", got.AuditReport.Title)
	}
	if n := api.callCount(path); n != 2 {
		t.Fatalf("report fetches = %d, want 2", n)
	}
}

func TestRefreshAuditReportUsesCurrentToken(t *testing.T) {
	t.Parallel()

	path := "/campaigns/camp-invierno-2025/audit-report"
	api := &fakeAPI{bodies: map[string]string{path: reportBody}}
	hooks := newTestHooks(api)

	tokenA := requestctx.WithBearerToken(context.Background(), "token-a")
	tokenB := requestctx.WithBearerToken(context.Background(), "token-b")

	first := hooks.UseAuditReport(tokenA, "camp-invierno-2025")
	hooks.RefreshAuditReport(tokenB, "camp-invierno-2025")
	if token := api.lastToken(); token != "token-b" {
		t.Fatalf("refresh token = %q, want token-b", token)
	}

	first.Refresh(tokenA)
	hooks.registry.Wait(context.Background(), hooks.AuditReportKey(tokenA, "camp-invierno-2025"))
	if token := api.lastToken(); token != "token-a" {
		t.Fatalf("handle refresh token = %q, want token-a", token)
	}
}

func TestUseAuditReportMutateReplacesData(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{bodies: map[string]string{"/campaigns/camp-invierno-2025/audit-report": reportBody}}
	hooks := newTestHooks(api)
	ctx := context.Background()

	first := hooks.UseAuditReport(ctx, "camp-invierno-2025")
	first.Mutate(viewmodel.RawAuditReport{Result: &viewmodel.RawAuditReportResult{
		CampaignID: "camp-invierno-2025",
		Title:      "Editado",
		Status:     "closed",
	}})

	got := hooks.UseAuditReport(ctx, "camp-invierno-2025")
	if got.AuditReport == nil || got.AuditReport.Title != "Editado" {
		t.Fatalf("report = %+v, want mutated title", got.AuditReport)
	}
	if n := api.totalCalls(); n != 1 {
		t.Fatalf("fetches = %d, want 1", n)
	}
}

func TestAuditReportKeysPartitionBySession(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{bodies: map[string]string{"/campaigns/camp-invierno-2025/audit-report": reportBody}}
	hooks := newTestHooks(api)

	anon := context.Background()
	ana := requestctx.WithBearerToken(context.Background(), "token-ana")
	beto := requestctx.WithBearerToken(context.Background(), "token-beto")

	if hooks.AuditReportKey(ana, "c") == hooks.AuditReportKey(beto, "c") {
		t.Fatal("expected distinct keys per subject")
	}
	if hooks.AuditReportKey(anon, "c") == hooks.AuditReportKey(ana, "c") {
		t.Fatal("expected public and user keys to differ")
	}
	if !hooks.AuditReportKey(ana, "").IsNull() {
		t.Fatal("expected null key for empty campaign id")
	}

	hooks.UseAuditReport(ana, "camp-invierno-2025")
	if token := api.lastToken(); token != "token-ana" {
		t.Fatalf("token = %q, want token-ana", token)
	}
	hooks.UseAuditReport(beto, "camp-invierno-2025")
	hooks.UseAuditReport(ana, "camp-invierno-2025")
	if n := api.totalCalls(); n != 2 {
		t.Fatalf("fetches = %d, want one per subject", n)
	}
}

func TestUseCampaignReceipts(t *testing.T) {
	t.Parallel()

	hooks := newTestHooks(&fakeAPI{})

	got := hooks.UseCampaignReceipts(context.Background(), "camp-invierno-2025")
	if got.Err != nil || got.IsLoading {
		t.Fatalf("result = %+v, want resolved", got)
	}
	if len(got.Receipts) != 3 {
		t.Fatalf("receipts = %d, want 3", len(got.Receipts))
	}
	for i := 1; i < len(got.Receipts); i++ {
		if got.Receipts[i].IssuedAt.After(got.Receipts[i-1].IssuedAt) {
			t.Fatalf("receipts not newest first: %+v", got.Receipts)
		}
	}
	want := decimal.RequireFromString("318550.50")
	if !got.TotalSpent.Equal(want) {
		t.Fatalf("total spent = %s, want %s", got.TotalSpent, want)
	}
}

func TestUseCampaignReceiptsEmptyID(t *testing.T) {
	t.Parallel()

	hooks := newTestHooks(&fakeAPI{})

	got := hooks.UseCampaignReceipts(context.Background(), "  ")
	if got.IsLoading || got.Err != nil {
		t.Fatalf("result = %+v, want idle", got)
	}
	if got.Receipts == nil || len(got.Receipts) != 0 {
		t.Fatalf("receipts = %+v, want empty", got.Receipts)
	}
	if !got.TotalSpent.IsZero() {
		t.Fatalf("total spent = %s, want 0", got.TotalSpent)
	}
}

func TestUseCampaignReceiptsWithoutSource(t *testing.T) {
	t.Parallel()

	reg := cache.NewRegistry(cache.WithLogger(slog.New(slog.DiscardHandler)))
	t.Cleanup(reg.Close)
	hooks := New(reg, &fakeAPI{}, nil)

	got := hooks.UseCampaignReceipts(context.Background(), "camp-invierno-2025")
	if got.Err == nil {
		t.Fatal("expected error without receipts source")
	}
	if got.Receipts == nil {
		t.Fatal("expected non-nil receipts on error")
	}
}

func TestRefreshAuditReportFetchesOncePerCall(t *testing.T) {
	t.Parallel()

	path := "/campaigns/camp-invierno-2025/audit-report"
	api := &fakeAPI{bodies: map[string]string{path: reportBody}}
	hooks := newTestHooks(api)
	ctx := context.Background()

	cold := hooks.RefreshAuditReport(ctx, "camp-invierno-2025")
	if cold.AuditReport == nil {
		t.Fatalf("result = %+v, want report", cold)
	}
	if n := api.callCount(path); n != 1 {
		t.Fatalf("fetches after cold refresh = %d, want 1", n)
	}

	api.setError(path, platformerrors.New(platformerrors.CodeTransport, "upstream down"))
	warm := hooks.RefreshAuditReport(ctx, "camp-invierno-2025")
	if n := api.callCount(path); n != 2 {
		t.Fatalf("fetches after warm refresh = %d, want 2", n)
	}
	if warm.Err == nil {
		t.Fatal("expected refresh error")
	}
	if warm.AuditReport == nil || warm.AuditReport.Title != "Abrigo de invierno" {
		t.Fatalf("report = %+v, want previous data kept", warm.AuditReport)
	}
}
