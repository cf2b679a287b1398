package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/core"
	plog "planner/internal/log"
	"planner/internal/services"
	"planner/internal/sheets/memory"
	"planner/internal/storage"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options, svcOpts ...services.Option) *Server {
	t.Helper()
	base := []services.Option{
		services.WithLocation(time.UTC),
		services.WithClock(func() time.Time { return fixedNow }),
	}
	ledger := services.NewLedgerService(storage.NewMemoryStore(), append(base, svcOpts...)...)
	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS, opts.RateLimitBurst = 1000, 1000
	}
	opts.Logger = plog.New(plog.Config{Output: io.Discard, Component: plog.ComponentHTTP})
	srv := NewServer(":0", ledger, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T from %q: %v", v, rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s missing security headers", path)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s missing request id", path)
		}
	}
}

func TestEntriesCRUD(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/entries",
		`{"amount":"1,250.50","description":" Salary ","isIncome":true,"date":"2024-03-01","time":"09:00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body)
	}
	created := decode[core.Entry](t, rr)
	if created.ID == "" || created.Description != "Salary" || created.Amount.String() != "1250.5" {
		t.Fatalf("created = %+v", created)
	}

	rr = do(t, srv, http.MethodPost, "/api/entries", `{"amount":12,"description":"Lunch"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create with defaults status=%d body=%s", rr.Code, rr.Body)
	}
	lunch := decode[core.Entry](t, rr)
	if lunch.Date.String() != "2024-03-15" || lunch.Time != "12:00" {
		t.Fatalf("defaults not applied: %+v", lunch)
	}

	rr = do(t, srv, http.MethodGet, "/api/entries?month=2024-03", "")
	if got := decode[[]core.Entry](t, rr); len(got) != 2 {
		t.Fatalf("march entries = %+v", got)
	}
	rr = do(t, srv, http.MethodGet, "/api/entries?month=2024-02", "")
	if got := decode[[]core.Entry](t, rr); len(got) != 0 {
		t.Fatalf("february entries = %+v", got)
	}

	rr = do(t, srv, http.MethodPut, "/api/entries/"+lunch.ID,
		`{"amount":"15","description":"Dinner","date":"2024-03-14","time":"20:00"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body)
	}
	if got := decode[core.Entry](t, rr); got.Description != "Dinner" || got.ID != lunch.ID {
		t.Fatalf("updated = %+v", got)
	}

	rr = do(t, srv, http.MethodPut, "/api/entries/"+lunch.ID,
		`{"id":"other","amount":"15","description":"Dinner","date":"2024-03-14"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("mismatched id status=%d", rr.Code)
	}

	if rr = do(t, srv, http.MethodDelete, "/api/entries/"+lunch.ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if rr = do(t, srv, http.MethodDelete, "/api/entries/"+lunch.ID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodPut, "/api/entries/missing", `{"amount":"1","description":"x","date":"2024-03-01"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("update missing status=%d", rr.Code)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{"non numeric amount", `{"amount":"abc","description":"x"}`, http.StatusUnprocessableEntity, ""},
		{"negative amount", `{"amount":-5,"description":"x"}`, http.StatusUnprocessableEntity, ""},
		{"zero amount", `{"amount":"0","description":"x"}`, http.StatusUnprocessableEntity, ""},
		{"missing amount", `{"description":"x"}`, http.StatusUnprocessableEntity, "amount"},
		{"missing description", `{"amount":"1"}`, http.StatusUnprocessableEntity, "description"},
		{"blank description", `{"amount":"1","description":"   "}`, http.StatusUnprocessableEntity, ""},
		{"bad time", `{"amount":"1","description":"x","time":"25:00"}`, http.StatusUnprocessableEntity, "time"},
		{"bad date", `{"amount":"1","description":"x","date":"2024-13-01"}`, http.StatusUnprocessableEntity, ""},
		{"unknown field", `{"amount":"1","description":"x","category":"food"}`, http.StatusBadRequest, ""},
		{"malformed", `{"amount":`, http.StatusBadRequest, ""},
		{"empty body", ``, http.StatusBadRequest, ""},
		{"trailing data", `{"amount":"1","description":"x"} {}`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/entries", tt.body)
			if rr.Code != tt.wantCode {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.wantCode, rr.Body)
			}
			resp := decode[errorResponse](t, rr)
			if resp.Error == "" {
				t.Errorf("missing error message")
			}
			if tt.wantField != "" {
				if _, ok := resp.Fields[tt.wantField]; !ok {
					t.Errorf("fields = %v, want %q", resp.Fields, tt.wantField)
				}
			}
		})
	}

	rr := do(t, srv, http.MethodGet, "/api/entries", "")
	if got := decode[[]core.Entry](t, rr); len(got) != 0 {
		t.Fatalf("rejected requests created entries: %+v", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Options{})
	if rr := do(t, srv, http.MethodPatch, "/api/entries/x", `{}`); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/unknown", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown route status=%d", rr.Code)
	}
}

func TestRecurringRules(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/recurring",
		`{"amount":"900","description":"Rent","frequency":"monthly","startDate":"2024-01-10"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create rule status=%d body=%s", rr.Code, rr.Body)
	}
	rule := decode[core.RecurringRule](t, rr)
	if rule.NextDueDate.String() != "2024-04-10" {
		t.Fatalf("next due = %s", rule.NextDueDate)
	}

	rr = do(t, srv, http.MethodGet, "/api/entries", "")
	if got := decode[[]core.Entry](t, rr); len(got) != 3 {
		t.Fatalf("materialized entries = %+v", got)
	}

	rr = do(t, srv, http.MethodPost, "/api/recurring/materialize", "")
	if got := decode[countResponse](t, rr); rr.Code != http.StatusOK || got.Count != 0 {
		t.Fatalf("materialize status=%d count=%d", rr.Code, got.Count)
	}

	rr = do(t, srv, http.MethodPut, "/api/recurring/"+rule.ID,
		`{"amount":"950","description":"Rent","frequency":"monthly","startDate":"2024-01-10"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update rule status=%d body=%s", rr.Code, rr.Body)
	}

	rr = do(t, srv, http.MethodPost, "/api/recurring",
		`{"amount":"1","description":"x","frequency":"hourly","startDate":"2024-01-10"}`)
	if rr.Code != http.StatusUnprocessableEntity || decode[errorResponse](t, rr).Fields["frequency"] == "" {
		t.Fatalf("bad frequency status=%d body=%s", rr.Code, rr.Body)
	}
	rr = do(t, srv, http.MethodPost, "/api/recurring", `{"amount":"1","description":"x","frequency":"daily"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing start status=%d body=%s", rr.Code, rr.Body)
	}

	if rr = do(t, srv, http.MethodDelete, "/api/recurring/"+rule.ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete rule status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/api/entries", "")
	if got := decode[[]core.Entry](t, rr); len(got) != 3 {
		t.Fatalf("deleting a rule must keep its entries, got %d", len(got))
	}
}

func TestGoals(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/api/entries", `{"amount":"40","description":"Grocery","date":"2024-03-02"}`)

	rr := do(t, srv, http.MethodPost, "/api/goals",
		`{"type":"spending","name":"Grocery","targetAmount":"100","month":"2024-03"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create goal status=%d body=%s", rr.Code, rr.Body)
	}
	goal := decode[core.BudgetGoal](t, rr)

	rr = do(t, srv, http.MethodGet, "/api/goals/progress?month=2024-03", "")
	progress := decode[[]core.GoalProgress](t, rr)
	if len(progress) != 1 || progress[0].Current.String() != "40" || progress[0].IsOverBudget {
		t.Fatalf("progress = %+v", progress)
	}

	if rr = do(t, srv, http.MethodGet, "/api/goals/progress?month=March", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad month status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodPost, "/api/goals", `{"type":"dream","name":"x","targetAmount":"1"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad goal type status=%d", rr.Code)
	}
	if rr = do(t, srv, http.MethodDelete, "/api/goals/"+goal.ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete goal status=%d", rr.Code)
	}
}

func TestCategoriesAndCurrency(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/categories", `{"kind":"expense","name":" grocery ","icon":"x"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("duplicate category status=%d body=%s", rr.Code, rr.Body)
	}
	rr = do(t, srv, http.MethodPost, "/api/categories", `{"kind":"expense","name":"Pets","icon":"🐶"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add category status=%d body=%s", rr.Code, rr.Body)
	}
	set := decode[core.CategorySet](t, do(t, srv, http.MethodGet, "/api/categories", ""))
	if last := set.Expense[len(set.Expense)-1]; last.Name != "Pets" {
		t.Fatalf("expense categories = %+v", set.Expense)
	}

	if rr = do(t, srv, http.MethodDelete, "/api/categories/expense/pets", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete category status=%d", rr.Code)
	}
	if rr = do(t, srv, http.MethodDelete, "/api/categories/expense/Pets", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("delete missing category status=%d", rr.Code)
	}
	if rr = do(t, srv, http.MethodDelete, "/api/categories/other/Pets", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad kind status=%d", rr.Code)
	}

	cur := decode[currencyResponse](t, do(t, srv, http.MethodGet, "/api/settings/currency", ""))
	if cur.Currency != core.DefaultCurrency || cur.Symbol != "$" || len(cur.Supported) == 0 {
		t.Fatalf("currency = %+v", cur)
	}
	rr = do(t, srv, http.MethodPut, "/api/settings/currency", `{"currency":"eur"}`)
	if cur = decode[currencyResponse](t, rr); rr.Code != http.StatusOK || cur.Currency != "EUR" || cur.Symbol != "€" {
		t.Fatalf("set currency status=%d %+v", rr.Code, cur)
	}
	if rr = do(t, srv, http.MethodPut, "/api/settings/currency", `{"currency":"XYZ"}`); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown currency status=%d", rr.Code)
	}
}

func TestDashboardAndSuggestions(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/api/entries", `{"amount":"100","description":"Salary","isIncome":true,"date":"2024-03-15"}`)
	do(t, srv, http.MethodPost, "/api/entries", `{"amount":"30","description":"Coffee beans","date":"2024-03-15"}`)

	rr := do(t, srv, http.MethodGet, "/api/dashboard?date=2024-03-15", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d body=%s", rr.Code, rr.Body)
	}
	dash := decode[core.Dashboard](t, rr)
	if dash.Balance.String() != "70" || dash.TodayExpense.String() != "30" || dash.Currency != core.DefaultCurrency {
		t.Fatalf("dashboard = %+v", dash)
	}
	if rr = do(t, srv, http.MethodGet, "/api/dashboard?date=15/03/2024", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad date status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, "/api/suggestions?q=coffee", "")
	got := decode[suggestionsResponse](t, rr)
	if len(got.Suggestions) != 1 || got.Suggestions[0] != "Coffee beans" {
		t.Fatalf("suggestions = %+v", got)
	}
	if rr = do(t, srv, http.MethodGet, "/api/suggestions?kind=savings", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad kind status=%d", rr.Code)
	}
}

func TestCSVExportImport(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/api/entries", `{"id":"a","amount":"5","description":"Tea","date":"2024-03-01","time":"08:00"}`)

	rr := do(t, srv, http.MethodGet, "/api/export/csv", "")
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("export status=%d type=%s", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "planner-2024-03-15.csv") {
		t.Errorf("disposition = %q", rr.Header().Get("Content-Disposition"))
	}
	exported := rr.Body.String()
	if !strings.HasPrefix(exported, "id,amount,description,isIncome,date,time") {
		t.Fatalf("export body = %q", exported)
	}

	bad := "id,amount,description,isIncome,date,time\nb,abc,Tea,false,2024-03-01,08:00\n"
	if rr = do(t, srv, http.MethodPost, "/api/import/csv", bad); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad import status=%d body=%s", rr.Code, rr.Body)
	}
	if got := decode[[]core.Entry](t, do(t, srv, http.MethodGet, "/api/entries", "")); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("failed import changed the ledger: %+v", got)
	}

	good := "id,amount,description,isIncome,date,time\nx,1,One,true,2024-01-01,09:00\ny,2,Two,false,2024-01-02,10:00\n"
	rr = do(t, srv, http.MethodPost, "/api/import/csv", good)
	if rr.Code != http.StatusOK || decode[countResponse](t, rr).Count != 2 {
		t.Fatalf("import status=%d body=%s", rr.Code, rr.Body)
	}
	got := decode[[]core.Entry](t, do(t, srv, http.MethodGet, "/api/entries", ""))
	if len(got) != 2 || got[0].ID != "x" || got[1].ID != "y" {
		t.Fatalf("imported ledger = %+v", got)
	}

	dup := "id,amount,description,isIncome,date,time\nx,1,One,true,2024-01-01,09:00\nx,2,Two,false,2024-01-02,10:00\n"
	if rr = do(t, srv, http.MethodPost, "/api/import/csv", dup); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("duplicate id import status=%d body=%s", rr.Code, rr.Body)
	}
}

func TestSnapshotExportImportAndClear(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/api/entries", `{"id":"a","amount":"5","description":"Tea","date":"2024-03-01"}`)
	do(t, srv, http.MethodPut, "/api/settings/currency", `{"currency":"GBP"}`)

	rr := do(t, srv, http.MethodGet, "/api/export/json", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export json status=%d", rr.Code)
	}
	snapshot := rr.Body.String()

	if rr = do(t, srv, http.MethodDelete, "/api/data", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("clear status=%d", rr.Code)
	}
	if got := decode[[]core.Entry](t, do(t, srv, http.MethodGet, "/api/entries", "")); len(got) != 0 {
		t.Fatalf("entries after clear = %+v", got)
	}
	if cur := decode[currencyResponse](t, do(t, srv, http.MethodGet, "/api/settings/currency", "")); cur.Currency != core.DefaultCurrency {
		t.Fatalf("currency after clear = %s", cur.Currency)
	}

	rr = do(t, srv, http.MethodPost, "/api/import/json", snapshot)
	if rr.Code != http.StatusOK {
		t.Fatalf("import json status=%d body=%s", rr.Code, rr.Body)
	}
	if cur := decode[currencyResponse](t, do(t, srv, http.MethodGet, "/api/settings/currency", "")); cur.Currency != "GBP" {
		t.Fatalf("currency after restore = %s", cur.Currency)
	}

	if rr = do(t, srv, http.MethodPost, "/api/import/json", `{"entries":[],"extra":1}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown snapshot field status=%d", rr.Code)
	}
}

func TestXLSXExportImport(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(t, srv, http.MethodPost, "/api/entries", `{"id":"a","amount":"5.25","description":"Tea","date":"2024-03-01","time":"08:00"}`)

	rr := do(t, srv, http.MethodGet, "/api/export/xlsx", "")
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != contentTypeXLSX {
		t.Fatalf("export xlsx status=%d type=%s", rr.Code, rr.Header().Get("Content-Type"))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/import/xlsx", rr.Body)
	req.Header.Set("Content-Type", contentTypeXLSX)
	imported := httptest.NewRecorder()
	srv.Handler.ServeHTTP(imported, req)
	if imported.Code != http.StatusOK || decode[countResponse](t, imported).Count != 1 {
		t.Fatalf("import xlsx status=%d body=%s", imported.Code, imported.Body)
	}
}

func TestSyncEndpoints(t *testing.T) {
	t.Run("remote disabled", func(t *testing.T) {
		srv := newTestServer(t, Options{})
		if rr := do(t, srv, http.MethodPost, "/api/sync/push", ""); rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("push status=%d", rr.Code)
		}
		if rr := do(t, srv, http.MethodPost, "/api/sync/reconcile?strategy=merge", ""); rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("reconcile status=%d", rr.Code)
		}
	})

	t.Run("memory remote", func(t *testing.T) {
		remote := memory.New(core.Entry{
			ID: "r", Amount: decimal.RequireFromString("3"), Description: "Remote", Date: core.NewDate(2024, 2, 1), Time: "07:00",
		})
		srv := newTestServer(t, Options{}, services.WithRemote(remote))
		do(t, srv, http.MethodPost, "/api/entries", `{"id":"l","amount":"5","description":"Local","date":"2024-03-01"}`)

		rr := do(t, srv, http.MethodPost, "/api/sync/push?limit=10", "")
		if rr.Code != http.StatusOK || decode[countResponse](t, rr).Count != 1 {
			t.Fatalf("push status=%d body=%s", rr.Code, rr.Body)
		}
		if rr = do(t, srv, http.MethodPost, "/api/sync/push?limit=-1", ""); rr.Code != http.StatusBadRequest {
			t.Fatalf("bad limit status=%d", rr.Code)
		}
		if rr = do(t, srv, http.MethodPost, "/api/sync/reconcile?strategy=newest", ""); rr.Code != http.StatusBadRequest {
			t.Fatalf("bad strategy status=%d", rr.Code)
		}

		rr = do(t, srv, http.MethodPost, "/api/sync/reconcile?strategy=merge", "")
		if rr.Code != http.StatusOK || decode[countResponse](t, rr).Count != 2 {
			t.Fatalf("reconcile status=%d body=%s", rr.Code, rr.Body)
		}
	})
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitRPS: 0.01, RateLimitBurst: 1})
	if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK {
		t.Fatalf("first status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Errorf("missing Retry-After")
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"direct", "203.0.113.7:5000", nil, "203.0.113.7"},
		{"untrusted peer ignores forwarded", "203.0.113.7:5000", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "203.0.113.7"},
		{"trusted proxy forwarded", "10.0.0.2:80", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.2"}, "1.2.3.4"},
		{"trusted proxy real ip", "127.0.0.1:80", map[string]string{"X-Real-IP": "5.6.7.8"}, "5.6.7.8"},
		{"garbage forwarded", "192.168.1.1:80", map[string]string{"X-Forwarded-For": "nope"}, "192.168.1.1"},
		{"no port", "198.51.100.1", nil, "198.51.100.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
