package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"teddy/internal/advisor"
	"teddy/internal/blob"
	"teddy/internal/blob/memory"
	"teddy/internal/core"
	"teddy/internal/ledger"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type failingStore struct {
	*memory.Store
	mu       sync.Mutex
	writeErr error
	readErr  error
}

func (s *failingStore) Read(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	err := s.readErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Store.Read(ctx, path)
}

func (s *failingStore) Write(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	err := s.writeErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.Write(ctx, path, data)
}

type fakeAdvisor struct {
	requests []advisor.Request
	err      error
}

func (f *fakeAdvisor) Reply(_ context.Context, req advisor.Request, _ core.Profile, txs []core.Transaction, _ time.Time) (advisor.Reply, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return advisor.Reply{}, f.err
	}
	id := req.ConversationID
	if id == "" {
		id = "conv-1"
	}
	return advisor.Reply{
		ConversationID: id,
		Message:        advisor.Message{Role: advisor.RoleAssistant, Content: fmt.Sprintf("you have %d transactions", len(txs))},
	}, nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
}

type testEnv struct {
	server *Server
	ledger *ledger.Repository
	store  *failingStore
}

func newTestEnv(t *testing.T, adv Advisor, seed ...core.Draft) *testEnv {
	t.Helper()
	store := &failingStore{Store: memory.New()}
	repo := ledger.New(store, ledger.WithIDGenerator(sequentialIDs()))
	if err := repo.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, d := range seed {
		if _, err := repo.Add(context.Background(), d); err != nil {
			t.Fatalf("seed Add: %v", err)
		}
	}
	s := NewServer(":0", Deps{
		Ledger:   repo,
		Advisor:  adv,
		Profile:  core.Profile{Username: "Ana", Email: "ana@example.com"},
		Now:      func() time.Time { return testNow },
		Location: time.UTC,
	})
	return &testEnv{server: s, ledger: repo, store: store}
}

func (e *testEnv) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.server.Handler.ServeHTTP(rec, req)
	return rec
}

func seedDraft(amount float64, c core.Category, desc string, day int) core.Draft {
	return core.Draft{
		Amount:      core.NewMoney(amount),
		Category:    c,
		Date:        time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
		Description: desc,
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestListAndSearchTransactions(t *testing.T) {
	env := newTestEnv(t, nil,
		seedDraft(12.5, core.FoodAndDining, "Lunch", 3),
		seedDraft(40, core.Shopping, "Shoes", 4),
	)

	rec := env.do(http.MethodGet, "/api/transactions", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	all := decode[transactionsResponse](t, rec)
	if all.Count != 2 || all.Total != core.NewMoney(52.5) {
		t.Fatalf("list = %+v", all)
	}
	if all.Transactions[0].Description != "Shoes" {
		t.Fatalf("most recently added must come first, got %+v", all.Transactions)
	}
	if !all.Status.Loaded {
		t.Fatalf("status = %+v", all.Status)
	}

	rec = env.do(http.MethodGet, "/api/transactions?q=food", "", "")
	found := decode[transactionsResponse](t, rec)
	if found.Count != 1 || found.Transactions[0].Description != "Lunch" {
		t.Fatalf("search = %+v", found)
	}
}

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantDate    time.Time
		wantDesc    string
	}{
		{
			name:        "json",
			contentType: "application/json",
			body:        `{"amount": 12.345, "category": "Health", "date": "2025-03-10", "description": " Pharmacy "}`,
			wantDate:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			wantDesc:    "Pharmacy",
		},
		{
			name:        "form",
			contentType: "application/x-www-form-urlencoded",
			body:        url.Values{"amount": {"12,345"}, "category": {"Health"}}.Encode(),
			wantDate:    time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(http.MethodPost, "/api/transactions", tt.contentType, tt.body)
			if rec.Code != http.StatusCreated {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
			}
			tx := decode[core.Transaction](t, rec)
			if tx.ID != "tx-1" || rec.Header().Get("Location") != "/api/transactions/tx-1" {
				t.Fatalf("id = %q location = %q", tx.ID, rec.Header().Get("Location"))
			}
			if tx.Amount.Cents != 1235 || tx.Category != core.Health {
				t.Fatalf("tx = %+v", tx)
			}
			if !tx.Date.Equal(tt.wantDate) || tx.Description != tt.wantDesc {
				t.Fatalf("date = %v desc = %q", tx.Date, tx.Description)
			}
			if got := env.ledger.Transactions(); len(got) != 1 {
				t.Fatalf("ledger holds %d transactions", len(got))
			}
		})
	}
}

func TestCreateTransactionRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing amount", `{"category": "Health"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"bad amount", `{"amount": "lots", "category": "Health"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"bad category", `{"amount": 5, "category": "Rent"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"bad date", `{"amount": 5, "category": "Health", "date": "yesterday"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"long description", `{"amount": 5, "category": "Health", "description": "` + strings.Repeat("x", 201) + `"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"malformed json", `{"amount": `, http.StatusBadRequest, "bad_request"},
		{"json array", `[1, 2]`, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(http.MethodPost, "/api/transactions", "application/json", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body)
			}
			if body := decode[ErrorBody](t, rec); body.Code != tt.code || body.Error == "" {
				t.Fatalf("error body = %+v", body)
			}
			if n := len(env.ledger.Transactions()); n != 0 {
				t.Fatalf("rejected input must not be stored, ledger has %d", n)
			}
		})
	}
}

func TestCreateTransactionBodyTooLarge(t *testing.T) {
	env := newTestEnv(t, nil)
	body := `{"amount": 5, "category": "Health", "description": "` + strings.Repeat("x", maxBodyBytes) + `"}`
	rec := env.do(http.MethodPost, "/api/transactions", "application/json", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateTransactionSaveFailure(t *testing.T) {
	env := newTestEnv(t, nil, seedDraft(1, core.Other, "kept", 1))
	env.store.writeErr = errors.New("disk full")

	rec := env.do(http.MethodPost, "/api/transactions", "application/json", `{"amount": 5, "category": "Health"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[ErrorBody](t, rec); body.Error != ledger.SaveFailedMessage {
		t.Fatalf("error = %q", body.Error)
	}
	if got := env.ledger.Transactions(); len(got) != 1 || got[0].Description != "kept" {
		t.Fatalf("failed save must roll back, got %+v", got)
	}

	list := decode[transactionsResponse](t, env.do(http.MethodGet, "/api/transactions", "", ""))
	if list.Status.Error != ledger.SaveFailedMessage {
		t.Fatalf("status = %+v", list.Status)
	}
}

func TestDeleteTransaction(t *testing.T) {
	env := newTestEnv(t, nil, seedDraft(3, core.Other, "gone", 2))

	if rec := env.do(http.MethodDelete, "/api/transactions/tx-1", "", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if n := len(env.ledger.Transactions()); n != 0 {
		t.Fatalf("ledger still has %d transactions", n)
	}

	rec := env.do(http.MethodDelete, "/api/transactions/tx-1", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestReload(t *testing.T) {
	env := newTestEnv(t, nil)
	data, err := ledger.Encode([]core.Transaction{{
		ID: "external", Amount: core.NewMoney(9), Category: core.Utilities,
		Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := env.store.Store.Write(context.Background(), env.ledger.Path(), data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rec := env.do(http.MethodPost, "/api/transactions/reload", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[transactionsResponse](t, rec); got.Count != 1 || got.Transactions[0].ID != "external" {
		t.Fatalf("reload = %+v", got)
	}

	env.store.readErr = errors.New("bucket offline")
	rec = env.do(http.MethodPost, "/api/transactions/reload", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[ErrorBody](t, rec); body.Error != ledger.LoadFailedMessage {
		t.Fatalf("error = %q", body.Error)
	}
	if n := len(env.ledger.Transactions()); n != 1 {
		t.Fatalf("failed reload must keep the list, got %d", n)
	}
}

func TestDashboardEndpoint(t *testing.T) {
	env := newTestEnv(t, nil,
		seedDraft(30, core.Shopping, "", 2),
		seedDraft(20, core.Shopping, "", 10),
	)
	rec := env.do(http.MethodGet, "/api/stats/dashboard", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		TotalThisMonth float64 `json:"total_this_month"`
		Trend          []any   `json:"trend"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalThisMonth != 50 || len(got.Trend) != 30 {
		t.Fatalf("dashboard = %+v", got)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, seedDraft(8, core.Health, "", 14))

	rec := env.do(http.MethodGet, "/api/stats/analytics?period=weekly", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Period           string `json:"period"`
		TransactionCount int    `json:"transaction_count"`
		TopCategory      string `json:"top_category"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Period != "weekly" || got.TransactionCount != 1 || got.TopCategory != string(core.Health) {
		t.Fatalf("analytics = %+v", got)
	}

	if rec := env.do(http.MethodGet, "/api/stats/analytics?period=hourly", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown period status = %d", rec.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, seedDraft(4.5, core.FoodAndDining, `Tea, "green"`, 9))

	rec := env.do(http.MethodGet, "/api/export.csv", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="expenses_2025-03-15.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Errorf("Content-Type = %q", got)
	}
	want := "Date,Category,Amount,Description\n3/9/2025,Food & Dining,4.5,\"Tea, \"\"green\"\"\"\n"
	if rec.Body.String() != want {
		t.Fatalf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestGreetingAndProfile(t *testing.T) {
	env := newTestEnv(t, nil)

	greeting := decode[advisor.Message](t, env.do(http.MethodGet, "/api/advisor/greeting", "", ""))
	if greeting.Role != advisor.RoleAssistant || !strings.HasPrefix(greeting.Content, "Hey Ana!") {
		t.Fatalf("greeting = %+v", greeting)
	}

	profile := decode[profileResponse](t, env.do(http.MethodGet, "/api/profile", "", ""))
	if profile.DisplayName != "Ana" || profile.Email != "ana@example.com" || profile.Version != AppVersion {
		t.Fatalf("profile = %+v", profile)
	}
}

func TestChat(t *testing.T) {
	adv := &fakeAdvisor{}
	env := newTestEnv(t, adv, seedDraft(1, core.Other, "", 1))

	rec := env.do(http.MethodPost, "/api/advisor/chat", "application/json", `{"message": "How am I doing?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	reply := decode[advisor.Reply](t, rec)
	if reply.ConversationID != "conv-1" || reply.Message.Content != "you have 1 transactions" {
		t.Fatalf("reply = %+v", reply)
	}

	env.do(http.MethodPost, "/api/advisor/chat", "application/json", `{"conversation_id": "conv-1", "message": "And now?"}`)
	if len(adv.requests) != 2 || adv.requests[1].ConversationID != "conv-1" {
		t.Fatalf("requests = %+v", adv.requests)
	}

	adv.err = context.Canceled
	if rec := env.do(http.MethodPost, "/api/advisor/chat", "application/json", `{"message": "hi"}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("advisor error status = %d", rec.Code)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	env := newTestEnv(t, advisor.New(nil, advisor.DefaultConfig(), nil))
	rec := env.do(http.MethodPost, "/api/advisor/chat", "application/json", `{"message": "   "}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestChatWithoutUpstreamFallsBack(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodPost, "/api/advisor/chat", "application/json", `{"message": "hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if reply := decode[advisor.Reply](t, rec); !reply.Fallback || reply.Message.Content != advisor.FallbackReply {
		t.Fatalf("reply = %+v", reply)
	}
}

func TestChatRateLimited(t *testing.T) {
	env := newTestEnv(t, &fakeAdvisor{})
	for i := 0; i < chatRequestsPerMinute; i++ {
		if rec := env.do(http.MethodPost, "/api/advisor/chat", "application/json", `{"message": "hi"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := env.do(http.MethodPost, "/api/advisor/chat", "application/json", `{"message": "hi"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}

	// Reads are not limited.
	if rec := env.do(http.MethodGet, "/api/transactions", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestEnv(t, nil)
	if rec := env.do(http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body)
	}
	if rec := env.do(http.MethodGet, "/readyz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}

	env.server.deps.Ready = func(context.Context) error { return blob.ErrNotExist }
	rec := env.do(http.MethodGet, "/readyz", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz = %d", rec.Code)
	}
	if got := decode[readiness](t, rec); got.Ready || got.Store != "unavailable" {
		t.Fatalf("readiness = %+v", got)
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, nil, seedDraft(1, core.Other, "", 1))
	env.do(http.MethodGet, "/api/transactions", "", "")
	env.do(http.MethodGet, "/.env", "", "")

	body := env.do(http.MethodGet, "/metrics", "", "").Body.String()
	for _, want := range []string{
		"teddy_transactions 1\n",
		"teddy_suspicious_requests_total 1\n",
		"teddy_store_error 0\n",
		`teddy_rate_limit_hits_total{scope="chat"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestIndexPage(t *testing.T) {
	env := newTestEnv(t, nil, seedDraft(19.99, core.Shopping, "Board game", 12))

	rec := env.do(http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	for _, want := range []string{"Hi Ana", "Board game", "$19.99", "Mar 12, 2025", AppVersion, `value="2025-03-15"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("security headers not applied")
	}

	if rec := env.do(http.MethodGet, "/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path status = %d", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodGet, "/static/app.js", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "max-age") {
		t.Fatalf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}
