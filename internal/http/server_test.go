package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atlas/internal/ai"
	"atlas/internal/cache"
	"atlas/internal/core"
	"atlas/internal/log"
	"atlas/internal/services"
	"atlas/internal/storage/memory"
)

type stubSummarizer struct {
	mu      sync.Mutex
	last    ai.Request
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *stubSummarizer) Summarize(_ context.Context, req ai.Request) (ai.Response, error) {
	s.mu.Lock()
	s.last = req
	s.mu.Unlock()
	if s.started != nil {
		s.started <- struct{}{}
		<-s.release
	}
	if s.err != nil {
		return ai.Response{}, s.err
	}
	return ai.Response{Summary: "Sales are up."}, nil
}

func (s *stubSummarizer) lastRequest() ai.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type testServer struct {
	*Server
	summarizer *stubSummarizer
}

func newTestServer(t *testing.T, mutate func(*Dependencies)) testServer {
	t.Helper()
	store := memory.New()
	summarizer := &stubSummarizer{}
	dash := services.NewDashboardService(store, store, cache.NewLRUCache[core.Overview](4, time.Minute), summarizer)
	deps := Dependencies{
		Orders:    services.NewOrderService(store, nil, dash),
		Capital:   services.NewCapitalService(store, nil, dash),
		Users:     services.NewUserService(store),
		Dashboard: dash,
		Ready:     store.Ping,
		Logger:    log.New(log.Config{Output: io.Discard}),
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv := NewServer(":0", deps)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return testServer{Server: srv, summarizer: summarizer}
}

func (ts testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const sampleOrder = `{"externalId":"1001","orderDate":"2024-03-05","status":"Delivered",
	"price":"120.50","cost":40,"shipping":"10","fees":"5,25"}`

func TestHealthAndReadiness(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/readyz", "").Code)

	down := newTestServer(t, func(d *Dependencies) {
		d.Ready = func(context.Context) error { return errors.New("db closed") }
	})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/readyz", "").Code)
}

func TestOrders_CreateAndGet(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/orders", sampleOrder)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[orderResponse](t, rec)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "/api/orders/"+created.ID, rec.Header().Get("Location"))
	assert.Equal(t, "2024-03-05", created.OrderDate)
	assert.Equal(t, "05 Mar 2024", created.DisplayDate)
	assert.Equal(t, "120.50", created.Price.Value)
	assert.Equal(t, "5.25", created.Fees.Value)
	assert.Equal(t, "65.25", created.Profit.Value)
	assert.Equal(t, "65,25 MAD", created.Profit.Display)

	rec = ts.do(t, http.MethodGet, "/api/orders/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[orderResponse](t, rec).ID)

	rec = ts.do(t, http.MethodGet, "/api/orders?status=Delivered", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderResponse](t, rec), 1)

	rec = ts.do(t, http.MethodGet, "/api/orders?status=Shipped", "")
	assert.Empty(t, decode[[]orderResponse](t, rec))
}

func TestOrders_Validation(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		body   string
		code   int
		fields map[string]string
	}{
		{
			name:   "missing price",
			body:   `{"externalId":"1","orderDate":"2024-01-01","status":"Pending"}`,
			code:   http.StatusUnprocessableEntity,
			fields: map[string]string{"price": "required"},
		},
		{
			name:   "unknown status",
			body:   `{"externalId":"1","orderDate":"2024-01-01","status":"Lost","price":"1"}`,
			code:   http.StatusUnprocessableEntity,
			fields: map[string]string{"status": "oneof"},
		},
		{
			name:   "zero price and bad date",
			body:   `{"externalId":"1","orderDate":"yesterday","status":"Pending","price":"0"}`,
			code:   http.StatusUnprocessableEntity,
			fields: map[string]string{"price": "amount", "orderDate": "date"},
		},
		{
			name:   "negative cost",
			body:   `{"externalId":"1","orderDate":"2024-01-01","status":"Pending","price":"10","cost":"-1"}`,
			code:   http.StatusUnprocessableEntity,
			fields: map[string]string{"cost": "amount"},
		},
		{
			name: "unknown field",
			body: `{"externalId":"1","orderDate":"2024-01-01","status":"Pending","price":"1","discount":3}`,
			code: http.StatusBadRequest,
		},
		{
			name: "not json",
			body: `externalId=1`,
			code: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/orders", tt.body)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.fields != nil {
				body := decode[errorBody](t, rec)
				for k, v := range tt.fields {
					assert.Equal(t, v, body.Fields[k], k)
				}
			}
		})
	}

	rec := ts.do(t, http.MethodGet, "/api/orders?status=Lost", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestOrders_UpdateAndDelete(t *testing.T) {
	ts := newTestServer(t, nil)
	created := decode[orderResponse](t, ts.do(t, http.MethodPost, "/api/orders", sampleOrder))
	path := "/api/orders/" + created.ID

	rec := ts.do(t, http.MethodPatch, path, `{"status":"Cancelled","notes":"customer changed mind"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	patched := decode[orderResponse](t, rec)
	assert.Equal(t, "Cancelled", patched.Status)
	assert.Equal(t, "120.50", patched.Price.Value)
	assert.Equal(t, "customer changed mind", patched.Notes)

	rec = ts.do(t, http.MethodPatch, path, `{"price":"0"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodPut, path, `{"externalId":"1001-b","orderDate":"2024-04-01T10:30:00Z","status":"Shipped","price":"99"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	replaced := decode[orderResponse](t, rec)
	assert.Equal(t, "1001-b", replaced.ExternalID)
	assert.Equal(t, "2024-04-01", replaced.OrderDate)
	assert.Equal(t, "0.00", replaced.Cost.Value)
	assert.Empty(t, replaced.Notes)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPatch, "/api/orders/missing", `{"notes":"x"}`).Code)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, path, "").Code)
}

func TestCapital_Endpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/capital",
		`{"type":"Deposit","source":"Loan","amount":"1000","transactionDate":"2024-02-01","submittedBy":"Sara"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	deposit := decode[capitalResponse](t, rec)
	assert.Equal(t, "01 Feb 2024", deposit.DisplayDate)

	rec = ts.do(t, http.MethodPost, "/api/capital",
		`{"type":"Withdrawal","source":"Loan Repayment","amount":250.5,"transactionDate":"2024-02-10","submittedBy":"Sara"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/capital",
		`{"type":"Deposit","source":"Loan Repayment","amount":"5","transactionDate":"2024-02-10","submittedBy":"Sara"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/capital",
		`{"type":"Deposit","source":"Lottery","amount":"5","transactionDate":"2024-02-10","submittedBy":"Sara"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "oneof", decode[errorBody](t, rec).Fields["source"])

	rec = ts.do(t, http.MethodGet, "/api/capital/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[capitalSummaryResponse](t, rec)
	assert.Equal(t, "1000.00", sum.TotalDeposits.Value)
	assert.Equal(t, "250.50", sum.TotalWithdrawals.Value)
	assert.Equal(t, "749.50", sum.NetCapital.Value)
	assert.Equal(t, "749,50 MAD", sum.NetCapital.Display)

	rec = ts.do(t, http.MethodGet, "/api/capital?type=Withdrawal", "")
	assert.Len(t, decode[[]capitalResponse](t, rec), 1)

	rec = ts.do(t, http.MethodPatch, "/api/capital/"+deposit.ID, `{"amount":"1500"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sum = decode[capitalSummaryResponse](t, ts.do(t, http.MethodGet, "/api/capital/summary", ""))
	assert.Equal(t, "1249.50", sum.NetCapital.Value)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/capital/"+deposit.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/capital/"+deposit.ID, "").Code)
}

func TestUsers_Endpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/users", `{"name":"Sara","email":"Sara@Example.com","role":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sara := decode[userResponse](t, rec)
	assert.Equal(t, "sara@example.com", sara.Email)

	rec = ts.do(t, http.MethodPost, "/api/users", `{"name":"Other","email":"sara@example.com","role":"user"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/users", `{"name":"Bad","email":"not-an-email","role":"user"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "email", decode[errorBody](t, rec).Fields["email"])

	rec = ts.do(t, http.MethodPatch, "/api/users/"+sara.ID, `{"role":"user"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "user", decode[userResponse](t, rec).Role)

	rec = ts.do(t, http.MethodGet, "/api/users?role=admin", "")
	assert.Empty(t, decode[[]userResponse](t, rec))

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/users/"+sara.ID, "").Code)
}

func TestOverviewAndChart(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/overview/chart.png", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	empty := decode[overviewResponse](t, rec)
	assert.Equal(t, 0, empty.Orders.TotalOrders)
	assert.Equal(t, "0.00", empty.Orders.ProfitMargin)
	assert.Empty(t, empty.Monthly)

	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/orders", sampleOrder).Code)

	rec = ts.do(t, http.MethodGet, "/api/overview", "")
	ov := decode[overviewResponse](t, rec)
	assert.Equal(t, 1, ov.Orders.TotalOrders)
	assert.Equal(t, "120.50", ov.Orders.TotalRevenue.Value)
	assert.Equal(t, "55.25", ov.Orders.TotalExpenses.Value)
	assert.Equal(t, "54.15", ov.Orders.ProfitMargin)
	require.Len(t, ov.Monthly, 1)
	assert.Equal(t, "Mar", ov.Monthly[0].Month)

	rec = ts.do(t, http.MethodGet, "/api/overview/chart.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestSummary_Endpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/orders", sampleOrder).Code)

	rec := ts.do(t, http.MethodPost, "/api/summary", `{"startDate":"January","endDate":"March"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Sales are up.", decode[summaryResponse](t, rec).Summary)

	req := ts.summarizer.lastRequest()
	assert.Equal(t, "January", req.StartDate)
	assert.Equal(t, 1, req.TotalOrders)
	assert.Equal(t, 120.5, req.TotalRevenue)

	rec = ts.do(t, http.MethodPost, "/api/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ai.DefaultStartDate, ts.summarizer.lastRequest().StartDate)

	rec = ts.do(t, http.MethodGet, "/api/summary/status", "")
	assert.Equal(t, "succeeded", decode[summaryStatusResponse](t, rec).State)
}

func TestSummary_FailureIsGeneric(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.summarizer.err = errors.New("quota exceeded for project 1234")

	rec := ts.do(t, http.MethodPost, "/api/summary", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Could not generate summary", decode[errorBody](t, rec).Error)
	assert.NotContains(t, rec.Body.String(), "quota")
}

func TestSummary_RejectsConcurrentRequest(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.summarizer.started = make(chan struct{})
	ts.summarizer.release = make(chan struct{})

	done := make(chan int)
	go func() {
		done <- ts.do(t, http.MethodPost, "/api/summary", "").Code
	}()
	<-ts.summarizer.started

	rec := ts.do(t, http.MethodPost, "/api/summary", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(ts.summarizer.release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestRateLimit_OnlyMutatingRequests(t *testing.T) {
	ts := newTestServer(t, func(d *Dependencies) { d.RateLimitPerMinute = 1 })

	assert.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/orders", sampleOrder).Code)
	rec := ts.do(t, http.MethodPost, "/api/orders", sampleOrder)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/orders", "").Code)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/nothing", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, ts.do(t, http.MethodPost, "/api/overview", "").Code)
}
