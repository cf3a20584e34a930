package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
	"github.com/regexflow/ledger-bfa-go/internal/infra/client"
	"github.com/regexflow/ledger-bfa-go/internal/infra/resilience"
)

const historyJSON = `[
	{
		"smsId": 1,
		"smsText": "Rs 500 debited via UPI",
		"hasMatch": true,
		"matchedTemplateId": 4,
		"extractedFields": {"smsType": "DEBIT", "amount": "500", "fields": {"paymentType": "UPI"}},
		"createdAt": "2025-01-15T10:30:00"
	},
	{"smsId": 2, "smsText": "hello", "hasMatch": false, "extractedFields": null, "createdAt": [2025,1,16,8,0,0]}
]`

func newClient(t *testing.T, url string, retries int) *client.RegexFlowClient {
	t.Helper()
	cfg := resilience.Config{MaxRetries: retries, InitialBackoff: time.Millisecond, MaxConcurrency: 4}
	return client.NewRegexFlowClient(
		&http.Client{Timeout: 2 * time.Second},
		url,
		resilience.NewCircuitBreaker("regexflow-test", zap.NewNop()),
		cfg,
	)
}

func TestGetHistory_ForwardsSession(t *testing.T) {
	var gotCookie, gotAuth, gotCorrelation, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCookie = r.Header.Get("Cookie")
		gotAuth = r.Header.Get("Authorization")
		gotCorrelation = r.Header.Get(client.HeaderCorrelationID)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(historyJSON))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL+"/", 0)
	records, err := c.GetHistory(context.Background(), domain.Session{
		Cookie:        "JSESSIONID=abc",
		Authorization: "Bearer xyz",
		CorrelationID: "req-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/sms/history" {
		t.Errorf("expected /sms/history, got %s", gotPath)
	}
	if gotCookie != "JSESSIONID=abc" || gotAuth != "Bearer xyz" {
		t.Errorf("credentials not forwarded: cookie=%q auth=%q", gotCookie, gotAuth)
	}
	if gotCorrelation != "req-1" {
		t.Errorf("expected correlation id req-1, got %q", gotCorrelation)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ExtractedFields.SMSType != "DEBIT" || records[1].CreatedAt != "2025-01-16T08:00:00" {
		t.Errorf("unexpected records %+v", records)
	}
}

func TestGetHistory_GeneratesCorrelationID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(client.HeaderCorrelationID)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := newClient(t, srv.URL, 0).GetHistory(context.Background(), domain.Session{Cookie: "c"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 36 {
		t.Errorf("expected a uuid correlation id, got %q", got)
	}
}

func TestGetHistory_NullBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	records, err := newClient(t, srv.URL, 0).GetHistory(context.Background(), domain.Session{Cookie: "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", records)
	}
}

func TestGetHistory_UnauthorizedIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, 3).GetHistory(context.Background(), domain.Session{Cookie: "stale"})

	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected 1 upstream call, got %d", n)
	}
}

func TestGetHistory_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(historyJSON))
	}))
	defer srv.Close()

	records, err := newClient(t, srv.URL, 3).GetHistory(context.Background(), domain.Session{Cookie: "c"})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 upstream calls, got %d", n)
	}
}

func TestGetHistory_ServerErrorBecomesExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, 1).GetHistory(context.Background(), domain.Session{Cookie: "c"})

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	var status *domain.ErrUpstreamStatus
	if !errors.As(err, &status) || status.Status != http.StatusInternalServerError || status.Body != "boom" {
		t.Errorf("expected wrapped 500 status, got %v", err)
	}
}

func TestGetHistory_MalformedBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL, 3).GetHistory(context.Background(), domain.Session{Cookie: "c"})

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected decode failure not to be retried, got %d calls", n)
	}
}

func TestGetHistory_CircuitOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, 0)
	for i := 0; i < 5; i++ {
		_, _ = c.GetHistory(context.Background(), domain.Session{Cookie: "c"})
	}

	_, err := c.GetHistory(context.Background(), domain.Session{Cookie: "c"})
	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestGetHistory_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(t, srv.URL, 0).GetHistory(ctx, domain.Session{Cookie: "c"})
	var timeout *domain.ErrTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestPing(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("expected ping on /, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"UP"}`))
	}))
	defer healthy.Close()

	if err := newClient(t, healthy.URL, 0).Ping(context.Background()); err != nil {
		t.Errorf("expected healthy upstream, got %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	if err := newClient(t, down.URL, 0).Ping(context.Background()); err == nil {
		t.Error("expected error from unhealthy upstream")
	}
}
