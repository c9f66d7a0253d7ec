// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/specula/internal/eventlog"
	"github.com/tomtom215/specula/internal/models"
	"github.com/tomtom215/specula/internal/store"
)

type probeEnv struct {
	executor *Executor
	history  *store.History
	eventLog *eventlog.Logger
}

func newTestEnv(t *testing.T) *probeEnv {
	t.Helper()

	db, err := store.Open(store.Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	eventLog := eventlog.NewLogger(eventlog.NewBadgerStore(db), eventlog.DefaultConfig())
	t.Cleanup(func() { eventLog.Close() })

	history := store.NewHistory(db)
	cfg := DefaultConfig()
	cfg.RetryBackoff = 10 * time.Millisecond
	cfg.Timeout = 5 * time.Second

	return &probeEnv{
		executor: NewExecutor(history, eventLog, cfg),
		history:  history,
		eventLog: eventLog,
	}
}

func testMonitor(targetURL string) *models.MonitorConfig {
	return &models.MonitorConfig{
		ID:              "mon-1",
		Name:            "test site",
		URL:             targetURL,
		Method:          "GET",
		IntervalMinutes: 5,
		Enabled:         true,
	}
}

func (e *probeEnv) recordCount(t *testing.T, monitorID string) int {
	t.Helper()
	n, err := e.history.CountForMonitor(monitorID)
	if err != nil {
		t.Fatalf("CountForMonitor() error = %v", err)
	}
	return n
}

func TestExecuteSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	env := newTestEnv(t)
	rec := env.executor.Execute(context.Background(), testMonitor(srv.URL))

	if rec.Status != models.StatusSuccess {
		t.Fatalf("Status = %q, want success (error: %q)", rec.Status, rec.Error)
	}
	if rec.HTTPStatus == nil || *rec.HTTPStatus != http.StatusOK {
		t.Errorf("HTTPStatus = %v, want 200", rec.HTTPStatus)
	}
	if rec.ResponseTimeMS == nil {
		t.Error("ResponseTimeMS is nil, want set")
	}
	if rec.Error != "" {
		t.Errorf("Error = %q, want empty", rec.Error)
	}
	if got := env.recordCount(t, "mon-1"); got != 1 {
		t.Errorf("history records = %d, want 1", got)
	}
}

func TestExecuteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	env := newTestEnv(t)
	rec := env.executor.Execute(context.Background(), testMonitor(srv.URL))

	if rec.Status != models.StatusError {
		t.Fatalf("Status = %q, want error", rec.Status)
	}
	if rec.Error != "HTTP 403: Forbidden" {
		t.Errorf("Error = %q, want %q", rec.Error, "HTTP 403: Forbidden")
	}
	if rec.HTTPStatus == nil || *rec.HTTPStatus != http.StatusForbidden {
		t.Errorf("HTTPStatus = %v, want 403", rec.HTTPStatus)
	}
	if got := env.recordCount(t, "mon-1"); got != 1 {
		t.Errorf("history records = %d, want 1", got)
	}
}

func TestExecuteEmptyBodyFailsExpectation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := newTestEnv(t)
	rec := env.executor.Execute(context.Background(), testMonitor(srv.URL))

	if rec.Status != models.StatusError {
		t.Fatalf("Status = %q, want error", rec.Status)
	}
	if rec.Error != msgUnexpectedResponse {
		t.Errorf("Error = %q, want %q", rec.Error, msgUnexpectedResponse)
	}
}

func TestExecuteInvalidURLSkipsNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	env := newTestEnv(t)
	m := testMonitor("ftp://not-a-web-url")
	rec := env.executor.Execute(context.Background(), m)

	if rec.Status != models.StatusError {
		t.Fatalf("Status = %q, want error", rec.Status)
	}
	if !strings.Contains(rec.Error, "无效的URL") {
		t.Errorf("Error = %q, want invalid URL message", rec.Error)
	}
	if rec.ResponseTimeMS != nil {
		t.Error("ResponseTimeMS set for invalid URL, want nil")
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Error("network request issued for invalid URL")
	}
	if got := env.recordCount(t, "mon-1"); got != 1 {
		t.Errorf("history records = %d, want 1", got)
	}
}

func TestExecuteInvalidMethod(t *testing.T) {
	env := newTestEnv(t)
	m := testMonitor("http://example.com")
	m.Method = "DELETE"

	rec := env.executor.Execute(context.Background(), m)

	if rec.Status != models.StatusError {
		t.Fatalf("Status = %q, want error", rec.Status)
	}
	if !strings.Contains(rec.Error, "无效的请求方法") {
		t.Errorf("Error = %q, want invalid method message", rec.Error)
	}
}

func TestExecuteRetriesNetworkErrors(t *testing.T) {
	// Reserve a port, then close it: connections are refused.
	srv := httptest.NewServer(http.NotFoundHandler())
	deadURL := srv.URL
	srv.Close()

	env := newTestEnv(t)
	start := time.Now()
	rec := env.executor.Execute(context.Background(), testMonitor(deadURL))
	elapsed := time.Since(start)

	if rec.Status != models.StatusError {
		t.Fatalf("Status = %q, want error", rec.Status)
	}
	if rec.Error == "" {
		t.Error("Error is empty, want connection failure")
	}
	// Two retries with 10ms/20ms backoff must have happened.
	if elapsed < 30*time.Millisecond {
		t.Errorf("elapsed = %v, want >= 30ms of backoff", elapsed)
	}
	// One record for the whole probe, not one per attempt.
	if got := env.recordCount(t, "mon-1"); got != 1 {
		t.Errorf("history records = %d, want 1", got)
	}
}

func TestExecuteTimeoutProducesSingleRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	env := newTestEnv(t)
	env.executor.config.Timeout = 100 * time.Millisecond

	rec := env.executor.Execute(context.Background(), testMonitor(srv.URL))

	if rec.Status != models.StatusError {
		t.Fatalf("Status = %q, want error", rec.Status)
	}
	if rec.ResponseTimeMS == nil {
		t.Error("ResponseTimeMS is nil, want elapsed time on timeout")
	}
	if got := env.recordCount(t, "mon-1"); got != 1 {
		t.Errorf("history records = %d, want 1", got)
	}
}

func TestExecuteCancellationSuppressesRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	rec := env.executor.Execute(ctx, testMonitor(srv.URL))

	if rec.Status != models.StatusError {
		t.Fatalf("Status = %q, want error", rec.Status)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("attempts after cancellation = %d, want 1", got)
	}
	if n := env.recordCount(t, "mon-1"); n != 0 {
		t.Errorf("history records after cancellation = %d, want 0", n)
	}
}

func TestExecuteSendsConfiguredHeaders(t *testing.T) {
	var gotUA, gotCustom, gotCookie, gotOrigin string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCustom = r.Header.Get("X-Custom")
		gotCookie = r.Header.Get("Cookie")
		gotOrigin = r.Header.Get("Origin")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	env := newTestEnv(t)
	m := testMonitor(srv.URL)
	m.Cookie = "session=abc"
	m.Headers = map[string]string{
		"X-Custom":   "yes",
		"User-Agent": "custom-agent",
	}

	rec := env.executor.Execute(context.Background(), m)
	if rec.Status != models.StatusSuccess {
		t.Fatalf("Status = %q, want success (error: %q)", rec.Status, rec.Error)
	}

	// Config headers override the browser-like defaults.
	if gotUA != "custom-agent" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "custom-agent")
	}
	if gotCustom != "yes" {
		t.Errorf("X-Custom = %q, want %q", gotCustom, "yes")
	}
	if gotCookie != "session=abc" {
		t.Errorf("Cookie = %q, want %q", gotCookie, "session=abc")
	}
	if gotOrigin != srv.URL {
		t.Errorf("Origin = %q, want %q", gotOrigin, srv.URL)
	}
}

func TestExecuteFollowsRedirects(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("landed"))
	}))
	defer final.Close()

	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL, http.StatusFound)
	}))
	defer redirecting.Close()

	env := newTestEnv(t)
	rec := env.executor.Execute(context.Background(), testMonitor(redirecting.URL))

	if rec.Status != models.StatusSuccess {
		t.Fatalf("Status = %q, want success (error: %q)", rec.Status, rec.Error)
	}
	if rec.HTTPStatus == nil || *rec.HTTPStatus != http.StatusOK {
		t.Errorf("HTTPStatus = %v, want 200 after redirect", rec.HTTPStatus)
	}
}

func TestCloudstudioAffinity(t *testing.T) {
	tests := []struct {
		name      string
		targetURL string
		finalHost string
		body      string
		want      models.MonitorStatus
	}{
		{"stays on net", "https://ws.cloudstudio.net/x", "ws.cloudstudio.net", "ok", models.StatusSuccess},
		{"lands on club", "https://ws.cloudstudio.net/x", "ws.cloudstudio.club", "ok", models.StatusSuccess},
		{"escapes to login", "https://ws.cloudstudio.net/x", "login.example.com", "ok", models.StatusError},
		{"other hosts unaffected", "https://example.com/x", "login.example.com", "ok", models.StatusSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &probeResponse{
				statusCode:   http.StatusOK,
				bodyNonEmpty: tt.body != "",
				finalURL:     mustParse(t, "https://"+tt.finalHost+"/"),
			}
			ok := checkResponseSuccess(resp, mustParse(t, tt.targetURL))
			got := models.StatusError
			if ok {
				got = models.StatusSuccess
			}
			if got != tt.want {
				t.Errorf("checkResponseSuccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}
