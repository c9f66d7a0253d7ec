// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

// Package probe performs one-shot HTTP availability probes.
//
// A probe issues a single outbound request with retries collapsed into one
// terminal outcome: exactly one history record per probe, written before the
// result is returned. Retries apply to network errors only, never to
// cancellation or to HTTP-level failures.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/specula/internal/eventlog"
	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
	"github.com/tomtom215/specula/internal/models"
	"github.com/tomtom215/specula/internal/store"
)

// msgUnexpectedResponse is the operator-facing reason for a 2xx/3xx response
// that fails the success criteria.
const msgUnexpectedResponse = "响应不符合预期"

// maxBodyProbe bounds how much of the response body is read for the
// non-empty-body check.
const maxBodyProbe = 64 * 1024

// defaultHeaders is the browser-like header set sent with every probe.
// Config headers override these on key collision.
var defaultHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "zh-CN,zh;q=0.9,en;q=0.8",
	"Cache-Control":             "no-cache",
	"Pragma":                    "no-cache",
	"Upgrade-Insecure-Requests": "1",
}

// Config holds probe execution parameters.
type Config struct {
	// Timeout is the hard deadline for one probe, spanning all attempts.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// retryable network errors.
	MaxRetries int

	// RetryBackoff is the linear backoff unit: retry n waits n*RetryBackoff.
	RetryBackoff time.Duration
}

// DefaultConfig returns the default probe parameters.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Second,
	}
}

// Executor runs probes and records their outcomes.
type Executor struct {
	client   *http.Client
	history  *store.History
	eventLog *eventlog.Logger
	config   Config
	logger   zerolog.Logger
}

// NewExecutor creates an executor. history and eventLog may not be nil.
func NewExecutor(history *store.History, eventLog *eventlog.Logger, cfg Config) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}

	return &Executor{
		// Redirects are followed by default; the per-probe context carries
		// the deadline, so the client itself has none.
		client:   &http.Client{},
		history:  history,
		eventLog: eventLog,
		config:   cfg,
		logger:   logging.With().Str("component", "probe").Logger(),
	}
}

// SetTransport replaces the HTTP transport. Tests use this to stub targets.
func (e *Executor) SetTransport(rt http.RoundTripper) {
	e.client.Transport = rt
}

// Execute probes monitor and returns its terminal outcome. The history
// record is persisted before return; persistence failure is logged but does
// not alter the outcome. When ctx is cancelled the probe aborts and its
// partial outcome is returned without being persisted.
func (e *Executor) Execute(ctx context.Context, monitor *models.MonitorConfig) *models.MonitorHistory {
	started := time.Now()

	e.eventLog.Info("开始检测监控项", monitor.ID, monitor.Name)
	e.logger.Debug().
		Str("monitor_id", monitor.ID).
		Str("url", monitor.URL).
		Msg("Probe started")

	rec := e.probe(ctx, monitor, started)

	// Caller cancellation means shutdown: the outcome is unfinished and
	// nothing is persisted for it.
	if ctx.Err() != nil {
		e.logger.Debug().
			Str("monitor_id", monitor.ID).
			Msg("Probe cancelled, outcome discarded")
		return rec
	}

	if err := e.history.Append(rec); err != nil {
		e.logger.Error().Err(err).Str("monitor_id", monitor.ID).Msg("Failed to append history record")
	}

	elapsed := time.Since(started)
	metrics.RecordProbe(string(rec.Status), elapsed)

	if rec.Status == models.StatusSuccess {
		e.eventLog.InfoMeta("检测成功", monitor.ID, monitor.Name, map[string]interface{}{
			"http_status":      derefInt(rec.HTTPStatus),
			"response_time_ms": derefInt64(rec.ResponseTimeMS),
		})
		e.logger.Info().
			Str("monitor_id", monitor.ID).
			Dur("elapsed", elapsed).
			Msg("Probe succeeded")
	} else {
		e.eventLog.ErrorMeta("检测失败: "+rec.Error, monitor.ID, monitor.Name, map[string]interface{}{
			"http_status":      derefInt(rec.HTTPStatus),
			"response_time_ms": derefInt64(rec.ResponseTimeMS),
			"error":            rec.Error,
		})
		e.logger.Warn().
			Str("monitor_id", monitor.ID).
			Str("error", rec.Error).
			Dur("elapsed", elapsed).
			Msg("Probe failed")
	}

	return rec
}

// probe runs the attempt loop and classification under the probe deadline.
func (e *Executor) probe(ctx context.Context, monitor *models.MonitorConfig, started time.Time) *models.MonitorHistory {
	rec := &models.MonitorHistory{
		ID:        store.NewRecordID(started),
		MonitorID: monitor.ID,
		Timestamp: started.UTC(),
	}

	target, err := url.Parse(monitor.URL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		rec.Status = models.StatusError
		rec.Error = "无效的URL: " + monitor.URL
		return rec
	}
	if !models.ValidMethod(monitor.EffectiveMethod()) {
		rec.Status = models.StatusError
		rec.Error = "无效的请求方法: " + monitor.Method
		return rec
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.ProbeRetries.Inc()
			backoff := time.Duration(attempt) * e.config.RetryBackoff
			e.logger.Debug().
				Str("monitor_id", monitor.ID).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying probe")

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				e.fillNetworkError(rec, ctx.Err(), started)
				return rec
			}
		}

		resp, reqErr := e.attempt(ctx, monitor, target)
		if reqErr == nil {
			e.classify(rec, resp, target, started)
			return rec
		}
		lastErr = reqErr

		// Cancellation ends the probe; the deadline covers all attempts.
		if errors.Is(reqErr, context.Canceled) || errors.Is(reqErr, context.DeadlineExceeded) || ctx.Err() != nil {
			break
		}
	}

	e.fillNetworkError(rec, lastErr, started)
	return rec
}

// attempt issues one request. The caller owns classification; the response
// body is closed here after the body check is captured into the response via
// bodyNonEmpty.
func (e *Executor) attempt(ctx context.Context, monitor *models.MonitorConfig, target *url.URL) (*probeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, monitor.EffectiveMethod(), monitor.URL, nil)
	if err != nil {
		return nil, err
	}

	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range monitor.Headers {
		req.Header.Set(k, v)
	}
	if monitor.Cookie != "" {
		req.Header.Set("Cookie", monitor.Cookie)
	}

	origin := target.Scheme + "://" + target.Host
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	n, _ := io.CopyN(io.Discard, resp.Body, maxBodyProbe)

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	return &probeResponse{
		statusCode:   resp.StatusCode,
		bodyNonEmpty: n > 0,
		finalURL:     finalURL,
	}, nil
}

// probeResponse is the classified view of one HTTP response.
type probeResponse struct {
	statusCode   int
	bodyNonEmpty bool
	finalURL     *url.URL
}

// classify fills rec from an HTTP response per the success criteria.
func (e *Executor) classify(rec *models.MonitorHistory, resp *probeResponse, target *url.URL, started time.Time) {
	elapsed := time.Since(started).Milliseconds()
	rec.ResponseTimeMS = &elapsed
	status := resp.statusCode
	rec.HTTPStatus = &status

	if status >= 400 {
		rec.Status = models.StatusError
		rec.Error = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
		return
	}

	if checkResponseSuccess(resp, target) {
		rec.Status = models.StatusSuccess
		return
	}

	rec.Status = models.StatusError
	rec.Error = msgUnexpectedResponse
}

// checkResponseSuccess evaluates a 2xx/3xx response: the body must be
// non-empty, and cloudstudio.net targets must land on a cloudstudio host
// after redirects (legacy affinity rule, kept hard-coded).
func checkResponseSuccess(resp *probeResponse, target *url.URL) bool {
	if !resp.bodyNonEmpty {
		return false
	}

	if strings.Contains(target.Hostname(), "cloudstudio.net") {
		final := resp.finalURL.Hostname()
		if !strings.Contains(final, "cloudstudio.net") && !strings.Contains(final, "cloudstudio.club") {
			return false
		}
	}

	return true
}

// fillNetworkError fills rec for a terminal network failure or timeout.
func (e *Executor) fillNetworkError(rec *models.MonitorHistory, err error, started time.Time) {
	elapsed := time.Since(started).Milliseconds()
	rec.ResponseTimeMS = &elapsed
	rec.Status = models.StatusError
	if err == nil {
		err = errors.New("请求失败")
	}
	rec.Error = err.Error()
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
