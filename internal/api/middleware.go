// Specula - Website Availability Monitoring and Uptime Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/specula/internal/auth"
	"github.com/tomtom215/specula/internal/logging"
	"github.com/tomtom215/specula/internal/metrics"
	"github.com/tomtom215/specula/internal/models"
)

// securityHeaders sets the baseline response headers on every route.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// recoverer converts handler panics into an internal-error envelope.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("Handler panicked")
				respondError(w, "服务器内部错误", models.CodeInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for the metrics middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// metricsMiddleware records per-endpoint request counters and latency, keyed
// by the chi route pattern so path parameters do not explode cardinality.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		metrics.RecordAPIRequest(r.Method, endpoint, rec.status, time.Since(started))
	})
}

// requireAuth rejects requests without a valid session.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.Check(auth.TokenFromRequest(r)); err != nil {
			respondError(w, "未授权访问", models.CodeUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sameOriginCheck rejects cross-origin state-changing requests. Origin is
// consulted first, then Referer; one of the two must be present and carry a
// host equal to the request Host.
func sameOriginCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			if !sameOriginAllowed(r) {
				respondError(w, "未授权访问", models.CodeUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func sameOriginAllowed(r *http.Request) bool {
	// Opaque "null" origins (sandboxed frames, file://) carry no host.
	source := r.Header.Get("Origin")
	if source == "" || source == "null" {
		source = r.Header.Get("Referer")
	}
	if source == "" {
		return false
	}
	parsed, err := url.Parse(source)
	return err == nil && parsed.Host == r.Host
}

// Rate limit tiers. Limits are per client IP per minute.
func loginRateLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

func apiRateLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(100, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

func healthRateLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(1000, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

func rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	respondError(w, "请求过于频繁", models.CodeRateLimited)
}
