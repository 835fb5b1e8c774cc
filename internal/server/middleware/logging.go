// Package middleware provides HTTP filters for request logging and
// operator authentication.
package middleware

import (
	"net/http"
	"strings"
	"time"

	pkglog "Proofline/pkg/log"
)

// statusRecorder captures the status code written by the downstream handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLog returns a filter that assigns each request an ID, injects the
// request context used by downstream log calls, and writes one access log
// line per request. Slow requests past 1s get an extra warning.
//
// Log output example:
//
//	POST /api/v1/production-runs - 201 (42ms) | RequestID: mgrn0zfqda
func RequestLog(logger *pkglog.LogHelper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()

			requestID := req.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = pkglog.GenerateRequestID()
			}
			clientIP := extractClientIP(req)

			ctx := pkglog.WithRequestContext(req.Context(), requestID, clientIP)
			w.Header().Set("X-Request-ID", requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, req.WithContext(ctx))

			path := req.URL.Path
			if req.URL.RawQuery != "" {
				path = path + "?" + req.URL.RawQuery
			}
			logger.RequestWithContext(ctx, req.Method, path, rec.status,
				time.Since(start).Milliseconds(),
				"user_agent", req.Header.Get("User-Agent"),
			)
		})
	}
}

// extractClientIP resolves the client address behind proxies.
// Priority: X-Real-IP > X-Forwarded-For (first hop) > RemoteAddr.
func extractClientIP(req *http.Request) string {
	if ip := req.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		if ips := strings.Split(forwarded, ","); len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}
	return req.RemoteAddr
}
