package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	pkglog "Proofline/pkg/log"
)

const adminPathPrefix = "/api/v1/admin"

// AdminKey returns a filter guarding the operator endpoints. Requests under
// /api/v1/admin must carry the configured key in the X-Admin-Key header.
// An empty configured key disables the operator API entirely: every admin
// request is rejected with 503 so a misconfigured deployment fails closed.
func AdminKey(apiKey string, logger *pkglog.LogHelper) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !strings.HasPrefix(req.URL.Path, adminPathPrefix) {
				next.ServeHTTP(w, req)
				return
			}

			if apiKey == "" {
				logger.Warnw(
					"msg", "admin request rejected: operator API disabled",
					"path", req.URL.Path,
					"request_id", pkglog.GetRequestID(req.Context()),
					"type", "auth",
				)
				writeJSONError(w, http.StatusServiceUnavailable,
					"ADMIN_DISABLED", "operator API is not configured")
				return
			}

			if req.Header.Get("X-Admin-Key") != apiKey {
				logger.Warnw(
					"msg", "admin request rejected: invalid key",
					"path", req.URL.Path,
					"request_id", pkglog.GetRequestID(req.Context()),
					"client_ip", pkglog.GetClientIP(req.Context()),
					"type", "auth",
				)
				writeJSONError(w, http.StatusUnauthorized,
					"UNAUTHORIZED", "missing or invalid admin key")
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

// writeJSONError mirrors the kratos error envelope so clients see one shape
// whether an error came from a filter or a handler.
func writeJSONError(w http.ResponseWriter, status int, reason, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    status,
		"reason":  reason,
		"message": message,
	})
}
