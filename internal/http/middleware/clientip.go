package middleware

import (
	"net/http"
	"strings"
)

// UnknownClient is used when no identifying header is present.
const UnknownClient = "unknown"

// ClientIP returns a best-effort client identifier: the edge connecting IP,
// the first X-Forwarded-For hop, X-Real-Ip, else UnknownClient. Headers are
// spoofable; the result is only good enough for rate limiting.
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	return UnknownClient
}

// ClientCountry returns the edge-provided ISO country code, if any.
func ClientCountry(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("CF-IPCountry"))
}
