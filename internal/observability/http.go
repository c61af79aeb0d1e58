package observability

import (
	"net"
	"net/http"
	"strings"
)

// RequestIDFromRequest returns the caller supplied request id, if any.
func RequestIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Request-Id"))
}

func UserAgentFromRequest(r *http.Request) string {
	return r.UserAgent()
}

// IPFromRequest returns the client address: the first X-Forwarded-For hop,
// then X-Real-Ip, then the socket peer.
func IPFromRequest(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
