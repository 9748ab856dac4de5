package enrichment

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the originating client address from a request. Proxied
// requests carry it in X-Forwarded-For (first value of the list) or X-Real-IP;
// otherwise the transport-level peer address is used. The value is not
// validated; downstream enrichment must tolerate garbage.
func ClientIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx != -1 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
