package utils

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP returns the originating client address for audit records,
// preferring proxy headers over RemoteAddr. Headers are client-controlled, so
// this must not be used as a rate-limit key.
func GetClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if isValidIP(ip) {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); isValidIP(xri) {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

// GetUserAgent truncates the User-Agent header to 256 bytes.
func GetUserAgent(r *http.Request) string {
	ua := r.Header.Get("User-Agent")
	if len(ua) > 256 {
		ua = ua[:256]
	}
	return ua
}
