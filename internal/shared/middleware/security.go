package middleware

import (
	"net"
	"net/http"
	"strings"
)

// HSTS adds Strict-Transport-Security header to enforce HTTPS
func HSTS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// RedirectHTTPS returns the handler for the plain-HTTP listener when TLS is
// enabled. Hosts outside allowedHosts get a 400 instead of a redirect.
func RedirectHTTPS(allowedHosts []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsHostAllowed(r.Host, allowedHosts) {
			http.Error(w, "invalid host", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+r.RequestURI, http.StatusMovedPermanently)
	})
}

// IsHostAllowed validates a host against the allowed hosts list. Ports are ignored.
// Returns true if no allowed hosts are configured.
func IsHostAllowed(host string, allowedHosts []string) bool {
	if len(allowedHosts) == 0 {
		return true
	}

	name := hostname(host)
	for _, allowed := range allowedHosts {
		if name == hostname(allowed) {
			return true
		}
	}
	return false
}

// hostname lowercases host and strips the port and IPv6 brackets.
func hostname(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}
