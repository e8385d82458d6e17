package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"
)

var clientIPHeaders = []string{"Fly-Client-IP", "X-Forwarded-For", "X-Real-IP"}

var countryHeaders = []string{"Fly-Client-Country", "CF-IPCountry", "CloudFront-Viewer-Country"}

// unknownCountry is logged when no edge proxy tagged the request.
const unknownCountry = "ZZ"

// resolveClientIP returns the first parseable address from proxy headers, then RemoteAddr.
// It keys the per-IP rate limit buckets for anonymous callers.
func resolveClientIP(_ context.Context, r *http.Request) string {
	for _, header := range clientIPHeaders {
		if ip := parseIP(r.Header.Get(header)); ip != "" {
			return ip
		}
	}
	return parseIP(r.RemoteAddr)
}

func resolveCountryCode(_ context.Context, r *http.Request) string {
	for _, header := range countryHeaders {
		code := strings.ToUpper(strings.TrimSpace(r.Header.Get(header)))
		if isCountryCode(code) {
			return code
		}
	}
	return unknownCountry
}

func parseIP(raw string) string {
	value, _, _ := strings.Cut(raw, ",")
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		value = host
	}
	if ip := net.ParseIP(value); ip != nil {
		return ip.String()
	}
	return ""
}

func isCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
