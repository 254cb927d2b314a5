// Package metadata resolves the caller's address and browser for each request.
package metadata

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"

	"vaultflow/pkg/requestcontext"
)

// MaxXFFHeaderLength bounds the X-Forwarded-For header we are willing to parse.
const MaxXFFHeaderLength = 500

// Config holds configuration for the metadata middleware.
type Config struct {
	// TrustedProxies lists the prefixes allowed to set X-Forwarded-For.
	// When empty, forwarding headers are ignored.
	TrustedProxies []netip.Prefix
}

// ParseTrustedProxies parses a comma separated list of CIDRs or bare addresses.
func ParseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "/") {
			addr, err := netip.ParseAddr(part)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", part, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(part)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", part, err)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

// Middleware stores client metadata on the request context.
type Middleware struct {
	config Config
}

func NewMiddleware(cfg Config) *Middleware {
	return &Middleware{config: cfg}
}

// Handler puts the client IP and a browser description on the context.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientIP(r.Context(), m.extractClientIP(r))
		ctx = requestcontext.WithClient(ctx, DescribeClient(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DescribeClient summarises a User-Agent as "Browser on OS", for example
// "Chrome on macOS". Empty input yields an empty string.
func DescribeClient(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return ""
	}

	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown browser"
	}
	os := ua.OS()
	if os == "" {
		if ua.Mobile() {
			os = "mobile"
		} else {
			os = "unknown OS"
		}
	}
	return browser + " on " + normalizeOS(os)
}

func normalizeOS(os string) string {
	switch {
	case strings.HasPrefix(os, "Intel Mac OS X"), strings.HasPrefix(os, "Mac OS X"):
		return "macOS"
	case strings.HasPrefix(os, "Windows"):
		return "Windows"
	case strings.HasPrefix(os, "Android"):
		return "Android"
	case strings.HasPrefix(os, "CPU iPhone OS"), strings.HasPrefix(os, "iPhone OS"), strings.Contains(os, "like Mac OS X"):
		return "iOS"
	}
	return os
}

func (m *Middleware) extractClientIP(r *http.Request) string {
	remoteIP := parseRemoteAddr(r.RemoteAddr)
	if remoteIP == "" {
		return "unknown"
	}
	if !m.isTrustedProxy(remoteIP) {
		return remoteIP
	}

	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" && len(xri) <= MaxXFFHeaderLength {
			if _, err := netip.ParseAddr(xri); err == nil {
				return xri
			}
		}
		return remoteIP
	}
	if len(xff) > MaxXFFHeaderLength {
		return remoteIP
	}

	// First entry is the originating client.
	first, _, _ := strings.Cut(xff, ",")
	clientIP := strings.TrimSpace(first)
	if _, err := netip.ParseAddr(clientIP); err != nil {
		return remoteIP
	}
	return clientIP
}

func (m *Middleware) isTrustedProxy(ip string) bool {
	if len(m.config.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, prefix := range m.config.TrustedProxies {
		if prefix.Contains(addr.Unmap()) {
			return true
		}
	}
	return false
}

// parseRemoteAddr strips the port from RemoteAddr.
func parseRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	if addrPort, err := netip.ParseAddrPort(remoteAddr); err == nil {
		return addrPort.Addr().String()
	}
	if addr, err := netip.ParseAddr(strings.Trim(remoteAddr, "[]")); err == nil {
		return addr.String()
	}
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		return remoteAddr[:idx]
	}
	return remoteAddr
}
