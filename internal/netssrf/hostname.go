package netssrf

import (
	"context"
	"fmt"
	"net"
	"strings"
)

var blockedHostnames = map[string]bool{
	"localhost":                 true,
	"metadata.google.internal":  true,
}

var dangerousSuffixes = []string{
	".localhost",
	".local",
	".internal",
}

// IsBlockedHostname reports whether hostname is always denied regardless of
// what it resolves to.
func IsBlockedHostname(hostname string) bool {
	normalized := normalizeHostname(hostname)
	if normalized == "" {
		return false
	}
	if blockedHostnames[normalized] {
		return true
	}
	for _, suffix := range dangerousSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			return true
		}
	}
	return false
}

// Resolver abstracts DNS lookup so tests can substitute deterministic
// results without touching the network.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// DefaultResolver resolves via the standard library.
var DefaultResolver Resolver = net.DefaultResolver

// ValidateHost checks scheme, hostname shape, and (after DNS resolution via
// resolver) every resolved address against the SSRF block list in spec.md
// §4.5. It returns the resolved IP addresses on success so the caller can
// connect directly to a validated IP (anti-DNS-rebinding) rather than
// re-resolving.
func ValidateHost(ctx context.Context, resolver Resolver, scheme, hostname string) ([]net.IPAddr, error) {
	if scheme != "http" && scheme != "https" {
		return nil, NewBlockedError(fmt.Sprintf("unsupported scheme: %s", scheme))
	}

	normalized := normalizeHostname(hostname)
	if normalized == "" {
		return nil, NewBlockedError("empty host")
	}

	if IsAlternateIPNotation(normalized) {
		return nil, NewBlockedError("alternate IP notation not allowed")
	}
	if IsBlockedHostname(normalized) {
		return nil, NewBlockedError(fmt.Sprintf("blocked hostname: %s", hostname))
	}
	if IsPrivateIPAddress(normalized) {
		return nil, NewBlockedError("private/internal/loopback address")
	}

	if resolver == nil {
		resolver = DefaultResolver
	}

	// The hostname may itself already be a literal public IP; LookupIPAddr
	// handles that case by returning it unchanged.
	addrs, err := resolver.LookupIPAddr(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", hostname, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses for %s", hostname)
	}
	for _, addr := range addrs {
		if IsPrivateIPAddress(addr.IP.String()) {
			return nil, NewBlockedError(fmt.Sprintf("%s resolves to a private/internal address", hostname))
		}
	}
	return addrs, nil
}
