// Package netssrf validates outbound URLs and resolved IP addresses against
// the SSRF block list required by the web_fetch tool (spec.md §4.5, §8).
package netssrf

import (
	"net"
	"strconv"
	"strings"
)

// privateIPv6Prefixes contains textual prefixes of private/link-local/ULA
// IPv6 addresses: fe80: (link-local), fec0: (site-local), and fc/fd
// (fc00::/7 ULA). The rest of fe80::/10 is caught in IsPrivateIPAddress by
// net.IP.IsLinkLocalUnicast.
var privateIPv6Prefixes = []string{"fe80:", "fec0:", "fc", "fd"}

func normalizeHostname(hostname string) string {
	normalized := strings.TrimSpace(hostname)
	normalized = strings.ToLower(normalized)
	normalized = strings.TrimSuffix(normalized, ".")
	if strings.HasPrefix(normalized, "[") && strings.HasSuffix(normalized, "]") {
		normalized = normalized[1 : len(normalized)-1]
	}
	return normalized
}

// parseDecimalIPv4 parses strict dotted-decimal notation, e.g. "127.0.0.1".
func parseDecimalIPv4(address string) ([4]byte, bool) {
	var result [4]byte
	parts := strings.Split(address, ".")
	if len(parts) != 4 {
		return result, false
	}
	for i, part := range parts {
		if part == "" {
			return result, false
		}
		value, err := strconv.ParseUint(part, 10, 32)
		if err != nil || value > 255 {
			return result, false
		}
		result[i] = byte(value)
	}
	return result, true
}

// parseOctalIPv4 parses an octal-notation IPv4 address, e.g. "0177.0.0.1".
func parseOctalIPv4(address string) ([4]byte, bool) {
	var result [4]byte
	parts := strings.Split(address, ".")
	if len(parts) != 4 {
		return result, false
	}
	for i, part := range parts {
		if part == "" {
			return result, false
		}
		base := 10
		digits := part
		if len(part) > 1 && part[0] == '0' {
			base = 8
		}
		value, err := strconv.ParseUint(digits, base, 32)
		if err != nil || value > 255 {
			return result, false
		}
		result[i] = byte(value)
	}
	return result, true
}

// parseHexOrIntegerIPv4 parses "0x7f000001" or a bare 32-bit integer such as
// "2130706433" (both equal to 127.0.0.1).
func parseHexOrIntegerIPv4(address string) ([4]byte, bool) {
	var result [4]byte
	var value uint64
	var err error
	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		value, err = strconv.ParseUint(address[2:], 16, 32)
	} else if isAllDigits(address) && len(address) > 0 {
		value, err = strconv.ParseUint(address, 10, 32)
	} else {
		return result, false
	}
	if err != nil {
		return result, false
	}
	result[0] = byte(value >> 24)
	result[1] = byte(value >> 16)
	result[2] = byte(value >> 8)
	result[3] = byte(value)
	return result, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsPrivateIPv4 reports whether the 4 octets fall in a reserved/private
// range: 0.0.0.0/8, 10/8, 100.64/10, 127/8, 169.254/16, 172.16-31/12,
// 192.168/16.
func IsPrivateIPv4(parts [4]byte) bool {
	a, b := parts[0], parts[1]
	switch {
	case a == 0:
		return true
	case a == 10:
		return true
	case a == 127:
		return true
	case a == 169 && b == 254:
		return true
	case a == 172 && b >= 16 && b <= 31:
		return true
	case a == 192 && b == 168:
		return true
	case a == 100 && b >= 64 && b <= 127:
		return true
	}
	return false
}

// IsPrivateIPAddress reports whether address (IPv4 in any of the alternate
// notations spec.md §4.5 lists, or IPv6) is a private/reserved/metadata
// address that web_fetch must block.
func IsPrivateIPAddress(address string) bool {
	normalized := normalizeHostname(address)
	if normalized == "" {
		return false
	}

	if normalized == "169.254.169.254" {
		return true
	}
	if normalized == "fd00:ec2::254" {
		return true
	}

	if strings.HasPrefix(normalized, "::ffff:") {
		mapped := normalized[len("::ffff:"):]
		if parts, ok := parseDecimalIPv4(mapped); ok {
			return IsPrivateIPv4(parts)
		}
	}

	if strings.Contains(normalized, ":") {
		if normalized == "::" || normalized == "::1" {
			return true
		}
		for _, prefix := range privateIPv6Prefixes {
			if strings.HasPrefix(normalized, prefix) {
				return true
			}
		}
		if ip := net.ParseIP(normalized); ip != nil && (ip.IsLinkLocalUnicast() || ip.IsPrivate()) {
			return true
		}
		return false
	}

	if hasOctalOctet(normalized) {
		if parts, ok := parseOctalIPv4(normalized); ok {
			return IsPrivateIPv4(parts)
		}
	}
	if parts, ok := parseDecimalIPv4(normalized); ok {
		return IsPrivateIPv4(parts)
	}
	if parts, ok := parseHexOrIntegerIPv4(normalized); ok {
		return IsPrivateIPv4(parts)
	}
	return false
}

// hasOctalOctet reports whether address looks like dotted-decimal notation
// with at least one octet carrying a leading zero (e.g. "0177"), the
// canonical octal-escape trick used to smuggle loopback/private addresses
// past naive string filters.
func hasOctalOctet(address string) bool {
	parts := strings.Split(address, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if len(part) > 1 && part[0] == '0' {
			return true
		}
	}
	return false
}

// IsAlternateIPNotation reports whether address is an IPv4 address written
// in a non-dotted-decimal form (octal, hex, or bare integer) — these are
// always rejected by web_fetch regardless of whether the underlying address
// happens to be public, since they are used to evade naive string-based
// allow-lists.
func IsAlternateIPNotation(address string) bool {
	normalized := normalizeHostname(address)
	if normalized == "" || strings.Contains(normalized, ":") {
		return false
	}
	if hasOctalOctet(normalized) {
		if _, ok := parseOctalIPv4(normalized); ok {
			return true
		}
	}
	if _, ok := parseDecimalIPv4(normalized); ok {
		return false
	}
	if _, ok := parseHexOrIntegerIPv4(normalized); ok {
		return true
	}
	return false
}
