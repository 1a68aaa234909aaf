package netssrf

import (
	"context"
	"net"
	"testing"
)

func TestIsPrivateIPAddressBlockList(t *testing.T) {
	cases := []string{
		"10.0.0.1",
		"192.168.1.1",
		"172.16.0.5",
		"172.31.255.255",
		"127.0.0.1",
		"0.0.0.0",
		"169.254.169.254",
		"::1",
		"fc00::1",
		"fd00::1",
		"fd00:ec2::254",
		"fe80::1",
	}
	for _, addr := range cases {
		if !IsPrivateIPAddress(addr) {
			t.Errorf("expected %s to be detected as private/blocked", addr)
		}
	}
}

func TestIsPrivateIPAddressAllowsPublic(t *testing.T) {
	cases := []string{"8.8.8.8", "93.184.216.34", "2606:4700:4700::1111"}
	for _, addr := range cases {
		if IsPrivateIPAddress(addr) {
			t.Errorf("expected %s to be public", addr)
		}
	}
}

func TestAlternateIPNotationsDetected(t *testing.T) {
	cases := []string{"0177.0.0.1", "0x7f000001", "2130706433"}
	for _, addr := range cases {
		if !IsAlternateIPNotation(addr) {
			t.Errorf("expected %s to be detected as alternate notation", addr)
		}
		if !IsPrivateIPAddress(addr) {
			t.Errorf("expected %s (decodes to 127.0.0.1) to be private", addr)
		}
	}
}

func TestIsBlockedHostname(t *testing.T) {
	for _, h := range []string{"localhost", "metadata.google.internal", "foo.internal", "bar.local"} {
		if !IsBlockedHostname(h) {
			t.Errorf("expected %s to be blocked", h)
		}
	}
	if IsBlockedHostname("example.com") {
		t.Error("example.com should not be blocked")
	}
}

type stubResolver struct {
	addrs map[string][]net.IPAddr
}

func (s stubResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	return s.addrs[host], nil
}

func TestValidateHostRejectsBadScheme(t *testing.T) {
	_, err := ValidateHost(context.Background(), nil, "ftp", "example.com")
	if !IsBlocked(err) {
		t.Fatalf("expected blocked error, got %v", err)
	}
}

func TestValidateHostRejectsResolvedPrivateAddress(t *testing.T) {
	resolver := stubResolver{addrs: map[string][]net.IPAddr{
		"evil.example.com": {{IP: net.ParseIP("169.254.169.254")}},
	}}
	_, err := ValidateHost(context.Background(), resolver, "http", "evil.example.com")
	if !IsBlocked(err) {
		t.Fatalf("expected blocked error for rebinding to metadata address, got %v", err)
	}
}

func TestValidateHostAllowsResolvedPublicAddress(t *testing.T) {
	resolver := stubResolver{addrs: map[string][]net.IPAddr{
		"good.example.com": {{IP: net.ParseIP("93.184.216.34")}},
	}}
	addrs, err := ValidateHost(context.Background(), resolver, "https", "good.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(addrs) != 1 {
		t.Fatalf("expected 1 address, got %d", len(addrs))
	}
}
