package domain

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// blockedNetworks are the address ranges a check target may not point at
// when private targets are blocked.
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"0.0.0.0/8",
		"::1/128",
		"fe80::/10",
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

var blockedHostnames = []string{"localhost"}

// TargetPolicy validates check targets without resolving them.
type TargetPolicy struct {
	BlockPrivate bool
}

// Validate parses protocol://website and reports a Website validation
// error when the result has no host or, with BlockPrivate set, points at a
// loopback, private or link-local address.
func (p TargetPolicy) Validate(protocol, website string) error {
	raw := protocol + "://" + website
	parsed, err := url.Parse(raw)
	if err != nil {
		return NewValidationError("Website", "is not a valid URL", ErrInvalidFormat)
	}

	host := parsed.Hostname()
	if host == "" {
		return NewValidationError("Website", "must include a host", ErrInvalidFormat)
	}

	if !p.BlockPrivate {
		return nil
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return NewValidationError("Website", "must not point at a private address", nil)
		}
		return nil
	}

	lower := strings.ToLower(host)
	for _, blocked := range blockedHostnames {
		if lower == blocked || strings.HasSuffix(lower, "."+blocked) {
			return NewValidationError("Website", "must not point at a private address", nil)
		}
	}
	return nil
}

func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
