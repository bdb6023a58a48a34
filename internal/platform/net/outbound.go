// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package net checks which playlist locators a job submitter may point the
// service at.
package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ErrSourceNotAllowed indicates the locator is outside the source policy.
var ErrSourceNotAllowed = errors.New("playlist source not allowed")

// SourcePolicy restricts job sources. With no hosts and no CIDRs any
// remote host is allowed except loopback, link-local and multicast
// addresses; once either list is set only listed hosts and networks pass.
type SourcePolicy struct {
	AllowFiles bool
	Hosts      []string
	CIDRs      []string
}

// NormalizeHost validates and normalizes a host for comparison.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if strings.Contains(host, "://") {
		return "", fmt.Errorf("host must not include scheme: %s", raw)
	}
	if strings.ContainsAny(host, "/@%") {
		return "", fmt.Errorf("host must be a bare name or address: %s", raw)
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	}
	if strings.Contains(host, ":") && net.ParseIP(host) == nil {
		return "", fmt.Errorf("host must not include port: %s", raw)
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if ip := net.ParseIP(host); ip != nil {
		return strings.ToLower(ip.String()), nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	return strings.ToLower(ascii), nil
}

// Validate reports malformed allowlist entries.
func (p SourcePolicy) Validate() error {
	if _, err := normalizeHostAllowlist(p.Hosts); err != nil {
		return err
	}
	_, err := parseCIDRAllowlist(p.CIDRs)
	return err
}

// Check returns nil when locator may be fetched. Every refusal wraps
// ErrSourceNotAllowed.
func (p SourcePolicy) Check(ctx context.Context, locator string) error {
	locator = strings.TrimSpace(locator)
	lower := strings.ToLower(locator)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if p.AllowFiles {
			return nil
		}
		return fmt.Errorf("%w: local files are disabled", ErrSourceNotAllowed)
	}

	u, err := url.Parse(locator)
	if err != nil {
		return fmt.Errorf("%w: invalid url: %v", ErrSourceNotAllowed, err)
	}
	if u.User != nil {
		return fmt.Errorf("%w: credentials in url", ErrSourceNotAllowed)
	}
	host, err := NormalizeHost(u.Hostname())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceNotAllowed, err)
	}

	allowedHosts, err := normalizeHostAllowlist(p.Hosts)
	if err != nil {
		return err
	}
	if _, ok := allowedHosts[host]; ok {
		return nil
	}
	allowedCIDRs, err := parseCIDRAllowlist(p.CIDRs)
	if err != nil {
		return err
	}
	restricted := len(allowedHosts) > 0 || len(allowedCIDRs) > 0

	ips, err := resolveHostIPs(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceNotAllowed, err)
	}
	for _, ip := range ips {
		listed := ipInCIDRs(ip, allowedCIDRs)
		if !listed && (restricted || isBlockedIP(ip)) {
			return fmt.Errorf("%w: address %s", ErrSourceNotAllowed, ip)
		}
	}
	return nil
}

func normalizeHostAllowlist(hosts []string) (map[string]struct{}, error) {
	allow := make(map[string]struct{})
	for _, host := range hosts {
		normalized, err := NormalizeHost(host)
		if err != nil {
			return nil, err
		}
		allow[normalized] = struct{}{}
	}
	return allow, nil
}

func parseCIDRAllowlist(entries []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, ipnet, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, ipnet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid CIDR or IP: %s", entry)
		}
		bits := 32
		if ip.To4() == nil {
			bits = 128
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets, nil
}

func resolveHostIPs(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve host %q: %w", host, err)
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, addr := range addrs {
		if addr.IP != nil {
			ips = append(ips, addr.IP)
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("resolve host %q: no addresses", host)
	}
	return ips, nil
}

func isBlockedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast()
}

func ipInCIDRs(ip net.IP, cidrs []*net.IPNet) bool {
	for _, n := range cidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
