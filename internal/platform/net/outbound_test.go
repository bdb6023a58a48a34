// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package net

import (
	"context"
	"errors"
	"testing"
)

func TestSourcePolicyCheck(t *testing.T) {
	cases := []struct {
		name    string
		policy  SourcePolicy
		source  string
		allowed bool
	}{
		{"local path allowed", SourcePolicy{AllowFiles: true}, "/rec/a.m3u8", true},
		{"file url allowed", SourcePolicy{AllowFiles: true}, "file:///rec/a.m3u8", true},
		{"local path refused", SourcePolicy{}, "/rec/a.m3u8", false},
		{"open policy public ip", SourcePolicy{}, "http://192.0.2.10/live.m3u8", true},
		{"open policy private ip", SourcePolicy{}, "http://10.1.2.3:8001/rec.m3u8", true},
		{"metadata ip", SourcePolicy{}, "http://169.254.169.254/latest", false},
		{"loopback ip", SourcePolicy{}, "http://127.0.0.1:8080/a.m3u8", false},
		{"ipv6 loopback", SourcePolicy{}, "http://[::1]/a.m3u8", false},
		{"loopback allowlisted", SourcePolicy{CIDRs: []string{"127.0.0.0/8"}}, "http://127.0.0.1:8080/a.m3u8", true},
		{"listed host skips resolution", SourcePolicy{Hosts: []string{"CDN.Example."}}, "https://cdn.example/rec.m3u8", true},
		{"restricted policy unlisted ip", SourcePolicy{Hosts: []string{"cdn.example"}}, "http://192.0.2.10/a.m3u8", false},
		{"restricted policy listed cidr", SourcePolicy{CIDRs: []string{"192.0.2.0/24"}}, "http://192.0.2.10/a.m3u8", true},
		{"single ip entry", SourcePolicy{CIDRs: []string{"192.0.2.10"}}, "http://192.0.2.10/a.m3u8", true},
		{"credentials", SourcePolicy{}, "http://user:pw@192.0.2.10/a.m3u8", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Check(context.Background(), tc.source)
			if tc.allowed {
				if err != nil {
					t.Fatalf("expected allowed, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrSourceNotAllowed) {
				t.Fatalf("expected ErrSourceNotAllowed, got %v", err)
			}
		})
	}
}

func TestSourcePolicyValidate(t *testing.T) {
	if err := (SourcePolicy{Hosts: []string{"cdn.example"}, CIDRs: []string{"10.0.0.0/8", "::1"}}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (SourcePolicy{CIDRs: []string{"not-a-cidr"}}).Validate(); err == nil {
		t.Fatal("expected invalid CIDR error")
	}
	if err := (SourcePolicy{Hosts: []string{"cdn.example:443"}}).Validate(); err == nil {
		t.Fatal("expected host-with-port error")
	}
}

func TestNormalizeHost(t *testing.T) {
	cases := map[string]string{
		"Example.COM.":  "example.com",
		"[2001:DB8::1]": "2001:db8::1",
		"bücher.de":     "xn--bcher-kva.de",
	}
	for in, want := range cases {
		got, err := NormalizeHost(in)
		if err != nil {
			t.Fatalf("NormalizeHost(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("NormalizeHost(%q) = %q, want %q", in, got, want)
		}
	}
}
