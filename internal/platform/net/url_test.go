// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package net

import "testing"

func TestSanitizeURL(t *testing.T) {
	cases := map[string]string{
		"https://user:pw@cdn.example/rec.m3u8?token=abc#x": "https://cdn.example/rec.m3u8",
		"http://cdn.example/rec.m3u8":                      "http://cdn.example/rec.m3u8",
		"/srv/rec/a.m3u8":                                  "/srv/rec/a.m3u8",
		"file:///srv/rec/a.m3u8":                           "file:///srv/rec/a.m3u8",
	}
	for in, want := range cases {
		if got := SanitizeURL(in); got != want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}
