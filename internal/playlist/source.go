// SPDX-License-Identifier: MIT
package playlist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/adscan/internal/faults"
	"github.com/grafov/m3u8"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	maxPlaylistBytes = 32 << 20
	// flightTimeout bounds a shared fetch once it no longer follows any
	// single caller's context.
	flightTimeout = 2 * time.Minute
)

// Loaded is a fetched and parsed playlist together with the locator of the
// media playlist (which differs from the requested one for master playlists).
type Loaded struct {
	Playlist     *Playlist
	MediaLocator string
}

// Fetcher reads playlists from HTTP(S) URLs, file:// URLs or local paths.
// Concurrent loads of the same locator share one fetch.
type Fetcher struct {
	client *http.Client
	logger zerolog.Logger
	group  singleflight.Group
}

// NewFetcher creates a fetcher using client for remote playlists.
func NewFetcher(client *http.Client, logger zerolog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, logger: logger}
}

// Load fetches locator, follows a master playlist to its highest-bandwidth
// variant and parses the media playlist. Every failure wraps
// faults.ErrSourceUnavailable. A caller whose ctx ends stops waiting, but the
// shared fetch keeps running for the other callers.
func (f *Fetcher) Load(ctx context.Context, locator string) (*Loaded, error) {
	ch := f.group.DoChan(locator, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return f.load(fctx, locator)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			f.logger.Debug().Str("event", "playlist.fetch_shared").Str("source", locator).Msg("reused in-flight playlist fetch")
		}
		return res.Val.(*Loaded), nil
	}
}

func (f *Fetcher) load(ctx context.Context, locator string) (*Loaded, error) {
	text, err := f.read(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", faults.ErrSourceUnavailable, err)
	}

	mediaLocator := locator
	if strings.Contains(text, "#EXT-X-STREAM-INF") {
		variant, err := selectVariant(text, locator)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", faults.ErrSourceUnavailable, err)
		}
		f.logger.Info().
			Str("event", "playlist.variant_selected").
			Str("source", locator).
			Str("variant", variant).
			Msg("master playlist resolved to media playlist")
		text, err = f.read(ctx, variant)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", faults.ErrSourceUnavailable, err)
		}
		mediaLocator = variant
	}

	pl, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return &Loaded{Playlist: pl, MediaLocator: mediaLocator}, nil
}

func (f *Fetcher) read(ctx context.Context, locator string) (string, error) {
	lower := strings.ToLower(locator)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return f.readHTTP(ctx, locator)
	case strings.HasPrefix(lower, "file://"):
		u, err := url.Parse(locator)
		if err != nil {
			return "", fmt.Errorf("parse file url: %w", err)
		}
		return readFile(u.Path)
	default:
		return readFile(locator)
	}
}

func (f *Fetcher) readHTTP(ctx context.Context, locator string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch playlist: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch playlist: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistBytes+1))
	if err != nil {
		return "", fmt.Errorf("read playlist: %w", err)
	}
	if len(body) > maxPlaylistBytes {
		return "", errors.New("playlist exceeds 32 MiB")
	}
	return string(body), nil
}

func readFile(path string) (string, error) {
	// #nosec G304 -- playlist paths are provided by the operator
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("read playlist: %w", err)
	}
	return string(data), nil
}

// selectVariant decodes a master playlist and returns the absolute locator
// of its highest-bandwidth variant (first one wins on ties).
func selectVariant(text, base string) (string, error) {
	p, listType, err := m3u8.DecodeFrom(strings.NewReader(text), false)
	if err != nil {
		return "", fmt.Errorf("decode master playlist: %w", err)
	}
	if listType != m3u8.MASTER {
		return "", errors.New("expected master playlist")
	}
	master, ok := p.(*m3u8.MasterPlaylist)
	if !ok {
		return "", errors.New("expected master playlist")
	}

	var best *m3u8.Variant
	for _, v := range master.Variants {
		if v == nil || v.URI == "" {
			continue
		}
		if best == nil || v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	if best == nil {
		return "", errors.New("master playlist has no variants")
	}
	return resolveRef(base, best.URI)
}

// resolveRef resolves ref against a URL or filesystem base.
func resolveRef(base, ref string) (string, error) {
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref, nil
	}
	lower := strings.ToLower(base)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "file://") {
		b, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("parse base url: %w", err)
		}
		r, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("parse variant url: %w", err)
		}
		return b.ResolveReference(r).String(), nil
	}
	if filepath.IsAbs(ref) {
		return ref, nil
	}
	return filepath.Join(filepath.Dir(base), ref), nil
}
