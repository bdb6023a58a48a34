// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detect:\n  strategy: distance\n"), 0o600))

	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader, path)
	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("detect:\n  strategy: knn\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))
	assert.Equal(t, StrategyKNN, h.Get().Detect.Strategy)

	select {
	case got := <-ch:
		assert.Equal(t, StrategyKNN, got.Detect.Strategy)
	default:
		t.Fatal("listener was not notified")
	}
}

func TestHolderReloadKeepsOldConfigOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detect:\n  strategy: lof\n"), 0o600))

	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader, path)

	require.NoError(t, os.WriteFile(path, []byte("detect:\n  strategy: nope\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, StrategyLOF, h.Get().Detect.Strategy)
}

func TestHolderWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: info\n"), 0o600))

	loader := NewLoader(path, "test")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader, path)
	h.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))
	defer h.Stop()

	require.NoError(t, os.WriteFile(path, []byte("logLevel: debug\n"), 0o600))
	assert.Eventually(t, func() bool { return h.Get().LogLevel == "debug" }, 3*time.Second, 20*time.Millisecond)
}

func TestHolderWatcherDisabledWithoutPath(t *testing.T) {
	h := NewHolder(Defaults(), NewLoader("", ""), "")
	require.NoError(t, h.StartWatcher(context.Background()))
	h.Stop()
}
