// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	xglog "github.com/ManuGH/adscan/internal/log"
	"github.com/google/renameio/v2"
)

// Marshal renders r as indented JSON with a trailing newline.
func Marshal(r *Result) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return append(data, '\n'), nil
}

// Write atomically replaces path with the JSON document and then copies
// the same bytes to echo (usually stdout). A nil echo skips the copy.
func Write(ctx context.Context, path string, r *Result, echo io.Writer) error {
	logger := xglog.FromContext(ctx)

	data, err := Marshal(r)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending result file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending result file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write result data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace result file: %w", err)
	}

	if echo != nil {
		if _, err := echo.Write(data); err != nil {
			return fmt.Errorf("echo result: %w", err)
		}
	}
	return nil
}
