// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// ROISample is one captured training region.
type ROISample struct {
	Index     int
	OffsetSec float64
	PNG       []byte
}

// ExportROIs writes every sample to dir/samples and the seed samples to
// dir/logos. Samples without captured bytes are skipped. It returns the
// number of logo files written.
func ExportROIs(dir string, samples []ROISample, seeds []int) (int, error) {
	samplesDir := filepath.Join(dir, "samples")
	logosDir := filepath.Join(dir, "logos")
	for _, d := range []string{samplesDir, logosDir} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return 0, fmt.Errorf("create debug dir: %w", err)
		}
	}

	byIndex := make(map[int]ROISample, len(samples))
	for _, s := range samples {
		byIndex[s.Index] = s
		if len(s.PNG) == 0 {
			continue
		}
		if err := renameio.WriteFile(filepath.Join(samplesDir, roiName("sample", s)), s.PNG, 0o644); err != nil {
			return 0, fmt.Errorf("write sample roi: %w", err)
		}
	}

	written := 0
	for _, idx := range seeds {
		s, ok := byIndex[idx]
		if !ok || len(s.PNG) == 0 {
			continue
		}
		if err := renameio.WriteFile(filepath.Join(logosDir, roiName("logo", s)), s.PNG, 0o644); err != nil {
			return written, fmt.Errorf("write logo roi: %w", err)
		}
		written++
	}
	return written, nil
}

func roiName(prefix string, s ROISample) string {
	return fmt.Sprintf("%s_%06d_t%d.png", prefix, s.Index, int64(s.OffsetSec*1000))
}
