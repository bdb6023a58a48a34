// Package version carries build metadata injected through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag, set with
	// -ldflags "-X github.com/ManuGH/adscan/internal/version.Version=v1.2.3".
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the one-line form printed by `adscan version`.
func String() string {
	return fmt.Sprintf("adscan %s (commit: %s, built: %s, %s)", Version, Commit, Date, runtime.Version())
}
