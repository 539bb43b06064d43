// Package version holds build metadata injected with -ldflags -X.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the build metadata on one line. A build without -ldflags
// falls back to the VCS revision recorded by the Go toolchain.
func String() string {
	commit := Commit
	if commit == "unknown" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					commit = s.Value[:7]
				}
			}
		}
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, commit, Date)
}
