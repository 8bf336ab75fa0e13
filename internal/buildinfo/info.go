// Package buildinfo carries the release stamp of the feerecon binary.
package buildinfo

import "fmt"

// Set with -ldflags "-X github.com/cleared-dev/feerecon/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the stamp for --version output.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
