package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// GetVersionInfo describes the kioskctl build.
func GetVersionInfo() string {
	return fmt.Sprintf("kioskctl version %s (commit: %s, built: %s, go: %s)",
		Version, GitCommit, BuildTime, runtime.Version())
}

// UserAgent identifies the kiosk in outbound HTTP requests.
func UserAgent() string {
	return "cinema-kiosk/" + Version
}
