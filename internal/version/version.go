package version

import "fmt"

// Build metadata, set through -ldflags "-X bill-advisor/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String renders the build metadata for the version command.
func String() string {
	return fmt.Sprintf("billadvisor %s\ncommit: %s\nbuilt: %s\n", Version, Commit, BuildDate)
}
