// Package version carries the build identity stamped into the binary.
// Release builds set the variables through ldflags; source builds fall
// back to the module build info recorded by the toolchain.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func init() {
	if Version == "dev" {
		fromBuildInfo()
	}
}

// fromBuildInfo fills unset variables from debug.ReadBuildInfo. This
// covers binaries installed with
// "go install github.com/tessera-dev/tessera/cmd/tessera@version",
// which never pass through the release pipeline.
func fromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			Commit = shortCommit(setting.Value)
		case "vcs.time":
			Date = setting.Value
		}
	}
}

// shortCommit trims a full revision hash to the abbreviated form used
// in the banner.
func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// Info returns the one-line banner printed by the version command.
func Info() string {
	return fmt.Sprintf("tessera %s (commit: %s, built: %s) %s",
		Version, Commit, Date, runtime.Version())
}
