// Package version carries build metadata reported by the droste CLI and
// the /health endpoint.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "unknown"

// Build describes the running binary.
type Build struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

var current = Build{Version: "dev", Commit: unknown, Date: unknown}

// Set records metadata injected by the linker. Empty fields keep their
// previous value.
func Set(b Build) {
	if b.Version != "" {
		current.Version = b.Version
	}
	if b.Commit != "" {
		current.Commit = b.Commit
	}
	if b.Date != "" {
		current.Date = b.Date
	}
}

// Get returns the recorded metadata. Fields still unset are filled from the
// module and VCS stamps of the Go toolchain when the binary carries them.
func Get() Build {
	b := current
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && b.Commit == unknown:
			b.Commit = s.Value[:min(12, len(s.Value))]
		case s.Key == "vcs.time" && b.Date == unknown:
			b.Date = s.Value
		}
	}
	return b
}

func (b Build) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", b.Version, b.Commit, b.Date)
}
