package main

import (
	"github.com/MeKo-Tech/droste/cmd/droste/cmd"
)

// Build metadata is injected with
// -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	cmd.Execute()
}
