// Package version carries build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the metadata as one line for `recite version`.
func String() string {
	return fmt.Sprintf("recite %s (commit=%s, date=%s, go=%s)", resolved(), Commit, Date, runtime.Version())
}

// UserAgent identifies the practice client in requests to the server.
func UserAgent() string {
	return "recite/" + resolved()
}

// resolved prefers ldflags, then the module version stamped by `go install`.
func resolved() string {
	if Version != "dev" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return Version
	}
	return info.Main.Version
}
