// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Build version information set via ldflags.

package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X pgstruct-mcp/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// Info returns the ldflags values, falling back to the VCS stamp the Go
// toolchain embeds for builds from a checkout.
func Info() BuildInfo {
	b := BuildInfo{Version: Version, Commit: Commit, Date: Date}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	b.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "unknown" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "unknown" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

func (b BuildInfo) String() string {
	s := fmt.Sprintf("%s (commit %s, built %s)", b.Version, b.Commit, b.Date)
	if b.Modified {
		s += " dirty"
	}
	return s
}
