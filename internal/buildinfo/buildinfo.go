// Package buildinfo carries version data injected with
//
//	go build -ldflags "-X github.com/dmitrijs2005/vaultkeeper/internal/buildinfo.Version=v1.2.0 ..."
//
// Unset values fall back to what the Go toolchain embedded in the binary.
package buildinfo

import (
	"fmt"
	"io"
	"runtime/debug"
)

const na = "N/A"

var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// readBuildInfo is a seam for debug.ReadBuildInfo.
var readBuildInfo = debug.ReadBuildInfo

// Resolve returns version, commit and build date, preferring ldflags values,
// then module and VCS data from the binary, then "N/A".
func Resolve() (version, commit, date string) {
	version, commit, date = Version, Commit, Date

	if info, ok := readBuildInfo(); ok && info != nil {
		if version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "" {
					commit = s.Value
				}
			case "vcs.time":
				if date == "" {
					date = s.Value
				}
			}
		}
	}

	if version == "" {
		version = na
	}
	if commit == "" {
		commit = na
	}
	if date == "" {
		date = na
	}
	return version, commit, date
}

// PrintBuildData writes the three build lines to w.
func PrintBuildData(w io.Writer) {
	version, commit, date := Resolve()
	fmt.Fprintf(w, "Build version: %s\n", version)
	fmt.Fprintf(w, "Build date: %s\n", date)
	fmt.Fprintf(w, "Build commit: %s\n", commit)
}
