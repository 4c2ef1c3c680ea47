package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags at build time:
//
//	-X 'github.com/prostogovorite/helpbot/core/buildinfo.Version=v1.0.0'
//	-X 'github.com/prostogovorite/helpbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/prostogovorite/helpbot/core/buildinfo.Date=2026-01-01T12:00:00Z'
var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)

// Info is the resolved build identity.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

// Read returns the ldflags values, filling commit and date from the
// embedded VCS stamp when they were not set.
func Read() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "local" && len(s.Value) >= 7 {
				info.Commit = s.Value[:7]
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		}
	}
	return info
}

func (i Info) String() string {
	date := i.Date
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("helpbot %s (commit %s, built %s, %s)", i.Version, i.Commit, date, i.GoVersion)
}
