// Package version reports the build identity of camcfg.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at link time:
//
//	go build -ldflags="-X github.com/muurk/camcfg/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/camcfg/internal/version.Commit=1a2b3c4"
//
// Unset values are filled from the module build info.
var (
	Version = ""
	Commit  = ""
)

// Info is the resolved build identity
type Info struct {
	Version   string `yaml:"version"`
	Commit    string `yaml:"commit"`
	Modified  bool   `yaml:"modified"`
	GoVersion string `yaml:"go_version"`
}

// Get resolves the build identity from ldflags, then build info, then
// "dev" and "unknown"
func Get() Info {
	info := Info{Version: Version, Commit: Commit}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fromBuildInfo(&info, bi)
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	return info
}

func fromBuildInfo(info *Info, bi *debug.BuildInfo) {
	info.GoVersion = bi.GoVersion
	if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	var revision string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}

	// Only a commit taken from the VCS stamp is marked dirty
	if info.Commit == "" && revision != "" {
		info.Commit = shortRevision(revision)
		if info.Modified {
			info.Commit += "-dirty"
		}
	}
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// String formats the identity as "version (commit: hash)"
func (i Info) String() string {
	return fmt.Sprintf("%s (commit: %s)", i.Version, i.Commit)
}
