// Package version identifies the lcc build. BuildDate and GitCommit are filled in
// at link time:
//
//	go build -ldflags "-X github.com/standardbeagle/lcc/internal/version.GitCommit=$(git rev-parse HEAD)"
package version

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var (
	Version   = "0.1.0"
	BuildDate = "development"
	GitCommit = "unknown"
)

// FullInfo returns the product name, version and build details
func FullInfo() string {
	return fmt.Sprintf("Lightning Code Completion %s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}

var (
	buildID     string
	buildIDOnce sync.Once
)

// BuildID fingerprints the running binary from its Go version, module version and
// VCS settings. Servers report it so clients can spot one left over from an older build.
func BuildID() string {
	buildIDOnce.Do(func() {
		buildID = computeBuildID(debug.ReadBuildInfo())
	})
	return buildID
}

func computeBuildID(info *debug.BuildInfo, ok bool) string {
	if !ok || info == nil {
		return Version + "-" + GitCommit
	}

	d := xxhash.New()
	d.WriteString(info.GoVersion)
	d.WriteString(info.Main.Path)
	d.WriteString(info.Main.Version)
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision", "vcs.modified", "vcs.time":
			d.WriteString(s.Key)
			d.WriteString(s.Value)
		}
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// Compatible reports whether a server with remoteBuildID was built from the same
// binary as this process. Servers that predate build IDs send none and are accepted.
func Compatible(remoteBuildID string) bool {
	return remoteBuildID == "" || remoteBuildID == BuildID()
}
