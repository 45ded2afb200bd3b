// Package version reports which yeat build is running. The variables are set
// at build time with -ldflags "-X github.com/bioforensics/yeat/pkg/version.Version=...".
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Name is the program name used in version output and plan metadata
const Name = "yeat"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// BuildInfo is the machine-readable form printed by `yeat version --json`
type BuildInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func Info() BuildInfo {
	return BuildInfo{
		Name:      Name,
		Version:   Short(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Short is the release version, or dev-<commit> for untagged builds
func Short() string {
	if Version != "dev" || GitCommit == "unknown" {
		return Version
	}
	if len(GitCommit) > 7 {
		return "dev-" + GitCommit[:7]
	}
	return "dev-" + GitCommit
}

// UserAgent returns "yeat/<version>", recorded in workflow plans
func UserAgent() string {
	return Name + "/" + Short()
}

// Long is the human-readable output of `yeat version`
func Long() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", Name, Short())
	if BuildDate != "unknown" {
		fmt.Fprintf(&b, "Built: %s\n", BuildDate)
	}
	if GitCommit != "unknown" {
		fmt.Fprintf(&b, "Commit: %s\n", GitCommit)
	}
	fmt.Fprintf(&b, "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return b.String()
}
