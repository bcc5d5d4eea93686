package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// PackageName is the name the tool is published under.
const PackageName = "load-template"

// These values are overridden at build time via -ldflags "-X ...".
var (
	Version      = "dev"
	GitCommit    = "unknown"
	GitTreeState = "unknown" // clean|dirty|unknown
	BuildDate    = "unknown" // RFC3339 UTC preferred
)

type Info struct {
	Version      string `json:"version" yaml:"version"`
	GitCommit    string `json:"gitCommit" yaml:"gitCommit"`
	GitTreeState string `json:"gitTreeState" yaml:"gitTreeState"`
	BuildDate    string `json:"buildDate" yaml:"buildDate"`
	GoVersion    string `json:"goVersion" yaml:"goVersion"`
	Platform     string `json:"platform" yaml:"platform"`
}

func Get() Info {
	return Info{
		Version:      Version,
		GitCommit:    GitCommit,
		GitTreeState: GitTreeState,
		BuildDate:    BuildDate,
		GoVersion:    runtime.Version(),
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Outdated reports whether latest is newer than current. Development builds
// are never outdated.
func Outdated(current, latest string) (bool, error) {
	if current == "" || current == "dev" {
		return false, nil
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("parse current version %q: %w", current, err)
	}
	pub, err := semver.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("parse published version %q: %w", latest, err)
	}
	return pub.GreaterThan(cur), nil
}
