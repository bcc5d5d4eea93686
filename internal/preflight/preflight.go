package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/example/load-template/internal/failure"
)

// MinimumNode is the oldest supported Node.js major version.
const MinimumNode = "18"

// NotFound is reported for tools that are not installed.
const NotFound = "Not Found"

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Runtime checks the JavaScript runtime the package manager relies on.
type Runtime struct {
	// Command is the runtime binary; "node" when empty.
	Command string
	// Minimum is a semver constraint floor; MinimumNode when empty.
	Minimum string
	Run     Runner
}

// Check fails with UnsupportedRuntimeVersion when the runtime is missing or
// older than the minimum.
func (r Runtime) Check(ctx context.Context) error {
	cmd := r.command()
	out, err := r.runner()(ctx, cmd, "--version")
	if err != nil {
		return failure.Wrap(failure.UnsupportedRuntimeVersion, err, "could not determine the %s version", cmd)
	}
	return CheckVersion(strings.TrimSpace(string(out)), r.Minimum)
}

func (r Runtime) command() string {
	if strings.TrimSpace(r.Command) == "" {
		return "node"
	}
	return r.Command
}

func (r Runtime) runner() Runner {
	if r.Run == nil {
		return execRunner
	}
	return r.Run
}

// CheckVersion reports whether raw satisfies ">= minimum". Prerelease and
// build metadata are ignored, so "v20.0.0-nightly" counts as 20.0.0.
func CheckVersion(raw, minimum string) error {
	if minimum == "" {
		minimum = MinimumNode
	}
	v, err := Coerce(raw)
	if err != nil {
		return failure.Wrap(failure.UnsupportedRuntimeVersion, err, "unrecognized runtime version %q", raw)
	}
	constraint, err := semver.NewConstraint(">= " + minimum)
	if err != nil {
		return fmt.Errorf("invalid runtime constraint %q: %w", minimum, err)
	}
	if !constraint.Check(v) {
		return failure.New(failure.UnsupportedRuntimeVersion,
			"you are using Node %s; please update to Node %s or higher", raw, minimum)
	}
	return nil
}

// Coerce parses raw leniently and drops prerelease and metadata parts.
func Coerce(raw string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return semver.New(v.Major(), v.Minor(), v.Patch(), "", ""), nil
}

// Info is the environment report printed by --info.
type Info struct {
	OS        string `json:"os" yaml:"os"`
	Arch      string `json:"arch" yaml:"arch"`
	CPUs      int    `json:"cpus" yaml:"cpus"`
	GoVersion string `json:"go" yaml:"go"`
	Node      string `json:"node" yaml:"node"`
	Npm       string `json:"npm" yaml:"npm"`
}

// Collect gathers environment information. Missing tools are reported as
// NotFound rather than failing.
func Collect(ctx context.Context, run Runner) Info {
	if run == nil {
		run = execRunner
	}
	return Info{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		GoVersion: runtime.Version(),
		Node:      toolVersion(ctx, run, "node"),
		Npm:       toolVersion(ctx, run, "npm"),
	}
}

func toolVersion(ctx context.Context, run Runner, name string) string {
	out, err := run(ctx, name, "--version")
	if err != nil {
		return NotFound
	}
	v := strings.TrimPrefix(strings.TrimSpace(string(out)), "v")
	if v == "" {
		return NotFound
	}
	return v
}
