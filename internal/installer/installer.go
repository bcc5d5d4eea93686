// Package installer runs the package manager inside a project directory.
package installer

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/example/load-template/internal/failure"
	"github.com/go-logr/logr"
	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
)

// DefaultCommand is the package manager used when none is configured.
const DefaultCommand = "npm"

// DefaultLogLevel is the package manager log level used when none is set.
const DefaultLogLevel = "error"

// Request is one package manager invocation.
type Request struct {
	Dir         string
	Identifiers []string
	Verbose     bool
	LogLevel    string
}

// Installer invokes the package manager as a child process.
type Installer struct {
	// Command is the package manager command line, e.g. "npm --prefer-offline".
	Command string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Log     logr.Logger
}

// New returns an Installer for command with the process standard streams.
func New(command string, log logr.Logger) *Installer {
	return &Installer{Command: command, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr, Log: log}
}

// Args returns the package manager argv for req.
func (i *Installer) Args(req Request) ([]string, error) {
	raw := strings.TrimSpace(i.Command)
	if raw == "" {
		raw = DefaultCommand
	}
	argv, err := shellwords.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse package manager command")
	}
	if len(argv) == 0 {
		return nil, errors.New("package manager command is empty")
	}
	level := strings.TrimSpace(req.LogLevel)
	if level == "" {
		level = DefaultLogLevel
	}
	argv = append(argv, "install", "--no-audit", "--save", "--save-exact", "--loglevel", level)
	for _, id := range req.Identifiers {
		if id = strings.TrimSpace(id); id != "" {
			argv = append(argv, id)
		}
	}
	if req.Verbose {
		argv = append(argv, "--verbose")
	}
	return argv, nil
}

// Install runs the package manager in req.Dir and waits for it to exit.
// A non-zero exit is reported as an InstallFailure carrying the command line.
func (i *Installer) Install(ctx context.Context, req Request) error {
	argv, err := i.Args(req)
	if err != nil {
		return failure.Wrap(failure.InstallFailure, err, "prepare install")
	}
	line := strings.Join(argv, " ")
	i.Log.V(1).Info("Running package manager", "dir", req.Dir, "command", line)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = req.Dir
	cmd.Stdin = i.Stdin
	cmd.Stdout = i.Stdout
	cmd.Stderr = i.Stderr
	if err := cmd.Run(); err != nil {
		return &failure.Error{
			Kind:    failure.InstallFailure,
			Message: "installing dependencies failed",
			Command: line,
			Err:     errors.Wrapf(err, "run %s", argv[0]),
		}
	}
	return nil
}
