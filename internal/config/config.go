// File: internal/config/config.go
// Brief: Creation flags, defaults and validation for the load-template command.

// Package config defines the flag plumbing and runtime options of the
// load-template command, translating pflag values into a strongly
// typed struct and finally into the ProjectSpec a creation runs on.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/load-template/internal/create"
	"github.com/example/load-template/internal/installer"
	"github.com/example/load-template/internal/scaffold"
	"github.com/example/load-template/internal/specifier"
	"github.com/example/load-template/pkg/registry"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
)

// Options holds all CLI configuration of a creation run.
type Options struct {
	ProjectDir     string
	Template       string
	Language       string
	Private        bool
	Force          bool
	Verbose        bool
	NpmLogLevel    string
	LogLevel       string
	Registry       string
	PackageManager string
	TemplatePrefix string
	HTTPTimeout    time.Duration
	InstallDeps    bool
	ShowDiff       bool
	Output         string
	Info           bool
	SkipPreflight  bool
}

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

const defaultHTTPTimeout = 10 * time.Second

var npmLogLevels = []string{"silent", "error", "warn", "notice", "http", "timing", "info", "verbose", "silly"}

var toolLogLevels = []string{"debug", "info", "warn", "warning", "error"}

// NewOptions returns Options with defaults applied.
func NewOptions() *Options {
	return &Options{
		Private:        true,
		NpmLogLevel:    installer.DefaultLogLevel,
		Registry:       registry.DefaultURL,
		PackageManager: installer.DefaultCommand,
		TemplatePrefix: specifier.DefaultPrefix,
		HTTPTimeout:    defaultHTTPTimeout,
		Output:         OutputText,
	}
}

// BindFlags attaches creation flags to an arbitrary FlagSet and returns the flag names for further customization.
func (o *Options) BindFlags(fs *pflag.FlagSet) []string {
	var names []string
	fs.StringVarP(&o.Template, "template", "t", o.Template, "Template to create the project from: a registry name, file:<path>, a .tgz/.tar.gz archive or a git+ URL")
	names = append(names, "template")
	fs.StringVar(&o.Language, "language", o.Language, "Project language (ts or js); inferred from the template name when empty")
	names = append(names, "language")
	fs.BoolVar(&o.Private, "private", o.Private, "Mark the generated package as private")
	names = append(names, "private")
	fs.BoolVarP(&o.Force, "force", "f", o.Force, "Overwrite the target directory if it already exists")
	names = append(names, "force")
	fs.BoolVar(&o.Verbose, "verbose", o.Verbose, "Print additional logs and pass --verbose to the package manager")
	names = append(names, "verbose")
	fs.StringVar(&o.NpmLogLevel, "npm-loglevel", o.NpmLogLevel, "Log level passed to the package manager ("+strings.Join(npmLogLevels, ", ")+")")
	names = append(names, "npm-loglevel")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Tool log level (debug, info, warn, error); debug when --verbose is set")
	names = append(names, "log-level")
	fs.StringVar(&o.Registry, "registry", o.Registry, "Package registry used for template metadata")
	names = append(names, "registry")
	fs.StringVar(&o.PackageManager, "package-manager", o.PackageManager, "Package manager command line, e.g. \"npm --prefer-offline\"")
	names = append(names, "package-manager")
	fs.StringVar(&o.TemplatePrefix, "template-prefix", o.TemplatePrefix, "Naming prefix added to unprefixed registry templates")
	names = append(names, "template-prefix")
	fs.DurationVar(&o.HTTPTimeout, "http-timeout", o.HTTPTimeout, "Timeout for registry and archive requests")
	names = append(names, "http-timeout")
	fs.BoolVar(&o.InstallDeps, "install-deps", o.InstallDeps, "Install the merged dependencies after materializing the template")
	names = append(names, "install-deps")
	fs.BoolVar(&o.ShowDiff, "show-diff", o.ShowDiff, "Print a diff between the scaffolded and the final package.json")
	names = append(names, "show-diff")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Summary format: text, json or yaml")
	names = append(names, "output")
	fs.BoolVar(&o.Info, "info", o.Info, "Print environment debug info and exit")
	names = append(names, "info")
	fs.BoolVar(&o.SkipPreflight, "skip-preflight", o.SkipPreflight, "Skip the Node.js runtime version check")
	names = append(names, "skip-preflight")
	return names
}

// Validate normalizes the options and rejects incoherent values.
func (o *Options) Validate() error {
	switch lang := strings.ToLower(strings.TrimSpace(o.Language)); lang {
	case "", "ts", "js":
		o.Language = lang
	case "typescript":
		o.Language = string(scaffold.TypeScript)
	case "javascript":
		o.Language = string(scaffold.JavaScript)
	default:
		return fmt.Errorf("invalid --language %q (expected ts or js)", o.Language)
	}

	o.Output = strings.ToLower(strings.TrimSpace(o.Output))
	if o.Output == "" {
		o.Output = OutputText
	}
	switch o.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid --output %q (expected text, json, or yaml)", o.Output)
	}

	o.NpmLogLevel = strings.ToLower(strings.TrimSpace(o.NpmLogLevel))
	if o.NpmLogLevel == "" {
		o.NpmLogLevel = installer.DefaultLogLevel
	}
	if !contains(npmLogLevels, o.NpmLogLevel) {
		return fmt.Errorf("invalid --npm-loglevel %q (expected one of %s)", o.NpmLogLevel, strings.Join(npmLogLevels, ", "))
	}

	o.LogLevel = strings.ToLower(strings.TrimSpace(o.LogLevel))
	if o.LogLevel != "" && !contains(toolLogLevels, o.LogLevel) {
		return fmt.Errorf("invalid --log-level %q (expected debug, info, warn, or error)", o.LogLevel)
	}

	if o.HTTPTimeout <= 0 {
		return fmt.Errorf("--http-timeout must be positive")
	}
	if strings.TrimSpace(o.PackageManager) == "" {
		o.PackageManager = installer.DefaultCommand
	}
	if strings.TrimSpace(o.TemplatePrefix) == "" {
		o.TemplatePrefix = specifier.DefaultPrefix
	}
	o.Registry = strings.TrimRight(strings.TrimSpace(o.Registry), "/")
	if o.Registry == "" {
		o.Registry = registry.DefaultURL
	}
	if !strings.HasPrefix(o.Registry, "http://") && !strings.HasPrefix(o.Registry, "https://") {
		return fmt.Errorf("invalid --registry %q (expected an http(s) URL)", o.Registry)
	}
	return nil
}

// EffectiveLogLevel returns the tool log level, raised to debug by --verbose
// unless a level was set explicitly.
func (o *Options) EffectiveLogLevel() string {
	if o.LogLevel != "" {
		return o.LogLevel
	}
	if o.Verbose {
		return "debug"
	}
	return "info"
}

// ProjectSpec builds the immutable creation input. Relative project
// directories resolve against cwd.
func (o *Options) ProjectSpec(cwd string) (create.ProjectSpec, error) {
	dir := strings.TrimSpace(o.ProjectDir)
	if dir == "" {
		return create.ProjectSpec{}, fmt.Errorf("a project directory is required")
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return create.ProjectSpec{}, fmt.Errorf("expand project directory %q: %w", dir, err)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(cwd, expanded)
	}
	target := filepath.Clean(expanded)
	return create.ProjectSpec{
		Name:              filepath.Base(target),
		TargetPath:        target,
		TemplateSpecifier: strings.TrimSpace(o.Template),
		Language:          scaffold.Language(o.Language),
		Private:           o.Private,
		Overwrite:         o.Force,
		Verbose:           o.Verbose,
		LogLevel:          o.NpmLogLevel,
		InstallDeps:       o.InstallDeps,
	}, nil
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
