// File: internal/create/create.go
// Brief: Sequences one project creation from name check to materialized tree.

// Package create is the project creation orchestrator. It owns the
// overwrite policy and turns stage failures into a single typed outcome;
// nothing below it exits the process.
package create

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/load-template/internal/failure"
	"github.com/example/load-template/internal/installer"
	"github.com/example/load-template/internal/manifest"
	"github.com/example/load-template/internal/materialize"
	"github.com/example/load-template/internal/metadata"
	"github.com/example/load-template/internal/naming"
	"github.com/example/load-template/internal/scaffold"
	"github.com/example/load-template/internal/specifier"
	"github.com/go-logr/logr"
)

// ProjectSpec is the immutable input of one creation.
type ProjectSpec struct {
	Name       string
	TargetPath string
	// TemplateSpecifier is the raw --template value; empty selects the default template.
	TemplateSpecifier string
	// Language is ts or js; empty infers ts for templates whose name ends in "-ts".
	Language scaffold.Language
	Private  bool
	// Overwrite removes an existing target before creating it.
	Overwrite bool
	Verbose   bool
	// LogLevel is handed to the package manager.
	LogLevel string
	// InstallDeps runs a second install after materialization.
	InstallDeps bool
}

// Installer installs dependencies into a project directory.
type Installer interface {
	Install(ctx context.Context, req installer.Request) error
}

// Fetcher resolves package metadata for an installable specifier.
type Fetcher interface {
	Fetch(ctx context.Context, spec string) (metadata.Package, error)
}

// Materializer merges an installed template into a project directory.
type Materializer interface {
	Run(ctx context.Context, dir, templateName string) (materialize.Result, error)
}

// Preflight checks the environment before anything is written.
type Preflight interface {
	Check(ctx context.Context) error
}

// Creator runs project creations.
type Creator struct {
	Resolver     specifier.Resolver
	Fetcher      Fetcher
	Installer    Installer
	Materializer Materializer
	// Preflight is optional.
	Preflight Preflight
	Log       logr.Logger
}

// Result describes a finished creation.
type Result struct {
	AppName    string               `json:"appName" yaml:"appName"`
	TargetPath string               `json:"targetPath" yaml:"targetPath"`
	Language   scaffold.Language    `json:"language" yaml:"language"`
	Template   specifier.Descriptor `json:"template" yaml:"template"`
	Package    metadata.Package     `json:"package" yaml:"package"`
	Installed  []string             `json:"installed" yaml:"installed"`
	Scripts    []string             `json:"scripts" yaml:"scripts"`
	Files      []string             `json:"files" yaml:"files"`
	Warnings   []string             `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	ManifestBefore []byte `json:"-" yaml:"-"`
	ManifestAfter  []byte `json:"-" yaml:"-"`
}

// Run creates the project described by spec.
func (c *Creator) Run(ctx context.Context, spec ProjectSpec) (*Result, error) {
	if err := c.check(spec); err != nil {
		return nil, err
	}
	if c.Preflight != nil {
		if err := c.Preflight.Check(ctx); err != nil {
			return nil, err
		}
	}
	desc, err := c.Resolver.Resolve(spec.TemplateSpecifier)
	if err != nil {
		return nil, err
	}
	if err := prepareTarget(spec); err != nil {
		return nil, err
	}
	lang := spec.Language
	if lang == "" {
		lang = InferLanguage(desc.CanonicalName)
	}
	c.Log.Info("Creating a new application", "path", spec.TargetPath, "template", desc.CanonicalName, "language", lang)

	scaffolded, err := scaffold.Init(scaffold.Options{Dir: spec.TargetPath, Language: lang, Private: spec.Private})
	if err != nil {
		return nil, err
	}

	pkg, err := c.Fetcher.Fetch(ctx, desc.Installable())
	if err != nil {
		return nil, err
	}
	c.Log.V(1).Info("Resolved template package", "name", pkg.Name, "version", pkg.Version)

	ids := append(scaffolded.App.Object(manifest.Dependencies).Keys(), desc.Installable())
	c.Log.Info("Installing dependencies", "packages", strings.Join(ids, " "))
	req := installer.Request{Dir: spec.TargetPath, Identifiers: ids, Verbose: spec.Verbose, LogLevel: spec.LogLevel}
	if err := c.Installer.Install(ctx, req); err != nil {
		return nil, err
	}

	mat, err := c.Materializer.Run(ctx, spec.TargetPath, pkg.Name)
	if err != nil {
		return nil, err
	}

	if spec.InstallDeps {
		c.Log.Info("Installing template dependencies")
		req.Identifiers = nil
		if err := c.Installer.Install(ctx, req); err != nil {
			return nil, err
		}
	}

	return &Result{
		AppName:        mat.Manifest.String("name"),
		TargetPath:     spec.TargetPath,
		Language:       lang,
		Template:       desc,
		Package:        pkg,
		Installed:      ids,
		Scripts:        mat.Scripts(),
		Files:          mergeFiles(scaffolded.Files, mat.Files),
		Warnings:       mat.Warnings,
		ManifestBefore: mat.Before,
		ManifestAfter:  mat.After,
	}, nil
}

func (c *Creator) check(spec ProjectSpec) error {
	if !filepath.IsAbs(spec.TargetPath) {
		return fmt.Errorf("target path %q must be absolute", spec.TargetPath)
	}
	if c.Fetcher == nil || c.Installer == nil || c.Materializer == nil {
		return errors.New("creator is missing a stage")
	}
	result := naming.Validate(spec.Name)
	if !result.ValidForNewPackages() {
		return &failure.Error{
			Kind:    failure.InvalidProjectName,
			Message: fmt.Sprintf("cannot create a project named %q because of npm naming restrictions", spec.Name),
			Reasons: result.Problems(),
		}
	}
	return nil
}

// prepareTarget enforces the overwrite policy. Without Overwrite an
// existing target is left untouched.
func prepareTarget(spec ProjectSpec) error {
	_, err := os.Lstat(spec.TargetPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("inspect target: %w", err)
	case !spec.Overwrite:
		return &failure.Error{
			Kind:    failure.PathAlreadyExists,
			Message: fmt.Sprintf("cannot create a project named %q because the path already exists", spec.Name),
			Path:    spec.TargetPath,
		}
	}
	if err := os.RemoveAll(spec.TargetPath); err != nil {
		return fmt.Errorf("remove existing target: %w", err)
	}
	return nil
}

// InferLanguage picks ts for "-ts" templates and js otherwise.
func InferLanguage(templateName string) scaffold.Language {
	name := templateName
	if idx := strings.LastIndex(name, "@"); idx > 0 {
		name = name[:idx]
	}
	if strings.HasSuffix(name, "-ts") {
		return scaffold.TypeScript
	}
	return scaffold.JavaScript
}

func mergeFiles(lists ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, list := range lists {
		for _, f := range list {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}
