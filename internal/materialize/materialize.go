// Package materialize turns an installed template package into project
// content: it merges the app, template and override manifests, copies the
// template tree and normalizes reserved files.
package materialize

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/example/load-template/internal/failure"
	"github.com/example/load-template/internal/manifest"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
)

const (
	templateDirName    = "template"
	templateDescriptor = "template.json"
	overrideKey        = "package"
)

// DeprecatedRootKeysWarning is reported when template.json carries
// dependencies or scripts outside its package object.
const DeprecatedRootKeysWarning = "Root-level `dependencies` and `scripts` keys in `template.json` are deprecated; " +
	"this template needs to be updated to use the `package` key"

// Result describes one materialization.
type Result struct {
	Manifest *manifest.Manifest
	// Before is the app manifest as scaffolded, After the written final manifest.
	Before      []byte
	After       []byte
	PackageDir  string
	TemplateDir string
	Files       []string
	Warnings    []string
}

// Scripts returns the script names of the final manifest in order.
func (r Result) Scripts() []string {
	return r.Manifest.Object(manifest.Scripts).Keys()
}

// Materializer merges and copies an installed template into a project.
type Materializer struct {
	Locator Locator
	Log     logr.Logger
}

// New returns a Materializer resolving packages from node_modules.
func New(log logr.Logger) *Materializer {
	return &Materializer{Locator: NodeModules{}, Log: log}
}

// Run materializes the template package named templateName into dir.
func (m *Materializer) Run(ctx context.Context, dir, templateName string) (Result, error) {
	locator := m.Locator
	if locator == nil {
		locator = NodeModules{}
	}
	var res Result

	appPath := filepath.Join(dir, manifest.FileName)
	before, err := os.ReadFile(appPath)
	if err != nil {
		return res, errors.Wrap(err, "read project manifest")
	}
	app, err := manifest.Parse(before)
	if err != nil {
		return res, errors.Wrapf(err, "parse %s", appPath)
	}
	res.Before = before

	pkgDir, err := locator.Locate(dir, templateName)
	if err != nil {
		return res, err
	}
	res.PackageDir = pkgDir
	templateDir := filepath.Join(pkgDir, templateDirName)
	if info, err := os.Stat(templateDir); err != nil || !info.IsDir() {
		return res, &failure.Error{
			Kind:    failure.TemplateNotFound,
			Message: "could not locate supplied template",
			Path:    templateDir,
		}
	}
	res.TemplateDir = templateDir

	tmplManifest, err := loadTemplateManifest(templateDir)
	if err != nil {
		return res, err
	}
	override, warnings, err := loadDescriptor(filepath.Join(pkgDir, templateDescriptor))
	if err != nil {
		return res, err
	}
	for _, w := range warnings {
		m.Log.Info(w, "template", templateName)
	}
	res.Warnings = append(res.Warnings, warnings...)

	final := Layers{App: app, Template: tmplManifest, Override: override}.Final()
	after, err := final.Encode()
	if err != nil {
		return res, errors.Wrap(err, "encode final manifest")
	}
	if err := os.WriteFile(appPath, after, 0o644); err != nil {
		return res, errors.Wrapf(err, "write %s", appPath)
	}
	res.Manifest = final
	res.After = after
	m.Log.V(1).Info("Wrote merged manifest", "path", appPath,
		"dependencies", final.Object(manifest.Dependencies).Len(),
		"devDependencies", final.Object(manifest.DevDependencies).Len())

	if err := ctx.Err(); err != nil {
		return res, err
	}
	files, err := copyTemplate(templateDir, dir)
	if err != nil {
		return res, err
	}
	res.Files = files

	readme, err := renderReadme(templateDir, dir, final.String("name"))
	if err != nil {
		return res, err
	}
	if readme != "" {
		res.Files = append(res.Files, readme)
	}
	ignoreFiles, err := normalizeIgnoreFiles(dir)
	if err != nil {
		return res, err
	}
	res.Files = mergeFileLists(res.Files, ignoreFiles)
	if err := removeInstallArtifacts(dir); err != nil {
		return res, err
	}
	return res, nil
}

// loadTemplateManifest reads the template's nested manifest. Its absence is
// not an error.
func loadTemplateManifest(templateDir string) (*manifest.Manifest, error) {
	for _, candidate := range []string{
		filepath.Join(templateDir, manifest.FileName),
		filepath.Join(templateDir, "src", manifest.FileName),
	} {
		m, err := manifest.Load(candidate)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(err, "read template manifest")
		}
	}
	return nil, nil
}

// loadDescriptor reads template.json, tolerating comments and trailing
// commas, and returns its override layer.
func loadDescriptor(path string) (*manifest.Manifest, []string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", path)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, nil
	}
	doc, err := manifest.Parse(jsonc.ToJSON(raw))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parse %s", path)
	}
	var warnings []string
	if doc.Has(manifest.Dependencies) || doc.Has(manifest.Scripts) {
		warnings = append(warnings, DeprecatedRootKeysWarning)
	}
	return doc.Object(overrideKey), warnings, nil
}
