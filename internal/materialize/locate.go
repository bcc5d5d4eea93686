package materialize

import (
	"os"
	"path/filepath"

	"github.com/example/load-template/internal/failure"
	"github.com/example/load-template/internal/manifest"
)

// Locator finds the root directory of an installed package.
type Locator interface {
	Locate(fromDir, name string) (string, error)
}

// NodeModules resolves packages the way Node does: <dir>/node_modules/<name>
// in fromDir and then in each parent directory.
type NodeModules struct{}

// Locate implements Locator.
func (NodeModules) Locate(fromDir, name string) (string, error) {
	dir, err := filepath.Abs(fromDir)
	if err != nil {
		return "", err
	}
	rel := filepath.FromSlash(name)
	for {
		candidate := filepath.Join(dir, "node_modules", rel)
		if info, err := os.Stat(filepath.Join(candidate, manifest.FileName)); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", &failure.Error{
		Kind:    failure.TemplateNotFound,
		Message: "could not locate installed template " + name,
		Path:    filepath.Join(fromDir, "node_modules", rel),
	}
}

// Dir is a Locator that always answers with a fixed package root.
type Dir string

// Locate implements Locator.
func (d Dir) Locate(string, string) (string, error) {
	return string(d), nil
}
