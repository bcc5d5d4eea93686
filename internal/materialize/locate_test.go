package materialize

import (
	"path/filepath"
	"testing"

	"github.com/example/load-template/internal/failure"
)

func TestNodeModulesLocateWalksUp(t *testing.T) {
	root := t.TempDir()
	pkg := filepath.Join(root, "node_modules", "@acme", "cra-template-web")
	writeFile(t, filepath.Join(pkg, "package.json"), `{"name":"@acme/cra-template-web"}`)
	from := filepath.Join(root, "apps", "site")

	got, err := NodeModules{}.Locate(from, "@acme/cra-template-web")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if got != pkg {
		t.Fatalf("locate = %s, want %s", got, pkg)
	}
}

func TestNodeModulesLocatePrefersNearest(t *testing.T) {
	root := t.TempDir()
	project := filepath.Join(root, "app")
	writeFile(t, filepath.Join(root, "node_modules", "tpl", "package.json"), `{}`)
	writeFile(t, filepath.Join(project, "node_modules", "tpl", "package.json"), `{}`)

	got, err := NodeModules{}.Locate(project, "tpl")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if got != filepath.Join(project, "node_modules", "tpl") {
		t.Fatalf("locate = %s", got)
	}
}

func TestNodeModulesLocateMissing(t *testing.T) {
	_, err := NodeModules{}.Locate(t.TempDir(), "load-template-missing-package")
	if !failure.IsKind(err, failure.TemplateNotFound) {
		t.Fatalf("expected TemplateNotFound, got %v", err)
	}
}
