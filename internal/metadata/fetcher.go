// Package metadata determines which package an installable specifier
// refers to. Resolution prefers degrading to a best-effort name over
// failing: only a local template without a manifest is fatal.
package metadata

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/example/load-template/internal/archive"
	"github.com/example/load-template/internal/failure"
	"github.com/example/load-template/internal/manifest"
	"github.com/example/load-template/internal/specifier"
	"github.com/example/load-template/pkg/registry"
	"github.com/go-logr/logr"
	"github.com/mitchellh/go-homedir"
)

// Package is the resolved identity of a template package. Version is empty
// when unknown.
type Package struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

const (
	maxArchiveBytes = 256 << 20
	tempDirPattern  = "load-template-*"
)

var (
	gitNamePattern     = regexp.MustCompile(`([^/]+)\.git(#.*)?$`)
	archiveNamePattern = regexp.MustCompile(`^(.+?)(?:-\d+.+)?\.(tgz|tar\.gz)$`)
	httpPattern        = regexp.MustCompile(`^https?://`)
)

// Fetcher resolves package metadata.
type Fetcher struct {
	Registry *registry.Client
	Log      logr.Logger
	// TempDir is the parent for extraction directories; os.TempDir when empty.
	TempDir string
}

// NewFetcher returns a Fetcher backed by client.
func NewFetcher(client *registry.Client, log logr.Logger) *Fetcher {
	return &Fetcher{Registry: client, Log: log}
}

// Fetch resolves the installable specifier spec. Failures that are not
// fatal per failure.Fatal degrade to a best-effort name.
func (f *Fetcher) Fetch(ctx context.Context, spec string) (Package, error) {
	spec = strings.TrimSpace(spec)
	pkg, fallback, err := f.resolve(ctx, spec)
	if err == nil {
		return pkg, nil
	}
	kind, ok := failure.KindOf(err)
	if !ok || failure.Fatal(kind) {
		return Package{}, err
	}
	log := f.Log
	if kind == failure.RegistryFetchError {
		log = log.V(1)
	}
	log.Info("Template metadata unavailable; assuming the package name",
		"specifier", spec, "name", fallback.Name, "kind", kind, "error", err.Error())
	return fallback, nil
}

// resolve returns the package and the fallback used when err degrades.
func (f *Fetcher) resolve(ctx context.Context, spec string) (Package, Package, error) {
	switch {
	case specifier.IsArchive(spec):
		pkg, err := f.readArchive(ctx, spec)
		return pkg, Package{Name: assumeArchiveName(spec)}, err
	case strings.HasPrefix(spec, "git+"):
		return fromGitURL(spec), Package{}, nil
	case strings.HasPrefix(spec, "file:"):
		pkg, err := fromLocal(strings.TrimPrefix(spec, "file:"))
		return pkg, Package{}, err
	case strings.Contains(spec[min(1, len(spec)):], "@"):
		return splitVersion(spec), Package{}, nil
	default:
		pkg, err := f.fromRegistry(ctx, spec)
		return pkg, Package{Name: spec}, err
	}
}

func (f *Fetcher) readArchive(ctx context.Context, spec string) (Package, error) {
	dir, err := os.MkdirTemp(f.TempDir, tempDirPattern)
	if err != nil {
		return Package{}, failure.Wrap(failure.ArchiveExtractionError, err, "create extraction directory")
	}
	defer func() {
		// Leftovers are reclaimed by the OS temp cleaner.
		_ = os.RemoveAll(dir)
	}()

	stream, err := f.openArchive(ctx, spec)
	if err != nil {
		return Package{}, failure.Wrap(failure.ArchiveExtractionError, err, "open archive %s", spec)
	}
	defer stream.Close()

	if err := archive.ExtractTarGz(stream, dir, archive.ExtractOptions{StripComponents: 1, MaxBytes: maxArchiveBytes}); err != nil {
		return Package{}, failure.Wrap(failure.ArchiveExtractionError, err, "extract archive %s", spec)
	}
	m, err := manifest.LoadDir(dir)
	if err != nil {
		return Package{}, failure.Wrap(failure.ArchiveExtractionError, err, "read archive manifest")
	}
	if m.String("name") == "" {
		return Package{}, failure.New(failure.ArchiveExtractionError, "archive manifest has no name")
	}
	return Package{Name: m.String("name"), Version: m.String("version")}, nil
}

func (f *Fetcher) openArchive(ctx context.Context, spec string) (io.ReadCloser, error) {
	if httpPattern.MatchString(spec) {
		client := f.Registry
		if client == nil {
			client = registry.NewClient("")
		}
		return client.Open(ctx, spec)
	}
	local, err := homedir.Expand(strings.TrimPrefix(spec, "file:"))
	if err != nil {
		return nil, err
	}
	return os.Open(local)
}

// assumeArchiveName guesses a package name from an archive file name,
// dropping a trailing "-<digit>..." version suffix and the extension.
func assumeArchiveName(spec string) string {
	base := path.Base(filepath.ToSlash(spec))
	if idx := strings.IndexAny(base, "?#"); idx >= 0 {
		base = base[:idx]
	}
	if match := archiveNamePattern.FindStringSubmatch(base); match != nil {
		return match[1]
	}
	return base
}

func fromGitURL(spec string) Package {
	if match := gitNamePattern.FindStringSubmatch(spec); match != nil {
		return Package{Name: match[1]}
	}
	return Package{Name: spec}
}

func fromLocal(dir string) (Package, error) {
	expanded, err := homedir.Expand(strings.TrimSpace(dir))
	if err != nil {
		return Package{}, failure.Wrap(failure.TemplateNotFound, err, "expand template path %s", dir)
	}
	m, err := manifest.LoadDir(expanded)
	if err != nil {
		return Package{}, failure.Wrap(failure.TemplateNotFound, err, "read template manifest in %s", expanded)
	}
	return Package{Name: m.String("name"), Version: m.String("version")}, nil
}

// splitVersion splits "name@version" at the last "@" past the first
// character, so "@scope/name@1.0.0" keeps its scope.
func splitVersion(spec string) Package {
	idx := strings.LastIndex(spec[1:], "@") + 1
	return Package{Name: spec[:idx], Version: spec[idx+1:]}
}

func (f *Fetcher) fromRegistry(ctx context.Context, name string) (Package, error) {
	client := f.Registry
	if client == nil {
		client = registry.NewClient("")
	}
	doc, err := client.Package(ctx, name)
	if err != nil {
		return Package{}, failure.Wrap(failure.RegistryFetchError, err, "fetch registry metadata for %s", name)
	}
	return Package{Name: name, Version: doc.LatestVersion()}, nil
}
