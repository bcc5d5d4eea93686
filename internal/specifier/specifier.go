// Package specifier turns the user-supplied --template value into a
// Descriptor: which kind of source it names and the identifier the rest of
// the pipeline installs and resolves.
package specifier

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/example/load-template/internal/failure"
	"github.com/example/load-template/internal/manifest"
	"github.com/mitchellh/go-homedir"
)

// Kind is the resolution kind of a specifier.
type Kind string

const (
	RegistryName  Kind = "registryName"
	LocalFile     Kind = "localFile"
	RemoteArchive Kind = "remoteArchive"
	GitURL        Kind = "gitUrl"
)

const (
	// DefaultPrefix is the registry naming convention for templates.
	DefaultPrefix = "cra-template"
	// DefaultTemplate is used when no specifier is given.
	DefaultTemplate = "liaapi-ts"

	filePrefix = "file:"
	gitPrefix  = "git+"
)

var (
	archivePattern = regexp.MustCompile(`^.+\.(tgz|tar\.gz)$`)
	packagePattern = regexp.MustCompile(`^(@[^/]+/)?([^@]+)?(@.+)?$`)
)

// Descriptor identifies a template source.
type Descriptor struct {
	CanonicalName string `json:"canonicalName" yaml:"canonicalName"`
	Kind          Kind   `json:"resolutionKind" yaml:"resolutionKind"`
	RawValue      string `json:"rawValue" yaml:"rawValue"`
}

// Installable returns the identifier handed to the package manager.
func (d Descriptor) Installable() string {
	switch d.Kind {
	case LocalFile:
		return filePrefix + d.RawValue
	case RemoteArchive, GitURL:
		return d.RawValue
	default:
		return d.CanonicalName
	}
}

// Resolver classifies specifiers.
type Resolver struct {
	// Prefix is the template naming convention; DefaultPrefix when empty.
	Prefix string
	// WorkDir anchors relative file: paths; the process working directory when empty.
	WorkDir string
}

// Resolve classifies raw. An empty raw resolves the default template.
func (r Resolver) Resolve(raw string) (Descriptor, error) {
	raw = strings.TrimSpace(raw)
	prefix := strings.TrimSpace(r.Prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if raw == "" {
		raw = DefaultTemplate
	}

	switch {
	case strings.HasPrefix(raw, filePrefix):
		path, err := r.localPath(strings.TrimPrefix(raw, filePrefix))
		if err != nil {
			return Descriptor{}, err
		}
		pkg, err := manifest.LoadDir(path)
		if err != nil {
			return Descriptor{}, failure.Wrap(failure.TemplateNotFound, err, "read template manifest in %s", path)
		}
		name := pkg.String("name")
		if name == "" {
			return Descriptor{}, failure.New(failure.TemplateNotFound, "template manifest in %s has no name", path)
		}
		return Descriptor{CanonicalName: name, Kind: LocalFile, RawValue: path}, nil
	case strings.HasPrefix(raw, gitPrefix):
		return Descriptor{CanonicalName: raw, Kind: GitURL, RawValue: raw}, nil
	case strings.Contains(raw, "://") || IsArchive(raw):
		return Descriptor{CanonicalName: raw, Kind: RemoteArchive, RawValue: raw}, nil
	default:
		return Descriptor{CanonicalName: applyPrefix(raw, prefix), Kind: RegistryName, RawValue: raw}, nil
	}
}

func (r Resolver) localPath(path string) (string, error) {
	expanded, err := homedir.Expand(strings.TrimSpace(path))
	if err != nil {
		return "", fmt.Errorf("expand template path %q: %w", path, err)
	}
	if expanded == "" {
		return "", failure.New(failure.TemplateNotFound, "empty template path")
	}
	if !filepath.IsAbs(expanded) {
		base := r.WorkDir
		if base == "" {
			base, err = filepath.Abs(".")
			if err != nil {
				return "", err
			}
		}
		expanded = filepath.Join(base, expanded)
	}
	return filepath.Clean(expanded), nil
}

// IsArchive reports whether s names a .tgz or .tar.gz archive.
func IsArchive(s string) bool {
	return archivePattern.MatchString(s)
}

func applyPrefix(raw string, prefix string) string {
	if !strings.Contains(raw, "@") {
		// Unscoped, unversioned names carrying the prefix anywhere are kept.
		if raw == prefix || strings.Contains(raw, prefix+"-") {
			return raw
		}
		return prefix + "-" + raw
	}
	match := packagePattern.FindStringSubmatch(raw)
	if match == nil {
		return raw
	}
	scope, name, version := match[1], match[2], match[3]
	switch {
	case hasPrefix(name, prefix):
		return scope + name + version
	case version != "" && scope == "" && name == "":
		// "@scope" alone lands in the version group.
		return version + "/" + prefix
	default:
		return scope + prefix + "-" + name + version
	}
}

func hasPrefix(name string, prefix string) bool {
	return name == prefix || strings.HasPrefix(name, prefix+"-")
}
