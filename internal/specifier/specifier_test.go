package specifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/load-template/internal/failure"
)

func writeTemplateManifest(t *testing.T, dir string, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
}

func TestResolveRegistryNames(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "cra-template-liaapi-ts"},
		{raw: "typescript", want: "cra-template-typescript"},
		{raw: "cra-template", want: "cra-template"},
		{raw: "cra-template-redux", want: "cra-template-redux"},
		{raw: "my-template@2.1.0", want: "cra-template-my-template@2.1.0"},
		{raw: "cra-template-redux@1.0.0", want: "cra-template-redux@1.0.0"},
		{raw: "@acme/web", want: "@acme/cra-template-web"},
		{raw: "@acme/web@3.0.0", want: "@acme/cra-template-web@3.0.0"},
		{raw: "@acme/cra-template-web", want: "@acme/cra-template-web"},
		{raw: "@acme", want: "@acme/cra-template"},
		{raw: "my-cra-template-foo", want: "my-cra-template-foo"},
		{raw: "foo-cra-template-bar@1.0.0", want: "cra-template-foo-cra-template-bar@1.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			desc, err := Resolver{}.Resolve(tt.raw)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if desc.Kind != RegistryName {
				t.Fatalf("kind = %s, want %s", desc.Kind, RegistryName)
			}
			if desc.CanonicalName != tt.want {
				t.Fatalf("canonical = %q, want %q", desc.CanonicalName, tt.want)
			}
			if desc.Installable() != tt.want {
				t.Fatalf("installable = %q, want %q", desc.Installable(), tt.want)
			}
		})
	}
}

func TestResolveCustomPrefix(t *testing.T) {
	desc, err := Resolver{Prefix: "acme-starter"}.Resolve("api")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if desc.CanonicalName != "acme-starter-api" {
		t.Fatalf("unexpected canonical %q", desc.CanonicalName)
	}
}

func TestResolveLocalFileReadsManifest(t *testing.T) {
	root := t.TempDir()
	work := filepath.Join(root, "apps")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeTemplateManifest(t, filepath.Join(root, "my-template"), `{"name":"cra-template-local","version":"0.0.1"}`)

	desc, err := Resolver{WorkDir: work}.Resolve("file:../my-template")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if desc.Kind != LocalFile {
		t.Fatalf("kind = %s", desc.Kind)
	}
	if desc.CanonicalName != "cra-template-local" {
		t.Fatalf("canonical = %q", desc.CanonicalName)
	}
	wantPath := filepath.Join(root, "my-template")
	if desc.RawValue != wantPath {
		t.Fatalf("raw = %q, want %q", desc.RawValue, wantPath)
	}
	if desc.Installable() != "file:"+wantPath {
		t.Fatalf("installable = %q", desc.Installable())
	}
}

func TestResolveLocalFileWinsOverArchiveSuffix(t *testing.T) {
	work := t.TempDir()
	writeTemplateManifest(t, filepath.Join(work, "tpl.tgz"), `{"name":"odd-dir"}`)
	desc, err := Resolver{WorkDir: work}.Resolve("file:tpl.tgz")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if desc.Kind != LocalFile || desc.CanonicalName != "odd-dir" {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
}

func TestResolveLocalFileMissingManifest(t *testing.T) {
	_, err := Resolver{WorkDir: t.TempDir()}.Resolve("file:./nope")
	if !failure.IsKind(err, failure.TemplateNotFound) {
		t.Fatalf("expected TemplateNotFound, got %v", err)
	}
}

func TestResolveArchivesAndURLs(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
	}{
		{raw: "https://example.com/my-template-0.8.2.tgz", kind: RemoteArchive},
		{raw: "https://example.com/my-template-0.8.2.tar.gz", kind: RemoteArchive},
		{raw: "./vendor/my-template-1.0.0.tgz", kind: RemoteArchive},
		{raw: "http://example.com/template", kind: RemoteArchive},
		{raw: "git+https://github.com/acme/web-template.git", kind: GitURL},
		{raw: "git+ssh://git@github.com/acme/web-template.git#v1.2.3", kind: GitURL},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			desc, err := Resolver{}.Resolve(tt.raw)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if desc.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", desc.Kind, tt.kind)
			}
			if desc.CanonicalName != tt.raw || desc.RawValue != tt.raw || desc.Installable() != tt.raw {
				t.Fatalf("expected identifiers to stay verbatim, got %+v", desc)
			}
		})
	}
}

func TestClassificationIsTotal(t *testing.T) {
	inputs := []string{"", "x", "@", "@@", "a@b@c", "://", ".tgz", "git+", "file", "weird name", "🙂"}
	for _, raw := range inputs {
		desc, err := Resolver{}.Resolve(raw)
		if err != nil {
			t.Fatalf("resolve %q: %v", raw, err)
		}
		switch desc.Kind {
		case RegistryName, RemoteArchive, GitURL, LocalFile:
		default:
			t.Fatalf("unclassified %q: %+v", raw, desc)
		}
	}
}
