package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/example/load-template/internal/config"
	"github.com/example/load-template/internal/create"
	"github.com/example/load-template/internal/failure"
	"github.com/example/load-template/internal/metadata"
	"github.com/example/load-template/internal/specifier"
	"github.com/example/load-template/internal/version"
	"github.com/spf13/cobra"
)

func TestHandleErrorHints(t *testing.T) {
	tests := []struct {
		err  error
		hint string
	}{
		{err: failure.New(failure.PathAlreadyExists, "path exists"), hint: "--force"},
		{err: failure.New(failure.InvalidProjectName, "bad name"), hint: "different project name"},
		{err: failure.New(failure.InstallFailure, "npm failed"), hint: "--verbose"},
		{err: failure.New(failure.UnsupportedRuntimeVersion, "old node"), hint: "--skip-preflight"},
		{err: failure.New(failure.TemplateNotFound, "missing"), hint: "--template"},
		{err: fmt.Errorf("fetch: %w", context.DeadlineExceeded), hint: "--http-timeout"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		handleError(&buf, tt.err)
		out := buf.String()
		if !strings.HasPrefix(out, "Error: ") || !strings.Contains(out, "Hint:") || !strings.Contains(out, tt.hint) {
			t.Fatalf("unexpected output for %v: %q", tt.err, out)
		}
	}

	var buf bytes.Buffer
	handleError(&buf, errors.New("plain"))
	if buf.String() != "Error: plain\n" {
		t.Fatalf("plain error output = %q", buf.String())
	}
	buf.Reset()
	handleError(&buf, nil)
	if buf.Len() != 0 {
		t.Fatalf("nil error must print nothing")
	}
}

func TestRenderUnifiedDiff(t *testing.T) {
	before := "{\n  \"name\": \"app\",\n  \"dependencies\": {}\n}\n"
	after := "{\n  \"name\": \"app\",\n  \"dependencies\": {\n    \"left-pad\": \"2.0.0\"\n  }\n}\n"
	diff := renderUnifiedDiff(before, after, "package.json")
	for _, want := range []string{"--- package.json (scaffold)", "+++ package.json (final)", "-  \"dependencies\": {}", "+    \"left-pad\": \"2.0.0\""} {
		if !strings.Contains(diff, want) {
			t.Fatalf("diff missing %q:\n%s", want, diff)
		}
	}
	if renderUnifiedDiff(before, before, "package.json") != "" {
		t.Fatalf("identical inputs should produce an empty diff")
	}
}

func sampleResult() *create.Result {
	return &create.Result{
		AppName:        "my-app",
		TargetPath:     "/work/my-app",
		Language:       "ts",
		Template:       specifier.Descriptor{CanonicalName: "cra-template-x", Kind: specifier.RegistryName, RawValue: "x"},
		Package:        metadata.Package{Name: "cra-template-x", Version: "1.2.3"},
		Installed:      []string{"cra-template-x"},
		Scripts:        []string{"start", "build"},
		Files:          []string{"package.json", "README.md"},
		Warnings:       []string{"old descriptor"},
		ManifestBefore: []byte("{\n  \"name\": \"my-app\"\n}\n"),
		ManifestAfter:  []byte("{\n  \"name\": \"my-app\",\n  \"scripts\": {}\n}\n"),
	}
}

func TestWriteResultText(t *testing.T) {
	var buf bytes.Buffer
	opts := config.NewOptions()
	opts.ShowDiff = true
	if err := writeResult(&buf, opts, sampleResult()); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Warning: old descriptor",
		"Success! Created my-app at /work/my-app",
		"Template: cra-template-x@1.2.3 (registryName, ts)",
		"npm run start",
		"npm run build",
		"cd my-app",
		"package.json changes:",
		"+  \"scripts\": {}",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("colors must be disabled for non-terminal writers")
	}
}

func TestWriteResultJSONAndYAML(t *testing.T) {
	opts := config.NewOptions()
	opts.Output = config.OutputJSON
	var buf bytes.Buffer
	if err := writeResult(&buf, opts, sampleResult()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v\n%s", err, buf.String())
	}
	if decoded["appName"] != "my-app" || decoded["diff"] != nil {
		t.Fatalf("unexpected json %s", buf.String())
	}
	if _, ok := decoded["ManifestBefore"]; ok {
		t.Fatalf("manifest snapshots must not be serialized")
	}
	tmpl, _ := decoded["template"].(map[string]any)
	if tmpl["resolutionKind"] != "registryName" {
		t.Fatalf("unexpected template block %v", decoded["template"])
	}

	opts.Output = config.OutputYAML
	buf.Reset()
	if err := writeResult(&buf, opts, sampleResult()); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	if !strings.Contains(buf.String(), "appName: my-app") || !strings.Contains(buf.String(), "canonicalName: cra-template-x") {
		t.Fatalf("unexpected yaml:\n%s", buf.String())
	}
}

func TestBindViperFromEnvAndConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfg, []byte("template: typescript\nforce: true\noutput: yaml\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LOAD_TEMPLATE_CONFIG", cfg)
	t.Setenv("LOAD_TEMPLATE_NPM_LOGLEVEL", "warn")

	opts := config.NewOptions()
	cmd := &cobra.Command{Use: "test"}
	opts.BindFlags(cmd.Flags())
	if err := cmd.ParseFlags([]string{"--output", "json"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := bindViper(cmd); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if opts.Template != "typescript" || !opts.Force {
		t.Fatalf("config values not applied: %+v", opts)
	}
	if opts.NpmLogLevel != "warn" {
		t.Fatalf("env value not applied: %s", opts.NpmLogLevel)
	}
	if opts.Output != "json" {
		t.Fatalf("explicit flag must win over config, got %s", opts.Output)
	}
}

func TestBindViperMissingExplicitConfig(t *testing.T) {
	t.Setenv("LOAD_TEMPLATE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	cmd := &cobra.Command{Use: "test"}
	config.NewOptions().BindFlags(cmd.Flags())
	if err := bindViper(cmd); err == nil {
		t.Fatalf("expected an explicit config path to be required")
	}
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootInfoJSON(t *testing.T) {
	out, err := runRoot(t, "--info", "-o", "json")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var decoded struct {
		Tool   map[string]any `json:"tool"`
		System map[string]any `json:"system"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if decoded.System["os"] != runtime.GOOS || decoded.Tool["version"] == nil {
		t.Fatalf("unexpected info %s", out)
	}
}

func TestRootRequiresProjectDirectory(t *testing.T) {
	if _, err := runRoot(t, "--skip-preflight"); err == nil {
		t.Fatalf("expected missing project directory error")
	}
}

func TestRootRejectsExistingPath(t *testing.T) {
	target := t.TempDir()
	_, err := runRoot(t, target, "--skip-preflight")
	if !failure.IsKind(err, failure.PathAlreadyExists) {
		t.Fatalf("expected PathAlreadyExists, got %v", err)
	}
}

func TestRootReportsInstallFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix binaries required")
	}
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	pkg := filepath.Join(t.TempDir(), "tpl")
	if err := os.MkdirAll(pkg, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pkg, "package.json"), []byte(`{"name":"cra-template-tpl"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	target := filepath.Join(t.TempDir(), "my-app")
	_, err := runRoot(t, target, "--skip-preflight", "--template", "file:"+pkg, "--package-manager", "false")
	if !failure.IsKind(err, failure.InstallFailure) {
		t.Fatalf("expected InstallFailure, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(target, "package.json")); statErr != nil {
		t.Fatalf("scaffold should have run before the install: %v", statErr)
	}
}

func TestVersionCheckReportsOutdated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/-/package/load-template/dist-tags" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"latest":"99.0.0"}`))
	}))
	defer srv.Close()

	prev := version.Version
	version.Version = "1.0.0"
	defer func() { version.Version = prev }()

	out, err := runRoot(t, "version", "--short", "--check", "--registry", srv.URL)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "1.0.0\n") || !strings.Contains(out, "behind the latest release (99.0.0)") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestVersionPrintsBuildInfo(t *testing.T) {
	out, err := runRoot(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "Client Version: ") || !strings.Contains(out, "Platform: ") {
		t.Fatalf("unexpected output %q", out)
	}
}
