// Package scaffold lays down the bare project skeleton that the template is
// later merged into.
package scaffold

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/load-template/internal/manifest"
)

// Language selects the scaffold flavour.
type Language string

const (
	TypeScript Language = "ts"
	JavaScript Language = "js"
)

// InitialVersion is the version every new project starts at.
const InitialVersion = "0.1.0"

// TSConfigFile is written for TypeScript projects.
const TSConfigFile = "tsconfig.json"

// Options describes the skeleton to create.
type Options struct {
	Dir      string
	Language Language
	Private  bool
}

// Result is what Init wrote.
type Result struct {
	// App is the application layer of the later merge.
	App   *manifest.Manifest
	Files []string
}

// Init creates opts.Dir and writes the skeleton manifest, plus a static
// tsconfig.json for TypeScript projects.
func Init(opts Options) (Result, error) {
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return Result{}, fmt.Errorf("resolve %s: %w", opts.Dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create project directory: %w", err)
	}

	app := Skeleton(filepath.Base(dir), opts.Private)
	var res Result
	if opts.Language == TypeScript {
		path := filepath.Join(dir, TSConfigFile)
		if err := writeTSConfig(path); err != nil {
			return Result{}, err
		}
		res.Files = append(res.Files, TSConfigFile)
	}
	if err := app.Write(filepath.Join(dir, manifest.FileName)); err != nil {
		return Result{}, err
	}
	res.Files = append(res.Files, manifest.FileName)
	res.App = app
	return res, nil
}

// Skeleton returns the initial manifest for an application called name.
func Skeleton(name string, private bool) *manifest.Manifest {
	eslint := manifest.New()
	eslint.Set("extends", []any{})

	m := manifest.New()
	m.Set("name", name)
	m.Set("version", InitialVersion)
	m.Set("private", private)
	m.Set(manifest.DevDependencies, manifest.New())
	m.Set(manifest.Dependencies, manifest.New())
	m.Set("eslintConfig", eslint)
	return m
}

type tsConfig struct {
	CompilerOptions tsCompilerOptions `json:"compilerOptions"`
	Include         []string          `json:"include"`
	Exclude         []string          `json:"exclude"`
}

type tsCompilerOptions struct {
	ExperimentalDecorators       bool     `json:"experimentalDecorators"`
	Module                       string   `json:"module"`
	Target                       string   `json:"target"`
	Strict                       bool     `json:"strict"`
	JSX                          string   `json:"jsx"`
	ImportHelpers                bool     `json:"importHelpers"`
	ModuleResolution             string   `json:"moduleResolution"`
	SkipLibCheck                 bool     `json:"skipLibCheck"`
	EsModuleInterop              bool     `json:"esModuleInterop"`
	AllowSyntheticDefaultImports bool     `json:"allowSyntheticDefaultImports"`
	SourceMap                    bool     `json:"sourceMap"`
	BaseURL                      string   `json:"baseUrl"`
	OutDir                       string   `json:"outDir"`
	RootDir                      string   `json:"rootDir"`
	Types                        []string `json:"types"`
	ResolveJSONModule            bool     `json:"resolveJsonModule"`
	Declaration                  bool     `json:"declaration"`
	DeclarationDir               string   `json:"declarationDir"`
	Lib                          []string `json:"lib"`
}

func defaultTSConfig() tsConfig {
	return tsConfig{
		CompilerOptions: tsCompilerOptions{
			ExperimentalDecorators:       true,
			Module:                       "CommonJS",
			Target:                       "es2020",
			Strict:                       true,
			JSX:                          "preserve",
			ImportHelpers:                true,
			ModuleResolution:             "node",
			SkipLibCheck:                 true,
			EsModuleInterop:              true,
			AllowSyntheticDefaultImports: true,
			SourceMap:                    true,
			BaseURL:                      ".",
			OutDir:                       "./output",
			RootDir:                      ".",
			Types:                        []string{"webpack-env", "node"},
			ResolveJSONModule:            true,
			Declaration:                  true,
			DeclarationDir:               "dist/type",
			Lib:                          []string{"esnext", "es5", "ES2016", "ES2020", "dom", "dom.iterable", "scripthost"},
		},
		Include: []string{"__test__", "src", "src/**/*", "global.d.ts"},
		Exclude: []string{"node_modules"},
	}
}

func writeTSConfig(path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(defaultTSConfig()); err != nil {
		return fmt.Errorf("encode %s: %w", TSConfigFile, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
