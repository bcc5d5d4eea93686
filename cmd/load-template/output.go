package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/load-template/internal/config"
	"github.com/example/load-template/internal/create"
	"github.com/example/load-template/internal/manifest"
	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

type createOutput struct {
	create.Result `yaml:",inline"`
	Diff          string `json:"diff,omitempty" yaml:"diff,omitempty"`
}

func writeResult(w io.Writer, opts *config.Options, res *create.Result) error {
	var diff string
	if opts.ShowDiff {
		diff = renderUnifiedDiff(string(res.ManifestBefore), string(res.ManifestAfter), manifest.FileName)
	}
	switch opts.Output {
	case config.OutputJSON:
		return writeJSON(w, createOutput{Result: *res, Diff: diff})
	case config.OutputYAML:
		return writeYAML(w, createOutput{Result: *res, Diff: diff})
	default:
		p := newPalette(w)
		printCreateSummary(w, p, res)
		if diff != "" {
			fmt.Fprintf(w, "\n%s\n", p.bold.Sprint("package.json changes:"))
			fmt.Fprint(w, diff)
		}
		return nil
	}
}

func writeJSON(w io.Writer, v any) error {
	if w == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	if w == nil {
		return nil
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

type palette struct {
	success *color.Color
	accent  *color.Color
	warn    *color.Color
	bold    *color.Color
}

func newPalette(w io.Writer) palette {
	p := palette{
		success: color.New(color.FgGreen, color.Bold),
		accent:  color.New(color.FgCyan),
		warn:    color.New(color.FgYellow),
		bold:    color.New(color.Bold),
	}
	if !colorEnabled(w) {
		for _, c := range []*color.Color{p.success, p.accent, p.warn, p.bold} {
			c.DisableColor()
		}
	}
	return p
}

func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func printCreateSummary(w io.Writer, p palette, res *create.Result) {
	if w == nil || res == nil {
		return
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "%s %s\n", p.warn.Sprint("Warning:"), warning)
	}
	fmt.Fprintf(w, "%s Created %s at %s\n", p.success.Sprint("Success!"), res.AppName, p.accent.Sprint(res.TargetPath))
	template := res.Package.Name
	if res.Package.Version != "" {
		template += "@" + res.Package.Version
	}
	fmt.Fprintf(w, "Template: %s (%s, %s)\n", template, res.Template.Kind, res.Language)

	if len(res.Scripts) > 0 {
		fmt.Fprintln(w, "\nInside that directory, you can run several commands:")
		for _, script := range res.Scripts {
			fmt.Fprintf(w, "  %s\n", p.accent.Sprintf("npm run %s", script))
		}
	}
	fmt.Fprintln(w, "\nWe suggest that you begin by typing:")
	fmt.Fprintf(w, "  %s %s\n", p.accent.Sprint("cd"), res.AppName)
	fmt.Fprintf(w, "  %s\n", p.accent.Sprint("check the README.md"))
	fmt.Fprintln(w, "\nHappy coding!")
}

func renderUnifiedDiff(before string, after string, path string) string {
	before = strings.TrimRight(before, "\n")
	after = strings.TrimRight(after, "\n")
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before + "\n"),
		B:        difflib.SplitLines(after + "\n"),
		FromFile: path + " (scaffold)",
		ToFile:   path + " (final)",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return ""
	}
	return text
}
