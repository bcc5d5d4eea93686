package main

import (
	"fmt"
	"io"

	"github.com/example/load-template/internal/config"
	"github.com/example/load-template/internal/preflight"
	"github.com/example/load-template/internal/version"
)

type infoOutput struct {
	Tool   version.Info   `json:"tool" yaml:"tool"`
	System preflight.Info `json:"system" yaml:"system"`
}

func writeInfo(w io.Writer, format string, info preflight.Info) error {
	out := infoOutput{Tool: version.Get(), System: info}
	switch format {
	case config.OutputJSON:
		return writeJSON(w, out)
	case config.OutputYAML:
		return writeYAML(w, out)
	}
	fmt.Fprintln(w, "Environment Info:")
	fmt.Fprintf(w, "\n  current version of %s: %s\n", version.PackageName, out.Tool.Version)
	fmt.Fprintln(w, "\n  System:")
	fmt.Fprintf(w, "    OS: %s %s\n", info.OS, info.Arch)
	fmt.Fprintf(w, "    CPUs: %d\n", info.CPUs)
	fmt.Fprintln(w, "  Binaries:")
	fmt.Fprintf(w, "    Node: %s\n", info.Node)
	fmt.Fprintf(w, "    npm: %s\n", info.Npm)
	fmt.Fprintf(w, "    Go: %s\n", info.GoVersion)
	return nil
}
