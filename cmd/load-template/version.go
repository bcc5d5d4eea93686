// File: cmd/load-template/version.go
// Brief: CLI command wiring and implementation for 'version'.

package main

import (
	"fmt"
	"time"

	"github.com/example/load-template/internal/version"
	"github.com/example/load-template/pkg/registry"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	var short bool
	var check bool
	registryURL := registry.DefaultURL
	timeout := 5 * time.Second
	cmd := &cobra.Command{
		Use:           "version",
		Short:         "Print the load-template version information",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, info.Version)
			} else {
				fmt.Fprintf(out, "Client Version: %s\n", info.Version)
				if info.GitCommit != "" && info.GitCommit != "unknown" {
					fmt.Fprintf(out, "GitCommit: %s\n", info.GitCommit)
				}
				if info.GitTreeState != "" && info.GitTreeState != "unknown" {
					fmt.Fprintf(out, "GitTreeState: %s\n", info.GitTreeState)
				}
				if info.BuildDate != "" && info.BuildDate != "unknown" {
					fmt.Fprintf(out, "BuildDate: %s\n", info.BuildDate)
				}
				fmt.Fprintf(out, "GoVersion: %s\n", info.GoVersion)
				fmt.Fprintf(out, "Platform: %s\n", info.Platform)
			}
			if !check {
				return nil
			}
			client := registry.NewClient(registryURL, registry.WithTimeout(timeout))
			tags, err := client.DistTags(cmd.Context(), version.PackageName)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Could not check for updates: %v\n", err)
				return nil
			}
			latest := tags["latest"]
			outdated, err := version.Outdated(info.Version, latest)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Could not compare versions: %v\n", err)
				return nil
			}
			if outdated {
				warn := color.New(color.FgYellow)
				if !colorEnabled(out) {
					warn.DisableColor()
				}
				fmt.Fprintf(out, "%s\n", warn.Sprintf("You are running %s %s, which is behind the latest release (%s).", version.PackageName, info.Version, latest))
				return nil
			}
			fmt.Fprintf(out, "Latest Version: %s (up to date)\n", latest)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print just the version number")
	cmd.Flags().BoolVar(&check, "check", false, "Compare with the latest published release")
	cmd.Flags().StringVar(&registryURL, "registry", registryURL, "Package registry used for the update check")
	cmd.Flags().DurationVar(&timeout, "http-timeout", timeout, "Timeout for the update check")
	return cmd
}
