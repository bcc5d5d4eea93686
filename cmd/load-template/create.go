package main

import (
	"errors"
	"io"
	"os"

	"github.com/example/load-template/internal/config"
	"github.com/example/load-template/internal/create"
	"github.com/example/load-template/internal/installer"
	"github.com/example/load-template/internal/logging"
	"github.com/example/load-template/internal/materialize"
	"github.com/example/load-template/internal/metadata"
	"github.com/example/load-template/internal/preflight"
	"github.com/example/load-template/internal/specifier"
	"github.com/example/load-template/pkg/registry"
	"github.com/spf13/cobra"
)

func runCreate(cmd *cobra.Command, args []string, opts *config.Options) error {
	if len(args) > 0 {
		opts.ProjectDir = args[0]
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if opts.Info {
		return writeInfo(out, opts.Output, preflight.Collect(ctx, nil))
	}
	if opts.ProjectDir == "" {
		return errors.New("please specify the project directory: load-template <project-directory>")
	}

	log, err := logging.New(opts.EffectiveLogLevel(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	spec, err := opts.ProjectSpec(cwd)
	if err != nil {
		return err
	}

	client := registry.NewClient(opts.Registry, registry.WithTimeout(opts.HTTPTimeout))
	inst := installer.New(opts.PackageManager, log.WithName("installer"))
	inst.Stdin = cmd.InOrStdin()
	inst.Stdout = installerOutput(cmd, opts.Output)
	inst.Stderr = cmd.ErrOrStderr()

	creator := &create.Creator{
		Resolver:     specifier.Resolver{Prefix: opts.TemplatePrefix, WorkDir: cwd},
		Fetcher:      metadata.NewFetcher(client, log.WithName("metadata")),
		Installer:    inst,
		Materializer: materialize.New(log.WithName("materialize")),
		Log:          log.WithName("create"),
	}
	if !opts.SkipPreflight {
		creator.Preflight = preflight.Runtime{}
	}

	res, err := creator.Run(ctx, spec)
	if err != nil {
		return err
	}
	return writeResult(out, opts, res)
}

// installerOutput keeps package manager chatter out of machine-readable output.
func installerOutput(cmd *cobra.Command, format string) io.Writer {
	if format == config.OutputText {
		return cmd.OutOrStdout()
	}
	return cmd.ErrOrStderr()
}
