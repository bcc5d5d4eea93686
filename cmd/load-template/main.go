// File: cmd/load-template/main.go
// Brief: Bootstraps load-template: builds the root Cobra command and executes with signal-aware contexts.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/example/load-template/internal/config"
	"github.com/example/load-template/internal/failure"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "LOAD_TEMPLATE"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(os.Stderr, err)
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := config.NewOptions()
	cmd := &cobra.Command{
		Use:           "load-template <project-directory>",
		Short:         "Create a new project from a template package",
		Long:          "load-template scaffolds a project directory, installs a template package and merges its manifest and files into the new project.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindViper(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args, opts)
		},
	}
	opts.BindFlags(cmd.Flags())
	cmd.Example = `  # Create a TypeScript service from the default template
  load-template my-service

  # Use a published template (resolved as cra-template-redux)
  load-template my-app --template redux

  # Use a local template checkout and overwrite an earlier attempt
  load-template my-app --template file:../my-custom-template --force

  # Use a template archive and print the summary as JSON
  load-template my-app --template https://mysite.com/my-custom-template-0.8.2.tgz -o json`
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// bindViper fills flags the user did not set from LOAD_TEMPLATE_* environment
// variables and the optional config file.
func bindViper(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	configFile := os.Getenv(envPrefix + "_CONFIG")
	configureConfigFile(v, configFile)

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := readConfigFile(v, configFile != ""); err != nil {
		return err
	}
	var applyErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || applyErr != nil {
			return
		}
		if !v.IsSet(f.Name) {
			return
		}
		val := fmt.Sprintf("%v", v.Get(f.Name))
		if val == "" {
			return
		}
		if err := f.Value.Set(val); err != nil {
			applyErr = fmt.Errorf("invalid value %q for --%s from environment or config: %w", val, f.Name, err)
		}
	})
	return applyErr
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		if expanded, err := homedir.Expand(explicitPath); err == nil {
			explicitPath = expanded
		}
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range configSearchDirs() {
		v.AddConfigPath(dir)
	}
}

func readConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if errors.As(err, &cfgErr) && !strict {
			return nil
		}
		return err
	}
	return nil
}

func configSearchDirs() []string {
	added := make(map[string]struct{})
	var dirs []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := added[path]; ok {
			return
		}
		added[path] = struct{}{}
		dirs = append(dirs, path)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		add(filepath.Join(xdg, "load-template"))
	}
	if home, err := homedir.Dir(); err == nil && home != "" {
		add(filepath.Join(home, ".config", "load-template"))
		add(filepath.Join(home, ".load-template"))
	}
	return dirs
}

func handleError(w io.Writer, err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	if hint := errorHint(err); hint != "" {
		message = fmt.Sprintf("%s\nHint: %s", message, hint)
	}
	fmt.Fprintf(w, "Error: %s\n", message)
}

func errorHint(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "increase --http-timeout or verify network connectivity to the registry."
	}
	if errors.Is(err, context.Canceled) {
		return "the creation was interrupted; re-run with --force to start over."
	}
	kind, ok := failure.KindOf(err)
	if !ok {
		return ""
	}
	switch kind {
	case failure.InvalidProjectName:
		return "please choose a different project name."
	case failure.PathAlreadyExists:
		return "choose a different directory or pass --force to overwrite it."
	case failure.UnsupportedRuntimeVersion:
		return "install Node 18 or newer, or pass --skip-preflight if the package manager does not need it."
	case failure.TemplateNotFound:
		return "check --template; registry templates are looked up with the --template-prefix naming convention."
	case failure.InstallFailure:
		return "re-run with --verbose to see the package manager output."
	default:
		return ""
	}
}
