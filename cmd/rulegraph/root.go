package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	apperrors "github.com/reglet-dev/rulegraph/internal/application/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes.
const (
	exitOK          = 0
	exitChecks      = 1
	exitCommandFail = 2
)

// rootOptions holds the global flags and the configuration they select.
type rootOptions struct {
	v                *viper.Viper
	cfgFile          string
	systemConfigPath string
	verbose          bool
}

// newRootCmd builds the application entry point.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "rulegraph",
		Short: "Validate object graphs against declarative rule manifests",
		Long: `rulegraph validates a JSON or YAML document against a manifest of rules.
The manifest mirrors the shape of the document: each node reads a value from
its parent, may enumerate collections, and declares rules that can depend on
rules elsewhere in the graph. Rules whose dependencies did not pass are
reported as skipped instead of being evaluated.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd.ErrOrStderr(), opts.verbose)
			return opts.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.rulegraph.yaml)")
	cmd.PersistentFlags().StringVar(&opts.systemConfigPath, "system-config", "", "system config file (default is $HOME/.rulegraph/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")

	cmd.AddCommand(newCheckCmd(opts), newValidateCmd(opts), newInitCmd(), newVersionCmd())
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return exitCode(newRootCmd().ExecuteContext(ctx))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, apperrors.ErrChecksFailed):
		slog.Info(err.Error())
		return exitChecks
	default:
		slog.Error("command failed", "error", err)
		return exitCommandFail
	}
}

// initConfig loads configuration from the config file and environment.
// An explicit --config must exist; the default file is optional.
func (o *rootOptions) initConfig() error {
	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to find home directory: %w", err)
		}

		o.v.AddConfigPath(home)
		o.v.SetConfigType("yaml")
		o.v.SetConfigName(".rulegraph")
	}

	o.v.SetEnvPrefix("RULEGRAPH")
	o.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	o.v.AutomaticEnv()

	if err := o.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		return nil
	}
	slog.Debug("using config file", "file", o.v.ConfigFileUsed())
	return nil
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Using TextHandler for CLI friendliness
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
