package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/reglet-dev/rulegraph/internal/domain/values"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CommonOptions contains the run settings that may also come from the
// config file or RULEGRAPH_CHECK_* environment variables.
type CommonOptions struct {
	// Output
	Format string

	// Execution
	OnAccessorError string
	Timeout         time.Duration
	MaxConcurrency  int
	MaxDepth        int

	// Flags (bools grouped for alignment)
	Parallel     bool
	NoColor      bool
	FailuresOnly bool
}

var commonFlagNames = []string{
	"format", "on-accessor-error", "timeout", "max-concurrency",
	"max-depth", "parallel", "no-color", "failures-only",
}

// DefaultCommonOptions returns sensible defaults.
func DefaultCommonOptions() CommonOptions {
	return CommonOptions{
		Timeout: 2 * time.Minute,
		Format:  "table",
	}
}

// RegisterFlags adds the flags to cmd and binds them under prefix in v.
func (opts *CommonOptions) RegisterFlags(cmd *cobra.Command, v *viper.Viper, prefix string) {
	flags := cmd.Flags()

	// Execution
	flags.Duration("timeout", opts.Timeout, "Global timeout for entire execution (0 to disable)")
	flags.Bool("parallel", opts.Parallel, "Run rules of each dependency level in parallel")
	flags.Int("max-concurrency", opts.MaxConcurrency, "Max concurrent rules in parallel mode (0 = system config)")
	flags.Int("max-depth", opts.MaxDepth, "Max value-tree depth (0 = system config)")
	flags.String("on-accessor-error", opts.OnAccessorError, "Accessor error policy: ignore, error or propagate (default from system config)")

	// Output
	flags.String("format", opts.Format, "Output format: table, json, yaml, junit, sarif")
	flags.Bool("no-color", opts.NoColor, "Disable colors in table output")
	flags.Bool("failures-only", opts.FailuresOnly, "Only show rules that did not pass (table output)")

	for _, name := range commonFlagNames {
		_ = v.BindPFlag(prefix+"."+name, flags.Lookup(name))
	}
}

// LoadCommonOptions resolves the options from flags, config and environment.
func LoadCommonOptions(v *viper.Viper, prefix string) CommonOptions {
	key := func(name string) string { return prefix + "." + name }
	return CommonOptions{
		Format:          v.GetString(key("format")),
		OnAccessorError: v.GetString(key("on-accessor-error")),
		Timeout:         v.GetDuration(key("timeout")),
		MaxConcurrency:  v.GetInt(key("max-concurrency")),
		MaxDepth:        v.GetInt(key("max-depth")),
		Parallel:        v.GetBool(key("parallel")),
		NoColor:         v.GetBool(key("no-color")),
		FailuresOnly:    v.GetBool(key("failures-only")),
	}
}

// ApplyToContext applies timeout to context.
// Returns new context and cancel function.
func (opts *CommonOptions) ApplyToContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	// No timeout - return no-op cancel
	return ctx, func() {}
}

// ValidateFlags validates common options against the supported formats.
func (opts *CommonOptions) ValidateFlags(formats []string) error {
	if !slices.Contains(formats, opts.Format) {
		return fmt.Errorf("invalid format: %s (valid: %s)", opts.Format, strings.Join(formats, ", "))
	}
	if _, err := values.ParseAccessorErrorPolicy(opts.OnAccessorError); err != nil {
		return fmt.Errorf("invalid --on-accessor-error: %w", err)
	}
	if opts.MaxConcurrency < 0 {
		return fmt.Errorf("--max-concurrency cannot be negative: %d", opts.MaxConcurrency)
	}
	if opts.MaxDepth < 0 {
		return fmt.Errorf("--max-depth cannot be negative: %d", opts.MaxDepth)
	}
	return nil
}
