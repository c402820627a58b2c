package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/reglet-dev/rulegraph/internal/application/dto"
	apperrors "github.com/reglet-dev/rulegraph/internal/application/errors"
	"github.com/reglet-dev/rulegraph/internal/application/ports"
	"github.com/reglet-dev/rulegraph/internal/domain/execution"
	"github.com/reglet-dev/rulegraph/internal/infrastructure/redaction"
	"github.com/spf13/cobra"
)

const checkConfigPrefix = "check"

type checkOptions struct {
	dataPath string
	outFile  string
}

// newCheckCmd represents the check command
func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}
	common := DefaultCommonOptions()

	cmd := &cobra.Command{
		Use:   "check <manifest.yaml> --data <document>",
		Short: "Validate a document against a manifest",
		Long: `Load a manifest, validate the data document against it and report one
result per rule and value. The command exits with status 1 when any rule did
not pass and with status 2 when the run could not be performed.

Settings other than --data and --output can also be set in the config file
under "check:" or through RULEGRAPH_CHECK_* environment variables.

Examples:
  rulegraph check orders.yaml --data order.json
  rulegraph check orders.yaml --data - --format sarif -o results.sarif < order.yaml
  rulegraph check orders.yaml --data order.json --parallel --on-accessor-error ignore`,
		Args: cobra.ExactArgs(1),
		RunE: withContainer(root, func(cc *CommandContext, cmd *cobra.Command, args []string) error {
			return runCheck(cc, cmd, args[0], opts, LoadCommonOptions(root.v, checkConfigPrefix))
		}),
	}

	cmd.Flags().StringVarP(&opts.dataPath, "data", "d", "", "Document to validate, JSON or YAML (- for stdin)")
	cmd.Flags().StringVarP(&opts.outFile, "output", "o", "", "Output file path (default: stdout)")
	_ = cmd.MarkFlagRequired("data")
	common.RegisterFlags(cmd, root.v, checkConfigPrefix)

	return cmd
}

// runCheck implements the core logic for the check command
func runCheck(cc *CommandContext, cmd *cobra.Command, manifestPath string, opts *checkOptions, common CommonOptions) error {
	if err := common.ValidateFlags(cc.Container.Formatters().SupportedFormats()); err != nil {
		return err
	}

	ctx, cancel := common.ApplyToContext(cc.Context)
	defer cancel()

	useCase := cc.Container.CheckManifestUseCase()
	resp, err := useCase.Execute(ctx, dto.CheckManifestRequest{
		ManifestPath: manifestPath,
		DataPath:     opts.dataPath,
		Metadata:     dto.RequestMetadata{RequestID: uuid.NewString()},
		Execution: dto.ExecutionOptions{
			AccessorErrorPolicy: common.OnAccessorError,
			MaxConcurrentRules:  common.MaxConcurrency,
			MaxDepth:            common.MaxDepth,
			Parallel:            common.Parallel,
		},
	})
	if err != nil {
		return err
	}
	for _, warning := range resp.Diagnostics.Warnings {
		cc.Logger.Warn(warning, "request_id", resp.Metadata.RequestID)
	}
	cc.Logger.Debug("check complete",
		"request_id", resp.Metadata.RequestID,
		"manifest", resp.Metadata.ManifestPath,
		"data", resp.Metadata.DataPath,
		"duration", resp.Metadata.Duration)

	// Determine output writer
	var writer io.Writer = cmd.OutOrStdout()
	if opts.outFile != "" {
		//nolint:gosec // G304: User-controlled output file path is intentional
		file, err := os.Create(opts.outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			_ = file.Close() // Best-effort cleanup
		}()
		writer = file
		cc.Logger.Info("writing output", "file", opts.outFile, "format", common.Format)
	}

	scrubbed := redaction.NewWriter(writer, cc.Container.Redactor())
	formatter, err := cc.Container.Formatters().Create(
		common.Format,
		scrubbed,
		ports.FormatterOptions{
			ManifestPath: manifestPath,
			Indent:       true,
			NoColor:      common.NoColor || opts.outFile != "",
			FailuresOnly: common.FailuresOnly,
		},
	)
	if err != nil {
		return err
	}
	if err := formatter.Format(resp.ExecutionResult); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if err := scrubbed.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if useCase.CheckFailed(resp.ExecutionResult) {
		return checksFailed(resp.ExecutionResult.Summary)
	}
	return nil
}

func checksFailed(s execution.ResultSummary) error {
	return fmt.Errorf("%w: %d passed, %d failed, %d errored, %d skipped",
		apperrors.ErrChecksFailed, s.PassedRules, s.FailedRules, s.ErroredRules, s.DependencyFailedRules)
}
