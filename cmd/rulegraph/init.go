package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/reglet-dev/rulegraph/internal/templates"
	"github.com/reglet-dev/rulegraph/internal/version"
	"github.com/spf13/cobra"
)

var manifestNamePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// initOptions holds options for the init command.
type initOptions struct {
	name   string
	kind   string
	output string
	force  bool
}

func newInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a starter manifest and sample data",
		Long: `Generate a manifest and a sample data document that passes it.

Examples:
  # Manifest with an enumerated child collection
  rulegraph init order-rules

  # Self-recursive manifest for tree-shaped documents
  rulegraph init dir-rules --kind tree --output ./rules`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.name = args[0]
			return runInit(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "basic", fmt.Sprintf("scaffold kind (%s)", strings.Join(templates.Kinds(), ", ")))
	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "output directory")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "overwrite existing files")

	return cmd
}

func runInit(out io.Writer, opts *initOptions) error {
	if err := validateManifestName(opts.name); err != nil {
		return err
	}

	files, err := templates.TemplateFiles(opts.kind)
	if err != nil {
		return err
	}

	tmpl, err := templates.Scaffolds()
	if err != nil {
		return err
	}

	outputDir, err := filepath.Abs(opts.output)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data := templates.ManifestData{
		Name:     opts.name,
		Title:    toTitleCase(opts.name),
		RootType: toTypeName(opts.name),
		Requires: requiresConstraint(),
	}

	written := make([]string, 0, len(files))
	for _, file := range files {
		outputPath := filepath.Join(outputDir, templates.OutputName(opts.name, file))

		if !opts.force {
			if _, err := os.Stat(outputPath); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", outputPath)
			}
		}

		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, opts.kind+"/"+file, data); err != nil {
			return fmt.Errorf("rendering %s: %w", file, err)
		}

		//nolint:gosec // G306: manifests are meant to be shared and committed
		if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		slog.Debug("created file", "path", outputPath)
		written = append(written, outputPath)
	}

	_, _ = fmt.Fprintf(out, "Created %s manifest '%s' in %s\n\n", opts.kind, opts.name, outputDir)
	_, _ = fmt.Fprintln(out, "Next steps:")
	_, _ = fmt.Fprintf(out, "  rulegraph validate %s\n", written[0])
	_, _ = fmt.Fprintf(out, "  rulegraph check %s --data %s\n", written[0], written[1])
	return nil
}

// validateManifestName requires lowercase alphanumerics with single hyphens.
func validateManifestName(name string) error {
	if !manifestNamePattern.MatchString(name) {
		return fmt.Errorf("invalid manifest name '%s': must be lowercase alphanumeric with hyphens, starting with a letter", name)
	}
	if strings.Contains(name, "--") {
		return fmt.Errorf("invalid manifest name '%s': consecutive hyphens not allowed", name)
	}
	return nil
}

// requiresConstraint pins generated manifests to this release line. Builds
// without a semantic version produce no constraint.
func requiresConstraint() string {
	v, err := version.Get().Semver()
	if err != nil {
		return ""
	}
	return fmt.Sprintf(">= %d.%d.0", v.Major(), v.Minor())
}

// toTitleCase converts "order-rules" to "Order Rules".
func toTitleCase(s string) string {
	words := strings.Split(s, "-")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

// toTypeName converts "order-rules" to "OrderRules".
func toTypeName(s string) string {
	var b strings.Builder
	for _, word := range strings.Split(s, "-") {
		if word == "" {
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}
