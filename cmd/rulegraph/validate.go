package main

import (
	"fmt"

	"github.com/reglet-dev/rulegraph/internal/domain/manifest"
	"github.com/spf13/cobra"
)

// newValidateCmd checks that manifests load and compile without running them.
func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest.yaml>...",
		Short: "Check that manifests are well-formed",
		Args:  cobra.MinimumNArgs(1),
		RunE: withContainer(root, func(cc *CommandContext, cmd *cobra.Command, args []string) error {
			for _, path := range args {
				m, err := cc.Container.ManifestLoader().Load(path)
				if err != nil {
					return err
				}
				nodes, rules := countManifest(m)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: manifest %s (v%s) is valid: %d nodes, %d rules\n",
					path, m.Name, m.Version, nodes, rules)
			}
			return nil
		}),
	}
}

// countManifest returns the number of nodes and declared rules, branch
// rules included.
func countManifest(m *manifest.Manifest) (nodes, rules int) {
	_ = m.Walk(func(n *manifest.Node) error {
		nodes++
		rules += len(n.Rules)
		for _, b := range n.Branches {
			rules += len(b.Rules)
		}
		return nil
	})
	return nodes, rules
}
