package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// newDocsCmd renders the command tree it is attached to.
func newDocsCmd() *cobra.Command {
	var dir, format string
	cmd := &cobra.Command{
		Use:    "gen-docs",
		Short:  "Generate man pages or markdown for ferry",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root := cmd.Root()
			root.DisableAutoGenTag = true

			var gen func() error
			switch format {
			case "man":
				hdr := &doc.GenManHeader{Title: "FERRY", Section: "1", Source: "ferry " + version}
				gen = func() error { return doc.GenManTree(root, hdr, dir) }
			case "markdown":
				gen = func() error { return doc.GenMarkdownTree(root, dir) }
			default:
				return fmt.Errorf("unknown format %q (use man or markdown)", format)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			return gen()
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "docs", "output directory")
	cmd.Flags().StringVar(&format, "format", "man", "output format: man or markdown")
	return cmd
}
