package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haytac/tocstrip/internal/emoji"
	"github.com/haytac/tocstrip/internal/preview"
)

// NewPreviewCmd creates the preview command.
func NewPreviewCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "preview <file.md>...",
		Short: "Show Markdown headings as the table of contents will label them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			stripper := emoji.NewStripper(emoji.WithShortcodes(AppCfg.ExpandShortcodes))
			out := cmd.OutOrStdout()
			for _, name := range args {
				src, err := os.ReadFile(name)
				if err != nil {
					return fmt.Errorf("read %s: %w", name, err)
				}
				fmt.Fprintf(out, "%s\n", name)
				for _, e := range preview.Headings(src, depth, stripper) {
					mark := " "
					if e.Changed {
						mark = "*"
					}
					fmt.Fprintf(out, "%s %s%s\n", mark, strings.Repeat("  ", e.Level-1), e.Label)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 3, "deepest heading level shown in the table of contents")
	return cmd
}
