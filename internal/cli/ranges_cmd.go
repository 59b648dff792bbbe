package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haytac/tocstrip/internal/emoji"
)

// NewRangesCmd creates the ranges command.
func NewRangesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ranges",
		Short: "Print the code point ranges removed from TOC labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, rg := range emoji.Table {
				if rg.Lo == rg.Hi {
					fmt.Fprintf(out, "%-16s %c\n", rg, rg.Lo)
					continue
				}
				fmt.Fprintf(out, "%-16s %c..%c\n", rg, rg.Lo, rg.Hi)
			}
			return nil
		},
	}
}
