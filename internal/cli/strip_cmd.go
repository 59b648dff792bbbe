package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haytac/tocstrip/internal/app"
)

// NewStripCmd creates the one-shot strip command.
func NewStripCmd() *cobra.Command {
	var audit bool
	cmd := &cobra.Command{
		Use:   "strip [dir|file]...",
		Short: "Strip TOC emoji from a built site once",
		Long:  `Rewrites every HTML page below the given directories (or the configured sites when none are given).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			if cmd.Flags().Changed("audit") {
				AppCfg.Audit = audit
			}

			roots := args
			if len(roots) == 0 {
				for _, s := range AppCfg.Sites {
					roots = append(roots, s.Root)
				}
			}
			if len(roots) == 0 {
				return fmt.Errorf("no site given and none configured")
			}

			application, err := app.NewApplication(AppCfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer application.Close()

			sum, err := application.StripOnce(cmd.Context(), roots...)
			prefix := ""
			if AppCfg.DryRun {
				prefix = "[DRY RUN] "
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s%d pages, %d changed, %d written, %d skipped, %d failed, %d labels rewritten\n",
				prefix, sum.Pages, sum.Changed, sum.Written, sum.Skipped, sum.Failed, sum.Result.Rewritten)
			return err
		},
	}
	cmd.Flags().BoolVar(&audit, "audit", false, "log emoji that remain in rewritten labels")
	return cmd
}
