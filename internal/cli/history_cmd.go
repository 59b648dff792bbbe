package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/haytac/tocstrip/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List pages recorded in the page ledger, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openLedger()
			if err != nil {
				return err
			}
			defer db.Close()

			pages, err := database.NewPageStore(db).ListPages(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(pages) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pages recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PROCESSED\tLINKS\tREWRITTEN\tPATH")
			for _, p := range pages {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", p.ProcessedAt.Local().Format(time.DateTime), p.Links, p.Rewritten, p.Path)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show (0 for all)")
	return cmd
}

func openLedger() (*database.DB, error) {
	if err := requireConfig(); err != nil {
		return nil, err
	}
	if AppCfg.DatabasePath == "" {
		return nil, fmt.Errorf("database_path is not configured, the page ledger is disabled")
	}
	db, err := database.Connect(AppCfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
