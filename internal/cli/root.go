package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haytac/tocstrip/internal/config"
	"github.com/haytac/tocstrip/internal/logging"
)

var (
	cfgFile string
	dryRun  bool
	AppCfg  *config.AppConfig // populated in PersistentPreRunE
)

var RootCmd = &cobra.Command{
	Use:   "tocstrip",
	Short: "Strip emoji from the table of contents of a built documentation site.",
	Long: `tocstrip removes emoji from the link labels of a documentation site's secondary
navigation (the "on this page" table of contents) and leaves them everywhere else.
It can rewrite a built site once, keep it clean while the generator rebuilds it,
or sanitize pages on the fly while serving them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadedCfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		AppCfg = loadedCfg

		logging.Setup(AppCfg.Log)
		AppCfg.DryRun = dryRun
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, $HOME/.tocstrip/config.yaml)")
	RootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing any page")

	RootCmd.AddCommand(NewStripCmd())
	RootCmd.AddCommand(NewRunCmd())
	RootCmd.AddCommand(NewServeCmd())
	RootCmd.AddCommand(NewPreviewCmd())
	RootCmd.AddCommand(NewRangesCmd())
	RootCmd.AddCommand(NewHistoryCmd())
	RootCmd.AddCommand(NewDbCmd())
}

func requireConfig() error {
	if AppCfg == nil {
		return fmt.Errorf("critical: AppCfg not loaded")
	}
	return nil
}
