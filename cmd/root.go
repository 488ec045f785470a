package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/user/rainhub/internal/config"
	"github.com/user/rainhub/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "rainhub",
	Short: "X bookmarks importer for Raindrop.io",
	Long:  "Import X (Twitter) bookmarks into a Raindrop.io collection, with resumable runs, and browse the run ledger.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return tui.Run(cfg)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (default: ~/.rainhub)")
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}
