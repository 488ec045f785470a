package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/rainhub/internal/auth"
	"github.com/user/rainhub/internal/config"
	"github.com/user/rainhub/internal/raindrop"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List Raindrop collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := raindropClient()
		if err != nil {
			return err
		}

		cols, err := client.Collections()
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			fmt.Println("No collections found.")
			return nil
		}
		for _, col := range cols {
			fmt.Printf("%-10d %-40s %d items\n", col.ID, col.Title, col.Count)
		}
		return nil
	},
}

func raindropClient() (*raindrop.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return raindrop.NewClient(auth.NewStaticProvider(cfg.Raindrop.Token)), nil
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}
