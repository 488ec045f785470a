package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/rainhub/internal/config"
	"github.com/user/rainhub/internal/state"
)

// showErrorCap bounds how many error-log entries `runs show` prints.
const showErrorCap = 20

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect import runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRuns()
	},
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all import runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRuns()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one import run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		run, err := store.Load(args[0])
		if err != nil {
			return fmt.Errorf("run %q: %w", args[0], err)
		}

		fmt.Printf("Run:        %s\n", run.ID)
		fmt.Printf("Status:     %s\n", run.Status)
		fmt.Printf("Collection: %s (id %d)\n", run.CollectionName, run.CollectionID)
		fmt.Printf("Started:    %s\n", run.StartedAt.Format(time.RFC3339))
		fmt.Printf("Updated:    %s\n", run.LastUpdateAt.Format(time.RFC3339))
		fmt.Printf("Progress:   %s\n", run.Progress())
		fmt.Printf("Stats:      fetched=%d saved=%d skipped=%d failed=%d\n",
			run.TotalFetched, run.TotalSaved, run.TotalSkipped, run.TotalFailed)
		if run.NextCursor != "" {
			fmt.Printf("Cursor:     %s\n", run.NextCursor)
		}
		if run.Status == state.StatusFailed {
			fmt.Printf("Resume:     rainhub import --resume %s\n", run.ID)
		}

		if len(run.Errors) > 0 {
			fmt.Printf("\nErrors (%d):\n", len(run.Errors))
			shown := run.Errors
			if len(shown) > showErrorCap {
				shown = shown[len(shown)-showErrorCap:]
			}
			for _, e := range shown {
				fmt.Printf("  %s  %s: %s\n", e.Timestamp.Format(time.RFC3339), e.ExternalID, e.Message)
			}
			if len(run.Errors) > showErrorCap {
				fmt.Printf("  ... and %d more\n", len(run.Errors)-showErrorCap)
			}
		}
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete an import run record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		removed, err := store.Delete(args[0])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("No run %q found.\n", args[0])
			return nil
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func openStore() (*state.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return state.NewStore(cfg.ImportsDir()), nil
}

func listRuns() error {
	store, err := openStore()
	if err != nil {
		return err
	}

	runs, err := store.ListAll()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No import runs yet. Start one with `rainhub import`.")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%-20s %-10s %-16s %s\n",
			run.ID, run.Status, run.Progress(), run.StartedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func init() {
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}
