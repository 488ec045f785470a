package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/rainhub/internal/auth"
	"github.com/user/rainhub/internal/config"
	"github.com/user/rainhub/internal/importer"
	"github.com/user/rainhub/internal/logging"
	"github.com/user/rainhub/internal/raindrop"
	"github.com/user/rainhub/internal/ratelimit"
	"github.com/user/rainhub/internal/state"
	"github.com/user/rainhub/internal/twitter"
)

var (
	importResume     string
	importMax        int
	importCollection string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import X bookmarks into Raindrop",
	Long:  "Start a new import run or resume an interrupted one. Progress persists after every page, so an interrupted run resumes from its last cursor.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log := logging.New(cfg)

		collection := cfg.Import.Collection
		if importCollection != "" {
			collection = importCollection
		}
		maxItems := cfg.Import.MaxItems
		if importMax > 0 {
			maxItems = importMax
		}

		limiter := ratelimit.New(log)
		source := twitter.NewClient(auth.NewStaticProvider(cfg.Twitter.Token), limiter, log)
		dest := raindrop.NewClient(auth.NewStaticProvider(cfg.Raindrop.Token))
		store := state.NewStore(cfg.ImportsDir())

		imp := importer.New(source, dest, store, log, importer.Options{
			Collection:   collection,
			PageSize:     cfg.Import.PageSize,
			MaxItems:     maxItems,
			DupScanPages: cfg.Import.DupScanPages,
		})

		summary, err := imp.Run(importResume)
		if err != nil {
			if errors.Is(err, auth.ErrNotAuthenticated) {
				return fmt.Errorf("missing API credential: set RAINHUB_TWITTER_TOKEN and RAINHUB_RAINDROP_TOKEN (or the matching config keys)")
			}
			return err
		}

		if summary.Message != "" {
			fmt.Println(summary.Message)
			fmt.Println()
		}
		printSummary(summary)
		return nil
	},
}

func printSummary(s *importer.Summary) {
	fmt.Printf("Run:        %s (%s)\n", s.RunID, s.Status)
	fmt.Printf("Collection: %s\n", s.Collection)
	fmt.Printf("Progress:   %s\n", s.Progress)
	fmt.Printf("Duration:   %s\n", s.Duration)
	fmt.Printf("Stats:      fetched=%d saved=%d skipped=%d failed=%d\n",
		s.Fetched, s.Saved, s.Skipped, s.Failed)
	if s.ErrorCount > 0 {
		fmt.Printf("Errors:     %d (see `rainhub runs show %s`)\n", s.ErrorCount, s.RunID)
	}
}

func init() {
	importCmd.Flags().StringVar(&importResume, "resume", "", "Resume an interrupted run by ID")
	importCmd.Flags().IntVar(&importMax, "max", 0, "Stop after this many fetched bookmarks (0 = unlimited)")
	importCmd.Flags().StringVar(&importCollection, "collection", "", "Destination collection title (default from config)")
	rootCmd.AddCommand(importCmd)
}
