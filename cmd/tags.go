package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagsCollection int64

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List Raindrop tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := raindropClient()
		if err != nil {
			return err
		}

		tags, err := client.Tags(tagsCollection)
		if err != nil {
			return err
		}
		if len(tags) == 0 {
			fmt.Println("No tags found.")
			return nil
		}
		for _, tag := range tags {
			fmt.Printf("%-30s %d\n", tag.Name, tag.Count)
		}
		return nil
	},
}

func init() {
	tagsCmd.Flags().Int64Var(&tagsCollection, "collection", 0, "Restrict to one collection ID (0 = whole library)")
	rootCmd.AddCommand(tagsCmd)
}
