package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <term>...",
	Short: "Search the catalog",
	Long: `Runs a full-text search over owner, name, keywords, display name,
author, description and readme. The last term matches as a prefix.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 25, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchIndex == nil {
		return errors.New("search service not configured")
	}

	term := strings.Join(args, " ")
	results, err := searchIndex.Search(context.Background(), term, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		cmd.Println("No matches.")
		return nil
	}
	for _, r := range results {
		cmd.Printf("%-50s %.2f\n", r.Owner+"/"+r.Name, r.Score)
	}
	return nil
}
