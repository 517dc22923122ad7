package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/extindex/extindex/internal/core/services"
)

var updateStatsOnly bool

var updateCmd = &cobra.Command{
	Use:   "update <repository>",
	Short: "Run a repository import in the foreground",
	Long: `Imports a catalogued repository immediately instead of waiting for
the task queue: metadata, manifest, readme, type inference and releases.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateStatsOnly, "stats-only", false,
		"refresh only the star/fork/issue counters")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	if updater == nil || repoStore == nil {
		return errors.New("update service not configured")
	}

	key, err := services.ParseRepositoryURL(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	repo, err := repoStore.GetByKey(ctx, key)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", key, err)
	}

	if updateStatsOnly {
		if err := updater.UpdateStats(ctx, repo.ID); err != nil {
			return fmt.Errorf("stats update failed: %w", err)
		}
		cmd.Printf("Counters of %s refreshed.\n", key)
		return nil
	}

	if err := updater.Update(ctx, repo.ID); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	cmd.Printf("Repository %s imported.\n", key)
	return nil
}
