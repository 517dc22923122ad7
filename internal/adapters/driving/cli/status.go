package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/extindex/extindex/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog totals and configuration location",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if repoStore == nil || configStore == nil {
		return errors.New("status not configured")
	}

	counts, err := repoStore.CountByType(context.Background())
	if err != nil {
		return fmt.Errorf("counting repositories: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	cmd.Printf("Repositories: %d\n", total)
	cmd.Printf("  plugins:    %d\n", counts[domain.TypePlugin])
	cmd.Printf("  components: %d\n", counts[domain.TypeComponent])
	cmd.Printf("  unclassified: %d\n", counts[domain.TypeUnknown])
	cmd.Printf("Config: %s\n", configStore.Path())
	return nil
}
