package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/services"
)

var checkCmd = &cobra.Command{
	Use:   "check <repository>",
	Short: "Validate a repository's manifest without registering it",
	Long: `Fetches the repository's package.yaml and validates it against the
catalog schema. Nothing is persisted. Accepts a GitHub URL or a bare
owner/name reference.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checker == nil {
		return errors.New("check service not configured")
	}

	key, err := services.ParseRepositoryURL(args[0])
	if err != nil {
		return err
	}

	if err := checker.CheckManifest(context.Background(), key.Owner, key.Name); err != nil {
		var checkErr *domain.CheckError
		if errors.As(err, &checkErr) {
			return fmt.Errorf("check failed: %s", checkErr.Reason)
		}
		return fmt.Errorf("check failed: %w", err)
	}

	cmd.Printf("Manifest of %s is valid.\n", key)
	return nil
}
