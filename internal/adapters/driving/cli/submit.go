package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/extindex/extindex/internal/core/domain"
	"github.com/extindex/extindex/internal/core/services"
)

var submitSkipCheck bool

var submitCmd = &cobra.Command{
	Use:   "submit <repository-url>",
	Short: "Submit a repository to the catalog",
	Long: `Validates the repository's package.yaml and registers it in the
catalog. A full import and a webhook subscription are scheduled in the
background. Accepts a GitHub URL or a bare owner/name reference.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().BoolVar(&submitSkipCheck, "skip-check", false,
		"register without validating the manifest first")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if submitter == nil || checker == nil {
		return errors.New("submit service not configured")
	}

	ctx := context.Background()
	ref := args[0]

	if !submitSkipCheck {
		key, err := services.ParseRepositoryURL(ref)
		if err != nil {
			return err
		}
		if err := checker.CheckManifest(ctx, key.Owner, key.Name); err != nil {
			var checkErr *domain.CheckError
			if errors.As(err, &checkErr) {
				return fmt.Errorf("manifest check failed: %s", checkErr.Reason)
			}
			return fmt.Errorf("manifest check failed: %w", err)
		}
		cmd.Println("Manifest check passed.")
	}

	repo, created, err := submitter.Submit(ctx, ref)
	if err != nil {
		return fmt.Errorf("submission failed: %w", err)
	}

	if created {
		cmd.Printf("Repository %s registered, import scheduled.\n", repo.FullName())
	} else {
		cmd.Printf("Repository %s already catalogued, re-import scheduled.\n", repo.FullName())
	}
	return nil
}
