// Command extindex runs the extension catalog: repository submission,
// background ingestion workers, the GitHub webhook endpoint and search.
package main

import (
	"fmt"
	"os"

	"github.com/extindex/extindex/internal/adapters/driven/config/file"
	"github.com/extindex/extindex/internal/adapters/driven/credentials"
	"github.com/extindex/extindex/internal/adapters/driven/storage/sqlite"
	"github.com/extindex/extindex/internal/adapters/driving/cli"
	"github.com/extindex/extindex/internal/connectors/github"
	"github.com/extindex/extindex/internal/core/ports/driven"
	"github.com/extindex/extindex/internal/core/services"
	"github.com/extindex/extindex/internal/readme"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close() //nolint:errcheck

	repos := store.RepositoryStore()
	releases := store.ReleaseStore()
	tasks := store.TaskStore()
	index := store.SearchIndex()

	remote := github.NewClient(
		credentials.NewConfigTokenProvider(configStore),
		configStore.GetString(driven.ConfigGitHubToken),
	)

	indexSync := services.NewIndexSync(repos, index)
	updater := services.NewUpdater(repos, releases, remote, tasks, readme.New(), configStore, indexSync)
	checker := services.NewChecker(remote)
	submitter := services.NewSubmitter(repos, tasks)

	workers := configStore.GetInt(driven.ConfigWorkerCount)
	if workers == 0 {
		workers = 4
	}
	dispatcher := services.NewDispatcher(tasks, repos, updater, workers)

	cli.Configure(configStore, repos, index, updater, checker, submitter, dispatcher)
	cli.ConfigureServe(tasks)

	return cli.Execute()
}
