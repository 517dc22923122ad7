package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/extindex/extindex/internal/adapters/driving/webhook"
	"github.com/extindex/extindex/internal/core/ports/driven"
)

// taskQueueForServe is set by ConfigureServe alongside the webhook handler
// dependencies; serve needs the queue to hand to the callback endpoint.
var taskQueueForServe driven.TaskQueue

// ConfigureServe injects the queue the webhook endpoint enqueues into.
func ConfigureServe(queue driven.TaskQueue) {
	taskQueueForServe = queue
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion workers and the webhook endpoint",
	Long: `Starts the dispatcher worker pool that executes queued imports and
an HTTP server exposing the GitHub webhook callback and a health check.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if dispatcher == nil || repoStore == nil || configStore == nil || taskQueueForServe == nil {
		return errors.New("serve not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("starting dispatcher: %w", err)
	}
	defer dispatcher.Stop() //nolint:errcheck

	mux := http.NewServeMux()
	webhook.NewHandler(repoStore, taskQueueForServe, configStore).Register(mux)

	addr := configStore.GetString(driven.ConfigListenAddr)
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		cmd.Printf("Received %s, shutting down...\n", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown incomplete")
	}
	cancel()
	return dispatcher.Stop()
}
