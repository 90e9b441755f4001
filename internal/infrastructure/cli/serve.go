package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/api"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/watch"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/wiring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		hotReload, _ := cmd.Flags().GetBool("watch")

		cwd, _ := os.Getwd()
		engine, err := wiring.BuildEngine(cwd)
		if err != nil {
			return err
		}
		if addr == "" {
			addr = engine.Config.ListenAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if hotReload {
			watcher, err := watch.NewChecklistWatcher(engine.Store, engine.Config.ChecklistPath, 0, engine.Logger)
			if err != nil {
				return err
			}
			go func() {
				if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
					engine.Logger.Warn().Err(err).Msg("checklist watcher stopped")
				}
			}()
		}

		server := api.NewServer(addr, engine.Orchestrator, engine.Analyzer, engine.Store, engine.Fetcher, engine.Repo, engine.Logger)

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (defaults to config listen_addr)")
	serveCmd.Flags().Bool("watch", false, "Reload the checklist when its file changes")
	RootCmd.AddCommand(serveCmd)
}
