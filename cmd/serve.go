package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/sampark/sampark/internal/api"
	"github.com/sampark/sampark/internal/database"
	"github.com/sampark/sampark/internal/engine"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Sampark server",
	Long:  `Start the Sampark HTTP API together with its background jobs.`,
	Example: `sampark serve --config config.yml
sampark serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	eng, err := engine.New(cfg, db)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}
	defer eng.Close() //nolint:errcheck

	server, err := api.New(cfg, eng, log.GetLevel() == log.DebugLevel)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	// Cancel on interrupt so both the engine and the server stop gracefully
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting API server", "listen", cfg.Listen)
		return server.Run(gctx)
	})

	log.Info("sampark started successfully")
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error("server stopped with error", "error", err)
		return
	}
	log.Info("sampark stopped")
}
