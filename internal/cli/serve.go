package cli

import (
	"context"
	"fmt"
	"time"

	"resumecraft/internal/account"
	"resumecraft/internal/ai"
	"resumecraft/internal/export"
	"resumecraft/internal/ingest"
	"resumecraft/internal/observability"
	"resumecraft/internal/server"
	"resumecraft/internal/storage"
	"resumecraft/internal/workspace"

	"github.com/spf13/cobra"
)

var (
	servePort string
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing generation, workspaces, editing surfaces,
rendering, export and accounts.

Endpoints:
- POST /generate: Generate an analysis and open a workspace
- POST /extract/image: Extract a job description from a screenshot
- POST /profile/parse: Parse a profile from text or a LinkedIn PDF
- /workspaces/...: Rescore, integrate keywords, fix the job title,
  edit through surfaces, render and export
- /accounts/...: Signup, login, verification, profiles and templates
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if servePort != "" {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Observability shutdown failed", "error", err)
		}
	}()

	services, err := ai.NewServices(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI services: %w", err)
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Warn("Failed to close AI services", "error", err)
		}
	}()

	store, err := storage.Open(cfg.Storage.DatabasePath())
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close storage", "error", err)
		}
	}()

	accounts := account.NewService(account.NewSQLiteRepository(store), cfg.Accounts.BcryptCost, logger)
	if cfg.Accounts.SeedDefaults {
		if _, err := accounts.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed accounts: %w", err)
		}
	}

	collaborators := ai.NewCollaborators(services.Rescore, services.Integrate, om)
	deps := server.Deps{
		Services:   services,
		Workspaces: workspace.NewManager(collaborators, collaborators, logger),
		Accounts:   accounts,
		Loader:     ingest.NewLoader(cfg.App.MaxFileSize, logger),
		PDF:        export.NewPDFRenderer(cfg.Export.ChromePath, cfg.Export.PDFTimeout, logger),
		Storage:    store,
	}

	return server.NewServer(cfg, server.NewServerConfig(cfg, Version), deps, logger).Start(om)
}
