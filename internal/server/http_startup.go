package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumecraft/internal/config"
	"resumecraft/internal/observability"
)

const shutdownTimeout = 30 * time.Second

// Start serves until SIGINT or SIGTERM. The caller owns om and shuts it down.
func (s *Server) Start(om *observability.ObservabilityManager) error {
	httpServer := s.setupHTTPServer(om)

	if err := s.startPromptWatcher(); err != nil {
		return err
	}
	if err := s.startKeyWatcher(); err != nil {
		s.stopWatchers()
		return err
	}
	stopPruner := s.startWorkspacePruner()
	defer stopPruner()

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(om),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startPromptWatcher reloads prompt files on change when enabled
func (s *Server) startPromptWatcher() error {
	if s.AppConfig == nil || !s.AppConfig.Server.WatchPrompts {
		return nil
	}
	s.promptWatcher = config.NewPromptWatcher(s.AppConfig, s.AppConfig.Server.DebounceDelay, func(err error) {
		if err == nil {
			s.Logger.Info("Prompts reloaded", "files", len(s.AppConfig.PromptFiles()))
		}
	}, s.Logger)
	if err := s.promptWatcher.Start(); err != nil {
		return fmt.Errorf("failed to start prompt watcher: %w", err)
	}
	return nil
}

// startKeyWatcher polls the Vault API key secret when a poll interval is set
func (s *Server) startKeyWatcher() error {
	if s.AppConfig == nil {
		return nil
	}
	vaultCfg := s.AppConfig.Vault
	if !vaultCfg.Enabled || vaultCfg.Secrets.APIKeys == "" || vaultCfg.PollInterval <= 0 {
		return nil
	}

	client, err := config.NewVaultClient(vaultCfg, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}

	s.keyWatcher = NewVaultWatcher(client, vaultCfg.Secrets.APIKeys, vaultCfg.PollInterval, func(keys []string, err error) {
		if err != nil {
			return
		}
		s.APIKeys.Replace(keys)
	}, s.Logger)
	if err := s.keyWatcher.Start(); err != nil {
		return fmt.Errorf("failed to start vault watcher: %w", err)
	}
	return nil
}

// startWorkspacePruner drops idle workspaces on a ticker. The returned func
// stops it.
func (s *Server) startWorkspacePruner() func() {
	if s.AppConfig == nil || s.Deps.Workspaces == nil {
		return func() {}
	}
	maxIdle := s.AppConfig.Server.WorkspaceIdleTimeout
	if maxIdle <= 0 {
		return func() {}
	}

	interval := max(maxIdle/4, time.Minute)
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if n := s.Deps.Workspaces.PruneIdle(maxIdle); n > 0 {
					s.Logger.Info("Pruned idle workspaces", "count", n, "max_idle", maxIdle)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.stopWatchers()
		s.cleanupRateLimiter()
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.stopWatchers()
	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// stopWatchers stops the prompt and API key watchers if running
func (s *Server) stopWatchers() {
	if s.promptWatcher != nil {
		if err := s.promptWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop prompt watcher")
		}
	}
	if s.keyWatcher != nil {
		if err := s.keyWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop vault watcher")
		}
	}
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
