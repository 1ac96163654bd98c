package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cloo-solutions/jobspy-mcp/internal/api/handlers"
	"github.com/cloo-solutions/jobspy-mcp/internal/api/middleware"
	"github.com/cloo-solutions/jobspy-mcp/internal/config"
	"github.com/cloo-solutions/jobspy-mcp/internal/logging"
	"github.com/cloo-solutions/jobspy-mcp/internal/mcp"
	"github.com/cloo-solutions/jobspy-mcp/internal/server"
	"github.com/cloo-solutions/jobspy-mcp/internal/telemetry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server.

By default the server speaks MCP over stdin/stdout. With --sse (or
JOBSPY_ENABLE_SSE=true) it listens for HTTP clients instead and serves
GET /sse, POST /messages, POST /api, GET /api/searches, /health and /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, version)
		},
	}

	cmd.Flags().String("host", "", "Host to listen on (overrides JOBSPY_HOST)")
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides JOBSPY_PORT)")
	cmd.Flags().Bool("sse", false, "Serve over HTTP event streams instead of stdio")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, version string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}

	// stdout carries the protocol in stdio mode, so logs always go to stderr.
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return err
	}

	flush := telemetry.Init(cfg.Sentry(version), logger)
	defer flush()

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	a, err := newApp(ctx, cfg, logger, appOptions{migrate: !noMigrate})
	if err != nil {
		return err
	}
	defer a.Close()

	if worker := a.pruneWorker(); worker != nil {
		go worker.Start(ctx)
		defer worker.Stop()
		logger.WithField("retention", cfg.SearchLogRetention).Info("search log pruner started")
	}

	mcpServer := mcp.NewServer(a.search, version, logger)

	if !cfg.EnableSSE {
		logger.Info("serving MCP over stdio")
		err := mcp.ServeStdio(ctx, mcpServer, a.registry, cmd.InOrStdin(), cmd.OutOrStdout())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	return serveHTTP(ctx, cfg, a, mcpServer, logger)
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("sse") {
		cfg.EnableSSE, _ = flags.GetBool("sse")
	}
	return cfg.Validate()
}

func serveHTTP(ctx context.Context, cfg *config.Config, a *app, mcpServer *mcp.Server, logger *logrus.Logger) error {
	mcpHandler := handlers.NewMCPHandler(mcpServer, a.registry, logger)

	var history handlers.SearchHistory
	if a.logs != nil {
		history = a.logs
	}

	routerCfg := server.RouterConfig{
		Logger:        logger,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		MCPHandler:    mcpHandler,
		SearchHandler: handlers.NewSearchHandler(a.search, history),
	}
	if cfg.HasAPIKey() {
		routerCfg.AuthValidator = middleware.StaticKey(cfg.APIKey)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Event streams never go idle, so Shutdown would wait on them forever.
	srv.RegisterOnShutdown(mcpHandler.CloseStreams)

	serveErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Addr()).Info("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := mcpHandler.Wait(shutdownCtx); err != nil {
		logger.WithError(err).Warn("searches still running at shutdown")
	}

	logger.Info("server stopped")
	return nil
}
