package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/taskboard/internal/app"
	"github.com/ganot/taskboard/internal/config"
	"github.com/ganot/taskboard/internal/dbwatch"
	"github.com/ganot/taskboard/internal/logging"
	"github.com/ganot/taskboard/internal/mcp"
	"github.com/ganot/taskboard/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	logger, logCloser, err := logging.New(cfg.Log, logWriter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	a, err := app.Open(cfg.DB.Path, cfg.Auth, logger)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DB.Path, "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if n, err := a.Accounts.PurgeExpired(context.Background()); err != nil {
		logger.Warn("failed to purge expired sessions", "error", err)
	} else if n > 0 {
		logger.Info("purged expired sessions", "count", n)
	}

	if cfg.Transport.Mode == "stdio" {
		err = runStdioMode(logger, a, cfg)
	} else {
		err = runHTTPMode(logger, a, cfg)
	}
	if err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runStdioMode(logger *slog.Logger, a *app.App, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	user, err := a.Accounts.UserByEmail(ctx, cfg.MCP.DefaultUser)
	if err != nil {
		return fmt.Errorf("resolving mcp.default_user %q: %w", cfg.MCP.DefaultUser, err)
	}
	logger.Info("starting stdio transport", "user_id", user.ID)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      mcp.Services{Workspace: a.Workspace, Activity: a.Activity},
		TransportMode: "stdio",
		DefaultUserID: user.ID,
		Logger:        logger,
	})

	// Run blocks until stdin closes or the context is canceled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(logger *slog.Logger, a *app.App, cfg config.Config) error {
	var mcpHandler http.Handler
	if cfg.MCP.Enabled {
		mcpHandler = mcp.NewHTTPHandler(mcp.NewServer(mcp.Config{
			Services:      mcp.Services{Workspace: a.Workspace, Activity: a.Activity},
			Resolver:      a.Accounts,
			TransportMode: "http",
			Logger:        logger,
		}))
	}

	router := transport.NewServer(transport.Config{
		Services: transport.Services{
			Accounts:  a.Accounts,
			Workspace: a.Workspace,
			Activity:  a.Activity,
		},
		MCP:    mcpHandler,
		Logger: logger,
	})

	// Local clients may write to the same database file.
	if cfg.Watch.Enabled {
		watcher, err := dbwatch.New(cfg.DB.Path, a.Store, cfg.Watch.Debounce, logger)
		if err != nil {
			return err
		}
		defer watcher.Stop()
		if err := watcher.Start(); err != nil {
			logger.Warn("database watch disabled", "error", err)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "mcp", cfg.MCP.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return waitForShutdown(logger, httpServer, errCh)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}
