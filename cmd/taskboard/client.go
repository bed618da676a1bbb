package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/ganot/taskboard/internal/app"
	"github.com/ganot/taskboard/internal/backend"
	"github.com/ganot/taskboard/internal/config"
	"github.com/ganot/taskboard/internal/dbwatch"
	"github.com/ganot/taskboard/internal/logging"
	"github.com/ganot/taskboard/internal/remote"
)

// client is the backend the commands talk to, plus what it holds open.
type client struct {
	backend.Backend
	restore func(context.Context) (bool, error)
	close   func()
}

func newLogger() (*slog.Logger, io.Closer, error) {
	defaults := config.Default().Log
	return logging.New(config.LogConfig{
		Level:      viper.GetString("log-level"),
		Path:       viper.GetString("log-file"),
		MaxSizeMB:  defaults.MaxSizeMB,
		MaxBackups: defaults.MaxBackups,
	}, io.Discard)
}

// openClient connects to the configured server, or opens the local database
// when no server is set.
func openClient(logger *slog.Logger) (*client, error) {
	tokens := backend.FileTokenStore{Path: viper.GetString("token-file")}

	if server := viper.GetString("server"); server != "" {
		logger.Info("taskboard starting", "mode", "remote", "server", server)
		c, err := remote.New(server, remote.Options{Tokens: tokens, Logger: logger})
		if err != nil {
			return nil, err
		}
		return &client{
			Backend: c,
			restore: c.Restore,
			close:   func() { c.Close() },
		}, nil
	}

	dbPath := viper.GetString("db")
	logger.Info("taskboard starting", "mode", "local", "db", dbPath)
	a, err := app.Open(dbPath, config.Default().Auth, logger)
	if err != nil {
		return nil, err
	}
	local := backend.NewLocal(a.Accounts, a.Workspace, tokens, logger)

	var watcher *dbwatch.Watcher
	if viper.GetBool("watch") {
		watcher, err = dbwatch.New(dbPath, a.Store, config.Default().Watch.Debounce, logger)
		if err == nil {
			if err = watcher.Start(); err != nil {
				_ = watcher.Stop()
			}
		}
		if err != nil {
			logger.Warn("database watch disabled", "error", err)
			watcher = nil
		}
	}

	return &client{
		Backend: local,
		restore: local.Restore,
		close: func() {
			if watcher != nil {
				_ = watcher.Stop()
			}
			_ = a.Close()
		},
	}, nil
}
