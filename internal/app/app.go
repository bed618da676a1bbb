// Package app assembles the storage and domain services shared by the
// server, the local client and the test server.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ganot/taskboard/internal/config"
	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/account"
	"github.com/ganot/taskboard/internal/domain/activity"
	"github.com/ganot/taskboard/internal/domain/workspace"
	"github.com/ganot/taskboard/internal/sqlite"
)

// App holds the open database and the services built on it.
type App struct {
	DB        *sqlite.DB
	Store     *docstore.Store
	Accounts  *account.Service
	Workspace *workspace.Service
	Activity  *activity.Service
}

// Open opens (creating if needed) the database at dsn, migrates it and wires
// the services.
func Open(dsn string, auth config.AuthConfig, logger *slog.Logger) (*App, error) {
	if err := ensureDBDir(dsn); err != nil {
		return nil, fmt.Errorf("failed to prepare database path: %w", err)
	}

	db, err := sqlite.New(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	return New(db, auth, logger), nil
}

// New wires the services over an already migrated database.
func New(db *sqlite.DB, auth config.AuthConfig, logger *slog.Logger) *App {
	store := docstore.NewStore(sqlite.NewDocumentRepository(db), logger)
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
	accounts := account.NewService(sqlite.NewAccountRepository(db), account.Options{
		MinPasswordLength: auth.MinPasswordLength,
		SessionTTL:        auth.SessionTTL,
		BcryptCost:        auth.BcryptCost,
	}, logger)

	return &App{
		DB:        db,
		Store:     store,
		Accounts:  accounts,
		Workspace: workspace.NewService(store, activitySvc, logger),
		Activity:  activitySvc,
	}
}

// Close stops live queries and closes the database.
func (a *App) Close() error {
	a.Store.Close()
	return a.DB.Close()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
