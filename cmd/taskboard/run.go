package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ganot/taskboard/internal/tracker"
	"github.com/ganot/taskboard/internal/tui"
)

func runTUI(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, logCloser, err := newLogger()
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logCloser.Close()

	c, err := openClient(logger)
	if err != nil {
		return err
	}
	defer c.close()

	// A stale or unreachable session just starts signed out.
	if ok, err := c.restore(ctx); err != nil {
		logger.Warn("session not restored", "error", err)
	} else if ok {
		logger.Info("session restored")
	}

	tr := tracker.New(ctx, c, logger)
	defer tr.Close()

	p := tea.NewProgram(tui.NewModel(ctx, tr), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
