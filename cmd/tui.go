package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cardx/internal/shared"
	"github.com/desertthunder/cardx/internal/ui"
	"github.com/urfave/cli/v3"
)

// MigrateTUI confirms and monitors a migration in the terminal UI, then prints the usual summary.
func (r *Runner) MigrateTUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = "./tmp/cardx.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	m, err := r.prepareMigration(ctx, cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("dry-run") {
		return r.dryRun(ctx, m)
	}

	engine, cleanup, err := r.newEngine(m)
	if err != nil {
		return err
	}
	defer cleanup()

	model := ui.NewModel(ctx, engine, m.request, r.domain(SourceSide), r.domain(TargetSide))
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	result, runErr := model.Result()
	if result == nil && runErr == nil {
		r.writePlain("Migration not started\n")
		return nil
	}
	return r.finishMigration(m, result, runErr)
}
