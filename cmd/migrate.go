package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/desertthunder/cardx/internal/formatter"
	"github.com/desertthunder/cardx/internal/mapping"
	"github.com/desertthunder/cardx/internal/repositories"
	"github.com/desertthunder/cardx/internal/services"
	"github.com/desertthunder/cardx/internal/shared"
	"github.com/desertthunder/cardx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// migration is a validated `migrate run` invocation.
type migration struct {
	source       *services.KaitenService
	target       *services.KaitenService
	request      tasks.MigrateRequest
	report       string
	reportFormat formatter.Format
}

// prepareMigration checks flags and config and resolves the target placement.
//
// Nothing is written to either instance here.
func (r *Runner) prepareMigration(ctx context.Context, cmd *cli.Command) (*migration, error) {
	ids := cmd.IntSlice("card")
	all := cmd.Bool("all")
	switch {
	case len(ids) == 0 && !all:
		return nil, fmt.Errorf("%w: pass --card ID (repeatable) or --all", shared.ErrMissingArgument)
	case len(ids) > 0 && all:
		return nil, fmt.Errorf("%w: --card and --all are mutually exclusive", shared.ErrInvalidArgument)
	}

	m := &migration{report: cmd.String("report")}
	if f := cmd.String("report-format"); f != "" {
		format, err := formatter.ParseFormat(f)
		if err != nil {
			return nil, err
		}
		if m.report == "" {
			return nil, fmt.Errorf("%w: --report-format needs --report", shared.ErrMissingArgument)
		}
		m.reportFormat = format
	}

	if cmd.Bool("sort-comments") {
		r.config.Migration.SortComments = true
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	var err error
	if m.source, err = r.service(ctx, SourceSide); err != nil {
		return nil, err
	}
	if m.target, err = r.service(ctx, TargetSide); err != nil {
		return nil, err
	}

	spaceID := cmd.Int("target-space")
	if spaceID == 0 {
		spaceID = r.config.Target.SpaceID
	}
	if spaceID == 0 {
		return nil, fmt.Errorf("%w: --target-space or target.space_id is required", shared.ErrMissingArgument)
	}

	board, err := m.target.Board(ctx, spaceID, cmd.Int("target-board"))
	if err != nil {
		return nil, err
	}
	loc, err := tasks.ResolveTarget(board, cmd.Int("target-column"), cmd.Int("target-lane"))
	if err != nil {
		return nil, err
	}

	sourceBoard := cmd.Int("source-board")
	m.request = tasks.MigrateRequest{
		SourceFilter: services.CardFilter{
			SpaceID:  r.config.Source.SpaceID,
			BoardID:  sourceBoard,
			ColumnID: cmd.Int("source-column"),
		},
		CardIDs:       ids,
		SourceBoardID: sourceBoard,
		Target:        loc,
	}

	r.logger.Info("target resolved", "board", board.Title, "column", loc.ColumnID, "lane", loc.LaneID)
	return m, nil
}

// newEngine builds the engine and attaches history recording when the database opens.
//
// The returned func releases the scratch directory and the database.
func (r *Runner) newEngine(m *migration) (*tasks.MigrationEngine, func(), error) {
	engine, err := tasks.NewMigrationEngine(m.source, m.target, r.logger, tasks.Options{
		PageSize:        r.config.Migration.PageSize,
		TempDir:         r.config.Migration.TempDir,
		SortComments:    r.config.Migration.SortComments,
		CommentTemplate: r.config.Migration.CommentTemplate,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := engine.Close(); err != nil {
			r.logger.Warn("failed to remove scratch directory", "error", err)
		}
	}

	db, runs, cards, err := r.historyRepos()
	if err != nil {
		r.logger.Warn("run history disabled", "error", err)
		return engine, cleanup, nil
	}
	engine.SetRecorder(repositories.NewHistoryRecorder(runs, cards, r.domain(SourceSide), r.domain(TargetSide)))

	return engine, func() {
		cleanup()
		db.Close()
	}, nil
}

// MigrateRun copies the selected source cards to the target board.
func (r *Runner) MigrateRun(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("tui") {
		return r.MigrateTUI(ctx, cmd)
	}

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

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logProgress(update)
		}
	}()

	result, runErr := engine.Migrate(ctx, m.request, progress)
	close(progress)
	<-done

	return r.finishMigration(m, result, runErr)
}

func (r *Runner) logProgress(u tasks.ProgressUpdate) {
	switch u.Phase {
	case tasks.CreateCard, tasks.CardFinished:
		r.logger.Info(u.Message, "step", u.Step, "total", u.Total)
	case tasks.MigrateSubResources:
		r.logger.Debug(u.Message, "step", u.Step, "total", u.Total)
	default:
		if u.Message != "" {
			r.logger.Info(u.Message)
		}
	}
}

// finishMigration prints the summary, writes the report and maps the outcome to an exit error.
//
// A partial run exits cleanly; a run that created nothing does not.
func (r *Runner) finishMigration(m *migration, result *tasks.MigrationResult, runErr error) error {
	if result == nil {
		return runErr
	}

	r.writePlainHeader("Migration summary")
	r.writePlain("Source: %s board %d\n", r.domain(SourceSide), m.request.SourceBoardID)
	loc := m.request.Target
	r.writePlain("Target: %s board %d column %d lane %d\n", r.domain(TargetSide), loc.BoardID, loc.ColumnID, loc.LaneID)
	r.writePlain("Created: %d/%d  Failed: %d\n", result.SuccessCount, result.TotalCount, result.FailedCount())
	if result.RunID != "" {
		r.writePlain("Run: %s\n", result.RunID)
	}

	for _, o := range result.Outcomes {
		switch {
		case !o.Created:
			r.writePlain("✗ #%d %s: %s\n", o.SourceID, o.Title, o.Error)
		case o.HasFailures():
			r.writePlain("! #%d → #%d %s (some sub-resources failed)\n", o.SourceID, o.TargetID, o.Title)
		}
	}

	if m.report != "" {
		report := formatter.NewReport(result, r.domain(SourceSide), r.domain(TargetSide), loc)
		path, err := formatter.WriteReport(report, m.report, m.reportFormat)
		if err != nil {
			r.logger.Error("failed to write report", "error", err)
		} else {
			r.writePlain("Report: %s\n", path)
		}
	}

	switch {
	case runErr != nil:
		if errors.Is(runErr, shared.ErrMigrationCanceled) {
			r.writePlainln("Stopped after %d of %d cards", result.Completed(), result.TotalCount)
		}
		return runErr
	case result.TotalCount == 0:
		return fmt.Errorf("%w: source filter matched no cards", shared.ErrNothingToMigrate)
	case result.Summary() == tasks.SummaryNone:
		return fmt.Errorf("%w: none of %d cards were created", shared.ErrAPIRequest, result.TotalCount)
	case result.Summary() == tasks.SummaryPartial:
		r.writePlainln("Finished with %d failed cards", result.FailedCount())
	default:
		r.writePlainln("✓ All %d cards migrated", result.TotalCount)
	}
	return nil
}

// dryRun prints the create requests a run would send, after mapping custom fields.
func (r *Runner) dryRun(ctx context.Context, m *migration) error {
	srcDefs, err := m.source.CustomFields(ctx, m.request.SourceBoardID)
	if err != nil {
		return fmt.Errorf("%w: source board %d: %w", shared.ErrFieldDefinitions, m.request.SourceBoardID, err)
	}
	dstDefs, err := m.target.CustomFields(ctx, m.request.Target.BoardID)
	if err != nil {
		return fmt.Errorf("%w: target board %d: %w", shared.ErrFieldDefinitions, m.request.Target.BoardID, err)
	}
	mapper := mapping.NewFieldMapper(srcDefs, dstDefs, r.logger)

	cards, err := tasks.FetchAll(ctx, m.source, m.request.SourceFilter, r.config.Migration.PageSize)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrSourceFetch, err)
	}

	requests := make([]services.CreateCardRequest, 0, len(cards))
	for _, card := range cards {
		if len(m.request.CardIDs) > 0 && !slices.Contains(m.request.CardIDs, card.ID) {
			continue
		}
		requests = append(requests, tasks.BuildCreateRequest(card, m.request.Target, mapper))
	}
	if len(requests) == 0 {
		return fmt.Errorf("%w: source filter matched no cards", shared.ErrNothingToMigrate)
	}

	r.logger.Info("dry run, nothing written", "cards", len(requests))
	return r.writeJSON(requests, true)
}
