package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cardx/internal/formatter"
	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/repositories"
	"github.com/desertthunder/cardx/internal/shared"
	"github.com/desertthunder/cardx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// runView is the JSON shape of a stored run.
type runView struct {
	ID            string           `json:"id"`
	Sequence      int              `json:"sequence"`
	Status        models.RunStatus `json:"status"`
	SourceDomain  string           `json:"source_domain"`
	TargetDomain  string           `json:"target_domain"`
	SourceBoardID int              `json:"source_board_id"`
	Target        models.Location  `json:"target"`
	CardsTotal    int              `json:"cards_total"`
	CardsCreated  int              `json:"cards_created"`
	CardsFailed   int              `json:"cards_failed"`
	Error         string           `json:"error,omitempty"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

func newRunView(run *models.MigrationRun) runView {
	return runView{
		ID:            run.ID(),
		Sequence:      run.Sequence(),
		Status:        run.Status(),
		SourceDomain:  run.SourceDomain(),
		TargetDomain:  run.TargetDomain(),
		SourceBoardID: run.SourceBoardID(),
		Target:        run.Target(),
		CardsTotal:    run.CardsTotal(),
		CardsCreated:  run.CardsCreated(),
		CardsFailed:   run.CardsFailed(),
		Error:         run.ErrorMessage(),
		StartedAt:     run.StartedAt(),
		CompletedAt:   run.CompletedAt(),
		CreatedAt:     run.CreatedAt(),
	}
}

func parseRunStatus(s string) (models.RunStatus, error) {
	switch st := models.RunStatus(s); st {
	case "", models.RunPending, models.RunRunning, models.RunFinished, models.RunFailed, models.RunCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown run status %q", shared.ErrInvalidFlag, s)
}

// findRun resolves a run by id, or by sequence when ref is "#N" or a bare number.
func findRun(runs *repositories.RunRepository, ref string) (*models.MigrationRun, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: run ID or #sequence", shared.ErrMissingArgument)
	}

	if seq, err := strconv.Atoi(strings.TrimPrefix(ref, "#")); err == nil {
		return runs.GetBySequence(seq)
	}
	return runs.Get(ref)
}

// HistoryList prints recorded runs, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	status, err := parseRunStatus(cmd.String("status"))
	if err != nil {
		return err
	}

	db, runs, _, err := r.historyRepos()
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := runs.List(map[string]any{"status": string(status), "limit": cmd.Int("limit")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, len(list))
		for i, run := range list {
			views[i] = newRunView(run)
		}
		return r.writeJSON(views, false)
	}

	return r.writeBytes(formatter.RunsToText(list))
}

// HistoryShow prints the card outcomes of one run, as text or as a report.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	var format formatter.Format
	if f := cmd.String("format"); f != "" {
		parsed, err := formatter.ParseFormat(f)
		if err != nil {
			return err
		}
		format = parsed
	}

	db, runs, cards, err := r.historyRepos()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := findRun(runs, cmd.StringArg("run"))
	if err != nil {
		return err
	}
	records, err := cards.ListByRun(run.ID())
	if err != nil {
		return err
	}

	if format == "" {
		return r.writeBytes(formatter.CardRecordsToText(run, records))
	}

	result := &tasks.MigrationResult{
		RunID:        run.ID(),
		SuccessCount: run.CardsCreated(),
		TotalCount:   run.CardsTotal(),
		Outcomes:     make([]models.CardOutcome, len(records)),
	}
	for i, rec := range records {
		result.Outcomes[i] = rec.Outcome()
	}

	report := formatter.NewReport(result, run.SourceDomain(), run.TargetDomain(), run.Target())
	if run.CompletedAt() != nil {
		report.GeneratedAt = run.CompletedAt().UTC()
	}
	data, err := formatter.RenderReport(report, format)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// HistoryDelete soft-deletes a run so it no longer appears in the history.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	db, runs, _, err := r.historyRepos()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := findRun(runs, cmd.StringArg("run"))
	if err != nil {
		return err
	}
	if err := runs.Delete(run.ID()); err != nil {
		return err
	}

	r.logger.Info("run deleted", "id", run.ID(), "sequence", run.Sequence())
	r.writePlain("✓ Deleted run #%d\n", run.Sequence())
	return nil
}
