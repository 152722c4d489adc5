package repositories

import (
	"errors"
	"fmt"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/shared"
	"github.com/desertthunder/cardx/internal/tasks"
)

// HistoryRecorder persists engine runs into the runs and run_cards tables.
type HistoryRecorder struct {
	runs         *RunRepository
	cards        *CardRecordRepository
	sourceDomain string
	targetDomain string
}

var _ tasks.RunRecorder = (*HistoryRecorder)(nil)

// NewHistoryRecorder creates a recorder for runs between two instances.
func NewHistoryRecorder(runs *RunRepository, cards *CardRecordRepository, sourceDomain, targetDomain string) *HistoryRecorder {
	return &HistoryRecorder{
		runs:         runs,
		cards:        cards,
		sourceDomain: shared.NormalizeDomain(sourceDomain),
		targetDomain: shared.NormalizeDomain(targetDomain),
	}
}

// StartRun creates a running run row and returns its id.
func (h *HistoryRecorder) StartRun(req tasks.MigrateRequest, total int) (string, error) {
	board := req.SourceBoardID
	if board == 0 {
		board = req.SourceFilter.BoardID
	}

	run := models.NewMigrationRun(0, h.sourceDomain, h.targetDomain, board, req.Target)
	run.Start(total)
	if err := h.runs.Create(run); err != nil {
		return "", err
	}
	return run.ID(), nil
}

// RecordCard stores one card outcome and refreshes the run counters.
func (h *HistoryRecorder) RecordCard(runID string, position int, outcome models.CardOutcome) error {
	if err := h.cards.Create(models.NewCardRecord(runID, position, outcome)); err != nil {
		return err
	}

	run, err := h.runs.Get(runID)
	if err != nil {
		return err
	}
	created, failed := run.CardsCreated(), run.CardsFailed()
	if outcome.Created {
		created++
	} else {
		failed++
	}
	run.SetCounts(created, failed)
	return h.runs.Update(run)
}

// FinishRun stores the final tally. A cancelled run keeps the cards it completed.
func (h *HistoryRecorder) FinishRun(runID string, result *tasks.MigrationResult, runErr error) error {
	if result == nil {
		return fmt.Errorf("%w: nil result", shared.ErrInvalidInput)
	}

	run, err := h.runs.Get(runID)
	if err != nil {
		return err
	}
	run.Finish(result.SuccessCount, result.Completed(), runErr, errors.Is(runErr, shared.ErrMigrationCanceled))
	return h.runs.Update(run)
}
