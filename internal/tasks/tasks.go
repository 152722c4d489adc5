package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/desertthunder/cardx/internal/mapping"
	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/services"
	"github.com/desertthunder/cardx/internal/shared"
)

// Options tunes a [MigrationEngine].
type Options struct {
	PageSize        int    // Card listing page size
	TempDir         string // Parent of the scratch directory; empty uses the OS default
	SortComments    bool   // Re-sort comments by creation time instead of listing order
	CommentTemplate string // Attribution template, see [DefaultCommentTemplate]
}

// MigrateRequest selects the cards of one run and where they go.
type MigrateRequest struct {
	Cards         []models.Card       // Explicit selection; fetched from SourceFilter when empty
	SourceFilter  services.CardFilter // Listing filter used when Cards is empty
	CardIDs       []int               // Narrows fetched cards to these ids
	SourceBoardID int                 // Board whose field definitions describe the source cards
	Target        models.Location     // Where new cards are created
}

func (r MigrateRequest) sourceBoard() int {
	if r.SourceBoardID != 0 {
		return r.SourceBoardID
	}
	return r.SourceFilter.BoardID
}

// Summary classifies a finished run.
type Summary string

const (
	SummaryAll     Summary = "all"
	SummaryPartial Summary = "partial"
	SummaryNone    Summary = "none"
)

// MigrationResult is the aggregate outcome of a run.
type MigrationResult struct {
	RunID        string               // History record id, empty without a recorder
	SuccessCount int                  // Cards created on the target
	TotalCount   int                  // Cards selected for the run
	Outcomes     []models.CardOutcome // One per attempted card, in run order
}

// Completed counts attempted cards; it is below TotalCount only for cancelled runs.
func (r *MigrationResult) Completed() int {
	return len(r.Outcomes)
}

// FailedCount counts attempted cards whose creation failed.
func (r *MigrationResult) FailedCount() int {
	return r.Completed() - r.SuccessCount
}

// Summary reports whether all, some or none of the selected cards were created.
func (r *MigrationResult) Summary() Summary {
	switch {
	case r.TotalCount > 0 && r.SuccessCount == r.TotalCount:
		return SummaryAll
	case r.SuccessCount > 0:
		return SummaryPartial
	default:
		return SummaryNone
	}
}

// RunRecorder persists run history. Recorder failures are logged and never stop a run.
type RunRecorder interface {
	StartRun(req MigrateRequest, total int) (string, error)
	RecordCard(runID string, position int, outcome models.CardOutcome) error
	FinishRun(runID string, result *MigrationResult, runErr error) error
}

// MigrationEngine copies cards between two instances, one card at a time.
//
// It owns a scratch directory for attachments, created by [NewMigrationEngine] and removed by [MigrationEngine.Close].
type MigrationEngine struct {
	source    SourceAPI
	target    TargetAPI
	log       shared.LogSink
	opts      Options
	recorder  RunRecorder
	tempDir   string
	migrators []SubResourceMigrator
}

// NewMigrationEngine creates an engine and its scratch directory.
func NewMigrationEngine(source SourceAPI, target TargetAPI, log shared.LogSink, opts Options) (*MigrationEngine, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: source instance not initialized", shared.ErrServiceUnavailable)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: target instance not initialized", shared.ErrServiceUnavailable)
	}
	if log == nil {
		log = shared.NewLogger(io.Discard)
	}

	dir, err := os.MkdirTemp(opts.TempDir, "cardx-files-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	e := &MigrationEngine{source: source, target: target, log: log, opts: opts, tempDir: dir}
	e.migrators = []SubResourceMigrator{
		NewTagMigrator(source, target),
		NewCommentMigrator(source, target, opts.CommentTemplate, opts.SortComments),
		NewFileMigrator(source, target, dir),
		NewChecklistMigrator(source, target),
	}
	return e, nil
}

// SetRecorder attaches run history persistence.
func (e *MigrationEngine) SetRecorder(r RunRecorder) {
	e.recorder = r
}

// TempDir returns the scratch directory used for attachments.
func (e *MigrationEngine) TempDir() string {
	return e.tempDir
}

// Close removes the scratch directory and anything left in it.
func (e *MigrationEngine) Close() error {
	if e.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(e.tempDir)
	e.tempDir = ""
	return err
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *MigrationEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Migrate runs one migration.
//
// Failing to read either board's field definitions, or to list the source cards, aborts the run
// before any card is created. Every other failure is recorded on the card it belongs to.
// Cancelling ctx stops the run between cards: the card in progress is finished, sub-resources
// included, under a context that ignores the cancellation. A stopped run returns the partial
// result along with an error matching both [shared.ErrMigrationCanceled] and the context error.
func (e *MigrationEngine) Migrate(ctx context.Context, req MigrateRequest, progress chan<- ProgressUpdate) (*MigrationResult, error) {
	sourceBoard := req.sourceBoard()
	if sourceBoard == 0 {
		return nil, fmt.Errorf("%w: source board is required", shared.ErrInvalidInput)
	}
	if req.Target.BoardID == 0 || req.Target.ColumnID == 0 {
		return nil, fmt.Errorf("%w: target board and column are required", shared.ErrInvalidInput)
	}

	e.sendProgress(progress, fetchFieldsUpdate(sourceBoard, req.Target.BoardID))
	mapper, err := e.fieldMapper(ctx, sourceBoard, req.Target.BoardID)
	if err != nil {
		return nil, err
	}

	cards, err := e.selectCards(ctx, req, progress)
	if err != nil {
		return nil, err
	}

	total := len(cards)
	result := &MigrationResult{TotalCount: total, Outcomes: make([]models.CardOutcome, 0, total)}
	e.sendProgress(progress, fetchCardsUpdate(total))
	result.RunID = e.startRun(req, total)

	cardCtx := context.WithoutCancel(ctx)
	var runErr error
	for i, card := range cards {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("%w after %d of %d cards: %w", shared.ErrMigrationCanceled, i, total, err)
			e.log.Warn("migration canceled", "completed", i, "total", total)
			break
		}

		outcome := e.migrateCard(cardCtx, i, total, card, req.Target, mapper, progress)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Created {
			result.SuccessCount++
		}
		e.recordCard(result.RunID, i, outcome)
		e.sendProgress(progress, cardFinishedUpdate(i+1, total, outcome))
	}

	e.finishRun(result.RunID, result, runErr)
	e.sendProgress(progress, runFinishedUpdate(result))
	e.log.Info("migration finished", "created", result.SuccessCount, "total", total, "summary", result.Summary())
	return result, runErr
}

func (e *MigrationEngine) fieldMapper(ctx context.Context, sourceBoard, targetBoard int) (*mapping.FieldMapper, error) {
	srcDefs, err := e.source.CustomFields(ctx, sourceBoard)
	if err != nil {
		return nil, fmt.Errorf("%w: source board %d: %w", shared.ErrFieldDefinitions, sourceBoard, err)
	}
	dstDefs, err := e.target.CustomFields(ctx, targetBoard)
	if err != nil {
		return nil, fmt.Errorf("%w: target board %d: %w", shared.ErrFieldDefinitions, targetBoard, err)
	}
	return mapping.NewFieldMapper(srcDefs, dstDefs, e.log), nil
}

// selectCards returns the explicit selection, or lists the source and keeps the requested ids in listing order.
func (e *MigrationEngine) selectCards(ctx context.Context, req MigrateRequest, progress chan<- ProgressUpdate) ([]models.Card, error) {
	if len(req.Cards) > 0 {
		return req.Cards, nil
	}

	e.sendProgress(progress, fetchCardsUpdate(-1))
	filter := req.SourceFilter
	if filter.BoardID == 0 {
		filter.BoardID = req.SourceBoardID
	}
	all, err := FetchAll(ctx, e.source, filter, e.opts.PageSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrSourceFetch, err)
	}
	if len(req.CardIDs) == 0 {
		return all, nil
	}

	selected := make([]models.Card, 0, len(req.CardIDs))
	found := make(map[int]bool, len(req.CardIDs))
	for _, c := range all {
		if slices.Contains(req.CardIDs, c.ID) && !found[c.ID] {
			selected = append(selected, c)
			found[c.ID] = true
		}
	}
	for _, id := range req.CardIDs {
		if !found[id] {
			e.log.Warn("selected card not found on source", "card", id)
		}
	}
	return selected, nil
}

func (e *MigrationEngine) migrateCard(
	ctx context.Context,
	done, total int,
	card models.Card,
	loc models.Location,
	mapper *mapping.FieldMapper,
	progress chan<- ProgressUpdate,
) models.CardOutcome {
	log := shared.WithSinkFields(e.log, "card", card.ID)
	outcome := models.CardOutcome{SourceID: card.ID, Title: card.Title}

	e.sendProgress(progress, createCardUpdate(done, total, card))
	created, err := e.target.CreateCard(ctx, BuildCreateRequest(card, loc, mapper))
	if err == nil && (created == nil || created.ID == 0) {
		err = errors.New("target returned no card id")
	}
	if err != nil {
		log.Error("failed to create card", "title", card.Title, "error", err)
		outcome.Err = err
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Created = true
	outcome.TargetID = created.ID
	outcome.Steps = make(map[models.Category]models.StepResult, len(e.migrators))
	log.Info("card created", "title", card.Title, "target", created.ID)

	for _, m := range e.migrators {
		e.sendProgress(progress, subResourceUpdate(done, total, card, m.Category()))
		outcome.Steps[m.Category()] = m.Migrate(ctx, card.ID, created.ID, shared.WithSinkFields(log, "category", m.Category()))
	}
	return outcome
}

// BuildCreateRequest derives the creation payload of a copy of card placed at loc.
//
// Custom-field values are rewritten with mapper; absent optional fields stay absent.
func BuildCreateRequest(card models.Card, loc models.Location, mapper *mapping.FieldMapper) services.CreateCardRequest {
	req := services.CreateCardRequest{
		Title:        card.Title,
		Description:  card.Description,
		BoardID:      loc.BoardID,
		ColumnID:     loc.ColumnID,
		LaneID:       loc.LaneID,
		TypeID:       card.TypeID,
		SizeText:     card.SizeText,
		DueDate:      card.DueDate,
		ASAP:         card.ASAP,
		ExpiresLater: card.ExpiresLater,
	}
	if mapper != nil {
		req.Properties = mapper.Map(card.Properties)
	}
	return req
}

func (e *MigrationEngine) startRun(req MigrateRequest, total int) string {
	if e.recorder == nil {
		return ""
	}
	id, err := e.recorder.StartRun(req, total)
	if err != nil {
		e.log.Warn("failed to record run start", "error", err)
		return ""
	}
	return id
}

func (e *MigrationEngine) recordCard(runID string, position int, outcome models.CardOutcome) {
	if e.recorder == nil || runID == "" {
		return
	}
	if err := e.recorder.RecordCard(runID, position, outcome); err != nil {
		e.log.Warn("failed to record card outcome", "card", outcome.SourceID, "error", err)
	}
}

func (e *MigrationEngine) finishRun(runID string, result *MigrationResult, runErr error) {
	if e.recorder == nil || runID == "" {
		return
	}
	if err := e.recorder.FinishRun(runID, result, runErr); err != nil {
		e.log.Warn("failed to record run result", "error", err)
	}
}
