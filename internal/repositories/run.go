package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/shared"
)

const runColumns = `
	id, sequence, source_domain, target_domain, source_board_id,
	target_board_id, target_column_id, target_lane_id, status, cards_total,
	cards_created, cards_failed, error_message, started_at,
	completed_at, created_at, updated_at, deleted_at`

// RunRepository implements models.Repository[*models.MigrationRun] for run history.
//
// Handles run CRUD operations with soft delete support and status-based queries.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.MigrationRun] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.MigrationRun) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `
		INSERT INTO runs (
			id, sequence, source_domain, target_domain, source_board_id,
			target_board_id, target_column_id, target_lane_id, status, cards_total,
			cards_created, cards_failed, error_message, started_at,
			completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	target := run.Target()
	_, err = r.db.Exec(query,
		id,
		sequence,
		run.SourceDomain(),
		run.TargetDomain(),
		run.SourceBoardID(),
		target.BoardID,
		target.ColumnID,
		target.LaneID,
		run.Status(),
		run.CardsTotal(),
		run.CardsCreated(),
		run.CardsFailed(),
		nullString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.MigrationRun, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`
	return scanRun(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a run by its human-readable sequence number
func (r *RunRepository) GetBySequence(sequence int) (*models.MigrationRun, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE sequence = ? AND deleted_at IS NULL`
	return scanRun(r.db.QueryRow(query, sequence))
}

// Update modifies the mutable state of an existing run: status, counters and timestamps
func (r *RunRepository) Update(run *models.MigrationRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET status = ?, cards_total = ?, cards_created = ?, cards_failed = ?,
			error_message = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		run.Status(),
		run.CardsTotal(),
		run.CardsCreated(),
		run.CardsFailed(),
		nullString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return expectOneRow(result, "run", run.ID())
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	return expectOneRow(result, "run", id)
}

// List retrieves runs matching the given criteria, newest first, excluding soft-deleted runs.
//
// Supported criteria: "status" (string), "source_board_id" (int), "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.MigrationRun, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if board, ok := criteria["source_board_id"].(int); ok && board != 0 {
		query += " AND source_board_id = ?"
		args = append(args, board)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.MigrationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanRun scans a single row from [sql.Row] or [sql.Rows] into a [models.MigrationRun]
func scanRun(row scanner) (*models.MigrationRun, error) {
	var (
		id                                string
		sequence                          int
		sourceDomain, targetDomain        string
		sourceBoard                       int
		target                            models.Location
		status                            string
		total, created, failed            int
		errorMessage                      sql.NullString
		startedAt, completedAt, deletedAt sql.NullTime
		createdAt, updatedAt              time.Time
	)

	err := row.Scan(
		&id, &sequence, &sourceDomain, &targetDomain, &sourceBoard,
		&target.BoardID, &target.ColumnID, &target.LaneID, &status, &total,
		&created, &failed, &errorMessage, &startedAt,
		&completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run", shared.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewMigrationRun(sequence, sourceDomain, targetDomain, sourceBoard, target)
	run.SetID(id)
	run.SetStatus(models.RunStatus(status))
	run.SetCardsTotal(total)
	run.SetCounts(created, failed)
	run.SetErrorMessage(errorMessage.String)
	run.SetStartedAt(nullTime(startedAt))
	run.SetCompletedAt(nullTime(completedAt))
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	run.SetDeletedAt(nullTime(deletedAt))

	return run, nil
}
