package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/shared"
)

const cardRecordColumns = `
	id, run_id, position, source_card_id, target_card_id, title, created,
	tags_status, comments_status, files_status, checklists_status,
	error_message, created_at`

// CardRecordRepository implements models.Repository[*models.CardRecord] over the run_cards table.
//
// Only the status of each sub-resource category is stored; item-level results live in reports.
// Records are removed with their run and have no soft delete of their own.
type CardRecordRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.CardRecord] = (*CardRecordRepository)(nil)

// NewCardRecordRepository creates a new CardRecordRepository with the given database connection
func NewCardRecordRepository(db *sql.DB) *CardRecordRepository {
	return &CardRecordRepository{db: db}
}

// Create inserts a card outcome with a generated ID
func (r *CardRecordRepository) Create(rec *models.CardRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	id := shared.GenerateID()
	rec.SetID(id)

	query := `
		INSERT INTO run_cards (` + cardRecordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	o := rec.Outcome()
	_, err := r.db.Exec(query,
		id,
		rec.RunID(),
		rec.Position(),
		o.SourceID,
		nullInt(o.TargetID),
		o.Title,
		o.Created,
		o.StepStatus(models.CategoryTags),
		o.StepStatus(models.CategoryComments),
		o.StepStatus(models.CategoryFiles),
		o.StepStatus(models.CategoryChecklists),
		nullString(o.Error),
		rec.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert card record: %w", err)
	}

	return nil
}

// Get retrieves a card record by ID
func (r *CardRecordRepository) Get(id string) (*models.CardRecord, error) {
	query := `SELECT ` + cardRecordColumns + ` FROM run_cards WHERE id = ?`
	return scanCardRecord(r.db.QueryRow(query, id))
}

// Update rewrites the stored outcome of a card record
func (r *CardRecordRepository) Update(rec *models.CardRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `
		UPDATE run_cards
		SET target_card_id = ?, title = ?, created = ?, tags_status = ?,
			comments_status = ?, files_status = ?, checklists_status = ?, error_message = ?
		WHERE id = ?
	`

	o := rec.Outcome()
	result, err := r.db.Exec(query,
		nullInt(o.TargetID),
		o.Title,
		o.Created,
		o.StepStatus(models.CategoryTags),
		o.StepStatus(models.CategoryComments),
		o.StepStatus(models.CategoryFiles),
		o.StepStatus(models.CategoryChecklists),
		nullString(o.Error),
		rec.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update card record: %w", err)
	}

	return expectOneRow(result, "card record", rec.ID())
}

// Delete removes a card record by ID
func (r *CardRecordRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM run_cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card record: %w", err)
	}
	return expectOneRow(result, "card record", id)
}

// List retrieves card records ordered by run and position.
//
// Supported criteria: "run_id" (string), "created" (bool).
func (r *CardRecordRepository) List(criteria map[string]any) ([]*models.CardRecord, error) {
	query := `SELECT ` + cardRecordColumns + ` FROM run_cards WHERE 1 = 1`
	args := []any{}

	if runID, ok := criteria["run_id"].(string); ok && runID != "" {
		query += " AND run_id = ?"
		args = append(args, runID)
	}

	if created, ok := criteria["created"].(bool); ok {
		query += " AND created = ?"
		args = append(args, created)
	}

	query += " ORDER BY run_id, position"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query card records: %w", err)
	}
	defer rows.Close()

	var records []*models.CardRecord
	for rows.Next() {
		rec, err := scanCardRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// ListByRun retrieves the card records of one run in run order
func (r *CardRecordRepository) ListByRun(runID string) ([]*models.CardRecord, error) {
	return r.List(map[string]any{"run_id": runID})
}

func scanCardRecord(row scanner) (*models.CardRecord, error) {
	var (
		id, runID, title                  string
		position, sourceID                int
		targetID                          sql.NullInt64
		created                           bool
		tags, comments, files, checklists string
		errorMessage                      sql.NullString
		createdAt                         time.Time
	)

	err := row.Scan(
		&id, &runID, &position, &sourceID, &targetID, &title, &created,
		&tags, &comments, &files, &checklists,
		&errorMessage, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card record", shared.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan card record: %w", err)
	}

	outcome := models.CardOutcome{
		SourceID: sourceID,
		Title:    title,
		Created:  created,
		TargetID: int(targetID.Int64),
		Error:    errorMessage.String,
	}
	if created {
		outcome.Steps = map[models.Category]models.StepResult{
			models.CategoryTags:       {Status: models.StepStatus(tags)},
			models.CategoryComments:   {Status: models.StepStatus(comments)},
			models.CategoryFiles:      {Status: models.StepStatus(files)},
			models.CategoryChecklists: {Status: models.StepStatus(checklists)},
		}
	}

	rec := models.NewCardRecord(runID, position, outcome)
	rec.SetID(id)
	rec.SetCreatedAt(createdAt)
	return rec, nil
}
