package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/shared"
	"github.com/desertthunder/cardx/internal/tasks"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newTestRun() *models.MigrationRun {
	return models.NewMigrationRun(0, "source.kaiten.ru", "target.kaiten.ru", 7, models.Location{BoardID: 20, ColumnID: 21, LaneID: 22})
}

func createTestRun(t *testing.T, repo *RunRepository) *models.MigrationRun {
	t.Helper()
	run := newTestRun()
	if err := repo.Create(run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	return run
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		run := createTestRun(t, NewRunRepository(db))

		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence())
		}
	})

	t.Run("Create rejects invalid run", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		run := models.NewMigrationRun(0, "source.kaiten.ru", "", 7, models.Location{BoardID: 20, ColumnID: 21})
		err := NewRunRepository(db).Create(run)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := createTestRun(t, repo)

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if retrieved.SourceDomain() != "source.kaiten.ru" {
			t.Errorf("expected source domain source.kaiten.ru, got %s", retrieved.SourceDomain())
		}
		if retrieved.Target() != run.Target() {
			t.Errorf("expected target %+v, got %+v", run.Target(), retrieved.Target())
		}
		if retrieved.Status() != models.RunPending {
			t.Errorf("expected status pending, got %s", retrieved.Status())
		}
		if retrieved.StartedAt() != nil {
			t.Error("pending run should not have a start time")
		}
		if retrieved.ErrorMessage() != "" {
			t.Errorf("expected empty error message, got %q", retrieved.ErrorMessage())
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, err := NewRunRepository(db).Get("nope")
		if !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("GetBySequence", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		createTestRun(t, repo)
		second := createTestRun(t, repo)

		retrieved, err := repo.GetBySequence(2)
		if err != nil {
			t.Fatalf("failed to get run by sequence: %v", err)
		}
		if retrieved.ID() != second.ID() {
			t.Errorf("expected run %s, got %s", second.ID(), retrieved.ID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := createTestRun(t, repo)

		run.Start(10)
		run.Finish(7, 10, errors.New("boom"), false)
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if retrieved.Status() != models.RunFailed {
			t.Errorf("expected status failed, got %s", retrieved.Status())
		}
		if retrieved.CardsTotal() != 10 || retrieved.CardsCreated() != 7 || retrieved.CardsFailed() != 3 {
			t.Errorf("unexpected counters %d/%d/%d", retrieved.CardsTotal(), retrieved.CardsCreated(), retrieved.CardsFailed())
		}
		if retrieved.ErrorMessage() != "boom" {
			t.Errorf("expected error message boom, got %q", retrieved.ErrorMessage())
		}
		if retrieved.StartedAt() == nil || retrieved.CompletedAt() == nil {
			t.Error("finished run should have start and completion times")
		}
	})

	t.Run("Update missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		run := newTestRun()
		run.SetID("nope")
		err := NewRunRepository(db).Update(run)
		if !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := createTestRun(t, repo)

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}

		if _, err := repo.Get(run.ID()); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("deleted run should not be retrievable, got %v", err)
		}

		if err := repo.Delete(run.ID()); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("deleting twice should report ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		for i := range 3 {
			run := createTestRun(t, repo)
			if i == 1 {
				run.Start(1)
				run.Finish(1, 1, nil, false)
				if err := repo.Update(run); err != nil {
					t.Fatalf("failed to update run: %v", err)
				}
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if all[0].Sequence() != 3 {
			t.Errorf("expected newest run first, got sequence %d", all[0].Sequence())
		}

		finished, err := repo.List(map[string]any{"status": string(models.RunFinished)})
		if err != nil {
			t.Fatalf("failed to list finished runs: %v", err)
		}
		if len(finished) != 1 || finished[0].Sequence() != 2 {
			t.Errorf("expected only run #2 to be finished, got %d runs", len(finished))
		}

		limited, err := repo.List(map[string]any{"limit": 2})
		if err != nil {
			t.Fatalf("failed to list runs with limit: %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("expected 2 runs, got %d", len(limited))
		}
	})
}

func TestCardRecordRepository(t *testing.T) {
	created := models.CardOutcome{
		SourceID: 1,
		Title:    "Card 1",
		Created:  true,
		TargetID: 101,
		Steps: map[models.Category]models.StepResult{
			models.CategoryTags:     {Status: models.StatusDone},
			models.CategoryComments: {Status: models.StatusFailed},
		},
	}
	failed := models.CardOutcome{SourceID: 2, Title: "Card 2", Error: "boom"}

	t.Run("Create and ListByRun", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		run := createTestRun(t, NewRunRepository(db))
		repo := NewCardRecordRepository(db)

		for i, o := range []models.CardOutcome{failed, created} {
			if err := repo.Create(models.NewCardRecord(run.ID(), 1-i, o)); err != nil {
				t.Fatalf("failed to create card record: %v", err)
			}
		}

		records, err := repo.ListByRun(run.ID())
		if err != nil {
			t.Fatalf("failed to list card records: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}

		first := records[0].Outcome()
		if first.SourceID != 1 || !first.Created || first.TargetID != 101 {
			t.Errorf("unexpected first record %+v", first)
		}
		for c, want := range map[models.Category]models.StepStatus{
			models.CategoryTags:       models.StatusDone,
			models.CategoryComments:   models.StatusFailed,
			models.CategoryFiles:      models.StatusSkipped,
			models.CategoryChecklists: models.StatusSkipped,
		} {
			if got := first.StepStatus(c); got != want {
				t.Errorf("%s: expected %s, got %s", c, want, got)
			}
		}

		second := records[1].Outcome()
		if second.Created || second.TargetID != 0 || second.Error != "boom" {
			t.Errorf("unexpected second record %+v", second)
		}
	})

	t.Run("List by created", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		run := createTestRun(t, NewRunRepository(db))
		repo := NewCardRecordRepository(db)
		repo.Create(models.NewCardRecord(run.ID(), 0, created))
		repo.Create(models.NewCardRecord(run.ID(), 1, failed))

		records, err := repo.List(map[string]any{"run_id": run.ID(), "created": false})
		if err != nil {
			t.Fatalf("failed to list card records: %v", err)
		}
		if len(records) != 1 || records[0].Outcome().SourceID != 2 {
			t.Errorf("expected only the failed card, got %d records", len(records))
		}
	})

	t.Run("Create rejects record without run", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		err := NewCardRecordRepository(db).Create(models.NewCardRecord("", 0, created))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Create rejects unknown run", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewCardRecordRepository(db).Create(models.NewCardRecord("missing", 0, created)); err == nil {
			t.Error("expected foreign key violation")
		}
	})

	t.Run("Update and Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		run := createTestRun(t, NewRunRepository(db))
		repo := NewCardRecordRepository(db)
		rec := models.NewCardRecord(run.ID(), 0, failed)
		if err := repo.Create(rec); err != nil {
			t.Fatalf("failed to create card record: %v", err)
		}

		rec.SetOutcome(created)
		if err := repo.Update(rec); err != nil {
			t.Fatalf("failed to update card record: %v", err)
		}

		got, err := repo.Get(rec.ID())
		if err != nil {
			t.Fatalf("failed to get card record: %v", err)
		}
		if !got.Outcome().Created || got.Outcome().TargetID != 101 {
			t.Errorf("update not persisted: %+v", got.Outcome())
		}

		if err := repo.Delete(rec.ID()); err != nil {
			t.Fatalf("failed to delete card record: %v", err)
		}
		if _, err := repo.Get(rec.ID()); !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})
}

func TestHistoryRecorder(t *testing.T) {
	req := tasks.MigrateRequest{
		SourceBoardID: 7,
		Target:        models.Location{BoardID: 20, ColumnID: 21, LaneID: 22},
	}

	setup := func(t *testing.T) (*HistoryRecorder, *RunRepository, *CardRecordRepository) {
		db := setupTestDB(t)
		t.Cleanup(func() { db.Close() })
		runs, cards := NewRunRepository(db), NewCardRecordRepository(db)
		return NewHistoryRecorder(runs, cards, "https://source.kaiten.ru/", "target.kaiten.ru"), runs, cards
	}

	t.Run("records a full run", func(t *testing.T) {
		rec, runs, cards := setup(t)

		runID, err := rec.StartRun(req, 2)
		if err != nil {
			t.Fatalf("failed to start run: %v", err)
		}

		outcomes := []models.CardOutcome{
			{SourceID: 1, Title: "Card 1", Created: true, TargetID: 101},
			{SourceID: 2, Title: "Card 2", Error: "boom"},
		}
		for i, o := range outcomes {
			if err := rec.RecordCard(runID, i, o); err != nil {
				t.Fatalf("failed to record card %d: %v", i, err)
			}
		}

		mid, err := runs.Get(runID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if mid.Status() != models.RunRunning || mid.CardsCreated() != 1 || mid.CardsFailed() != 1 {
			t.Errorf("unexpected running state %s %d/%d", mid.Status(), mid.CardsCreated(), mid.CardsFailed())
		}

		result := &tasks.MigrationResult{RunID: runID, SuccessCount: 1, TotalCount: 2, Outcomes: outcomes}
		if err := rec.FinishRun(runID, result, nil); err != nil {
			t.Fatalf("failed to finish run: %v", err)
		}

		run, err := runs.Get(runID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if run.Status() != models.RunFinished {
			t.Errorf("expected finished, got %s", run.Status())
		}
		if run.SourceDomain() != "source.kaiten.ru" {
			t.Errorf("expected normalized source domain, got %s", run.SourceDomain())
		}
		if run.SourceBoardID() != 7 {
			t.Errorf("expected source board 7, got %d", run.SourceBoardID())
		}

		records, err := cards.ListByRun(runID)
		if err != nil {
			t.Fatalf("failed to list card records: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("expected 2 card records, got %d", len(records))
		}
	})

	t.Run("cancelled run", func(t *testing.T) {
		rec, runs, _ := setup(t)

		runID, err := rec.StartRun(req, 5)
		if err != nil {
			t.Fatalf("failed to start run: %v", err)
		}

		result := &tasks.MigrationResult{
			RunID:        runID,
			SuccessCount: 2,
			TotalCount:   5,
			Outcomes:     make([]models.CardOutcome, 2),
		}
		runErr := fmt.Errorf("%w after 2 of 5 cards", shared.ErrMigrationCanceled)
		if err := rec.FinishRun(runID, result, runErr); err != nil {
			t.Fatalf("failed to finish run: %v", err)
		}

		run, _ := runs.Get(runID)
		if run.Status() != models.RunCancelled {
			t.Errorf("expected cancelled, got %s", run.Status())
		}
		if run.CardsTotal() != 5 || run.CardsCreated() != 2 || run.CardsFailed() != 0 {
			t.Errorf("unexpected counters %d/%d/%d", run.CardsTotal(), run.CardsCreated(), run.CardsFailed())
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		rec, _, _ := setup(t)

		err := rec.FinishRun("missing", &tasks.MigrationResult{}, nil)
		if !errors.Is(err, shared.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	seq1, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("failed to get first sequence: %v", err)
	}

	if seq1 != 1 {
		t.Errorf("expected first sequence to be 1, got %d", seq1)
	}

	seq2, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("failed to get second sequence: %v", err)
	}

	if seq2 != 2 {
		t.Errorf("expected second sequence to be 2, got %d", seq2)
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without sequence")
	}
}
