package models

import (
	"errors"
	"time"
)

// RunStatus is the lifecycle state of a [MigrationRun].
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunFinished  RunStatus = "finished"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

var (
	_ Model = (*MigrationRun)(nil)
	_ Model = (*CardRecord)(nil)
)

// MigrationRun is a persisted record of one migration invocation.
type MigrationRun struct {
	id            string
	sequence      int
	sourceDomain  string
	targetDomain  string
	sourceBoardID int
	target        Location
	status        RunStatus
	cardsTotal    int
	cardsCreated  int
	cardsFailed   int
	errorMessage  string
	startedAt     *time.Time
	completedAt   *time.Time
	createdAt     time.Time
	updatedAt     time.Time
	deletedAt     *time.Time
}

// NewMigrationRun creates a pending run between two instances.
func NewMigrationRun(sequence int, sourceDomain, targetDomain string, sourceBoardID int, target Location) *MigrationRun {
	now := time.Now()
	return &MigrationRun{
		sequence:      sequence,
		sourceDomain:  sourceDomain,
		targetDomain:  targetDomain,
		sourceBoardID: sourceBoardID,
		target:        target,
		status:        RunPending,
		createdAt:     now,
		updatedAt:     now,
	}
}

func (r *MigrationRun) ID() string { return r.id }
func (r *MigrationRun) Sequence() int { return r.sequence }
func (r *MigrationRun) SourceDomain() string { return r.sourceDomain }
func (r *MigrationRun) TargetDomain() string { return r.targetDomain }
func (r *MigrationRun) SourceBoardID() int { return r.sourceBoardID }
func (r *MigrationRun) Target() Location { return r.target }
func (r *MigrationRun) Status() RunStatus { return r.status }
func (r *MigrationRun) CardsTotal() int { return r.cardsTotal }
func (r *MigrationRun) CardsCreated() int { return r.cardsCreated }
func (r *MigrationRun) CardsFailed() int { return r.cardsFailed }
func (r *MigrationRun) ErrorMessage() string { return r.errorMessage }
func (r *MigrationRun) StartedAt() *time.Time { return r.startedAt }
func (r *MigrationRun) CompletedAt() *time.Time { return r.completedAt }
func (r *MigrationRun) CreatedAt() time.Time { return r.createdAt }
func (r *MigrationRun) UpdatedAt() time.Time { return r.updatedAt }
func (r *MigrationRun) DeletedAt() *time.Time { return r.deletedAt }

func (r *MigrationRun) SetID(id string) { r.id = id }
func (r *MigrationRun) SetSequence(seq int) { r.sequence = seq }
func (r *MigrationRun) SetStatus(s RunStatus) { r.status = s }
func (r *MigrationRun) SetCardsTotal(n int) { r.cardsTotal = n }
func (r *MigrationRun) SetErrorMessage(msg string) { r.errorMessage = msg }
func (r *MigrationRun) SetStartedAt(t *time.Time) { r.startedAt = t }
func (r *MigrationRun) SetCompletedAt(t *time.Time) { r.completedAt = t }
func (r *MigrationRun) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *MigrationRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *MigrationRun) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *MigrationRun) SetCounts(created, failed int) { r.cardsCreated, r.cardsFailed = created, failed }

// Start marks the run as running now.
func (r *MigrationRun) Start(total int) {
	now := time.Now()
	r.status = RunRunning
	r.cardsTotal = total
	r.startedAt = &now
}

// Finish records the final tally; err moves the run to failed (or cancelled when cancelled is set).
func (r *MigrationRun) Finish(created, total int, err error, cancelled bool) {
	now := time.Now()
	r.cardsCreated = created
	r.cardsFailed = total - created
	r.completedAt = &now
	switch {
	case cancelled:
		r.status = RunCancelled
	case err != nil:
		r.status = RunFailed
	default:
		r.status = RunFinished
	}
	if err != nil {
		r.errorMessage = err.Error()
	}
}

// Validate checks the run has both endpoints and consistent counters.
func (r *MigrationRun) Validate() error {
	if r.sourceDomain == "" || r.targetDomain == "" {
		return errors.New("source and target domains are required")
	}
	if r.target.BoardID == 0 || r.target.ColumnID == 0 {
		return errors.New("target board and column are required")
	}
	if r.cardsCreated+r.cardsFailed > r.cardsTotal {
		return errors.New("card counts exceed total")
	}
	switch r.status {
	case RunPending, RunRunning, RunFinished, RunFailed, RunCancelled:
	default:
		return errors.New("invalid run status")
	}
	return nil
}

// CardRecord is a persisted [CardOutcome] belonging to a run.
type CardRecord struct {
	id        string
	runID     string
	position  int
	outcome   CardOutcome
	createdAt time.Time
}

// NewCardRecord wraps an outcome for persistence.
func NewCardRecord(runID string, position int, outcome CardOutcome) *CardRecord {
	return &CardRecord{runID: runID, position: position, outcome: outcome, createdAt: time.Now()}
}

func (c *CardRecord) ID() string { return c.id }
func (c *CardRecord) RunID() string { return c.runID }
func (c *CardRecord) Position() int { return c.position }
func (c *CardRecord) Outcome() CardOutcome { return c.outcome }
func (c *CardRecord) CreatedAt() time.Time { return c.createdAt }
func (c *CardRecord) UpdatedAt() time.Time { return c.createdAt }

func (c *CardRecord) SetID(id string) { c.id = id }
func (c *CardRecord) SetCreatedAt(t time.Time) { c.createdAt = t }
func (c *CardRecord) SetOutcome(o CardOutcome) { c.outcome = o }

// Validate checks the record points at a run and a source card.
func (c *CardRecord) Validate() error {
	if c.runID == "" {
		return errors.New("run id is required")
	}
	if c.outcome.SourceID == 0 {
		return errors.New("source card id is required")
	}
	if c.outcome.Created && c.outcome.TargetID == 0 {
		return errors.New("created card must have a target id")
	}
	return nil
}
