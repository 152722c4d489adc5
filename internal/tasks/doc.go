// Package tasks copies cards between two kanban instances with real-time progress reporting.
//
// # Run Lifecycle
//
// [MigrationEngine.Migrate] performs one run:
//
//  1. Reads the custom-field definitions of the source and target boards and builds a
//     [mapping.FieldMapper]. Failure here aborts the run with [shared.ErrFieldDefinitions].
//  2. Uses the caller's card selection, or lists the source board page by page with [FetchAll].
//     Failure here aborts the run with [shared.ErrSourceFetch].
//  3. For each card, creates the target card and then runs the sub-resource migrators in order:
//     tags, comments, files, checklists.
//
// A card counts as migrated once its target card exists. Sub-resource failures are recorded per
// item in the card's [models.CardOutcome] and never stop the run.
//
// # Progress Reporting
//
// Runs use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct carries the phase, completed and total card counts, a completion fraction that never
// decreases, a message, and optional data ([models.CardOutcome] after each card, [*MigrationResult] at the end).
// Updates use select with default to prevent blocking.
//
// # Scratch Files
//
// Attachments are staged in a directory created by [NewMigrationEngine]. Each file is removed right after its
// upload attempt, and [MigrationEngine.Close] removes the directory.
//
// # Run History
//
// The optional [RunRecorder] interface enables persistence of runs and per-card outcomes.
//
// Recorder errors are logged and otherwise ignored to avoid disrupting migrations.
package tasks
