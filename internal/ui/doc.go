// Package ui implements a terminal run monitor using bubbletea's Elm architecture.
//
// The TUI walks a migration through three views:
//  1. [ConfirmView] : Review the card count and target before anything is written
//  2. [MigrateView] : Monitor real-time progress with a progress bar and the current card
//  3. [ResultView] : Browse per-card outcomes; [DetailView] shows one card's sub-resource results
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the MigrationEngine, providing non-blocking status reporting during runs.
// Quitting while a run is in flight cancels its context; the engine stops between cards and the partial result is shown.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
