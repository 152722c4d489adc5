package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cardx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgMigrationComplete
)

// migrationDone carries the engine's return values.
type migrationDone struct {
	result *tasks.MigrationResult
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// migrationCompleteMsg is the constructor for [MsgMigrationComplete]
func migrationCompleteMsg(result *tasks.MigrationResult, err error) Msg {
	return Msg{kind: MsgMigrationComplete, data: migrationDone{result: result, err: err}}
}
