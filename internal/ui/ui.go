package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/cardx/internal/models"
	"github.com/desertthunder/cardx/internal/shared"
	"github.com/desertthunder/cardx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConfirmView ViewState = iota
	MigrateView
	ResultView
	DetailView
)

// Migrator runs one migration; satisfied by [tasks.MigrationEngine].
type Migrator interface {
	Migrate(ctx context.Context, req tasks.MigrateRequest, progress chan<- tasks.ProgressUpdate) (*tasks.MigrationResult, error)
}

var _ Migrator = (*tasks.MigrationEngine)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	engine       Migrator
	request      tasks.MigrateRequest
	source       string
	target       string
	width        int
	height       int
	progressChan chan tasks.ProgressUpdate
	doneChan     chan migrationDone
	progress     tasks.ProgressUpdate
	bar          progress.Model
	outcomes     list.Model
	selected     *models.CardOutcome
	stopping     bool
	result       *tasks.MigrationResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model for one migration request.
//
// source and target label the two instances in the confirmation and result views.
func NewModel(ctx context.Context, engine Migrator, req tasks.MigrateRequest, source, target string) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:     ctx,
		cancel:  cancel,
		view:    ConfirmView,
		engine:  engine,
		request: req,
		source:  source,
		target:  target,
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Result returns the finished run's result and error, if any.
func (m *Model) Result() (*tasks.MigrationResult, error) {
	return m.result, m.err
}

// ViewState returns the current view.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Init waits for confirmation; nothing runs until the user accepts.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-8, 20)
		if m.view == ResultView {
			m.outcomes.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case MigrateView:
			return m.handleMigrateKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			return m, m.waitForProgress()
		case MsgMigrationComplete:
			done := msg.data.(migrationDone)
			m.finish(done.result, done.err)
			return m, nil
		}
	}

	if m.view == ResultView {
		var cmd tea.Cmd
		m.outcomes, cmd = m.outcomes.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case MigrateView:
		return m.renderMigrate()
	case ResultView:
		return m.renderResult()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = MigrateView
		return m, m.startMigration()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	}
	return m, nil
}

// handleMigrateKeys stops the run on quit. The card being copied still gets all of its sub-resources.
func (m *Model) handleMigrateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.abort) && !m.stopping {
		m.stopping = true
		m.cancel()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.outcomes.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.outcomes, cmd = m.outcomes.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.outcomes.SelectedItem().(outcomeItem); ok {
			o := item.outcome
			m.selected = &o
			m.view = DetailView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.outcomes, cmd = m.outcomes.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.selected = nil
		m.view = ResultView
	}
	return m, nil
}

func (m *Model) startMigration() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan migrationDone, 1)

	progressChan, doneChan := m.progressChan, m.doneChan
	go func() {
		result, err := m.engine.Migrate(m.ctx, m.request, progressChan)
		doneChan <- migrationDone{result: result, err: err}
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, doneChan := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progressChan == nil {
			return migrationCompleteMsg(nil, fmt.Errorf("%w: migration not started", shared.ErrServiceUnavailable))
		}

		update, ok := <-progressChan
		if !ok {
			done := <-doneChan
			return migrationCompleteMsg(done.result, done.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) finish(result *tasks.MigrationResult, err error) {
	m.cancel()
	m.result = result
	m.err = err
	m.progressChan = nil
	m.doneChan = nil
	m.view = ResultView

	var outcomes []models.CardOutcome
	if result != nil {
		outcomes = result.Outcomes
	}
	m.outcomes = list.New(outcomeItems(outcomes), list.NewDefaultDelegate(), 0, 0)
	m.outcomes.Title = "Card outcomes"
	m.outcomes.SetSize(max(m.width-4, 0), max(m.height-10, 0))
}

func (m *Model) cardCount() string {
	if n := len(m.request.Cards); n > 0 {
		return fmt.Sprintf("%d", n)
	}
	if n := len(m.request.CardIDs); n > 0 {
		return fmt.Sprintf("%d selected", n)
	}
	return "all"
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Migrate cards to %s?", m.target))
	loc := m.request.Target
	info := fmt.Sprintf(
		"\nSource: %s (board %d)\nTarget: %s (board %d, column %d, lane %d)\nCards: %s\n",
		m.source, m.sourceBoard(), m.target, loc.BoardID, loc.ColumnID, loc.LaneID, m.cardCount(),
	)
	note := styles.warn.Render("Every run creates new cards on the target.")

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, info, note, helpView)
}

func (m *Model) sourceBoard() int {
	if m.request.SourceBoardID != 0 {
		return m.request.SourceBoardID
	}
	return m.request.SourceFilter.BoardID
}

func (m *Model) renderMigrate() string {
	title := styles.title.Render("Migrating Cards")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchFields:
		phase = "Reading custom field definitions..."
	case tasks.FetchCards:
		phase = "Fetching source cards..."
	case tasks.CreateCard, tasks.MigrateSubResources, tasks.CardFinished:
		phase = fmt.Sprintf("Cards (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.RunFinished:
		phase = "Finishing..."
	default:
		phase = "Processing..."
	}

	status := m.progress.Message
	if m.stopping {
		status = styles.warn.Render("Stopping after the current card...")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.abort})
	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s\n\n%s", title, phase, m.bar.ViewAs(m.progress.Fraction), status, helpView)
}

func (m *Model) renderResult() string {
	var header string
	switch {
	case m.result == nil:
		return styles.err.Render(fmt.Sprintf("Migration failed: %v\n\nPress q to quit", m.err))
	case errors.Is(m.err, shared.ErrMigrationCanceled):
		header = styles.warn.Render(fmt.Sprintf("Migration stopped: %d of %d cards attempted", m.result.Completed(), m.result.TotalCount))
	case m.result.Summary() == tasks.SummaryAll:
		header = styles.ok.Render("✓ Migration Complete!")
	case m.result.Summary() == tasks.SummaryPartial:
		header = styles.warn.Render("Migration finished with failures")
	default:
		header = styles.err.Render("No cards were migrated")
	}

	info := fmt.Sprintf("\nCreated: %d/%d  Failed: %d", m.result.SuccessCount, m.result.TotalCount, m.result.FailedCount())
	if m.result.RunID != "" {
		info += fmt.Sprintf("\nRun: %s", m.result.RunID)
	}

	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", header, info, m.outcomes.View(), helpView)
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	o := m.selected

	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("#%d %s", o.SourceID, o.Title)))
	b.WriteString("\n")

	if !o.Created {
		b.WriteString(styles.err.Render("Card was not created: " + o.Error))
	} else {
		b.WriteString(fmt.Sprintf("Target card: #%d\n", o.TargetID))
		for _, c := range models.Categories {
			step := o.Steps[c]
			b.WriteString(fmt.Sprintf("\n%s: %s", c, styles.Status(o.StepStatus(c))))
			if step.Error != "" {
				b.WriteString(" " + styles.err.Render(step.Error))
			}
			for _, it := range step.Items {
				if it.OK() {
					b.WriteString(fmt.Sprintf("\n  • %s", it.Name))
				} else {
					b.WriteString(fmt.Sprintf("\n  • %s %s", it.Name, styles.err.Render(it.Error)))
				}
			}
		}
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", b.String(), helpView)
}
