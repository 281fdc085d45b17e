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
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ItemListView
	ConfirmView
	ProgressView
	ResultView
)

// PlaylistLister is the part of the catalog the picker needs.
type PlaylistLister interface {
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	view    ViewState
	catalog PlaylistLister
	engine  *tasks.Engine
	job     tasks.BatchJob

	width        int
	height       int
	playlistList list.Model
	itemList     list.Model
	bar          progress.Model
	spinner      spinner.Model
	help         help.Model
	keys         keyMap

	picker     bool
	events     chan tasks.ProgressEvent
	done       chan batchDoneMsg
	progress   tasks.ProgressEvent
	cancelling bool
	summary    *tasks.BatchSummary
	err        error
}

// NewModel creates a new TUI model for job.
//
// When job has no target playlist the model starts on a playlist picker fed by catalog.
func NewModel(ctx context.Context, catalog PlaylistLister, engine *tasks.Engine, job tasks.BatchJob) *Model {
	view := ItemListView
	if job.TargetID == "" {
		view = PlaylistListView
	}

	m := &Model{
		ctx:     ctx,
		view:    view,
		catalog: catalog,
		engine:  engine,
		job:     job,
		bar:     progress.New(progress.WithDefaultGradient()),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title.UnsetMarginBottom())),
		help:    help.New(),
		keys:    newKeyMap(),
	}
	m.picker = view == PlaylistListView
	m.playlistList = m.newList(nil, "Choose a destination playlist")
	m.itemList = m.newList(batchItems(job), fmt.Sprintf("%d %s to add", len(job.Items), pluralKind(job)))
	return m
}

// Summary returns the finished batch, or nil if none ran.
func (m *Model) Summary() *tasks.BatchSummary { return m.summary }

// Err returns the error that ended the batch or the playlist fetch, if any.
func (m *Model) Err() error { return m.err }

// Job returns the job as configured in the TUI, including a picked target.
func (m *Model) Job() tasks.BatchJob { return m.job }

// Init fetches playlists when a target still has to be picked.
func (m *Model) Init() tea.Cmd {
	if m.view == PlaylistListView {
		return m.fetchPlaylists()
	}
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		m.itemList.SetSize(msg.Width-4, msg.Height-8)
		m.bar.Width = min(max(msg.Width-8, 10), 80)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ItemListView:
			return m.handleItemListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ProgressView:
			return m.handleProgressKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		cmd := m.playlistList.SetItems(playlistItems(msg.playlists))
		return m, cmd

	case progressMsg:
		m.progress = tasks.ProgressEvent(msg)
		return m, m.waitForProgress()

	case batchDoneMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		m.events, m.done = nil, nil
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != ProgressView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ItemListView:
		return m.renderItemList()
	case ConfirmView:
		return m.renderConfirm()
	case ProgressView:
		return m.renderProgress()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit) && m.playlistList.FilterState() != list.Filtering:
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.job.TargetID = pl.playlist.ID
			m.view = ItemListView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleItemListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit) && m.itemList.FilterState() != list.Filtering:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back) && m.itemList.FilterState() == list.Unfiltered:
		if m.picker {
			m.view = PlaylistListView
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.itemList, cmd = m.itemList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = ProgressView
		return m, tea.Batch(m.startBatch(), m.spinner.Tick)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = ItemListView
		return m, nil
	}
	return m, nil
}

// handleProgressKeys cancels the batch; the engine stops before the next item and the result view follows.
func (m *Model) handleProgressKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.cancel) && m.cancel != nil && !m.cancelling {
		m.cancelling = true
		m.cancel()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) || key.Matches(msg, m.keys.enter) {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case ItemListView:
		m.itemList, cmd = m.itemList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		if m.catalog == nil {
			return playlistsFetchedMsg{err: errors.New("no catalog configured to list playlists")}
		}
		playlists, err := m.catalog.ListPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

// startBatch runs the job in the background. Events are reported without blocking; the events channel is
// closed once Submit returns and the result follows on done.
func (m *Model) startBatch() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.events = make(chan tasks.ProgressEvent, 64)
	m.done = make(chan batchDoneMsg, 1)

	events, done, job := m.events, m.done, m.job
	go func() {
		summary, err := m.engine.Submit(ctx, job, tasks.ChannelReporter(events))
		close(events)
		done <- batchDoneMsg{summary: summary, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	events, done := m.events, m.done
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		if e, ok := <-events; ok {
			return progressMsg(e)
		}
		return <-done
	}
}

func (m *Model) newList(items []list.Item, title string) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), max(m.width-4, 0), max(m.height-8, 0))
	l.Title = title
	return l
}

func (m *Model) renderPlaylistList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderItemList() string {
	next := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue"))
	helpView := m.help.ShortHelpView([]key.Binding{next, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.itemList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Add %d %s to playlist %s?", len(m.job.Items), pluralKind(m.job), m.job.TargetID))

	info := ""
	if m.job.Kind == tasks.KindArtist {
		mode := m.job.Options.Mode
		if mode == "" {
			mode = tasks.ModeTop10
		}
		info = fmt.Sprintf("Mode: %s", mode)
		if mode == tasks.ModeTopN {
			info += fmt.Sprintf(" (N=%d)", m.job.Options.CustomN)
		}
		info += "\n"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderProgress() string {
	title := styles.title.Render(fmt.Sprintf("Adding %s", pluralKind(m.job)))

	status := "Starting..."
	if m.progress.Total > 0 {
		status = fmt.Sprintf("Processing %d of %d: %s", m.progress.Step(), m.progress.Total, m.progress.CurrentItem)
	}
	if m.cancelling {
		status = styles.warn.Render("Cancelling after the current item...")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.cancel})
	return fmt.Sprintf("%s\n%s %s\n\n%s\n\n%s", title, m.spinner.View(), status, m.bar.ViewAs(m.progress.Fraction()), helpView)
}

func (m *Model) renderResult() string {
	if m.summary == nil {
		msg := "No result available"
		if m.err != nil {
			msg = fmt.Sprintf("Batch failed: %v", m.err)
		}
		return styles.err.Render(msg + "\n\nPress q to quit")
	}

	s := m.summary
	var title string
	switch s.Status() {
	case tasks.StatusComplete:
		title = styles.ok.Render("✓ Batch complete")
	case tasks.StatusCancelled:
		title = styles.warn.Render("Batch cancelled")
	case tasks.StatusFailed:
		title = styles.err.Render("✗ Nothing was added")
	default:
		title = styles.warn.Render("Batch finished with failures")
	}

	info := fmt.Sprintf("\n%s\n%d of %d items succeeded\n", formatter.Headline(s), s.SucceededItems, s.TotalItems)

	var log strings.Builder
	for _, line := range s.Log {
		log.WriteString("\n  " + styles.LogLine(line))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, log.String(), helpView)
}

func pluralKind(job tasks.BatchJob) string {
	if len(job.Items) == 1 {
		return job.Kind.String()
	}
	return job.Kind.String() + "s"
}
