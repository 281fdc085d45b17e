package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/tasks"
)

var (
	_ tea.Msg = playlistsFetchedMsg{}
	_ tea.Msg = progressMsg{}
	_ tea.Msg = batchDoneMsg{}
)

// playlistsFetchedMsg carries the destination playlists for the picker.
type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

// progressMsg wraps an engine progress event.
type progressMsg tasks.ProgressEvent

// batchDoneMsg is sent once Submit returns.
type batchDoneMsg struct {
	summary *tasks.BatchSummary
	err     error
}
