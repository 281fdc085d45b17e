package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/tasks"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = batchItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string { return i.playlist.ID }

// batchItem is one parsed input line shown before the batch starts.
type batchItem struct {
	kind     tasks.BatchKind
	position int
	value    string
}

func (i batchItem) FilterValue() string { return i.value }

func (i batchItem) Title() string {
	if i.kind == tasks.KindSong {
		name, _ := tasks.SplitTitleArtist(i.value)
		return name
	}
	return i.value
}

func (i batchItem) Description() string {
	if i.kind == tasks.KindSong {
		if _, artist := tasks.SplitTitleArtist(i.value); artist != "" {
			return fmt.Sprintf("#%d • %s", i.position+1, artist)
		}
	}
	return fmt.Sprintf("#%d • %s", i.position+1, i.kind)
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, pl := range playlists {
		items[i] = playlistItem{playlist: pl}
	}
	return items
}

func batchItems(job tasks.BatchJob) []list.Item {
	items := make([]list.Item, len(job.Items))
	for i, v := range job.Items {
		items[i] = batchItem{kind: job.Kind, position: i, value: v}
	}
	return items
}
