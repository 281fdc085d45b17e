// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// setupCommand handles setup operations for the configuration file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml with the default settings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the history database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// playlistCommand handles playlist operations on the catalog service.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists that items can be added to",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "create",
				Usage: "Create a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "name",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.BoolFlag{
						Name:  "public",
						Usage: "Make playlist public",
					},
				},
				Action: r.PlaylistCreate,
			},
		},
	}
}

func batchFlags(kind tasks.BatchKind) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Target playlist ID (defaults to [defaults] playlist_id)",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Read items from a file, one per line (- for stdin)",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Summary format: text, markdown, json or csv",
			Value: "text",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Save the summary to a file",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Summary file path (implies --save)",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Review items and watch progress in the terminal UI",
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "Do not record the run in the history database",
		},
	}

	if kind == tasks.KindSong {
		return flags
	}

	flags = append(flags, &cli.BoolFlag{
		Name:  "auto-select",
		Usage: "Let the catalog pick the best match for each item (defaults to [defaults] auto_select)",
	})
	if kind == tasks.KindArtist {
		flags = append(flags,
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Songs per artist: top10, topn or all",
			},
			&cli.IntFlag{
				Name:  "n",
				Usage: "Number of songs per artist in topn mode",
			},
		)
	}
	return flags
}

// addCommand adds batches of items to a playlist.
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a batch of items to a playlist",
		Commands: []*cli.Command{
			{
				Name:      "songs",
				Aliases:   []string{"song"},
				Usage:     "Add songs given as \"Title - Artist\", in one call",
				ArgsUsage: "[song...]",
				Flags:     batchFlags(tasks.KindSong),
				Action:    r.Add(tasks.KindSong),
			},
			{
				Name:      "artists",
				Aliases:   []string{"artist"},
				Usage:     "Add songs from each artist, one call per artist",
				ArgsUsage: "[artist...]",
				Flags:     batchFlags(tasks.KindArtist),
				Action:    r.Add(tasks.KindArtist),
			},
			{
				Name:      "albums",
				Aliases:   []string{"album"},
				Usage:     "Add every track of each album, one call per album",
				ArgsUsage: "[album...]",
				Flags:     batchFlags(tasks.KindAlbum),
				Action:    r.Add(tasks.KindAlbum),
			},
		},
	}
}

// historyCommand browses recorded runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse recorded batch runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded runs, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only runs of this kind",
					},
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Only runs against this playlist",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show the summary of one run (by sequence number or ID)",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "run",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Summary format: text, markdown, json or csv",
						Value: "text",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Remove a run from the history",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "run",
					},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// serveCommand runs the local HTTP front.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the batch API and web page",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to [server] host:port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the web page in the default browser",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record runs in the history database",
			},
		},
		Action: r.Serve,
	}
}

// apiCommand handles direct calls to the catalog service.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the catalog service",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the JSON reply",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command: pick a playlist, review the items and run the batch.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Pick a playlist and run a batch from a file in the terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "kind",
				Aliases:  []string{"k"},
				Usage:    "Batch kind: songs, artists or albums",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Read items from a file, one per line (- for stdin)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Songs per artist: top10, topn or all",
			},
			&cli.IntFlag{
				Name:  "n",
				Usage: "Number of songs per artist in topn mode",
			},
			&cli.BoolFlag{
				Name:  "auto-select",
				Usage: "Let the catalog pick the best match for each item",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the run in the history database",
			},
		},
		Action: r.TUI,
	}
}
