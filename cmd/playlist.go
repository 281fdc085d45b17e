package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/setlist/internal/formatter"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistList prints the playlists items can be added to.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	playlists, err := r.catalog.ListPlaylists(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("fetched playlists", "count", len(playlists))

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	_, err = r.output.Write(formatter.PlaylistsToText(playlists))
	return err
}

// PlaylistCreate creates a playlist and prints its ID.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	id, err := r.catalog.CreatePlaylist(ctx, name, cmd.String("description"), cmd.Bool("public"))
	if err != nil {
		return err
	}

	r.logger.Info("playlist created", "name", name, "id", id)
	r.writePlain("✓ Created playlist %q\n", name)
	r.writePlain("ID: %s\n", id)
	return nil
}
