package main

import (
	"context"

	"github.com/desertthunder/setlist/internal/server"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP front until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	var runs server.RunStore
	if !cmd.Bool("no-history") {
		store, err := r.History()
		if err != nil {
			return err
		}
		runs = store
	}

	page, err := web.NewPage(r.config.Defaults)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Addr:     addr,
		Engine:   r.engine,
		Catalog:  r.catalog,
		Runs:     runs,
		Defaults: r.config.Defaults,
		Logger:   r.logger,
		Extra:    []server.Handler{page},
	})

	ready := make(chan string, 1)
	go func() {
		select {
		case bound := <-ready:
			url := "http://" + bound + "/"
			r.writePlain("Serving on %s (Ctrl-C to stop)\n", url)
			if cmd.Bool("open") {
				if err := shared.OpenBrowser(url); err != nil {
					r.logger.Warn("could not open browser", "error", err)
				}
			}
		case <-ctx.Done():
		}
	}()

	return srv.ListenAndServe(ctx, ready)
}
