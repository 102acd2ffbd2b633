package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/gophmedia/internal/app"
	"github.com/dmitrijs2005/gophmedia/internal/thumbnail"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newThumbnailCommand(ctx *commandContext) *cobra.Command {
	var out string
	var outDir string
	var all bool

	cmd := &cobra.Command{
		Use:   "thumbnail [ID]",
		Short: "Write an attachment thumbnail, generating it if needed",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: ctx.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			if all {
				return thumbnailAll(cmd, a, outDir)
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rc, err := a.Thumbnails.Thumbnail(cmd.Context(), id)
			if errors.Is(err, thumbnail.ErrNoThumbnail) {
				return fmt.Errorf("attachment %d has no thumbnail", id)
			}
			if err != nil {
				return err
			}
			defer rc.Close()
			_, err = writeOutput(cmd.OutOrStdout(), out, rc)
			return err
		}),
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&all, "all", false, "generate thumbnails for every attachment")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "with --all, also write ID.jpg files here")
	return cmd
}

// thumbnailAll requests the thumbnail of every attachment concurrently and
// prints one status line per id. Generation failures are reported, not
// fatal; the command fails if any occurred.
func thumbnailAll(cmd *cobra.Command, a *app.App, outDir string) error {
	ids, err := a.Attachments.ListIDs(cmd.Context())
	if err != nil {
		return err
	}

	var mu sync.Mutex
	failed := 0
	report := func(id int64, status string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", id, status)
	}

	g, gctx := errgroup.WithContext(cmd.Context())
	// requests beyond the worker count would only queue in the pool
	g.SetLimit(max(a.Config.Workers, 1) * 2)

	for _, id := range ids {
		g.Go(func() error {
			rc, err := a.Thumbnails.Thumbnail(gctx, id)
			switch {
			case err == nil:
			case errors.Is(err, thumbnail.ErrNoThumbnail):
				report(id, "none")
				return nil
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				mu.Lock()
				failed++
				mu.Unlock()
				report(id, "error: "+err.Error())
				return nil
			}
			defer rc.Close()

			if outDir != "" {
				if _, err := writeOutput(nil, filepath.Join(outDir, fmt.Sprintf("%d.jpg", id)), rc); err != nil {
					return err
				}
			} else if _, err := io.Copy(io.Discard, rc); err != nil {
				return err
			}
			report(id, "ok")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d thumbnails failed", failed, len(ids))
	}
	return nil
}
