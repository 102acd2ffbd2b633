package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophmedia/internal/app"
	"github.com/dmitrijs2005/gophmedia/internal/transfer"
	"github.com/spf13/cobra"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var contentType string
	var progress bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a file encrypted and print its attachment id",
		Args:  cobra.ExactArgs(1),
		RunE: ctx.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			path := args[0]
			ct := contentType
			if ct == "" {
				ct = mime.TypeByExtension(filepath.Ext(path))
			}
			if ct == "" {
				ct = "application/octet-stream"
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			var src io.Reader = f
			if progress {
				info, err := f.Stat()
				if err != nil {
					return err
				}
				src = transfer.NewReader(f, info.Size(), newProgressPrinter(cmd.ErrOrStderr(), "import"))
			}

			att, err := a.Attachments.Import(cmd.Context(), ct, src)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), att.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&contentType, "type", "", "content type (guessed from the extension when empty)")
	cmd.Flags().BoolVar(&progress, "progress", false, "print progress to stderr")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write the decrypted content of an attachment",
		Args:  cobra.ExactArgs(1),
		RunE: ctx.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rc, err := a.Attachments.OpenData(cmd.Context(), id)
			if err != nil {
				return err
			}
			defer rc.Close()
			_, err = writeOutput(cmd.OutOrStdout(), out, rc)
			return err
		}),
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all attachment ids with their content types",
		Args:  cobra.NoArgs,
		RunE: ctx.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			ids, err := a.Attachments.ListIDs(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				att, err := a.Attachments.ReadAttachment(cmd.Context(), id)
				if err != nil {
					return err
				}
				thumb := "-"
				if att.HasThumbnail() {
					thumb = "thumbnail"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\t%s\n", att.ID, att.ContentType, att.DataSize, thumb)
			}
			return nil
		}),
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove an attachment and its blobs",
		Args:  cobra.ExactArgs(1),
		RunE: ctx.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.Attachments.Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.Thumbnails.Forget(id)
			return nil
		}),
	}
}
