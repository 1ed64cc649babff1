package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fieldcap/internal/bootstrap"
)

func newFoldersCmd(g *globals) *cobra.Command {
	folders := &cobra.Command{Use: "folders", Short: "Browse and prune capture folders"}

	var query, sortMode string
	list := &cobra.Command{
		Use:   "list",
		Short: "List folders, newest first by default",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, func(app *bootstrap.App) error {
				out, err := app.GalleryCLI.ListFolders(context.Background(), query, sortMode)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), g.output, out, func(w io.Writer) {
					if len(out) == 0 {
						_, _ = fmt.Fprintln(w, "no folders")
						return
					}
					for _, f := range out {
						kind := "session"
						if f.Legacy {
							kind = "legacy"
						}
						_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.ID, f.When, f.Count, kind)
					}
				})
			})
		},
	}
	list.Flags().StringVar(&query, "query", "", "filter by date text, e.g. 11/14/2023")
	list.Flags().StringVar(&sortMode, "sort", "newest", "newest|oldest|largest|smallest")

	show := &cobra.Command{
		Use:   "show <key>",
		Short: "Show the photos behind a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, func(app *bootstrap.App) error {
				out, err := app.GalleryCLI.ShowFolder(context.Background(), args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), g.output, out, func(w io.Writer) {
					_, _ = fmt.Fprintf(w, "%s (%s, %d photos)\n", out.Key, out.Tier, len(out.Photos))
					for _, p := range out.Photos {
						_, _ = fmt.Fprintf(w, "%d\t%s\t%.6f,%.6f\t%s\n", p.ID, p.CreatedAt, p.Lat, p.Lon, p.URI)
					}
				})
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete every photo in the given folders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, func(app *bootstrap.App) error {
				out, err := app.GalleryCLI.DeleteFolders(context.Background(), args)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), g.output, out, func(w io.Writer) {
					_, _ = fmt.Fprintf(w, "removed %d photos\n", out.Removed)
				})
			})
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the local photo log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, func(app *bootstrap.App) error {
				out, err := app.GalleryCLI.Stats(context.Background())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), g.output, out, func(w io.Writer) {
					_, _ = fmt.Fprintf(w, "folders: %d (%d legacy)\nphotos: %d (%d remote, %d local)\n",
						out.Folders, out.LegacyFolders, out.Photos, out.RemotePhotos, out.LocalPhotos)
				})
			})
		},
	}

	folders.AddCommand(list, show, del, stats)
	return folders
}
