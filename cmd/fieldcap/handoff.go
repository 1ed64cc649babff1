package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fieldcap/internal/bootstrap"
	"fieldcap/internal/modules/handoff/dto"
)

func newHandoffCmd(g *globals) *cobra.Command {
	handoff := &cobra.Command{Use: "handoff", Short: "Inspect the payload waiting for the form"}

	printPayload := func(w io.Writer, p dto.PayloadOutput) {
		_, _ = fmt.Fprintf(w, "primary: %s\nimages: %s (%s)\nlat/lon: %s,%s\nlocation: %s\ntimestamp: %s\n",
			p.PrimaryGeoImageID, p.ImageIDs, p.TotalImages, p.Latitude, p.Longitude, p.Location, p.Timestamp)
	}

	handoff.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the pending payload without consuming it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, func(app *bootstrap.App) error {
				out, err := app.HandoffCLI.Show(context.Background())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), g.output, out, func(w io.Writer) { printPayload(w, out) })
			})
		},
	})
	handoff.AddCommand(&cobra.Command{
		Use:   "consume",
		Short: "Read and clear the pending payload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, func(app *bootstrap.App) error {
				out, err := app.HandoffCLI.Consume(context.Background())
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), g.output, out, func(w io.Writer) { printPayload(w, out) })
			})
		},
	})
	return handoff
}
