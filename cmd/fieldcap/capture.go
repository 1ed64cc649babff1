package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"fieldcap/internal/bootstrap"
	"fieldcap/internal/modules/capture/dto"
)

func newCaptureCmd(g *globals) *cobra.Command {
	capture := &cobra.Command{Use: "capture", Short: "Capture geotagged photos through the device plugin"}

	input := dto.RunInput{}
	run := &cobra.Command{
		Use:   "run",
		Short: "Run one capture flow",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, func(app *bootstrap.App) error {
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
				defer stop()
				session, err := app.OpenCapture(ctx, true)
				if err != nil {
					return err
				}
				defer func() { _ = session.Close() }()
				out, err := session.CLI.Run(ctx, input)
				if err != nil {
					var userErr *dto.UserError
					if errors.As(err, &userErr) {
						return fmt.Errorf("%s (%w)", userErr.Message, userErr.Err)
					}
					return err
				}
				return render(cmd.OutOrStdout(), g.output, out, func(w io.Writer) {
					if out.Status.Notice != "" {
						_, _ = fmt.Fprintln(w, out.Status.Notice)
					}
					for _, c := range out.Captures {
						_, _ = fmt.Fprintf(w, "photo %d\t%s\t%.6f,%.6f\t%s\n", c.PhotoID, c.Storage, c.Lat, c.Lon, c.URI)
					}
					if out.Finish != nil {
						_, _ = fmt.Fprintf(w, "session %s finished with %d photos, next: %s\n", out.Finish.SessionID, out.Finish.Count, out.Finish.Next)
					} else if n := len(out.Captures); n > 0 {
						_, _ = fmt.Fprintf(w, "next: %s\n", out.Captures[n-1].Next)
					}
				})
			})
		},
	}
	run.Flags().IntVar(&input.Shots, "shots", 1, "photos to take")
	run.Flags().BoolVar(&input.Multi, "multi", false, "group the shots into one session")
	run.Flags().BoolVar(&input.Handoff, "handoff", false, "publish a hand-off payload for the waiting form")
	run.Flags().BoolVar(&input.Freeze, "freeze", false, "freeze coordinates before the first shot")
	run.Flags().IntVar(&input.Accuracy, "accuracy", 0, "accuracy threshold in meters (1-100)")

	records := &cobra.Command{
		Use:   "records <session-id>",
		Short: "List remote rows written for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, func(app *bootstrap.App) error {
				session, err := app.OpenCapture(context.Background(), false)
				if err != nil {
					return err
				}
				defer func() { _ = session.Close() }()
				out, err := session.CLI.SessionRecords(context.Background(), args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), g.output, out, func(w io.Writer) {
					if len(out) == 0 {
						_, _ = fmt.Fprintln(w, "no records")
						return
					}
					for _, r := range out {
						_, _ = fmt.Fprintf(w, "%d\t#%d\tprimary=%t\t%s\t%s\n", r.ID, r.Sequence, r.IsPrimary, r.Storage, r.ImageURL)
					}
				})
			})
		},
	}

	capture.AddCommand(run, records)
	return capture
}
