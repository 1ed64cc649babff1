package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fieldcap/internal/bootstrap"
	"fieldcap/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globals struct {
	dataDir string
	output  string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "fieldcap",
		Short:         "Geotagged field photo capture and session folders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.dataDir, "data-dir", ".", "directory holding fieldcap.yaml and local state")
	root.PersistentFlags().StringVarP(&g.output, "output", "o", "text", "output format: text|json|yaml")

	root.AddCommand(newFoldersCmd(g))
	root.AddCommand(newCaptureCmd(g))
	root.AddCommand(newHandoffCmd(g))
	root.AddCommand(newAuthCmd(g))
	root.AddCommand(newServeCmd(g))
	root.AddCommand(newTUICmd(g))
	return root
}

// withApp loads config, builds the app, and closes it after fn returns.
func withApp(g *globals, fn func(*bootstrap.App) error) error {
	cfg, err := config.New(g.dataDir)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			app.Logger.Warn("close store", "error", cerr)
		}
	}()
	return fn(app)
}

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve folders, hand-off and metrics over HTTP",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(g, func(app *bootstrap.App) error {
				if addr != "" {
					app.Config.HTTP.Addr = addr
				}
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return app.Serve(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}

func newTUICmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse capture folders in the terminal",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(g, bootstrap.RunTUI)
		},
	}
}
