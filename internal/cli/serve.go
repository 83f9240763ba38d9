package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mhismail3/moosetabs/internal/api"
	"github.com/mhismail3/moosetabs/internal/provider"
	"github.com/spf13/cobra"
)

// serveContext is replaced in tests to stop the server immediately.
var serveContext = func(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the organize and analyze API for the tab UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			server, err := api.NewServer(api.Options{
				Orchestrator: a.orch,
				Extractor:    a.extractor,
				Metrics:      a.metrics,
				Provider:     provider.ID(a.cfg.LLM.Provider),
				Model:        a.cfg.LLM.Model,
				Organize:     a.organizeConfig(),
				Enrich:       a.enrichConfig(),
				Reload:       a.reloadCredentials,
			})
			if err != nil {
				return err
			}

			ctx, stop := serveContext(cmd.Context())
			defer stop()
			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"serving on http://%s provider=%s model=%s\n",
				addr,
				a.cfg.LLM.Provider,
				a.cfg.LLM.Model,
			); err != nil {
				return err
			}
			return server.Start(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr)")
	return cmd
}
