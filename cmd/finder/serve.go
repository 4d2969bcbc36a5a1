package main

import (
	"net/http"

	"github.com/matst80/rdf-finder/pkg/common"
	"github.com/matst80/rdf-finder/pkg/server"
	"github.com/matst80/rdf-finder/pkg/state"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the browsing API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.connect(ctx); err != nil {
				return err
			}
			defer a.close()

			sessions := server.NewSessions(a.newController, a.cfg.Session.TTL, a.logger.Named("sessions"),
				state.WithHistoryLimit(a.cfg.Session.HistoryLimit))
			go sessions.RunJanitor(ctx, a.cfg.Session.TTL/4)

			api := server.NewApiServer(sessions, a.logger.Named("api"))
			api.WaitTimeout = a.cfg.Server.Wait

			srv := common.NewServerWithTimeouts(&http.Server{
				Addr:    a.cfg.Server.Listen,
				Handler: api.Handle(),
			}, a.cfg.Server.Timeouts)
			return common.RunServerWithShutdown(ctx, srv, a.logger, "finder", a.cfg.Server.Timeouts, sessions.Close)
		},
	}
}
