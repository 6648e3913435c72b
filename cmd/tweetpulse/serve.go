package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"tweetpulse/internal/httpapi"
	"tweetpulse/internal/metrics"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reports as a JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			r, err := a.reporter(cmd.Context())
			if err != nil {
				return err
			}
			if a.cfg.Metrics.Addr != "" {
				metrics.StartServer(a.cfg.Metrics.Addr)
				slog.Info("metrics listening", "addr", a.cfg.Metrics.Addr)
			}
			if !a.flagVerbose {
				gin.SetMode(gin.ReleaseMode)
			}
			return httpapi.Serve(cmd.Context(), a.cfg.Server.Addr, httpapi.NewRouter(r, a.cfg))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
