// Package cmd - serve command
package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"discount-engine/api"
	"discount-engine/internal/app"
	"discount-engine/internal/config"
	"discount-engine/internal/logging"
)

var (
	serveAddr  string
	serveRules string
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the quote API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		var ov app.Overrides
		if cmd.Flags().Changed("rules") {
			ov.RulesFile = &serveRules
		}
		a, err := app.Build(cfg, ov, logging.Logger)
		if err != nil {
			return err
		}

		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		server := api.NewServer(a.Engine, api.Options{
			Version:       Version,
			Logger:        logging.Named("api"),
			Registry:      a.Registry,
			Markets:       a.Markets,
			DefaultMarket: a.DefaultMarket,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		defer logging.Sync()
		return server.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveRules, "rules", "", "HCL rule-set file")
}
