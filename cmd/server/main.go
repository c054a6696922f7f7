// Package main - Entry point for the discount quote server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"discount-engine/api"
	"discount-engine/internal/app"
	"discount-engine/internal/config"
	"discount-engine/internal/logging"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "", "config file")
	addr := flag.String("addr", "", "server address (overrides config)")
	rules := flag.String("rules", "", "HCL rule-set file (overrides config)")
	flag.Parse()

	if err := run(*cfgPath, *addr, *rules); err != nil {
		fmt.Fprintf(os.Stderr, "discount-server: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, addr, rulesFile string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return err
	}
	defer logging.Sync()

	var ov app.Overrides
	if rulesFile != "" {
		ov.RulesFile = &rulesFile
	}
	a, err := app.Build(cfg, ov, logging.Logger)
	if err != nil {
		return err
	}

	logging.Info("discount quote server starting",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr),
		zap.String("rules", a.RulesSource),
	)

	server := api.NewServer(a.Engine, api.Options{
		Version:       version,
		Logger:        logging.Named("api"),
		Registry:      a.Registry,
		Markets:       a.Markets,
		DefaultMarket: a.DefaultMarket,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.ListenAndServe(ctx, cfg.Server.Addr)
}
