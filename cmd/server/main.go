package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/rostersync/internal/app"
	"github.com/dmitrijs2005/rostersync/internal/config"
	"github.com/dmitrijs2005/rostersync/internal/logging"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	a, err := app.New(ctx, cfg, logger.With("module", "app"))
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped", "error", err)
		_ = a.Close()
		os.Exit(1)
	}
}
