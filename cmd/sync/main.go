// Command sync runs one roster sync cycle and prints the result as JSON.
// With -remote it asks a running server to do the cycle over gRPC. With
// -last it prints the last successful cycle instead of running one.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/rostersync/internal/app"
	"github.com/dmitrijs2005/rostersync/internal/client"
	"github.com/dmitrijs2005/rostersync/internal/common"
	"github.com/dmitrijs2005/rostersync/internal/config"
	"github.com/dmitrijs2005/rostersync/internal/flagx"
	"github.com/dmitrijs2005/rostersync/internal/logging"
	"github.com/dmitrijs2005/rostersync/internal/models"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := parseOwnFlags(os.Args[1:])

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	// logs go to stderr so stdout carries only the result
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var out any
	switch {
	case opts.last && opts.remote != "":
		out, err = lastRemote(ctx, opts.remote)
	case opts.last:
		out, err = lastLocal(ctx, cfg, logger)
	case opts.remote != "":
		out, err = runRemote(ctx, opts.remote, cfg.TagID)
	default:
		out, err = runLocal(ctx, cfg, logger)
	}

	if err == nil || errors.Is(err, common.ErrFetchFailed) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	}
	if err != nil {
		logger.Error(ctx, "sync failed", "error", err)
		stop()
		os.Exit(1)
	}
}

type ownFlags struct {
	remote string
	last   bool
}

func parseOwnFlags(args []string) ownFlags {
	var o ownFlags
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.remote, "remote", "", "address of a running server")
	fs.BoolVar(&o.last, "last", false, "print the last successful cycle")
	_ = fs.Parse(flagx.Allow("-remote", "--remote").Bools("-last", "--last").Apply(args))
	return o
}

func runLocal(ctx context.Context, cfg *config.Config, logger logging.Logger) (*models.SyncResult, error) {
	a, err := app.New(ctx, cfg, logger.With("module", "app"))
	if err != nil {
		return nil, err
	}
	defer a.Close()

	return a.Service().Run(ctx, 0)
}

func runRemote(ctx context.Context, addr string, tagID int64) (*models.SyncResult, error) {
	c, err := client.New(addr)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	return c.Run(ctx, tagID)
}

func lastLocal(ctx context.Context, cfg *config.Config, logger logging.Logger) (models.SyncMark, error) {
	a, err := app.New(ctx, cfg, logger.With("module", "app"))
	if err != nil {
		return models.SyncMark{}, err
	}
	defer a.Close()

	return a.Service().LastSync(ctx)
}

func lastRemote(ctx context.Context, addr string) (models.SyncMark, error) {
	c, err := client.New(addr)
	if err != nil {
		return models.SyncMark{}, err
	}
	defer c.Close()

	return c.LastSync(ctx)
}
