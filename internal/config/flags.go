package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/rostersync/internal/flagx"
)

// Flags owned by Config. Other components (the -c loader, -env, a command's
// own switches) share the same command line.
var ownFlags = []string{"-r", "-d", "-u", "-k", "-t", "-p", "-n", "-a", "-w", "-x", "-b", "-g", "-e", "-l"}

// parseFlags overlays short command-line flags onto cfg.
//
//	-r string   database driver (sqlite or pgx)
//	-d string   database DSN
//	-u string   Keap API base URL
//	-k string   Keap access token
//	-t int      default tag id
//	-p int      page size for tag listings
//	-n int      concurrent contact detail requests
//	-a string   gRPC bind address
//	-w string   HTTP bind address
//	-x string   Redis address for the cycle lock
//	-b string   S3 bucket for result archives
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDriver, "r", cfg.DatabaseDriver, "database driver")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.KeapBaseURL, "u", cfg.KeapBaseURL, "Keap API base URL")
	fs.StringVar(&cfg.KeapAccessToken, "k", cfg.KeapAccessToken, "Keap access token")
	fs.Int64Var(&cfg.TagID, "t", cfg.TagID, "default tag id")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "page size")
	fs.IntVar(&cfg.DetailWorkers, "n", cfg.DetailWorkers, "detail workers")
	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&cfg.EndpointAddrHTTP, "w", cfg.EndpointAddrHTTP, "HTTP address")
	fs.StringVar(&cfg.RedisAddr, "x", cfg.RedisAddr, "Redis address")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, ownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
