package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/rostersync/internal/flagx"
	"github.com/joho/godotenv"
)

const envPrefix = "ROSTERSYNC_"

// lookupFunc resolves an environment variable.
type lookupFunc func(key string) (string, bool)

// readEnv returns a lookup over the process environment falling back to the
// .env file (or the file named by -env). A missing default .env is fine.
func readEnv(args []string) (lookupFunc, error) {
	path := flagx.ValueOf(args, "-env", "--env")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}

	file, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			file = map[string]string{}
		} else {
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}

// parseEnv overlays ROSTERSYNC_* variables onto cfg.
func parseEnv(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}

	var errs []error
	parse := func(name string, fn func(string) error) {
		if v, ok := lookup(envPrefix + name); ok {
			if err := fn(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
			}
		}
	}
	duration := func(dst *time.Duration) func(string) error {
		return func(v string) (err error) {
			*dst, err = time.ParseDuration(v)
			return err
		}
	}
	integer := func(dst *int) func(string) error {
		return func(v string) (err error) {
			*dst, err = strconv.Atoi(v)
			return err
		}
	}

	str("DATABASE_DRIVER", &cfg.DatabaseDriver)
	str("DATABASE_DSN", &cfg.DatabaseDSN)
	str("KEAP_BASE_URL", &cfg.KeapBaseURL)
	str("KEAP_ACCESS_TOKEN", &cfg.KeapAccessToken)
	parse("KEAP_RPS", func(v string) (err error) {
		cfg.KeapRequestsPerSecond, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("KEAP_TIMEOUT", duration(&cfg.KeapTimeout))
	parse("TAG_ID", func(v string) (err error) {
		cfg.TagID, err = strconv.ParseInt(v, 10, 64)
		return err
	})
	parse("PAGE_SIZE", integer(&cfg.PageSize))
	parse("DETAIL_WORKERS", integer(&cfg.DetailWorkers))
	parse("SWEEP_KEYLESS", func(v string) (err error) {
		cfg.SweepKeyless, err = strconv.ParseBool(v)
		return err
	})
	str("GRPC_ADDR", &cfg.EndpointAddrGRPC)
	str("HTTP_ADDR", &cfg.EndpointAddrHTTP)
	str("REDIS_ADDR", &cfg.RedisAddr)
	parse("LOCK_TTL", duration(&cfg.LockTTL))
	str("S3_BUCKET", &cfg.S3Bucket)
	str("S3_REGION", &cfg.S3Region)
	str("S3_BASE_ENDPOINT", &cfg.S3BaseEndpoint)
	str("S3_ACCESS_KEY", &cfg.S3AccessKey)
	str("S3_SECRET_KEY", &cfg.S3SecretKey)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	return errors.Join(errs...)
}
