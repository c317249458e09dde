// Package config assembles runtime settings from defaults, a .env file and
// ROSTERSYNC_* environment variables, an optional JSON file (-c) and finally
// short command-line flags, then validates the result.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the sync server and the one-shot runner.
type Config struct {
	DatabaseDriver string `validate:"oneof=sqlite pgx"`
	DatabaseDSN    string `validate:"required"`

	KeapBaseURL           string        `validate:"required,url"`
	KeapAccessToken       string
	KeapRequestsPerSecond float64       `validate:"gte=0"`
	KeapTimeout           time.Duration `validate:"gt=0"`

	// TagID is the tag synced when a trigger passes 0.
	TagID         int64 `validate:"gte=0"`
	PageSize      int   `validate:"min=1,max=1000"`
	DetailWorkers int   `validate:"min=1,max=64"`
	SweepKeyless  bool

	// RosterFields maps output names to custom field ids for GET /roster.
	RosterFields map[string]int

	EndpointAddrGRPC string `validate:"required"`
	EndpointAddrHTTP string `validate:"required"`

	// RedisAddr selects the Redis lock; empty means an in-process lock.
	RedisAddr string
	LockTTL   time.Duration `validate:"gt=0"`

	// S3Bucket enables result archiving when set.
	S3Bucket       string
	S3Region       string `validate:"required_with=S3Bucket"`
	S3BaseEndpoint string `validate:"omitempty,url"`
	S3AccessKey    string
	S3SecretKey    string `validate:"required_with=S3AccessKey"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json text"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "data/roster.db"
	c.KeapBaseURL = "https://api.infusionsoft.com/crm/rest/v1"
	c.KeapRequestsPerSecond = 8
	c.KeapTimeout = 30 * time.Second
	c.PageSize = 1000
	c.DetailWorkers = 1
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.LockTTL = 10 * time.Minute
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
	c.LogFormat = "json"
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load builds a Config from args (without the program name) and the process
// environment.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	env, err := readEnv(args)
	if err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, env); err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
