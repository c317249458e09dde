package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/rostersync/internal/flagx"
	"github.com/dmitrijs2005/rostersync/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "30s" or
// integer nanoseconds via timex.Duration.
type JsonConfig struct {
	DatabaseDriver        string         `json:"database_driver"`
	DatabaseDSN           string         `json:"database_dsn"`
	KeapBaseURL           string         `json:"keap_base_url"`
	KeapAccessToken       string         `json:"keap_access_token"`
	KeapRequestsPerSecond float64        `json:"keap_requests_per_second"`
	KeapTimeout           timex.Duration `json:"keap_timeout"`
	TagID                 int64          `json:"tag_id"`
	PageSize              int            `json:"page_size"`
	DetailWorkers         int            `json:"detail_workers"`
	SweepKeyless          bool           `json:"sweep_keyless"`
	RosterFields          map[string]int `json:"roster_fields"`
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	RedisAddr             string         `json:"redis_addr"`
	LockTTL               timex.Duration `json:"lock_ttl"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	S3AccessKey           string         `json:"s3_access_key"`
	S3SecretKey           string         `json:"s3_secret_key"`
	LogLevel              string         `json:"log_level"`
	LogFormat             string         `json:"log_format"`
}

// parseJSON overlays the file named by -c/-config onto cfg. The DTO is
// seeded from cfg, so keys absent from the file keep their current values.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJSON(cfg)
	if err := json.Unmarshal(file, &c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	fromJSON(cfg, c)
	return nil
}

func toJSON(cfg *Config) JsonConfig {
	return JsonConfig{
		DatabaseDriver:        cfg.DatabaseDriver,
		DatabaseDSN:           cfg.DatabaseDSN,
		KeapBaseURL:           cfg.KeapBaseURL,
		KeapAccessToken:       cfg.KeapAccessToken,
		KeapRequestsPerSecond: cfg.KeapRequestsPerSecond,
		KeapTimeout:           timex.Duration{Duration: cfg.KeapTimeout},
		TagID:                 cfg.TagID,
		PageSize:              cfg.PageSize,
		DetailWorkers:         cfg.DetailWorkers,
		SweepKeyless:          cfg.SweepKeyless,
		RosterFields:          cfg.RosterFields,
		EndpointAddrGRPC:      cfg.EndpointAddrGRPC,
		EndpointAddrHTTP:      cfg.EndpointAddrHTTP,
		RedisAddr:             cfg.RedisAddr,
		LockTTL:               timex.Duration{Duration: cfg.LockTTL},
		S3Bucket:              cfg.S3Bucket,
		S3Region:              cfg.S3Region,
		S3BaseEndpoint:        cfg.S3BaseEndpoint,
		S3AccessKey:           cfg.S3AccessKey,
		S3SecretKey:           cfg.S3SecretKey,
		LogLevel:              cfg.LogLevel,
		LogFormat:             cfg.LogFormat,
	}
}

func fromJSON(cfg *Config, c JsonConfig) {
	cfg.DatabaseDriver = c.DatabaseDriver
	cfg.DatabaseDSN = c.DatabaseDSN
	cfg.KeapBaseURL = c.KeapBaseURL
	cfg.KeapAccessToken = c.KeapAccessToken
	cfg.KeapRequestsPerSecond = c.KeapRequestsPerSecond
	cfg.KeapTimeout = c.KeapTimeout.Duration
	cfg.TagID = c.TagID
	cfg.PageSize = c.PageSize
	cfg.DetailWorkers = c.DetailWorkers
	cfg.SweepKeyless = c.SweepKeyless
	cfg.RosterFields = c.RosterFields
	cfg.EndpointAddrGRPC = c.EndpointAddrGRPC
	cfg.EndpointAddrHTTP = c.EndpointAddrHTTP
	cfg.RedisAddr = c.RedisAddr
	cfg.LockTTL = c.LockTTL.Duration
	cfg.S3Bucket = c.S3Bucket
	cfg.S3Region = c.S3Region
	cfg.S3BaseEndpoint = c.S3BaseEndpoint
	cfg.S3AccessKey = c.S3AccessKey
	cfg.S3SecretKey = c.S3SecretKey
	cfg.LogLevel = c.LogLevel
	cfg.LogFormat = c.LogFormat
}
