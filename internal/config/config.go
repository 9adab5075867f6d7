// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - Validation failures wrap ErrInvalidConfig, source failures wrap ErrLoadConfig.
package config

import (
	"fmt"
	"time"
)

// Store backend names. Empty means auto-select.
const (
	BackendAuto   = ""
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendBadger = "badger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":3000".
	Addr string `koanf:"addr"`

	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string `koanf:"allowed_origin"`

	// StoreBackend picks the store: file, mongo, badger, or empty for auto.
	StoreBackend string `koanf:"store_backend"`

	// DataFile is the JSON document used by the file store.
	DataFile string `koanf:"data_file"`

	MongoURI              string `koanf:"mongo_uri"`
	MongoDatabase         string `koanf:"mongo_database"`
	MongoCollection       string `koanf:"mongo_collection"`
	MongoConnectTimeoutMS int    `koanf:"mongo_connect_timeout_ms"`

	// BadgerPath is the embedded database directory.
	BadgerPath string `koanf:"badger_path"`

	// GenderMale and GenderFemale are the literals counted as male and
	// female in the report; anything else is "other".
	GenderMale   string `koanf:"gender_male"`
	GenderFemale string `koanf:"gender_female"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshMS is how often system gauges are refreshed.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":3000",
		AllowedOrigin:         "*",
		StoreBackend:          BackendAuto,
		DataFile:              "data.json",
		MongoDatabase:         "riskpoll",
		MongoCollection:       "submissions",
		MongoConnectTimeoutMS: 5000,
		BadgerPath:            "data.badger",
		GenderMale:            "male",
		GenderFemale:          "female",
		MetricsEnabled:        true,
		MetricsRefreshMS:      10000,
	}
}

// MongoConnectTimeout returns the connect timeout as a duration.
func (c *Config) MongoConnectTimeout() time.Duration {
	return time.Duration(c.MongoConnectTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns the gauge refresh interval as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	switch c.StoreBackend {
	case BackendAuto, BackendFile:
		if c.DataFile == "" {
			return invalid("data_file must not be empty")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return invalid("mongo_uri is required for the mongo backend")
		}
	case BackendBadger:
		if c.BadgerPath == "" {
			return invalid("badger_path is required for the badger backend")
		}
	default:
		return invalid(fmt.Sprintf("unknown store_backend %q", c.StoreBackend))
	}
	if c.GenderMale == "" || c.GenderFemale == "" {
		return invalid("gender literals must not be empty")
	}
	if c.GenderMale == c.GenderFemale {
		return invalid("gender_male and gender_female must differ")
	}
	if c.MetricsRefreshMS <= 0 {
		return invalid("metrics_refresh_ms must be positive")
	}
	return nil
}
