// Package config reads the service settings once at startup.
//
// Settings come from, in order of precedence, command line flags, the
// environment (optionally seeded from a .env file) and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys understood by Load. Flags use the same names with dashes.
const (
	KeyDatabaseURL  = "database_url"
	KeyDBDriver     = "db_driver"
	KeyDBMaxConns   = "db_max_conns"
	KeyListenAddr   = "listen_addr"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
	KeyInitSchema   = "init_schema"
	KeyOTelEndpoint = "otel_endpoint"
	KeyServiceName  = "service_name"
)

type Config struct {
	DatabaseURL  string
	DBDriver     string
	DBMaxConns   int
	ListenAddr   string
	LogLevel     string
	LogFormat    string
	InitSchema   bool
	OTelEndpoint string
	ServiceName  string
}

var ErrMissingDatabaseURL = errors.New("DATABASE_URL must be set")

// NewViper returns a viper instance with defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDBDriver, "pgx")
	v.SetDefault(KeyDBMaxConns, 10)
	v.SetDefault(KeyListenAddr, "127.0.0.1:8080")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyInitSchema, false)
	v.SetDefault(KeyServiceName, "post-service")

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyOTelEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	return v
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:  v.GetString(KeyDatabaseURL),
		DBDriver:     strings.ToLower(v.GetString(KeyDBDriver)),
		DBMaxConns:   v.GetInt(KeyDBMaxConns),
		ListenAddr:   v.GetString(KeyListenAddr),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
		InitSchema:   v.GetBool(KeyInitSchema),
		OTelEndpoint: v.GetString(KeyOTelEndpoint),
		ServiceName:  v.GetString(KeyServiceName),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	switch c.DBDriver {
	case "pgx", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DBDriver)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("db max conns must be positive, got %d", c.DBMaxConns)
	}
	if c.ListenAddr == "" {
		return errors.New("listen address must not be empty")
	}
	return nil
}

var loadDotEnvOnce sync.Once

// LoadDotEnv loads .env from the working directory once, if it exists.
// Variables already set in the environment win.
func LoadDotEnv() {
	loadDotEnvOnce.Do(func() {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		if err := godotenv.Load(); err != nil {
			log.Printf("dotenv: failed to load .env: %v", err)
		}
	})
}
