// Package config loads the shutdownd configuration file.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	validator "gopkg.in/go-playground/validator.v9"
	"gopkg.in/yaml.v3"

	"github.com/serverless/shutdownd/postgres"
	"github.com/serverless/shutdownd/registry"
	"github.com/serverless/shutdownd/watcher"
)

// DSNEnv overrides the PostgreSQL connection string so that it can stay out of files and argv.
const DSNEnv = "SHUTDOWND_POSTGRES_DSN"

// Config is the complete server configuration.
type Config struct {
	LogLevel string          `yaml:"logLevel" validate:"oneof=debug info warn error"`
	Registry registry.Config `yaml:"registry"`
	Postgres postgres.Config `yaml:"postgres"`
	Catalog  Catalog         `yaml:"catalog"`
	Watcher  Watcher         `yaml:"watcher"`
	API      API             `yaml:"api"`
}

// Catalog selects where database configuration is read from.
type Catalog struct {
	Backend string   `yaml:"backend" validate:"oneof=postgres etcd"`
	Etcd    []string `yaml:"etcd"`
	Prefix  string   `yaml:"prefix"`
}

// Watcher configures how watchers run.
type Watcher struct {
	Interval     time.Duration `yaml:"interval" validate:"min=0"`
	Spawner      string        `yaml:"spawner" validate:"oneof=process local"`
	StartTimeout time.Duration `yaml:"startTimeout" validate:"min=0"`
}

// API configures the admin API.
type API struct {
	Port      uint   `yaml:"port" validate:"min=1,max=65535"`
	TLSCert   string `yaml:"tlsCert"`
	TLSKey    string `yaml:"tlsKey"`
	JWTSecret string `yaml:"jwtSecret"`
}

// ErrInvalidConfig occurs when the configuration doesn't validate.
type ErrInvalidConfig struct {
	Message string
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("Configuration doesn't validate. Validation error: %q", e.Message)
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Registry: registry.Config{
			Path:     "/dev/shm/shutdownd.registry",
			Capacity: registry.DefaultCapacity,
		},
		Postgres: postgres.Config{
			MaxConns:       4,
			ConnectTimeout: 5 * time.Second,
		},
		Catalog: Catalog{
			Backend: "postgres",
			Prefix:  "/shutdownd",
		},
		Watcher: Watcher{
			Interval:     watcher.DefaultInterval,
			Spawner:      "process",
			StartTimeout: 10 * time.Second,
		},
		API: API{
			Port: 4002,
		},
	}
}

// Load reads the file at path over the defaults and validates the result. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		byt, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
		if err := cfg.decode(byt); err != nil {
			return nil, err
		}
	}
	if dsn := os.Getenv(DSNEnv); dsn != "" {
		cfg.Postgres.DSN = dsn
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(byt []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(byt))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return fmt.Errorf("cannot parse config: %w", err)
	}
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterStructValidation(catalogValidator, Catalog{})
	if err := validate.Struct(c); err != nil {
		return &ErrInvalidConfig{Message: err.Error()}
	}
	return nil
}

// catalogValidator requires etcd endpoints for the etcd backend
func catalogValidator(sl validator.StructLevel) {
	catalog := sl.Current().Interface().(Catalog)
	if catalog.Backend == "etcd" && len(catalog.Etcd) == 0 {
		sl.ReportError(catalog.Etcd, "Etcd", "etcd", "required_if_etcd", "")
	}
}
