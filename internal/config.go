package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server" env:",prefix=SERVER_"`
	Database      DatabaseConfig      `mapstructure:"database" env:",prefix=DATABASE_"`
	Security      SecurityConfig      `mapstructure:"security" env:",prefix=SECURITY_"`
	Observability ObservabilityConfig `mapstructure:"observability" env:",prefix=OBSERVABILITY_"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port" env:"PORT,default=8080"`
	BaseURL      string        `mapstructure:"base_url" env:"BASE_URL"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" env:"READ_TIMEOUT,default=10s"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" env:"WRITE_TIMEOUT,default=10s"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" env:"IDLE_TIMEOUT,default=60s"`
}

type DatabaseConfig struct {
	// Driver selects the store backend: postgres, sqlite or memory. The
	// memory store satisfies the same contract and needs no Source.
	Driver          string        `mapstructure:"driver" env:"DRIVER,default=memory"`
	Source          string        `mapstructure:"source" env:"SOURCE"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" env:"MAX_OPEN_CONNS,default=10"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" env:"MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"CONN_MAX_LIFETIME,default=30m"`
}

type SecurityConfig struct {
	SessionSecret   string        `mapstructure:"session_secret" env:"SESSION_SECRET"`
	SessionDuration time.Duration `mapstructure:"session_duration" env:"SESSION_DURATION,default=30m"`
	BCryptCost      int           `mapstructure:"bcrypt_cost" env:"BCRYPT_COST,default=10"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics" env:",prefix=METRICS_"`
	Logging LoggingConfig `mapstructure:"logging" env:",prefix=LOGGING_"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" env:"ENABLED,default=true"`
	Path    string `mapstructure:"path" env:"PATH,default=/metrics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" env:"LEVEL,default=info"`
	Format string `mapstructure:"format" env:"FORMAT,default=text"`
}

// LoadConfigFromEnv populates the config from environment variables, used
// for container deployments where no config file is mounted.
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}
	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "memory":
		return nil
	case "postgres", "sqlite":
		if c.Source == "" {
			return fmt.Errorf("source is required for driver %s", c.Driver)
		}
		if c.MaxIdleConns > c.MaxOpenConns {
			return errors.New("max_idle_conns cannot be greater than max_open_conns")
		}
		return nil
	}
	return fmt.Errorf("unknown driver %q", c.Driver)
}

func (c *SecurityConfig) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}
	if c.BCryptCost < bcrypt.MinCost || c.BCryptCost > 15 {
		return fmt.Errorf("bcrypt cost %d out of range", c.BCryptCost)
	}
	if c.SessionDuration < time.Minute {
		return errors.New("session duration must be at least 1 minute")
	}
	return nil
}
