package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Name            string        `yaml:"name" envconfig:"APP_NAME"`
	Port            string        `yaml:"port" envconfig:"APP_PORT"`
	Env             string        `yaml:"env" envconfig:"APP_ENV"`
	LogLevel        string        `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat       string        `yaml:"log_format" envconfig:"LOG_FORMAT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"APP_SHUTDOWN_TIMEOUT"`
}

func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

type PostgresConfig struct {
	Host            string        `yaml:"host" envconfig:"DB_HOST"`
	Port            string        `yaml:"port" envconfig:"DB_PORT"`
	User            string        `yaml:"user" envconfig:"DB_USER"`
	Password        string        `yaml:"password" envconfig:"DB_PASSWORD"`
	DBName          string        `yaml:"dbname" envconfig:"DB_NAME"`
	SSLMode         string        `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	Schema          string        `yaml:"schema" envconfig:"DB_SCHEMA"`
	MaxConns        int32         `yaml:"max_conns" envconfig:"DB_MAX_CONNS"`
	MinConns        int32         `yaml:"min_conns" envconfig:"DB_MIN_CONNS"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" envconfig:"DB_MAX_CONN_LIFETIME"`
	AutoMigrate     bool          `yaml:"auto_migrate" envconfig:"DB_AUTO_MIGRATE"`
}

type AuthConfig struct {
	SessionTTL   time.Duration `yaml:"session_ttl" envconfig:"AUTH_SESSION_TTL"`
	CookieName   string        `yaml:"cookie_name" envconfig:"AUTH_COOKIE_NAME"`
	CookieMaxAge time.Duration `yaml:"cookie_max_age" envconfig:"AUTH_COOKIE_MAX_AGE"`
}

type RabbitConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"RABBIT_ENABLED"`
	URL      string `yaml:"url" envconfig:"RABBIT_URL"`
	Exchange string `yaml:"exchange" envconfig:"RABBIT_EXCHANGE"`
}

type AssignmentConfig struct {
	// Mode is "atomic" or "concurrent".
	Mode string `yaml:"mode" envconfig:"ASSIGNMENT_MODE"`
}

type OrdersConfig struct {
	StrictTransitions bool `yaml:"strict_transitions" envconfig:"ORDERS_STRICT_TRANSITIONS"`
}

type ReportsConfig struct {
	Timezone    string `yaml:"timezone" envconfig:"REPORTS_TIMEZONE"`
	DefaultDays int    `yaml:"default_days" envconfig:"REPORTS_DEFAULT_DAYS"`
}

type Config struct {
	App        AppConfig        `yaml:"app"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Auth       AuthConfig       `yaml:"auth"`
	Rabbit     RabbitConfig     `yaml:"rabbitmq"`
	Assignment AssignmentConfig `yaml:"assignment"`
	Orders     OrdersConfig     `yaml:"orders"`
	Reports    ReportsConfig    `yaml:"reports"`
}

const (
	AssignmentModeAtomic     = "atomic"
	AssignmentModeConcurrent = "concurrent"
)

func defaults() Config {
	var cfg Config
	cfg.App.Name = "ops-service"
	cfg.App.Port = "8080"
	cfg.App.Env = "development"
	cfg.App.LogLevel = "info"
	cfg.App.LogFormat = "console"
	cfg.App.ShutdownTimeout = 15 * time.Second

	cfg.Postgres.Port = "5432"
	cfg.Postgres.SSLMode = "disable"
	cfg.Postgres.Schema = "ops"
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute

	cfg.Auth.SessionTTL = 24 * time.Hour
	cfg.Auth.CookieName = "ops-access-token"
	cfg.Auth.CookieMaxAge = 7 * 24 * time.Hour

	cfg.Rabbit.Exchange = "ops.events"

	cfg.Assignment.Mode = AssignmentModeAtomic

	cfg.Reports.Timezone = "Local"
	cfg.Reports.DefaultDays = 7
	return cfg
}

// NewConfig builds the configuration from defaults, an optional .env file,
// an optional YAML file named by CONFIG_FILE and finally the environment.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return Load(os.Getenv("CONFIG_FILE"))
}

func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	// Sections are processed one by one so envconfig does not prefix the
	// variable names with the section name.
	sections := []any{&cfg.App, &cfg.Postgres, &cfg.Auth, &cfg.Rabbit, &cfg.Assignment, &cfg.Orders, &cfg.Reports}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Postgres.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Postgres.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Postgres.DBName == "" {
		missing = append(missing, "DB_NAME")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	switch c.Assignment.Mode {
	case AssignmentModeAtomic, AssignmentModeConcurrent:
	default:
		return fmt.Errorf("unknown assignment mode %q", c.Assignment.Mode)
	}

	if c.Rabbit.Enabled && c.Rabbit.URL == "" {
		return errors.New("RABBIT_URL is required when RABBIT_ENABLED is set")
	}

	if c.Reports.DefaultDays <= 0 {
		return fmt.Errorf("reports default days must be positive, got %d", c.Reports.DefaultDays)
	}

	if _, err := time.LoadLocation(c.Reports.Timezone); err != nil {
		return fmt.Errorf("invalid reports timezone %q: %w", c.Reports.Timezone, err)
	}

	return nil
}

// ReportLocation resolves the calendar used for daily report buckets.
func (c *Config) ReportLocation() *time.Location {
	loc, err := time.LoadLocation(c.Reports.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
