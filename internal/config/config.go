// Package config loads the service configuration from the environment.
//
// Variables use the BOOKS_ prefix and a double underscore for nesting, so
// BOOKS_DB__DRIVER ends up in Config.DB.Driver. A .env file is read first
// when present; real environment variables win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "BOOKS_"
	envFileVar = "BOOKS_ENV_FILE"
)

type Config struct {
	App  AppConfig  `koanf:"app"`
	HTTP HTTPConfig `koanf:"http"`
	DB   DBConfig   `koanf:"db"`
	Log  LogConfig  `koanf:"log"`
}

type AppConfig struct {
	Env     string `koanf:"env" validate:"required"`
	GinMode string `koanf:"gin_mode" validate:"oneof=debug release test"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	TrustedProxies  []string      `koanf:"trusted_proxies"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DBConfig struct {
	Driver          string        `koanf:"driver" validate:"oneof=sqlite mysql postgres"`
	Path            string        `koanf:"path" validate:"required_if=Driver sqlite"`
	Host            string        `koanf:"host" validate:"required_unless=Driver sqlite"`
	Port            int           `koanf:"port" validate:"omitempty,min=1,max=65535"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name" validate:"required_unless=Driver sqlite"`
	SSLMode         string        `koanf:"ssl_mode"`
	TimeZone        string        `koanf:"time_zone"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectAttempts int           `koanf:"connect_attempts" validate:"min=1"`
	ConnectDelay    time.Duration `koanf:"connect_delay"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// Default returns the configuration used for every key the environment
// leaves unset: a local sqlite file and console logging.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Env:     "development",
			GinMode: "debug",
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			TrustedProxies:  []string{"127.0.0.1", "::1"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		DB: DBConfig{
			Driver:          "sqlite",
			Path:            "books.db",
			SSLMode:         "disable",
			TimeZone:        "UTC",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectAttempts: 10,
			ConnectDelay:    2 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads .env (when present) and the BOOKS_ environment into a
// validated Config.
func Load() (*Config, error) {
	envFile := os.Getenv(envFileVar)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	return FromEnv()
}

// FromEnv builds the Config from the process environment only.
func FromEnv() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.DB.Driver = strings.ToLower(cfg.DB.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// IsProduction reports whether App.Env names a production deployment.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN renders the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DB.Driver {
	case "mysql":
		return c.mysqlDSN()
	case "postgres":
		return c.postgresDSN()
	default:
		return c.sqliteDSN()
	}
}

func (c *Config) sqliteDSN() string {
	if strings.HasPrefix(c.DB.Path, "file:") {
		return c.DB.Path
	}
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", "5000")
	return "file:" + c.DB.Path + "?" + q.Encode()
}

func (c *Config) mysqlDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DB.User
	mc.Passwd = c.DB.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.DB.Host, strconv.Itoa(c.portOr(3306)))
	mc.DBName = c.DB.Name
	mc.ParseTime = true
	// Without it MySQL reports changed rows, and an UPDATE writing the
	// current values would look like a missing row.
	mc.ClientFoundRows = true
	return mc.FormatDSN()
}

func (c *Config) postgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.DB.Host,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.portOr(5432),
		c.DB.SSLMode,
		c.DB.TimeZone,
	)
}

func (c *Config) portOr(def int) int {
	if c.DB.Port > 0 {
		return c.DB.Port
	}
	return def
}
