package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// InsecureDefaultSecret is the development signing secret. Deployments must override SECRET.
const InsecureDefaultSecret = "this-is-my-secret"

// Supported values of STORE_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

type Config struct {
	Port      string `env:"PORT,       default=3000"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Token TokenConfig
	Store StoreConfig
	Redis RedisConfig
	Roles RolesConfig
}

type TokenConfig struct {
	Secret        string        `env:"SECRET,               default=this-is-my-secret"`
	DefaultWindow time.Duration `env:"TOKEN_DEFAULT_WINDOW, default=1h"`
	MaxWindow     time.Duration `env:"TOKEN_MAX_WINDOW,     default=720h"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER, default=mongo"`
	Mongo  MongoConfig
	SQLite SQLiteConfig
}

type MongoConfig struct {
	URI      string `env:"MONGODB_URI,      default=mongodb://127.0.0.1:27017"`
	Database string `env:"MONGODB_DATABASE, default=app"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=var/bookshelf.db"`
}

// RedisConfig configures the shared role cache. An empty Addr disables it.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type RolesConfig struct {
	CacheSize       int           `env:"ROLE_CACHE_SIZE,       default=64"`
	CacheTTL        time.Duration `env:"ROLE_CACHE_TTL,        default=5m"`
	RefreshSchedule string        `env:"ROLE_REFRESH_SCHEDULE, default=@every 1m"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMongo, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("config: unknown STORE_DRIVER %q", c.Store.Driver))
	}
	if c.Token.Secret == "" {
		errs = append(errs, errors.New("config: SECRET must not be empty"))
	}
	if c.Token.DefaultWindow <= 0 {
		errs = append(errs, errors.New("config: TOKEN_DEFAULT_WINDOW must be positive"))
	}
	if c.Token.MaxWindow < c.Token.DefaultWindow {
		errs = append(errs, errors.New("config: TOKEN_MAX_WINDOW must not be shorter than TOKEN_DEFAULT_WINDOW"))
	}
	if c.Roles.RefreshSchedule == "" {
		errs = append(errs, errors.New("config: ROLE_REFRESH_SCHEDULE must not be empty"))
	}
	return errors.Join(errs...)
}

// InsecureSecret reports whether the development signing secret is in use.
func (c *Config) InsecureSecret() bool {
	return c.Token.Secret == InsecureDefaultSecret
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
