package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAppName        = "CurationLedger"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultAccessTTL      = 15 * time.Minute
	defaultRefreshTTL     = 7 * 24 * time.Hour
	defaultTokenName      = "Graph Curation Share"
	defaultTokenSymbol    = "GCS"
	defaultEventStream    = "curation:transfers"
)

// Config captures application runtime configuration loaded from environment
// variables and, optionally, a config file named by CONFIG_FILE.
type Config struct {
	AppName        string
	Env            string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	DBMaxConns        int32
	DBMaxConnLifetime time.Duration
	RedisPoolSize     int
	RedisTimeout      time.Duration

	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	GovernorAddress string
	GovernorSecret  string
	TokenName       string
	TokenSymbol     string

	EventStream       string
	EventStreamMaxLen int64
	MigrateOnStart    bool
}

// Load reads configuration values and populates a Config instance.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", defaultAppName)
	v.SetDefault("APP_ENV", defaultAppEnv)
	v.SetDefault("PORT", defaultPort)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("TOKEN_NAME", defaultTokenName)
	v.SetDefault("TOKEN_SYMBOL", defaultTokenSymbol)
	v.SetDefault("EVENT_STREAM", defaultEventStream)
	v.SetDefault("EVENT_STREAM_MAXLEN", 0)
	v.SetDefault("MIGRATE_ON_START", false)

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		AppName:           v.GetString("APP_NAME"),
		Env:               v.GetString("APP_ENV"),
		Port:              v.GetString("PORT"),
		LogLevel:          strings.ToLower(v.GetString("LOG_LEVEL")),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		RedisURL:          v.GetString("REDIS_URL"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		RefreshSecret:     v.GetString("REFRESH_SECRET"),
		GovernorAddress:   strings.TrimSpace(v.GetString("GOVERNOR_ADDRESS")),
		GovernorSecret:    v.GetString("GOVERNOR_SECRET"),
		TokenName:         v.GetString("TOKEN_NAME"),
		TokenSymbol:       v.GetString("TOKEN_SYMBOL"),
		EventStream:       v.GetString("EVENT_STREAM"),
		EventStreamMaxLen: v.GetInt64("EVENT_STREAM_MAXLEN"),
		MigrateOnStart:    v.GetBool("MIGRATE_ON_START"),
		DBMaxConns:        v.GetInt32("DB_MAX_CONNS"),
		RedisPoolSize:     v.GetInt("REDIS_POOL_SIZE"),
	}

	var err error
	if cfg.ShutdownPeriod, err = duration(v, "SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = duration(v, "IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxConnLifetime, err = duration(v, "DB_MAX_CONN_LIFETIME", 0); err != nil {
		return Config{}, err
	}
	if cfg.RedisTimeout, err = duration(v, "REDIS_TIMEOUT", 0); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = duration(v, "ACCESS_TOKEN_TTL", defaultAccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = duration(v, "REFRESH_TOKEN_TTL", defaultRefreshTTL); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GovernorAddress == "" {
		return fmt.Errorf("GOVERNOR_ADDRESS must be set")
	}
	if c.EventStreamMaxLen < 0 {
		return fmt.Errorf("EVENT_STREAM_MAXLEN must not be negative")
	}
	if c.DBMaxConns < 0 || c.RedisPoolSize < 0 {
		return fmt.Errorf("DB_MAX_CONNS and REDIS_POOL_SIZE must not be negative")
	}
	if c.IsDev() {
		if c.JWTSecret == "" {
			c.JWTSecret = "dev-access-secret"
		}
		if c.RefreshSecret == "" {
			c.RefreshSecret = "dev-refresh-secret"
		}
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", c.Env)
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", c.Env)
	}
	if c.JWTSecret == "" || c.RefreshSecret == "" {
		return fmt.Errorf("JWT_SECRET and REFRESH_SECRET must be set when APP_ENV=%s", c.Env)
	}
	if c.GovernorSecret == "" {
		return fmt.Errorf("GOVERNOR_SECRET must be set when APP_ENV=%s", c.Env)
	}
	return nil
}

// duration reads key+"_SECONDS" as whole seconds, falling back to key as a Go
// duration string.
func duration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	secondsKey := key + "_SECONDS"
	if raw := v.GetString(secondsKey); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if raw := v.GetString(key); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

// IsDev reports whether the service runs in a local development environment,
// where Postgres and Redis are optional.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
