package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// EncryptionKeyEnvVar is the environment variable the upstream decryption
// codec reads from (spec.md §6, "Environment"). It is read directly via
// os.Getenv rather than through viper, since it is a secret that must
// never round-trip through a config file or Unmarshal.
const EncryptionKeyEnvVar = "EROAMING_ENCRYPTION_KEY"

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// PartnerCacheConfig configures the partnercache.Cache (spec.md §4.1).
type PartnerCacheConfig struct {
	Capacity int    `mapstructure:"capacity"`
	TTL      string `mapstructure:"ttl"`
}

// BreakerConfig configures every circuitbreaker.CircuitBreaker the
// registry allocates (spec.md §4.2).
type BreakerConfig struct {
	WindowSize                int     `mapstructure:"window_size"`
	MinimumCalls              int     `mapstructure:"minimum_calls"`
	FailureRateThreshold      float64 `mapstructure:"failure_rate_threshold"`
	SlowCallRateThreshold     float64 `mapstructure:"slow_call_rate_threshold"`
	SlowCallDurationThreshold string  `mapstructure:"slow_call_duration_threshold"`
	OpenStateDuration         string  `mapstructure:"open_state_duration"`
	PermittedHalfOpenCalls    int     `mapstructure:"permitted_half_open_calls"`
	EvictionQuietPeriod       string  `mapstructure:"eviction_quiet_period"`
	SweepInterval             string  `mapstructure:"sweep_interval"`
}

// BroadcastConfig configures the broadcast.Orchestrator (spec.md §4.4).
type BroadcastConfig struct {
	Deadline string `mapstructure:"deadline"`
}

// WorkerPoolConfig configures the shared workerpool.Pool (spec.md §5,
// "Worker pool sizing").
type WorkerPoolConfig struct {
	CoreSize  int    `mapstructure:"core_size"`
	MaxSize   int    `mapstructure:"max_size"`
	QueueSize int    `mapstructure:"queue_size"`
	KeepAlive string `mapstructure:"keep_alive"`
}

// DatabaseConfig configures sqlrepo.Repository's backing Postgres pool.
// DSN is expected to carry its own credentials; it is not validated for
// content beyond being non-empty when Database.Enabled is true.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	PartnerCache PartnerCacheConfig `mapstructure:"partner_cache"`
	Breaker      BreakerConfig      `mapstructure:"breaker"`
	Broadcast    BroadcastConfig    `mapstructure:"broadcast"`
	WorkerPool   WorkerPoolConfig   `mapstructure:"worker_pool"`
	Database     DatabaseConfig     `mapstructure:"database"`
}

// Load reads config.yaml (if present) from ./config or ., overlays
// environment variables, applies spec.md's literal defaults, and
// validates the result.
func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("logging.level", LogLevelInfo)

	viper.SetDefault("partner_cache.capacity", 100)
	viper.SetDefault("partner_cache.ttl", "30m")

	viper.SetDefault("breaker.window_size", 10)
	viper.SetDefault("breaker.minimum_calls", 5)
	viper.SetDefault("breaker.failure_rate_threshold", 0.5)
	viper.SetDefault("breaker.slow_call_rate_threshold", 0.5)
	viper.SetDefault("breaker.slow_call_duration_threshold", "2s")
	viper.SetDefault("breaker.open_state_duration", "10s")
	viper.SetDefault("breaker.permitted_half_open_calls", 3)
	viper.SetDefault("breaker.eviction_quiet_period", "24h")
	viper.SetDefault("breaker.sweep_interval", "1h")

	viper.SetDefault("broadcast.deadline", "5s")

	viper.SetDefault("worker_pool.core_size", 10)
	viper.SetDefault("worker_pool.max_size", 50)
	viper.SetDefault("worker_pool.queue_size", 100)
	viper.SetDefault("worker_pool.keep_alive", "60s")

	viper.SetDefault("database.enabled", false)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server, validation.Required, validation.By(validateServerConfig)),
		validation.Field(&c.Logging, validation.Required, validation.By(validateLoggingConfig)),
		validation.Field(&c.PartnerCache, validation.Required, validation.By(validatePartnerCacheConfig)),
		validation.Field(&c.Breaker, validation.Required, validation.By(validateBreakerConfig)),
		validation.Field(&c.Broadcast, validation.Required, validation.By(validateBroadcastConfig)),
		validation.Field(&c.WorkerPool, validation.Required, validation.By(validateWorkerPoolConfig)),
		validation.Field(&c.Database, validation.By(validateDatabaseConfig)),
	)
}

// CacheTTL parses PartnerCache.TTL, already validated to parse cleanly.
func (c *Config) CacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.PartnerCache.TTL)
	return d
}

// BroadcastDeadline parses Broadcast.Deadline.
func (c *Config) BroadcastDeadline() time.Duration {
	d, _ := time.ParseDuration(c.Broadcast.Deadline)
	return d
}

// WorkerPoolKeepAlive parses WorkerPool.KeepAlive.
func (c *Config) WorkerPoolKeepAlive() time.Duration {
	d, _ := time.ParseDuration(c.WorkerPool.KeepAlive)
	return d
}

// EncryptionKey reads the decryption key from the environment, never from
// a config file (spec.md §6, "Environment").
func EncryptionKey() string {
	return os.Getenv(EncryptionKeyEnvVar)
}

func validateServerConfig(value interface{}) error {
	sc, ok := value.(ServerConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a ServerConfig")
	}
	return validation.ValidateStruct(&sc,
		validation.Field(&sc.Environment, validation.Required, validation.In(EnvDev, EnvStaging, EnvProd)),
		validation.Field(&sc.Address, validation.Required, validation.By(validateHostPort)),
	)
}

func validateLoggingConfig(value interface{}) error {
	lc, ok := value.(LoggingConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
	}
	return validation.ValidateStruct(&lc,
		validation.Field(&lc.Level, validation.Required, validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)),
	)
}

func validatePartnerCacheConfig(value interface{}) error {
	pc, ok := value.(PartnerCacheConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a PartnerCacheConfig")
	}
	return validation.ValidateStruct(&pc,
		validation.Field(&pc.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&pc.TTL, validation.Required, validation.By(validateDuration)),
	)
}

func validateBreakerConfig(value interface{}) error {
	bc, ok := value.(BreakerConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a BreakerConfig")
	}
	return validation.ValidateStruct(&bc,
		validation.Field(&bc.WindowSize, validation.Required, validation.Min(1)),
		validation.Field(&bc.MinimumCalls, validation.Required, validation.Min(1)),
		validation.Field(&bc.FailureRateThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&bc.SlowCallRateThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&bc.SlowCallDurationThreshold, validation.Required, validation.By(validateDuration)),
		validation.Field(&bc.OpenStateDuration, validation.Required, validation.By(validateDuration)),
		validation.Field(&bc.PermittedHalfOpenCalls, validation.Required, validation.Min(1)),
		validation.Field(&bc.EvictionQuietPeriod, validation.Required, validation.By(validateDuration)),
		validation.Field(&bc.SweepInterval, validation.Required, validation.By(validateDuration)),
	)
}

func validateBroadcastConfig(value interface{}) error {
	broadcastCfg, ok := value.(BroadcastConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a BroadcastConfig")
	}
	return validation.ValidateStruct(&broadcastCfg,
		validation.Field(&broadcastCfg.Deadline, validation.Required, validation.By(validateDuration)),
	)
}

func validateWorkerPoolConfig(value interface{}) error {
	wp, ok := value.(WorkerPoolConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a WorkerPoolConfig")
	}
	if err := validation.ValidateStruct(&wp,
		validation.Field(&wp.CoreSize, validation.Required, validation.Min(1)),
		validation.Field(&wp.MaxSize, validation.Required, validation.Min(1)),
		validation.Field(&wp.QueueSize, validation.Required, validation.Min(1)),
		validation.Field(&wp.KeepAlive, validation.Required, validation.By(validateDuration)),
	); err != nil {
		return err
	}
	if wp.MaxSize < wp.CoreSize {
		return validation.NewError("validation_invalid_worker_pool", "max_size must be >= core_size")
	}
	return nil
}

func validateDatabaseConfig(value interface{}) error {
	dbCfg, ok := value.(DatabaseConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a DatabaseConfig")
	}
	if !dbCfg.Enabled {
		return nil
	}
	return validation.ValidateStruct(&dbCfg,
		validation.Field(&dbCfg.DSN, validation.Required),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}
	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}
	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}
	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", fmt.Sprintf("must be a valid duration: %v", err))
	}
	return nil
}
