package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/segyhp/finance-ledger/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application. Every key is a flat environment
// variable; sections only group them.
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
	Business  BusinessConfig  `mapstructure:",squash"`
	Health    HealthConfig    `mapstructure:",squash"`
	Lock      LockConfig      `mapstructure:",squash"`
}

type ServerConfig struct {
	Port            string `mapstructure:"SERVER_PORT"`
	Host            string `mapstructure:"SERVER_HOST"`
	Env             string `mapstructure:"ENV"`
	ReadTimeout     string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout    string `mapstructure:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout string `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig selects the store. STORE=memory runs without Postgres.
type DatabaseConfig struct {
	Store          string `mapstructure:"STORE"`
	URL            string `mapstructure:"DATABASE_URL"`
	Host           string `mapstructure:"DATABASE_HOST"`
	Port           string `mapstructure:"DATABASE_PORT"`
	Name           string `mapstructure:"DATABASE_NAME"`
	User           string `mapstructure:"DATABASE_USER"`
	Password       string `mapstructure:"DATABASE_PASSWORD"`
	SSLMode        string `mapstructure:"DATABASE_SSLMODE"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	CacheTTL string `mapstructure:"SCHEDULE_CACHE_TTL"`
}

// SchedulerConfig drives cmd/scheduler. An empty MetricsAddr turns the /metrics listener off.
type SchedulerConfig struct {
	OverdueCron  string `mapstructure:"SCHEDULER_OVERDUE_CRON"`
	ReminderCron string `mapstructure:"SCHEDULER_REMINDER_CRON"`
	Timezone     string `mapstructure:"SCHEDULER_TIMEZONE"`
	MetricsAddr  string `mapstructure:"SCHEDULER_METRICS_ADDR"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type BusinessConfig struct {
	DefaultInterestRate   string `mapstructure:"DEFAULT_INTEREST_RATE"`
	DefaultTerm           int    `mapstructure:"DEFAULT_TERM"`
	DefaultInterestMethod string `mapstructure:"DEFAULT_INTEREST_METHOD"`
	ReminderWindowDays    int    `mapstructure:"REMINDER_WINDOW_DAYS"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

// LockConfig picks the per-loan lock. LOCK_BACKEND=redis shares locks across instances.
type LockConfig struct {
	Backend string `mapstructure:"LOCK_BACKEND"`
	TTL     string `mapstructure:"LOCK_TTL"`
	Wait    string `mapstructure:"LOCK_WAIT"`
	Retry   string `mapstructure:"LOCK_RETRY"`
}

var defaults = map[string]any{
	"SERVER_PORT":             "8080",
	"SERVER_HOST":             "0.0.0.0",
	"ENV":                     "development",
	"SERVER_READ_TIMEOUT":     "15s",
	"SERVER_WRITE_TIMEOUT":    "15s",
	"SERVER_SHUTDOWN_TIMEOUT": "30s",
	"STORE":                   "postgres",
	"DATABASE_URL":            "",
	"DATABASE_HOST":           "",
	"DATABASE_PORT":           "5432",
	"DATABASE_NAME":           "finance_ledger",
	"DATABASE_USER":           "",
	"DATABASE_PASSWORD":       "",
	"DATABASE_SSLMODE":        "disable",
	"MIGRATIONS_PATH":         "file://migrations",
	"REDIS_ADDR":              "",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"SCHEDULE_CACHE_TTL":      "10m",
	"SCHEDULER_OVERDUE_CRON":  "0 1 * * *",
	"SCHEDULER_REMINDER_CRON": "0 8 * * *",
	"SCHEDULER_TIMEZONE":      "UTC",
	"SCHEDULER_METRICS_ADDR":  ":9091",
	"LOG_LEVEL":               "info",
	"LOG_FORMAT":              "json",
	"DEFAULT_INTEREST_RATE":   "12",
	"DEFAULT_TERM":            12,
	"DEFAULT_INTEREST_METHOD": string(domain.InterestMethodAmortized),
	"REMINDER_WINDOW_DAYS":    3,
	"HEALTH_CHECK_TIMEOUT":    "5s",
	"LOCK_BACKEND":            "memory",
	"LOCK_TTL":                "30s",
	"LOCK_WAIT":               "10s",
	"LOCK_RETRY":              "50ms",
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Populate the process environment so migrate and the scheduler see the same values
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Read from environment variables
	v.AutomaticEnv()

	// Try to read from .env file (optional)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Store {
	case "postgres":
		if c.Database.DSN() == "" {
			return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required when STORE=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE must be postgres or memory, got %q", c.Database.Store)
	}

	if c.Business.DefaultTerm <= 0 {
		return fmt.Errorf("DEFAULT_TERM must be greater than 0")
	}

	if c.Business.ReminderWindowDays <= 0 {
		return fmt.Errorf("REMINDER_WINDOW_DAYS must be greater than 0")
	}

	rate, err := decimal.NewFromString(c.Business.DefaultInterestRate)
	if err != nil {
		return fmt.Errorf("DEFAULT_INTEREST_RATE must be a valid decimal: %w", err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("DEFAULT_INTEREST_RATE must not be negative")
	}

	if !domain.InterestMethod(c.Business.DefaultInterestMethod).IsValid() {
		return fmt.Errorf("DEFAULT_INTEREST_METHOD must be FLAT_RATE or AMORTIZED, got %q", c.Business.DefaultInterestMethod)
	}

	switch c.Lock.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when LOCK_BACKEND=redis")
		}
	default:
		return fmt.Errorf("LOCK_BACKEND must be memory or redis, got %q", c.Lock.Backend)
	}

	durations := map[string]string{
		"SERVER_READ_TIMEOUT":     c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":    c.Server.WriteTimeout,
		"SERVER_SHUTDOWN_TIMEOUT": c.Server.ShutdownTimeout,
		"SCHEDULE_CACHE_TTL":      c.Redis.CacheTTL,
		"HEALTH_CHECK_TIMEOUT":    c.Health.Timeout,
		"LOCK_TTL":                c.Lock.TTL,
		"LOCK_WAIT":               c.Lock.Wait,
		"LOCK_RETRY":              c.Lock.Retry,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s must be a valid duration: %w", key, err)
		}
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid location: %w", err)
	}

	return nil
}

// DSN returns DATABASE_URL, or a lib/pq connection string assembled from the parts
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Host == "" {
		return ""
	}

	parts := []string{
		"host=" + d.Host,
		"port=" + d.Port,
		"dbname=" + d.Name,
		"sslmode=" + d.SSLMode,
	}
	if d.User != "" {
		parts = append(parts, "user="+d.User)
	}
	if d.Password != "" {
		parts = append(parts, "password="+d.Password)
	}
	return strings.Join(parts, " ")
}

// MigrationURL is the URL form golang-migrate needs
func (d DatabaseConfig) MigrationURL() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetDefaultInterestRate returns the default annual rate in percent
func (c *Config) GetDefaultInterestRate() decimal.Decimal {
	rate, _ := decimal.NewFromString(c.Business.DefaultInterestRate)
	return rate
}

func (c *Config) GetDefaultInterestMethod() domain.InterestMethod {
	return domain.InterestMethod(c.Business.DefaultInterestMethod)
}

func (c *Config) GetReadTimeout() time.Duration     { return mustDuration(c.Server.ReadTimeout) }
func (c *Config) GetWriteTimeout() time.Duration    { return mustDuration(c.Server.WriteTimeout) }
func (c *Config) GetShutdownTimeout() time.Duration { return mustDuration(c.Server.ShutdownTimeout) }
func (c *Config) GetCacheTTL() time.Duration        { return mustDuration(c.Redis.CacheTTL) }
func (c *Config) GetLockTTL() time.Duration         { return mustDuration(c.Lock.TTL) }
func (c *Config) GetLockWait() time.Duration        { return mustDuration(c.Lock.Wait) }
func (c *Config) GetLockRetry() time.Duration       { return mustDuration(c.Lock.Retry) }

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	return mustDuration(c.Health.Timeout)
}

// GetSchedulerLocation falls back to UTC for an unknown zone
func (c *Config) GetSchedulerLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func mustDuration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}
