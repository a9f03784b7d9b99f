package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/vendorconnect/jobs/pkg/validator"
)

type Config struct {
	Environment string         `mapstructure:"environment" validate:"oneof=development staging production"`
	Log         LogConfig      `mapstructure:"log"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Mail        MailConfig     `mapstructure:"mail"`
	Server      ServerConfig   `mapstructure:"server"`
	Jobs        JobsConfig     `mapstructure:"jobs"`
	Timezone    string         `mapstructure:"timezone" validate:"required"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	User            string        `mapstructure:"user" validate:"required"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required"`
	SSLMode         string        `mapstructure:"sslmode" validate:"oneof=disable require verify-ca verify-full"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url" validate:"required_if=Enabled true"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type MailConfig struct {
	Host        string  `mapstructure:"host" validate:"required"`
	Port        int     `mapstructure:"port" validate:"required,min=1,max=65535"`
	Username    string  `mapstructure:"username"`
	Password    string  `mapstructure:"password"`
	FromAddress string  `mapstructure:"from_address" validate:"required,email"`
	FromName    string  `mapstructure:"from_name"`
	AppURL      string  `mapstructure:"app_url" validate:"omitempty,url"`
	RatePerSec  float64 `mapstructure:"rate_per_second" validate:"gt=0"`
	Burst       int     `mapstructure:"burst" validate:"min=1"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type JobsConfig struct {
	Deadlines DeadlineConfig           `mapstructure:"deadlines"`
	Digest    DigestConfig             `mapstructure:"digest"`
	Archive   ArchiveConfig            `mapstructure:"archive"`
	Schedules map[string]string        `mapstructure:"schedules"`
	Timeouts  map[string]time.Duration `mapstructure:"timeouts"`
}

type DeadlineConfig struct {
	DueSoonHorizon time.Duration `mapstructure:"due_soon_horizon" validate:"gt=0"`
	DueSoonDedup   time.Duration `mapstructure:"due_soon_dedup" validate:"gt=0"`
	OverdueDedup   time.Duration `mapstructure:"overdue_dedup" validate:"gt=0"`
}

type DigestConfig struct {
	GracePeriod  time.Duration `mapstructure:"grace_period" validate:"gte=0"`
	PreviewLimit int           `mapstructure:"preview_limit" validate:"min=1"`
}

type ArchiveConfig struct {
	DefaultDays int           `mapstructure:"default_days" validate:"min=1"`
	SettingsTTL time.Duration `mapstructure:"settings_ttl" validate:"gte=0"`
}

// secrets are read from the environment last, so a deployed config.yml never
// has to carry them.
type secrets struct {
	DatabasePassword string `envconfig:"DB_PASSWORD"`
	DatabaseHost     string `envconfig:"DB_HOST"`
	MailUsername     string `envconfig:"MAIL_USERNAME"`
	MailPassword     string `envconfig:"MAIL_PASSWORD"`
	RedisURL         string `envconfig:"REDIS_URL"`
}

const envPrefix = "VC"

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from_name", "VendorConnect")
	v.SetDefault("mail.rate_per_second", 5)
	v.SetDefault("mail.burst", 1)
	v.SetDefault("server.port", 8081)
	v.SetDefault("jobs.deadlines.due_soon_horizon", "24h")
	v.SetDefault("jobs.deadlines.due_soon_dedup", "1h")
	v.SetDefault("jobs.deadlines.overdue_dedup", "24h")
	v.SetDefault("jobs.digest.grace_period", "5m")
	v.SetDefault("jobs.digest.preview_limit", 10)
	v.SetDefault("jobs.archive.default_days", 30)
	v.SetDefault("jobs.archive.settings_ttl", "5m")
	v.SetDefault("jobs.schedules", DefaultSchedules())
}

// DefaultSchedules are the cron specs used by the schedule command.
func DefaultSchedules() map[string]string {
	return map[string]string{
		"generate-repeating-tasks":     "0 5 0 * * *",
		"check-task-deadlines":         "0 */15 * * * *",
		"send-scheduled-notifications": "0 * * * * *",
		"send-unread-digests":          "0 */5 * * * *",
		"auto-archive-tasks":           "0 30 2 * * *",
		"calculate-project-metrics":    "0 0 3 * * *",
	}
}

// LoadConfig reads config.yml from path, or from the usual locations when
// path is empty.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app/config")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applySecrets(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applySecrets(cfg *Config) error {
	var s secrets
	if err := envconfig.Process(envPrefix, &s); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if s.DatabasePassword != "" {
		cfg.Database.Password = s.DatabasePassword
	}
	if s.DatabaseHost != "" {
		cfg.Database.Host = s.DatabaseHost
	}
	if s.MailUsername != "" {
		cfg.Mail.Username = s.MailUsername
	}
	if s.MailPassword != "" {
		cfg.Mail.Password = s.MailPassword
	}
	if s.RedisURL != "" {
		cfg.Redis.URL = s.RedisURL
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Validate(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid config: timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Schedule returns the cron spec for job, falling back to the default.
func (c *JobsConfig) Schedule(job string) string {
	if spec, ok := c.Schedules[job]; ok && strings.TrimSpace(spec) != "" {
		return spec
	}
	return DefaultSchedules()[job]
}

// Timeout returns the per-run timeout for job; zero means none.
func (c *JobsConfig) Timeout(job string) time.Duration {
	return c.Timeouts[job]
}
