package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/charlesng35/releasetrack/pkg/mail"
)

// EnvPrefix prefixes every environment override, e.g. RELEASETRACK_EMAIL_FROM.
const EnvPrefix = "RELEASETRACK"

// Config represents the runtime configuration for the ReleaseTrack backend.
type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Email         EmailConfig        `mapstructure:"email"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	CORS          CORSConfig         `mapstructure:"cors"`
	RateLimit     RateLimitConfig    `mapstructure:"rate_limit"`
	Maintenance   MaintenanceConfig  `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server that hosts the API and the email relay.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	HSTS            bool          `mapstructure:"hsts"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// EmailConfig captures outbound email settings.
type EmailConfig struct {
	Transport string      `mapstructure:"transport"`
	From      string      `mapstructure:"from"`
	FromName  string      `mapstructure:"from_name"`
	SMTP      SMTPConfig  `mapstructure:"smtp"`
	Relay     RelayConfig `mapstructure:"relay"`
}

// SMTPConfig defines the provider connection. Password carries the provider API key.
type SMTPConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	SSL                bool   `mapstructure:"ssl"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
}

// RelayConfig points the relay transport at a running relay process.
type RelayConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NotificationConfig tunes the notification pipeline.
type NotificationConfig struct {
	AppURL       string `mapstructure:"app_url"`
	ExcludeActor bool   `mapstructure:"exclude_actor"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig lists browser origins allowed to call the API and relay.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig throttles the relay endpoint per client IP.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// MaintenanceConfig controls background housekeeping jobs.
type MaintenanceConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	LogRetentionDays int    `mapstructure:"log_retention_days"`
	LogSchedule      string `mapstructure:"log_schedule"`
	BannerSchedule   string `mapstructure:"banner_schedule"`
}

// LoadConfig reads config.yaml from ./config and the supplied paths, then applies
// RELEASETRACK_* environment overrides. A missing file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigPath loads configuration from a directory or from the directory holding
// a config file. An empty path falls back to the default search locations.
func LoadConfigPath(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return LoadConfig()
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return LoadConfig(path)
	case err == nil:
		return LoadConfig(filepath.Dir(path))
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config path %q does not exist", path)
	default:
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = multierr.Append(errs, fmt.Errorf("config: server.port %d out of range", c.Server.Port))
	}

	switch strings.ToLower(strings.TrimSpace(c.Email.Transport)) {
	case mail.TransportSMTP, mail.TransportRelay, mail.TransportDisabled:
	default:
		errs = multierr.Append(errs, fmt.Errorf("config: unsupported email.transport %q", c.Email.Transport))
	}

	if from := strings.TrimSpace(c.Email.From); from != "" && !mail.ValidAddress(from) {
		errs = multierr.Append(errs, fmt.Errorf("config: email.from %q is not an email address", from))
	}

	if c.RateLimit.Requests < 0 {
		errs = multierr.Append(errs, errors.New("config: rate_limit.requests cannot be negative"))
	}

	if c.Maintenance.LogRetentionDays < 0 {
		errs = multierr.Append(errs, errors.New("config: maintenance.log_retention_days cannot be negative"))
	}

	return errs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.hsts", false)
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/releasetrack.sqlite")
	v.SetDefault("database.dsn", "")
	for _, driver := range []string{"postgres", "mysql"} {
		v.SetDefault("database."+driver+".host", "")
		v.SetDefault("database."+driver+".database", "releasetrack")
		v.SetDefault("database."+driver+".username", "")
		v.SetDefault("database."+driver+".password", "")
	}
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.mysql.port", 3306)

	v.SetDefault("email.transport", mail.TransportSMTP)
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "ReleaseTrack")
	v.SetDefault("email.smtp.host", "")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.smtp.ssl", false)
	v.SetDefault("email.smtp.insecure_skip_verify", false)
	v.SetDefault("email.relay.url", "http://127.0.0.1:8080")
	v.SetDefault("email.relay.timeout", "15s")

	v.SetDefault("notifications.app_url", "http://localhost:5173")
	v.SetDefault("notifications.exclude_actor", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("cors.allowed_origins", []string{})

	v.SetDefault("rate_limit.requests", 30)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.log_retention_days", 0)
	v.SetDefault("maintenance.log_schedule", "@daily")
	v.SetDefault("maintenance.banner_schedule", "@hourly")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
