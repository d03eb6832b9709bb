package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/releasetrack/pkg/mail"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.True(t, cfg.Server.HSTS)
	require.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 6432, cfg.Database.Postgres.Port)
	require.Equal(t, "tracker", cfg.Database.Postgres.Database)

	require.Equal(t, "smtp", cfg.Email.Transport)
	require.Equal(t, "releases@example.com", cfg.Email.From)
	require.Equal(t, "Release Desk", cfg.Email.FromName)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	require.Equal(t, 465, cfg.Email.SMTP.Port)
	require.Equal(t, "provider-key", cfg.Email.SMTP.Password)
	require.True(t, cfg.Email.SMTP.SSL)
	require.Equal(t, 15*time.Second, cfg.Email.Relay.Timeout)

	require.Equal(t, "https://releasetrack.example.com", cfg.Notifications.AppURL)
	require.False(t, cfg.Notifications.ExcludeActor)

	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)

	require.Equal(t, []string{"https://releasetrack.example.com", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, 10, cfg.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Window)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, 180, cfg.Maintenance.LogRetentionDays)
	require.Equal(t, "@daily", cfg.Maintenance.LogSchedule)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/releasetrack.sqlite", cfg.Database.Path)
	require.Equal(t, mail.TransportSMTP, cfg.Email.Transport)
	require.True(t, cfg.Notifications.ExcludeActor)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 30, cfg.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.RateLimit.Window)
	require.Zero(t, cfg.Maintenance.LogRetentionDays)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("RELEASETRACK_SERVER_PORT", "7070")
	t.Setenv("RELEASETRACK_EMAIL_FROM", "ops@example.com")
	t.Setenv("RELEASETRACK_EMAIL_SMTP_PASSWORD", "env-key")
	t.Setenv("RELEASETRACK_DATABASE_DSN", "file:env.sqlite")
	t.Setenv("RELEASETRACK_CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "ops@example.com", cfg.Email.From)
	require.Equal(t, "env-key", cfg.Email.SMTP.Password)
	require.Equal(t, "file:env.sqlite", cfg.Database.DSN)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	content := []byte("server:\n  port: 70000\nemail:\n  transport: carrier-pigeon\n  from: nobody\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "server.port")
	require.Contains(t, err.Error(), "email.transport")
	require.Contains(t, err.Error(), "email.from")
}

func TestEmailConfigAdapter(t *testing.T) {
	cfg := EmailConfig{
		Transport: " Relay ",
		From:      "no-reply@example.com",
		FromName:  "ReleaseTrack",
		SMTP: SMTPConfig{
			Host:     "smtp.example.com",
			Port:     2525,
			Username: "user",
			Password: "pass",
			SSL:      true,
		},
		Relay: RelayConfig{URL: " http://127.0.0.1:8080 ", Timeout: 5 * time.Second},
	}

	settings := cfg.Settings()
	require.Equal(t, mail.TransportRelay, settings.Transport)
	require.Equal(t, "no-reply@example.com", settings.From)
	require.Equal(t, "smtp.example.com", settings.SMTP.Host)
	require.Equal(t, 2525, settings.SMTP.Port)
	require.Equal(t, "pass", settings.SMTP.Password)
	require.True(t, settings.SMTP.SSL)
	require.Equal(t, "http://127.0.0.1:8080", settings.Relay.URL)
	require.Equal(t, 5*time.Second, settings.Relay.Timeout)
	require.True(t, settings.ProviderConfigured())
}

func TestDatabaseConfigAdapter(t *testing.T) {
	sqlite := DatabaseConfig{Path: " ./data/test.sqlite "}.ConnectionConfig()
	require.Equal(t, "sqlite", sqlite.Driver)
	require.Equal(t, "./data/test.sqlite", sqlite.Path)

	pg := DatabaseConfig{
		Driver:   "PostgreSQL",
		Postgres: DBAuthConfig{Host: "db", Port: 5432, Database: "rt", Username: "rt", Password: "pw"},
	}.ConnectionConfig()
	require.Equal(t, "postgres", pg.Driver)
	require.Equal(t, "db", pg.Host)
	require.Equal(t, 5432, pg.Port)
	require.Equal(t, "rt", pg.Name)
	require.Equal(t, "pw", pg.Password)

	my := DatabaseConfig{Driver: "mariadb", MySQL: DBAuthConfig{Host: "mysql", Port: 3306}}.ConnectionConfig()
	require.Equal(t, "mysql", my.Driver)
	require.Equal(t, "mysql", my.Host)

	unknown := DatabaseConfig{Driver: "oracle"}.ConnectionConfig()
	require.Equal(t, "oracle", unknown.Driver)
}

func TestLoadConfigPath(t *testing.T) {
	cfg, err := LoadConfigPath(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)

	cfg, err = LoadConfigPath("testdata")
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)

	_, err = LoadConfigPath(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}
