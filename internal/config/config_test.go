package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
environment: production
timezone: Europe/London
database:
  host: db.internal
  user: vendorconnect
  name: vendorconnect
mail:
  host: smtp.internal
  from_address: noreply@vendorconnect.test
jobs:
  deadlines:
    overdue_dedup: 12h
  schedules:
    check-task-deadlines: "0 */5 * * * *"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.Deadlines.DueSoonHorizon)
	assert.Equal(t, time.Hour, cfg.Jobs.Deadlines.DueSoonDedup)
	assert.Equal(t, 12*time.Hour, cfg.Jobs.Deadlines.OverdueDedup)
	assert.Equal(t, 5*time.Minute, cfg.Jobs.Digest.GracePeriod)
	assert.Equal(t, 30, cfg.Jobs.Archive.DefaultDays)
	assert.Equal(t, "Europe/London", cfg.Location().String())

	assert.Equal(t, "0 */5 * * * *", cfg.Jobs.Schedule("check-task-deadlines"))
	assert.Equal(t, "0 5 0 * * *", cfg.Jobs.Schedule("generate-repeating-tasks"))
}

func TestLoadConfigSecretsFromEnvironment(t *testing.T) {
	t.Setenv("VC_DB_PASSWORD", "s3cret")
	t.Setenv("VC_MAIL_PASSWORD", "mailpass")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "mailpass", cfg.Mail.Password)
	assert.Contains(t, cfg.Database.DSN(), "password=s3cret")
}

func TestLoadConfigValidation(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
timezone: Nowhere/Special
database:
  host: db
  user: u
  name: n
mail:
  host: smtp
  from_address: noreply@vendorconnect.test
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")

	_, err = LoadConfig(writeConfig(t, `
database:
  host: db
  user: u
  name: n
mail:
  host: smtp
  from_address: not-an-address
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FromAddress")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
