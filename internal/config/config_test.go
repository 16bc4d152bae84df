package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("COOKIE_SECRET", testSecret)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "log", cfg.SMS.Provider)
	assert.Equal(t, []string{"/", "/tutorial", "/signup"}, cfg.Variant.Routes)
	assert.False(t, cfg.Database.UseDatabase())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.GetServerAddr())
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": 9000},
		"database": {"host": "db", "user": "ops", "password": "pw"},
		"sms": {"provider": "sns"},
		"security": {"cookie_secret": "`+testSecret+`"}
	}`)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("TUTORIAL_SESSION_TTL", "45m")
	t.Setenv("ALLOWED_ORIGINS", "https://opsapp.co, https://www.opsapp.co")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "sns", cfg.SMS.Provider)
	assert.Equal(t, 45*time.Minute, cfg.Tutorial.SessionTTL)
	assert.Equal(t, []string{"https://opsapp.co", "https://www.opsapp.co"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Database.UseDatabase())
	assert.Equal(t, "postgres://ops:pw@db:5432/ops_web?sslmode=disable", cfg.Database.GetDatabaseURL())
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("COOKIE_SECRET", testSecret)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad json", file: `{"server":`},
		{name: "missing secret", file: `{}`, env: map[string]string{"COOKIE_SECRET": ""}},
		{name: "short secret", env: map[string]string{"COOKIE_SECRET": "short"}},
		{name: "bad port", env: map[string]string{"COOKIE_SECRET": testSecret, "SERVER_PORT": "http"}},
		{name: "bad duration", env: map[string]string{"COOKIE_SECRET": testSecret, "BUBBLE_TIMEOUT": "soon"}},
		{name: "twilio without credentials", env: map[string]string{"COOKIE_SECRET": testSecret, "SMS_PROVIDER": "twilio"}},
		{name: "unknown sms provider", env: map[string]string{"COOKIE_SECRET": testSecret, "SMS_PROVIDER": "pigeon"}},
		{name: "unknown email provider", env: map[string]string{"COOKIE_SECRET": testSecret, "EMAIL_PROVIDER": "fax"}},
		{name: "unknown archive format", file: `{"security":{"cookie_secret":"` + testSecret + `"},"analytics":{"archive_format":"pdf"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}
