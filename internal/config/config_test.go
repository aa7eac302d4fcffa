package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsWithoutFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHATAPP_JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(dir, FileName), filepath.Join(dir, EnvFileName))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.PollIntervalMs)
	assert.Equal(t, 100, cfg.MessageWindow)
	assert.True(t, cfg.SelfContained)
	assert.Equal(t, "./database.db", cfg.SqlitePath)
	assert.Equal(t, "s3cret", cfg.JwtSecret)
	assert.Equal(t, 15, int(cfg.CacheTTL().Minutes()))
	assert.Equal(t, int64(3000), cfg.PollInterval().Milliseconds())
}

func TestLoadFileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, FileName, `{"Port": "8080", "PollIntervalMs": 1500, "JwtSecret": "from-file", "LogLevel": "debug"}`)
	envFile := writeFile(t, dir, EnvFileName, "CHATAPP_PORT=9090\n")

	t.Setenv("CHATAPP_JWT_SECRET", "from-env")
	t.Setenv("CHATAPP_SELF_CONTAINED", "true")
	// godotenv sets variables for the whole process
	t.Cleanup(func() { _ = os.Unsetenv("CHATAPP_PORT") })

	cfg, err := Load(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 1500, cfg.PollIntervalMs)
	assert.Equal(t, "from-env", cfg.JwtSecret)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 100, cfg.MessageWindow, "fields missing from the file keep their default")
}

func TestLoadRejects(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(writeFile(t, dir, "broken.json", `{"Port": `), filepath.Join(dir, EnvFileName))
	assert.Error(t, err)

	t.Setenv("CHATAPP_POLL_INTERVAL_MS", "soon")
	_, err = Load(filepath.Join(dir, FileName), filepath.Join(dir, EnvFileName))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.JwtSecret = "x"
	assert.NoError(t, Validate(cfg))

	bad := cfg
	bad.PollIntervalMs = 0
	bad.MessageWindow = -1
	bad.LogLevel = "loud"
	err := Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PollIntervalMs")
	assert.Contains(t, err.Error(), "MessageWindow")

	remote := cfg
	remote.SelfContained = false
	assert.Error(t, Validate(remote))
}
