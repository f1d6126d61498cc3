package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AMD_CONFIG", "PORT", "AMD_API_KEY", "WORKER_COUNT", "MAX_QUEUE_SIZE",
		"MAX_UPLOAD_BYTES", "RATE_LIMIT", "RATE_BURST", "JOB_TTL", "LATEX_CLASS",
		"PDF_FALLBACK_PDFTOTEXT", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("JOB_TTL", "10m")
	t.Setenv("LATEX_CLASS", "armymemo")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 10*time.Minute, cfg.JobTTL)
	assert.Equal(t, "armymemo", cfg.LatexClass)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_ClampsNonPositive(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("MAX_QUEUE_SIZE", "-1")
	t.Setenv("JOB_TTL", "-5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultWorkerCount, cfg.WorkerCount)
	assert.Equal(t, defaultMaxQueueSize, cfg.MaxQueueSize)
	assert.Equal(t, defaultJobTTL, cfg.JobTTL)
}

func TestLoad_TOMLFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "amd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = "7000"
worker_count = 2
job_ttl = "30m"
latex_class = "armymemo"
pdf_fallback_pdftotext = false
`), 0o600))
	t.Setenv("AMD_CONFIG", path)
	t.Setenv("WORKER_COUNT", "6")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, 6, cfg.WorkerCount, "env wins over file")
	assert.Equal(t, 30*time.Minute, cfg.JobTTL)
	assert.Equal(t, "armymemo", cfg.LatexClass)
	assert.False(t, cfg.PDFFallbackPdftotext)
}

func TestLoad_BadTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "amd.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = \n"), 0o600))
	t.Setenv("AMD_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("AMD_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = "http" }},
		{"empty class", func(c *Config) { c.LatexClass = "" }},
		{"class with brace", func(c *Config) { c.LatexClass = "memo}" }},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
