package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port string

	// Auth; empty disables bearer checks.
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Request limits
	MaxUploadBytes int64
	RateLimit      float64 // requests per second, 0 disables
	RateBurst      int

	// Job state
	JobTTL time.Duration

	// Output
	LatexClass string

	// PDF
	PDFFallbackPdftotext bool

	LogLevel string
}

// fileConfig mirrors Config for the optional TOML file. Zero values leave the
// default in place.
type fileConfig struct {
	Port                 string  `toml:"port"`
	APIKey               string  `toml:"api_key"`
	WorkerCount          int     `toml:"worker_count"`
	MaxQueueSize         int     `toml:"max_queue_size"`
	MaxUploadBytes       int64   `toml:"max_upload_bytes"`
	RateLimit            float64 `toml:"rate_limit"`
	RateBurst            int     `toml:"rate_burst"`
	JobTTL               string  `toml:"job_ttl"`
	LatexClass           string  `toml:"latex_class"`
	PDFFallbackPdftotext *bool   `toml:"pdf_fallback_pdftotext"`
	LogLevel             string  `toml:"log_level"`
}

const (
	defaultPort           = "8090"
	defaultWorkerCount    = 4
	defaultMaxQueueSize   = 100
	defaultMaxUploadBytes = 1 << 20 // 1MB; memos are small
	defaultRateLimit      = 20
	defaultRateBurst      = 40
	defaultJobTTL         = time.Hour
	defaultLatexClass     = "armymemo-notikz"
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                 defaultPort,
		WorkerCount:          defaultWorkerCount,
		MaxQueueSize:         defaultMaxQueueSize,
		MaxUploadBytes:       defaultMaxUploadBytes,
		RateLimit:            defaultRateLimit,
		RateBurst:            defaultRateBurst,
		JobTTL:               defaultJobTTL,
		LatexClass:           defaultLatexClass,
		PDFFallbackPdftotext: true,
		LogLevel:             "info",
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// AMD_CONFIG (if set), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("AMD_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("AMD_API_KEY", cfg.APIKey)
	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.RateLimit = envFloat("RATE_LIMIT", cfg.RateLimit)
	cfg.RateBurst = envInt("RATE_BURST", cfg.RateBurst)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)
	cfg.LatexClass = envOr("LATEX_CLASS", cfg.LatexClass)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
	cfg.LogLevel = strings.ToLower(envOr("LOG_LEVEL", cfg.LogLevel))

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = defaultMaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = defaultJobTTL
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if f.Port != "" {
		c.Port = f.Port
	}
	if f.APIKey != "" {
		c.APIKey = f.APIKey
	}
	if f.WorkerCount != 0 {
		c.WorkerCount = f.WorkerCount
	}
	if f.MaxQueueSize != 0 {
		c.MaxQueueSize = f.MaxQueueSize
	}
	if f.MaxUploadBytes != 0 {
		c.MaxUploadBytes = f.MaxUploadBytes
	}
	if f.RateLimit != 0 {
		c.RateLimit = f.RateLimit
	}
	if f.RateBurst != 0 {
		c.RateBurst = f.RateBurst
	}
	if f.JobTTL != "" {
		d, err := time.ParseDuration(f.JobTTL)
		if err != nil {
			return fmt.Errorf("parse config %s: job_ttl: %w", path, err)
		}
		c.JobTTL = d
	}
	if f.LatexClass != "" {
		c.LatexClass = f.LatexClass
	}
	if f.PDFFallbackPdftotext != nil {
		c.PDFFallbackPdftotext = *f.PDFFallbackPdftotext
	}
	if f.LogLevel != "" {
		c.LogLevel = strings.ToLower(f.LogLevel)
	}
	return nil
}

var classNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.WorkerCount, validation.Required, validation.Max(256)),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.LatexClass, validation.Required, validation.Match(classNameRe)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
