package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env           string
	HTTPAddr      string
	DatabaseURL   string
	JWTSecret     string
	AdminLogin    string
	AdminPassHash string
	Source        SourceConfig
	S3            S3Config
	Import        ImportConfig
	Worker        WorkerConfig
	Logging       LoggingConfig
}

type SourceConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateRPS   float64
	RateBurst int
}

type S3Config struct {
	Endpoint       string
	PublicEndpoint string
	Bucket         string
	AccessKey      string
	SecretKey      string
	Region         string
	UseSSL         bool
}

// ImportConfig holds the mapping defaults handed to the importer. Values can
// be overridden by a YAML file named in IMPORT_DEFAULTS_FILE.
type ImportConfig struct {
	Locale          string `yaml:"locale"`
	Timezone        string `yaml:"timezone"`
	Region          string `yaml:"region"`
	Currency        string `yaml:"currency"`
	AddonMinCount   int    `yaml:"addon_min_count"`
	VoucherMaxUsage int    `yaml:"voucher_max_usages"`
	SourceDomain    string `yaml:"source_domain"`
	AssetPrefix     string `yaml:"asset_prefix"`
}

type WorkerConfig struct {
	PollInterval time.Duration
	StaleAfter   time.Duration
	MaxAttempts  int
}

type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// Load reads the environment and requires a database. A .env file in the
// working directory is applied first without overriding variables that are
// already set.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// Read is Load for commands that never touch the database.
func Read() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:           getenv("APP_ENV", "dev"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AdminLogin:    os.Getenv("ADMIN_LOGIN"),
		AdminPassHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		Source: SourceConfig{
			BaseURL:   getenv("SOURCE_BASE_URL", "https://www.xing-events.com/api/"),
			Timeout:   getenvDuration("SOURCE_TIMEOUT", 30*time.Second),
			RateRPS:   getenvFloat("SOURCE_RATE_RPS", 5),
			RateBurst: getenvInt("SOURCE_RATE_BURST", 5),
		},
		S3: S3Config{
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			Bucket:         os.Getenv("S3_BUCKET"),
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getenv("S3_REGION", "us-east-1"),
			UseSSL:         getenvBool("S3_USE_SSL", true),
		},
		Import: DefaultImportConfig(),
		Worker: WorkerConfig{
			PollInterval: getenvDuration("WORKER_POLL_INTERVAL", 5*time.Second),
			StaleAfter:   getenvDuration("WORKER_STALE_AFTER", 30*time.Minute),
			MaxAttempts:  getenvInt("WORKER_MAX_ATTEMPTS", 3),
		},
		Logging: LoggingConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "text"),
			File:   os.Getenv("LOG_FILE"),
		},
	}
	cfg.Import.AssetPrefix = getenv("ASSET_KEY_PREFIX", cfg.Import.AssetPrefix)

	if path := os.Getenv("IMPORT_DEFAULTS_FILE"); path != "" {
		if err := loadImportDefaults(path, &cfg.Import); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// DefaultImportConfig returns the built-in mapping defaults.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		Locale:          "de",
		Timezone:        "Europe/Berlin",
		Region:          "DE",
		Currency:        "EUR",
		AddonMinCount:   0,
		VoucherMaxUsage: 10000000,
		SourceDomain:    "xing-events.com",
		AssetPrefix:     "pub",
	}
}

func loadImportDefaults(path string, dst *ImportConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import defaults: %w", err)
	}
	overlay := *dst
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse import defaults: %w", err)
	}
	if strings.TrimSpace(overlay.Locale) == "" || strings.TrimSpace(overlay.Timezone) == "" {
		return fmt.Errorf("import defaults: locale and timezone must not be empty")
	}
	if _, err := time.LoadLocation(overlay.Timezone); err != nil {
		return fmt.Errorf("import defaults: %w", err)
	}
	*dst = overlay
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return parsed
}
