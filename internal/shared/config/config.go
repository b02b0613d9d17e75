package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate sources
const (
	RatesLive   = "live"
	RatesStatic = "static"
)

type Config struct {
	Database   DatabaseConfig
	Rates      RatesConfig
	Import     ImportConfig
	Encryption EncryptionConfig
	Firebase   FirebaseConfig
	Telemetry  TelemetryConfig
	Log        LogConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RatesConfig struct {
	Source      string
	PrimaryURL  string
	FallbackURL string
	Timeout     time.Duration
	StaticFile  string
}

type ImportConfig struct {
	RecalcGroupSize int
}

type EncryptionConfig struct {
	Key string
}

type FirebaseConfig struct {
	CredentialsFile string
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	MetricsPort  string
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first; variables already set take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	ratesTimeout, err := time.ParseDuration(getEnv("RATES_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATES_TIMEOUT: %w", err)
	}

	groupSize, err := strconv.Atoi(getEnv("RECALC_GROUP_SIZE", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECALC_GROUP_SIZE: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "moneyflow"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "moneyflow"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Rates: RatesConfig{
			Source:      strings.ToLower(getEnv("RATES_SOURCE", RatesLive)),
			PrimaryURL:  getEnv("RATES_PRIMARY_URL", ""),
			FallbackURL: getEnv("RATES_FALLBACK_URL", ""),
			Timeout:     ratesTimeout,
			StaticFile:  getEnv("RATES_STATIC_FILE", ""),
		},
		Import: ImportConfig{
			RecalcGroupSize: groupSize,
		},
		Encryption: EncryptionConfig{
			Key: getEnv("ENCRYPTION_KEY", ""),
		},
		Firebase: FirebaseConfig{
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "moneyflow"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			MetricsPort:  getEnv("METRICS_PORT", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	// Validate
	switch cfg.Rates.Source {
	case RatesLive:
	case RatesStatic:
		if cfg.Rates.StaticFile == "" {
			return nil, fmt.Errorf("RATES_STATIC_FILE is required when RATES_SOURCE=static")
		}
	default:
		return nil, fmt.Errorf("RATES_SOURCE must be %q or %q, got %q", RatesLive, RatesStatic, cfg.Rates.Source)
	}
	if cfg.Rates.Timeout <= 0 {
		return nil, fmt.Errorf("RATES_TIMEOUT must be positive")
	}
	if cfg.Import.RecalcGroupSize <= 0 {
		return nil, fmt.Errorf("RECALC_GROUP_SIZE must be positive")
	}
	if cfg.Encryption.Key != "" && len(cfg.Encryption.Key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
